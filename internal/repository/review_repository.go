package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-sql-driver/mysql"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// ReviewRepo persists guest reviews. The COMPLETED gating check happens in
// the handler via the engine; the unique key on reservation_id is the
// backstop against double submission.
type ReviewRepo struct {
	db *sql.DB
}

// NewReviewRepo returns a new ReviewRepo bound to the given database.
func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{db: db} }

// Create inserts a review and populates its generated id. A second review
// for the same reservation returns ErrConflict.
func (r *ReviewRepo) Create(ctx context.Context, rev *model.Review) error {
	const q = `INSERT INTO reviews (reservation_id, rating, comment, created_at)
		VALUES (?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q, rev.ReservationID, rev.Rating, rev.Comment, rev.CreatedAt)
	if err != nil {
		var me *mysql.MySQLError
		if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
			return ErrConflict
		}
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	rev.ID = uint64(id)
	return nil
}
