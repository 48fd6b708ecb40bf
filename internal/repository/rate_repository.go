package repository

import (
	"context"
	"database/sql"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// RateRepo manages date-ranged price adjustments for a room type.
// Overrides may overlap; the engine sums every adjustment covering a
// night, so no exclusivity is enforced on write.
type RateRepo struct {
	db *sql.DB
}

// NewRateRepo returns a new RateRepo bound to the given database.
func NewRateRepo(db *sql.DB) *RateRepo { return &RateRepo{db: db} }

// Create inserts a new rate override and populates its generated id.
func (r *RateRepo) Create(ctx context.Context, ov *model.RateOverride) error {
	const q = `INSERT INTO rate_overrides (room_type_id, start_date, end_date, kind, value, note)
		VALUES (?, ?, ?, ?, ?, ?)`
	result, err := r.db.ExecContext(ctx, q,
		ov.RoomTypeID, ov.StartDate, ov.EndDate, string(ov.Kind), ov.Value, ov.Note)
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	ov.ID = uint64(id)
	return nil
}

// Delete removes an override owned by the given host. The ownership join
// is part of the delete so a host cannot remove another host's pricing.
func (r *RateRepo) Delete(ctx context.Context, hostID, overrideID uint64) error {
	const q = `DELETE ro FROM rate_overrides ro
		JOIN room_types rt ON rt.id = ro.room_type_id
		JOIN properties p ON p.id = rt.property_id
		WHERE ro.id = ? AND p.host_id = ?`
	result, err := r.db.ExecContext(ctx, q, overrideID, hostID)
	if err != nil {
		return err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrForbidden
	}
	return nil
}

// ListByRoomType returns every override for the room type ordered by
// start date.
func (r *RateRepo) ListByRoomType(ctx context.Context, roomTypeID uint64) ([]model.RateOverride, error) {
	const q = `SELECT id, room_type_id, start_date, end_date, kind, value, note
		FROM rate_overrides WHERE room_type_id = ? ORDER BY start_date, id`
	rows, err := r.db.QueryContext(ctx, q, roomTypeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.RateOverride
	for rows.Next() {
		var ov model.RateOverride
		var kind string
		var note sql.NullString
		if err := rows.Scan(&ov.ID, &ov.RoomTypeID, &ov.StartDate, &ov.EndDate, &kind, &ov.Value, &note); err != nil {
			return nil, err
		}
		ov.Kind = model.RateOverrideKind(kind)
		ov.Note = note.String
		out = append(out, ov)
	}
	return out, rows.Err()
}
