package repository

import (
	"context"
	"database/sql"
	"time"
)

// CalendarRepo manages per-date availability overrides for a room type.
// The table carries a unique key on (room_type_id, date), so writes are
// upserts: a host re-blocking an already blocked date simply updates the
// row.
type CalendarRepo struct {
	db *sql.DB
}

// NewCalendarRepo returns a new CalendarRepo bound to the given database.
func NewCalendarRepo(db *sql.DB) *CalendarRepo { return &CalendarRepo{db: db} }

// Upsert creates or replaces the override for (roomTypeID, date). A nil
// units pointer leaves the room type's default unit count in effect for
// the date (when available is true).
func (r *CalendarRepo) Upsert(ctx context.Context, roomTypeID uint64, date time.Time, available bool, units *int, note string) error {
	const q = `INSERT INTO calendar_overrides (room_type_id, date, available, units, note)
		VALUES (?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE available = VALUES(available), units = VALUES(units), note = VALUES(note)`
	var unitsArg any
	if units != nil {
		unitsArg = *units
	}
	_, err := r.db.ExecContext(ctx, q, roomTypeID, date, available, unitsArg, note)
	return err
}

// Delete removes the override for (roomTypeID, date), restoring the room
// type's default availability. Deleting a date with no override is a
// no-op, not an error.
func (r *CalendarRepo) Delete(ctx context.Context, roomTypeID uint64, date time.Time) error {
	const q = `DELETE FROM calendar_overrides WHERE room_type_id = ? AND date = ?`
	_, err := r.db.ExecContext(ctx, q, roomTypeID, date)
	return err
}
