package repository

import (
	"context"
	"database/sql"
	"errors"
)

// RoomTypeRepo answers ownership questions for host-facing endpoints: a
// host may only manage calendars, rates and reservations that belong to
// one of their own properties.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo returns a new RoomTypeRepo bound to the given database.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

// HostOwnsRoomType verifies that the room type belongs to a property of
// the given host. A missing room type also yields ErrForbidden so probing
// for ids leaks nothing.
func (r *RoomTypeRepo) HostOwnsRoomType(ctx context.Context, hostID, roomTypeID uint64) error {
	const q = `SELECT p.host_id
		FROM room_types rt
		JOIN properties p ON p.id = rt.property_id
		WHERE rt.id = ?`
	var owner uint64
	err := r.db.QueryRowContext(ctx, q, roomTypeID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if owner != hostID {
		return ErrForbidden
	}
	return nil
}

// HostOwnsReservation verifies that the reservation was made against one
// of the host's properties.
func (r *RoomTypeRepo) HostOwnsReservation(ctx context.Context, hostID, reservationID uint64) error {
	const q = `SELECT p.host_id
		FROM reservations res
		JOIN properties p ON p.id = res.property_id
		WHERE res.id = ?`
	var owner uint64
	err := r.db.QueryRowContext(ctx, q, reservationID).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if owner != hostID {
		return ErrForbidden
	}
	return nil
}
