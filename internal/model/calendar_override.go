package model

import "time"

// CalendarOverride is a per-date exception to a room type's default
// availability. At most one row exists per (room type, date). When
// Available is false the date cannot be booked at all; otherwise Units, if
// set, replaces the room type's total unit count for that date only.
type CalendarOverride struct {
	ID         uint64    // calendar_overrides.id
	RoomTypeID uint64    // calendar_overrides.room_type_id
	Date       time.Time // calendar_overrides.date (UTC midnight)
	Available  bool      // calendar_overrides.available
	Units      *int      // calendar_overrides.units (nullable)
	Note       string    // calendar_overrides.note
}
