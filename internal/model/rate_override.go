package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateOverrideKind enumerates how a rate override adjusts the nightly
// price. Only flat amounts exist today.
type RateOverrideKind string

// KindNominal adds a flat signed amount to every covered night.
const KindNominal RateOverrideKind = "NOMINAL"

// RateOverride is a date-ranged adjustment to a room type's base nightly
// price. The range is half-open: [StartDate, EndDate). Overrides may
// overlap each other; overlapping adjustments for a night are summed.
type RateOverride struct {
	ID         uint64           // rate_overrides.id
	RoomTypeID uint64           // rate_overrides.room_type_id
	StartDate  time.Time        // rate_overrides.start_date (UTC midnight, inclusive)
	EndDate    time.Time        // rate_overrides.end_date (UTC midnight, exclusive)
	Kind       RateOverrideKind // rate_overrides.kind
	Value      decimal.Decimal  // rate_overrides.value (signed)
	Note       string           // rate_overrides.note
}

// Covers reports whether the night starting at d falls inside the
// override's half-open range. d must already be a UTC midnight.
func (o RateOverride) Covers(d time.Time) bool {
	return !d.Before(o.StartDate) && d.Before(o.EndDate)
}
