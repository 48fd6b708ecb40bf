package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// RoomType is a bookable unit category within a property, e.g. "Deluxe
// Room". It is the unit of contention for reservation creation: all
// concurrency control is scoped to one room type and its dates.
//
// Fields:
//
//	Capacity   – maximum guests per unit.
//	TotalUnits – number of physical units of this type; the default
//	             per-date capacity unless a CalendarOverride says otherwise.
//	BasePrice  – exact decimal nightly rate before rate overrides.
//	Currency   – ISO 4217 code inherited by reservations.
type RoomType struct {
	ID         uint64          // room_types.id
	PropertyID uint64          // room_types.property_id
	Name       string          // room_types.name
	Capacity   int             // room_types.capacity
	TotalUnits int             // room_types.total_units
	BasePrice  decimal.Decimal // room_types.base_price
	Currency   string          // room_types.currency
	CreatedAt  time.Time       // room_types.created_at
	UpdatedAt  time.Time       // room_types.updated_at
}
