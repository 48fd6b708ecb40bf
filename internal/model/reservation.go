package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReservationStatus enumerates the booking lifecycle states. The set is
// closed: the transition table lives in the booking package and nothing
// outside it may move a reservation between states.
type ReservationStatus string

const (
	StatusWaitingPayment      ReservationStatus = "WAITING_PAYMENT"
	StatusWaitingConfirmation ReservationStatus = "WAITING_CONFIRMATION"
	StatusProcessing          ReservationStatus = "PROCESSING"
	StatusCompleted           ReservationStatus = "COMPLETED"
	StatusCancelled           ReservationStatus = "CANCELLED"
)

// Terminal reports whether no further lifecycle transitions are possible.
func (s ReservationStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Reservation records a guest's claim on units of a room type for the
// half-open date range [CheckIn, CheckOut). The checkout date does not
// consume a night. Reservations are never deleted; cancellation is a
// terminal status, so availability arithmetic only has to exclude
// cancelled rows.
//
// Exactly one PaymentProof and at most one Review may attach later, both
// referencing the reservation by id.
type Reservation struct {
	ID            uint64            // reservations.id
	ReferenceCode string            // reservations.reference_code (opaque uuid shared with the guest)
	GuestID       uint64            // reservations.guest_id
	PropertyID    uint64            // reservations.property_id
	RoomTypeID    uint64            // reservations.room_type_id
	CheckIn       time.Time         // reservations.check_in (first night, UTC midnight)
	CheckOut      time.Time         // reservations.check_out (exclusive, UTC midnight)
	Guests        int               // reservations.guests
	Units         int               // reservations.units (units held; currently always 1)
	Status        ReservationStatus // reservations.status
	PaymentDueAt  time.Time         // reservations.payment_due_at
	TotalAmount   decimal.Decimal   // reservations.total_amount
	Currency      string            // reservations.currency
	CreatedAt     time.Time         // reservations.created_at
	UpdatedAt     time.Time         // reservations.updated_at
}
