// Package booking implements the reservation and pricing engine:
// availability resolution, exact decimal pricing, atomic reservation
// creation and the booking lifecycle state machine with time-based expiry
// of unpaid reservations. It depends only on the store interfaces in
// store.go; the SQL implementation lives in the repository package.
package booking

import (
	"errors"
	"fmt"
	"time"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// Sentinel errors shared across the engine. Handlers translate these into
// HTTP status codes.
var (
	// ErrRoomTypeNotFound is returned when a room type id does not exist.
	ErrRoomTypeNotFound = errors.New("room type not found")

	// ErrReservationNotFound is returned when a reservation id does not exist.
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrProofAlreadyAttached is returned when a second payment proof is
	// attached to a reservation. The relationship is strictly one-to-one.
	ErrProofAlreadyAttached = errors.New("payment proof already attached")

	// ErrConcurrencyConflict signals transaction or lock contention during
	// reservation creation. The coordinator retries a bounded number of
	// times before surfacing it; callers receiving it should treat the
	// failure as transient, not as a business outcome.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// ValidationError reports malformed input: an inverted or zero-length date
// range, a guest count over capacity, or dates in the past. It is always
// surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}

// AvailabilityError reports insufficient inventory for a requested range.
// BlockedDates lists every night that cannot satisfy the requested unit
// count, so callers can render an actionable message instead of a generic
// failure; UnitsFree is the minimum free count across the range.
type AvailabilityError struct {
	RoomTypeID   uint64
	BlockedDates []time.Time
	UnitsFree    int
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("room type %d unavailable on %d date(s), units free %d",
		e.RoomTypeID, len(e.BlockedDates), e.UnitsFree)
}

// InvalidTransitionError reports lifecycle state machine misuse: a
// transition from a terminal state or an out-of-order event. It indicates
// a caller bug and is never retried or coerced.
type InvalidTransitionError struct {
	From  model.ReservationStatus
	Event Event
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: event %s from status %s", e.Event, e.From)
}

// ExpiredReservationError is returned when an operation targets a
// reservation whose payment window has elapsed without a proof. The
// engine resolves the expiry (marking the row cancelled) before returning,
// so callers never act on stale WAITING_PAYMENT state.
type ExpiredReservationError struct {
	ReservationID uint64
	PaymentDueAt  time.Time
}

func (e *ExpiredReservationError) Error() string {
	return fmt.Sprintf("reservation %d expired: payment was due at %s",
		e.ReservationID, e.PaymentDueAt.UTC().Format(time.RFC3339))
}
