package booking

import (
	"context"
	"time"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// Clock supplies the current time. Constructors accept nil and default to
// time.Now in UTC; tests inject fixed clocks to exercise expiry behavior.
type Clock func() time.Time

func defaultClock() time.Time { return time.Now().UTC() }

// HeldReservation pairs a reservation with whether a payment proof has
// been attached. The proof flag is needed to resolve the reservation's
// effective status without a second round trip.
type HeldReservation struct {
	Reservation model.Reservation
	HasProof    bool
}

// Store is the read surface the engine needs. Implementations return
// reservations whose stored status is not CANCELLED; filtering out
// reservations whose payment window has lapsed (lazy expiry) is the
// engine's job via EffectiveStatus.
type Store interface {
	// RoomType loads a room type by id. Returns ErrRoomTypeNotFound when
	// the id does not exist.
	RoomType(ctx context.Context, id uint64) (*model.RoomType, error)

	// CalendarOverrides returns the per-date overrides for the room type
	// whose dates fall inside rng.
	CalendarOverrides(ctx context.Context, roomTypeID uint64, rng StayRange) ([]model.CalendarOverride, error)

	// RateOverrides returns every rate override for the room type whose
	// half-open range overlaps rng, including all overlapping entries.
	RateOverrides(ctx context.Context, roomTypeID uint64, rng StayRange) ([]model.RateOverride, error)

	// OverlappingReservations returns non-cancelled reservations for the
	// room type whose stay ranges overlap rng.
	OverlappingReservations(ctx context.Context, roomTypeID uint64, rng StayRange) ([]HeldReservation, error)
}

// TxStore extends Store with the writes performed inside a unit of work.
// Implementations back every method with the same transaction.
type TxStore interface {
	Store

	// LockRoomType loads the room type while taking a row lock on it,
	// serializing concurrent writers for the same unit of contention.
	LockRoomType(ctx context.Context, id uint64) (*model.RoomType, error)

	// InsertReservation persists a new reservation and populates its id.
	InsertReservation(ctx context.Context, res *model.Reservation) error

	// ReservationForUpdate loads a reservation row under a row lock,
	// together with its payment proof if one exists. Returns
	// ErrReservationNotFound when the id does not exist.
	ReservationForUpdate(ctx context.Context, id uint64) (*model.Reservation, *model.PaymentProof, error)

	// UpdateReservationStatus moves a reservation to the given status.
	UpdateReservationStatus(ctx context.Context, id uint64, status model.ReservationStatus) error

	// InsertPaymentProof attaches a proof to a reservation. Returns
	// ErrProofAlreadyAttached when one already exists.
	InsertPaymentProof(ctx context.Context, proof *model.PaymentProof) error

	// MarkProofVerified stamps the proof's verification time.
	MarkProofVerified(ctx context.Context, reservationID uint64, at time.Time) error

	// ExpireOverdue marks every WAITING_PAYMENT reservation with
	// payment_due_at before cutoff and no attached proof as CANCELLED,
	// returning the affected reservation ids.
	ExpireOverdue(ctx context.Context, cutoff time.Time) ([]uint64, error)
}

// UnitOfWork runs fn inside a single atomic transaction. The TxStore
// handed to fn is only valid until fn returns; returning an error rolls
// the transaction back. Implementations map backend contention errors to
// ErrConcurrencyConflict.
type UnitOfWork interface {
	InTx(ctx context.Context, fn func(TxStore) error) error
}

// ReservationReader is the non-transactional read surface used for state
// queries and listings.
type ReservationReader interface {
	// Reservation loads a reservation and its proof, if any. Returns
	// ErrReservationNotFound when the id does not exist.
	Reservation(ctx context.Context, id uint64) (*model.Reservation, *model.PaymentProof, error)

	// ReservationsByGuest lists a guest's reservations, newest first.
	ReservationsByGuest(ctx context.Context, guestID uint64) ([]HeldReservation, error)
}
