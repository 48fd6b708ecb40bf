package booking

import (
	"context"
	"time"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// Event identifies a lifecycle trigger applied to a reservation.
type Event string

const (
	// EventAttachProof records the guest uploading payment evidence.
	EventAttachProof Event = "ATTACH_PROOF"
	// EventVerifyProof records the host accepting the payment evidence.
	EventVerifyProof Event = "VERIFY_PROOF"
	// EventRejectProof records the host rejecting the payment evidence;
	// the held inventory is released.
	EventRejectProof Event = "REJECT_PROOF"
	// EventComplete marks the stay as finished.
	EventComplete Event = "COMPLETE"
	// EventCancel is a guest- or host-initiated cancellation.
	EventCancel Event = "CANCEL"
)

// transitions is the closed edge table of the booking state machine. Any
// (status, event) pair missing here is rejected with
// InvalidTransitionError; terminal states have no entries at all.
var transitions = map[model.ReservationStatus]map[Event]model.ReservationStatus{
	model.StatusWaitingPayment: {
		EventAttachProof: model.StatusWaitingConfirmation,
		EventCancel:      model.StatusCancelled,
	},
	model.StatusWaitingConfirmation: {
		EventVerifyProof: model.StatusProcessing,
		EventRejectProof: model.StatusCancelled,
		EventCancel:      model.StatusCancelled,
	},
	model.StatusProcessing: {
		EventComplete: model.StatusCompleted,
	},
}

// EffectiveStatus resolves the status of a reservation as a pure function
// of time: a WAITING_PAYMENT reservation whose payment window has elapsed
// without a proof is CANCELLED even before any sweep physically updates
// the row. Availability checks and state reads both go through this
// function, so the state field and the inventory it implies never
// disagree.
func EffectiveStatus(res *model.Reservation, hasProof bool, now time.Time) model.ReservationStatus {
	if res.Status == model.StatusWaitingPayment && !hasProof && now.After(res.PaymentDueAt) {
		return model.StatusCancelled
	}
	return res.Status
}

// CanReview gates review creation: a review may only be created once the
// reservation has reached the terminal COMPLETED state.
func CanReview(res *model.Reservation, hasProof bool, now time.Time) bool {
	return EffectiveStatus(res, hasProof, now) == model.StatusCompleted
}

// LifecycleManager owns reservation state transitions, including the
// time-driven expiry of unpaid reservations.
type LifecycleManager struct {
	uow    UnitOfWork
	reader ReservationReader
	now    Clock
}

// NewLifecycleManager constructs a manager. A nil clock defaults to
// time.Now in UTC.
func NewLifecycleManager(uow UnitOfWork, reader ReservationReader, now Clock) *LifecycleManager {
	if uow == nil || reader == nil {
		panic("nil dependency passed to NewLifecycleManager")
	}
	if now == nil {
		now = defaultClock
	}
	return &LifecycleManager{uow: uow, reader: reader, now: now}
}

// Transition applies a lifecycle event to a reservation and returns the
// updated reservation. ref carries the upload reference for
// EventAttachProof and is ignored otherwise.
//
// The decision is made under a row lock with the clock read exactly once,
// so a proof upload racing the payment deadline has one deterministic
// outcome: whichever transaction commits first wins, and the loser
// observes the winner's state. When the window has already lapsed the row
// is physically cancelled in the same transaction and
// ExpiredReservationError is returned.
func (m *LifecycleManager) Transition(ctx context.Context, reservationID uint64, event Event, ref string) (*model.Reservation, error) {
	now := m.now()
	var out *model.Reservation
	var expired *ExpiredReservationError
	err := m.uow.InTx(ctx, func(tx TxStore) error {
		res, proof, err := tx.ReservationForUpdate(ctx, reservationID)
		if err != nil {
			return err
		}
		if res.Status == model.StatusWaitingPayment && proof == nil && now.After(res.PaymentDueAt) {
			// The payment window lapsed before this event arrived: the
			// cancellation wins. Make the expiry physical and commit, then
			// report it to the caller.
			if err := tx.UpdateReservationStatus(ctx, res.ID, model.StatusCancelled); err != nil {
				return err
			}
			expired = &ExpiredReservationError{ReservationID: res.ID, PaymentDueAt: res.PaymentDueAt}
			return nil
		}
		next, ok := transitions[res.Status][event]
		if !ok {
			return &InvalidTransitionError{From: res.Status, Event: event}
		}
		switch event {
		case EventAttachProof:
			if proof != nil {
				return ErrProofAlreadyAttached
			}
			p := &model.PaymentProof{ReservationID: res.ID, UploadRef: ref, UploadedAt: now}
			if err := tx.InsertPaymentProof(ctx, p); err != nil {
				return err
			}
		case EventVerifyProof:
			if proof == nil {
				return &InvalidTransitionError{From: res.Status, Event: event}
			}
			if err := tx.MarkProofVerified(ctx, res.ID, now); err != nil {
				return err
			}
		}
		if err := tx.UpdateReservationStatus(ctx, res.ID, next); err != nil {
			return err
		}
		res.Status = next
		res.UpdatedAt = now
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	if expired != nil {
		return nil, expired
	}
	return out, nil
}

// CurrentState reports a reservation's effective state without writing,
// accounting for un-swept payment expiry.
func (m *LifecycleManager) CurrentState(ctx context.Context, reservationID uint64) (model.ReservationStatus, *model.Reservation, error) {
	res, proof, err := m.reader.Reservation(ctx, reservationID)
	if err != nil {
		return "", nil, err
	}
	return EffectiveStatus(res, proof != nil, m.now()), res, nil
}

// ExpireOverdue physically cancels every reservation whose payment window
// has elapsed without a proof. It is idempotent and safe to run
// concurrently with proof uploads: the store predicate matches
// EffectiveStatus and only touches rows still in WAITING_PAYMENT, under
// the same row locks a racing Transition takes.
func (m *LifecycleManager) ExpireOverdue(ctx context.Context) ([]uint64, error) {
	var ids []uint64
	err := m.uow.InTx(ctx, func(tx TxStore) error {
		var err error
		ids, err = tx.ExpireOverdue(ctx, m.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
