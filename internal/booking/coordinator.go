package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// keyedMutex provides one mutex per room type id. Entries are never
// removed; the set of room types is small and long-lived.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uint64]*sync.Mutex)}
}

// Lock acquires the mutex for id and returns its unlock function.
func (k *keyedMutex) Lock(id uint64) (unlock func()) {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &sync.Mutex{}
		k.locks[id] = m
	}
	k.mu.Unlock()
	m.Lock()
	return m.Unlock
}

// CreateRequest carries the input for a new reservation. Units defaults
// to 1 when zero.
type CreateRequest struct {
	GuestID    uint64
	RoomTypeID uint64
	CheckIn    time.Time
	CheckOut   time.Time
	Guests     int
	Units      int
}

// Coordinator is the only inventory-mutating entry point. It executes the
// availability check, the price computation and the reservation insert as
// one atomic unit scoped to the room type, so two concurrent calls for
// overlapping ranges can never both observe pre-reservation availability
// and both succeed when only one should.
//
// Two guards stack: an in-process mutex keyed by room type id keeps a
// single instance from ever contending at the database, and the row lock
// taken by LockRoomType inside the transaction serializes writers across
// instances. Contention surfaces as ErrConcurrencyConflict and is retried
// a bounded number of times.
type Coordinator struct {
	uow      UnitOfWork
	resolver *AvailabilityResolver
	calc     *PriceCalculator
	locks    *keyedMutex
	grace    time.Duration
	now      Clock

	maxRetries int
	backoff    time.Duration
}

// NewCoordinator constructs a coordinator. grace is the payment window
// granted to new reservations (an external policy value, supplied by
// configuration). A nil clock defaults to time.Now in UTC.
func NewCoordinator(uow UnitOfWork, resolver *AvailabilityResolver, calc *PriceCalculator, grace time.Duration, now Clock) *Coordinator {
	if uow == nil || resolver == nil || calc == nil {
		panic("nil dependency passed to NewCoordinator")
	}
	if now == nil {
		now = defaultClock
	}
	return &Coordinator{
		uow:        uow,
		resolver:   resolver,
		calc:       calc,
		locks:      newKeyedMutex(),
		grace:      grace,
		now:        now,
		maxRetries: 3,
		backoff:    25 * time.Millisecond,
	}
}

// CreateReservation validates the request, then atomically re-checks
// availability, prices the stay and inserts a WAITING_PAYMENT reservation.
// Validation failures are reported before any lock is touched;
// availability failures carry the blocking dates and have no side effects.
func (c *Coordinator) CreateReservation(ctx context.Context, req CreateRequest) (*model.Reservation, error) {
	rng := NewStayRange(req.CheckIn, req.CheckOut)
	if err := rng.Validate(); err != nil {
		return nil, err
	}
	if rng.CheckIn.Before(Day(c.now())) {
		return nil, &ValidationError{Field: "check_in", Reason: "check-in date is in the past"}
	}
	if req.Guests < 1 {
		return nil, &ValidationError{Field: "guests", Reason: "guest count must be at least 1"}
	}
	units := req.Units
	if units == 0 {
		units = 1
	}
	if units < 1 {
		return nil, &ValidationError{Field: "units", Reason: "units must be at least 1"}
	}

	unlock := c.locks.Lock(req.RoomTypeID)
	defer unlock()

	var res *model.Reservation
	var err error
	for attempt := 0; ; attempt++ {
		res, err = c.tryCreate(ctx, req, rng, units)
		if err == nil || !errors.Is(err, ErrConcurrencyConflict) || attempt >= c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.backoff * time.Duration(attempt+1)):
		}
	}
	return res, err
}

func (c *Coordinator) tryCreate(ctx context.Context, req CreateRequest, rng StayRange, units int) (*model.Reservation, error) {
	now := c.now()
	var created *model.Reservation
	err := c.uow.InTx(ctx, func(tx TxStore) error {
		rt, err := tx.LockRoomType(ctx, req.RoomTypeID)
		if err != nil {
			return err
		}
		// Capacity is validated against the locked row, not a stale read.
		if req.Guests > rt.Capacity {
			return &ValidationError{
				Field:  "guests",
				Reason: fmt.Sprintf("guest count %d exceeds room capacity %d", req.Guests, rt.Capacity),
			}
		}
		avail, err := c.resolver.resolve(ctx, tx, rt, rng, units)
		if err != nil {
			return err
		}
		if !avail.Available {
			return &AvailabilityError{
				RoomTypeID:   rt.ID,
				BlockedDates: avail.BlockedDates,
				UnitsFree:    avail.UnitsFree,
			}
		}
		quote, err := c.calc.quote(ctx, tx, rt, rng)
		if err != nil {
			return err
		}
		res := &model.Reservation{
			ReferenceCode: uuid.NewString(),
			GuestID:       req.GuestID,
			PropertyID:    rt.PropertyID,
			RoomTypeID:    rt.ID,
			CheckIn:       rng.CheckIn,
			CheckOut:      rng.CheckOut,
			Guests:        req.Guests,
			Units:         units,
			Status:        model.StatusWaitingPayment,
			PaymentDueAt:  now.Add(c.grace),
			TotalAmount:   quote.Total,
			Currency:      quote.Currency,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := tx.InsertReservation(ctx, res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
