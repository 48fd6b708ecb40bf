package booking

import (
	"context"
	"time"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// AvailabilityResolver answers whether a room type has enough unreserved
// inventory for a requested date range. It is a pure read: it never blocks
// writers beyond normal read consistency.
type AvailabilityResolver struct {
	store Store
	now   Clock
}

// NewAvailabilityResolver constructs a resolver. A nil clock defaults to
// time.Now in UTC.
func NewAvailabilityResolver(store Store, now Clock) *AvailabilityResolver {
	if store == nil {
		panic("nil store passed to NewAvailabilityResolver")
	}
	if now == nil {
		now = defaultClock
	}
	return &AvailabilityResolver{store: store, now: now}
}

// Availability is the outcome of an availability check. UnitsFree is the
// minimum number of free units across all nights in the range, i.e. the
// binding constraint. BlockedDates lists every night that cannot satisfy
// the requested unit count; the range is available only when it is empty.
type Availability struct {
	Available    bool
	UnitsFree    int
	BlockedDates []time.Time
}

// CheckAvailability reports whether requestedUnits units of the room type
// are free on every night of rng. Zero-length and inverted ranges are
// rejected as invalid input.
func (r *AvailabilityResolver) CheckAvailability(ctx context.Context, roomTypeID uint64, rng StayRange, requestedUnits int) (Availability, error) {
	if err := rng.Validate(); err != nil {
		return Availability{}, err
	}
	if requestedUnits < 1 {
		return Availability{}, &ValidationError{Field: "units", Reason: "requested units must be at least 1"}
	}
	rt, err := r.store.RoomType(ctx, roomTypeID)
	if err != nil {
		return Availability{}, err
	}
	return r.resolve(ctx, r.store, rt, rng, requestedUnits)
}

// resolve runs the per-night capacity arithmetic against an arbitrary
// store so the coordinator can re-run the exact same check inside its
// transaction.
func (r *AvailabilityResolver) resolve(ctx context.Context, store Store, rt *model.RoomType, rng StayRange, requestedUnits int) (Availability, error) {
	overrides, err := store.CalendarOverrides(ctx, rt.ID, rng)
	if err != nil {
		return Availability{}, err
	}
	ovByDate := make(map[string]model.CalendarOverride, len(overrides))
	for _, ov := range overrides {
		ovByDate[dateKey(Day(ov.Date))] = ov
	}

	held, err := store.OverlappingReservations(ctx, rt.ID, rng)
	if err != nil {
		return Availability{}, err
	}
	// Committed units per night. A reservation whose payment window has
	// lapsed without a proof is treated as cancelled here even if no sweep
	// has physically updated the row yet.
	now := r.now()
	committed := make(map[string]int)
	for _, h := range held {
		if EffectiveStatus(&h.Reservation, h.HasProof, now) == model.StatusCancelled {
			continue
		}
		stay := StayRange{CheckIn: Day(h.Reservation.CheckIn), CheckOut: Day(h.Reservation.CheckOut)}
		for _, d := range rng.Dates() {
			if stay.Contains(d) {
				committed[dateKey(d)] += h.Reservation.Units
			}
		}
	}

	minFree := -1
	var blocked []time.Time
	for _, d := range rng.Dates() {
		capacity := rt.TotalUnits
		if ov, ok := ovByDate[dateKey(d)]; ok {
			if !ov.Available {
				// Hard-blocked date: capacity is zero regardless of units.
				blocked = append(blocked, d)
				minFree = 0
				continue
			}
			if ov.Units != nil {
				capacity = *ov.Units
			}
		}
		free := capacity - committed[dateKey(d)]
		if free < 0 {
			free = 0
		}
		if minFree < 0 || free < minFree {
			minFree = free
		}
		if free < requestedUnits {
			blocked = append(blocked, d)
		}
	}
	if minFree < 0 {
		minFree = 0
	}
	return Availability{
		Available:    len(blocked) == 0,
		UnitsFree:    minFree,
		BlockedDates: blocked,
	}, nil
}
