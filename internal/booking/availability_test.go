package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloft/lodging-reservation/internal/model"
)

func availabilityFixture(t *testing.T) (*memStore, *AvailabilityResolver, *testClock) {
	t.Helper()
	store := newMemStore()
	store.putRoomType(model.RoomType{
		ID:         1,
		PropertyID: 10,
		Name:       "Garden Bungalow",
		Capacity:   4,
		TotalUnits: 3,
		BasePrice:  dec("150.00"),
		Currency:   "THB",
	})
	clock := newTestClock(date(2026, time.May, 1))
	return store, NewAvailabilityResolver(store, clock.Now), clock
}

func waitingReservation(roomTypeID uint64, checkIn, checkOut time.Time, units int, dueAt time.Time) model.Reservation {
	return model.Reservation{
		GuestID:      7,
		PropertyID:   10,
		RoomTypeID:   roomTypeID,
		CheckIn:      checkIn,
		CheckOut:     checkOut,
		Guests:       2,
		Units:        units,
		Status:       model.StatusWaitingPayment,
		PaymentDueAt: dueAt,
	}
}

func TestCheckAvailabilityAllUnitsFree(t *testing.T) {
	_, resolver, _ := availabilityFixture(t)

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 1)
	require.NoError(t, err)

	assert.True(t, avail.Available)
	assert.Equal(t, 3, avail.UnitsFree)
	assert.Empty(t, avail.BlockedDates)
}

func TestCheckAvailabilityBlockedDate(t *testing.T) {
	store, resolver, _ := availabilityFixture(t)
	store.putCalendarOverride(model.CalendarOverride{
		RoomTypeID: 1,
		Date:       date(2026, time.June, 2),
		Available:  false,
		Note:       "maintenance",
	})

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 1)
	require.NoError(t, err)

	assert.False(t, avail.Available)
	assert.Equal(t, 0, avail.UnitsFree)
	assert.Equal(t, []time.Time{date(2026, time.June, 2)}, avail.BlockedDates)
}

func TestCheckAvailabilityUnitsOverride(t *testing.T) {
	store, resolver, _ := availabilityFixture(t)
	one := 1
	store.putCalendarOverride(model.CalendarOverride{
		RoomTypeID: 1,
		Date:       date(2026, time.June, 2),
		Available:  true,
		Units:      &one,
	})

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))

	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 1)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, 1, avail.UnitsFree)

	// Asking for two units fails only on the overridden date.
	avail, err = resolver.CheckAvailability(context.Background(), 1, rng, 2)
	require.NoError(t, err)
	assert.False(t, avail.Available)
	assert.Equal(t, []time.Time{date(2026, time.June, 2)}, avail.BlockedDates)
}

func TestCheckAvailabilityCountsHeldUnits(t *testing.T) {
	store, resolver, clock := availabilityFixture(t)
	due := clock.Now().Add(time.Hour)
	store.putReservation(waitingReservation(1, date(2026, time.June, 2), date(2026, time.June, 5), 2, due))

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 2)
	require.NoError(t, err)

	assert.False(t, avail.Available)
	assert.Equal(t, 1, avail.UnitsFree)
	assert.Equal(t, []time.Time{
		date(2026, time.June, 2),
		date(2026, time.June, 3),
	}, avail.BlockedDates)
}

func TestCheckAvailabilityCheckoutDateNotConsumed(t *testing.T) {
	store, resolver, clock := availabilityFixture(t)
	due := clock.Now().Add(time.Hour)
	// All three units checked out on June 4.
	store.putReservation(waitingReservation(1, date(2026, time.June, 1), date(2026, time.June, 4), 3, due))

	rng := NewStayRange(date(2026, time.June, 4), date(2026, time.June, 6))
	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 3)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, 3, avail.UnitsFree)
}

func TestCheckAvailabilityIgnoresCancelled(t *testing.T) {
	store, resolver, clock := availabilityFixture(t)
	res := waitingReservation(1, date(2026, time.June, 1), date(2026, time.June, 4), 3, clock.Now().Add(time.Hour))
	res.Status = model.StatusCancelled
	store.putReservation(res)

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 3)
	require.NoError(t, err)
	assert.True(t, avail.Available)
}

func TestCheckAvailabilityIgnoresLapsedUnpaid(t *testing.T) {
	store, resolver, clock := availabilityFixture(t)
	due := clock.Now().Add(time.Hour)
	id := store.putReservation(waitingReservation(1, date(2026, time.June, 1), date(2026, time.June, 4), 3, due))

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))

	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 1)
	require.NoError(t, err)
	assert.False(t, avail.Available, "units held while the payment window is open")

	// Past the deadline the hold evaporates, with no sweep having run.
	clock.Advance(2 * time.Hour)
	avail, err = resolver.CheckAvailability(context.Background(), 1, rng, 3)
	require.NoError(t, err)
	assert.True(t, avail.Available)
	assert.Equal(t, model.StatusWaitingPayment, store.reservationStatus(id), "lazy expiry must not write")
}

func TestCheckAvailabilityLapsedButProvenStillHolds(t *testing.T) {
	store, resolver, clock := availabilityFixture(t)
	due := clock.Now().Add(time.Hour)
	id := store.putReservation(waitingReservation(1, date(2026, time.June, 1), date(2026, time.June, 4), 3, due))
	store.putProof(model.PaymentProof{ReservationID: id, UploadRef: "slip-1", UploadedAt: clock.Now()})

	clock.Advance(2 * time.Hour)
	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))
	avail, err := resolver.CheckAvailability(context.Background(), 1, rng, 1)
	require.NoError(t, err)
	assert.False(t, avail.Available, "a proven reservation never lapses")
}

func TestCheckAvailabilityInvalidInput(t *testing.T) {
	_, resolver, _ := availabilityFixture(t)

	zero := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 1))
	_, err := resolver.CheckAvailability(context.Background(), 1, zero, 1)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 2))
	_, err = resolver.CheckAvailability(context.Background(), 1, rng, 0)
	assert.ErrorAs(t, err, &verr)

	_, err = resolver.CheckAvailability(context.Background(), 42, rng, 1)
	assert.ErrorIs(t, err, ErrRoomTypeNotFound)
}
