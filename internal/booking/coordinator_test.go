package booking

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayloft/lodging-reservation/internal/model"
)

func coordinatorFixture(t *testing.T, totalUnits int) (*memStore, *Coordinator, *testClock) {
	t.Helper()
	store := newMemStore()
	store.putRoomType(model.RoomType{
		ID:         1,
		PropertyID: 10,
		Name:       "Sea View Suite",
		Capacity:   3,
		TotalUnits: totalUnits,
		BasePrice:  dec("200.00"),
		Currency:   "THB",
	})
	clock := newTestClock(time.Date(2026, time.May, 1, 9, 0, 0, 0, time.UTC))
	resolver := NewAvailabilityResolver(store, clock.Now)
	calc := NewPriceCalculator(store)
	coord := NewCoordinator(store, resolver, calc, 30*time.Minute, clock.Now)
	return store, coord, clock
}

func TestCreateReservationSuccess(t *testing.T) {
	_, coord, clock := coordinatorFixture(t, 3)

	res, err := coord.CreateReservation(context.Background(), CreateRequest{
		GuestID:    7,
		RoomTypeID: 1,
		CheckIn:    date(2026, time.June, 1),
		CheckOut:   date(2026, time.June, 4),
		Guests:     2,
	})
	require.NoError(t, err)

	assert.NotZero(t, res.ID)
	assert.NotEmpty(t, res.ReferenceCode)
	assert.Equal(t, uint64(7), res.GuestID)
	assert.Equal(t, uint64(10), res.PropertyID)
	assert.Equal(t, model.StatusWaitingPayment, res.Status)
	assert.Equal(t, 1, res.Units, "units defaults to 1")
	assert.Equal(t, clock.Now().Add(30*time.Minute), res.PaymentDueAt)
	assert.True(t, res.TotalAmount.Equal(dec("600.00")), "total = %s", res.TotalAmount)
	assert.Equal(t, "THB", res.Currency)
}

func TestCreateReservationValidation(t *testing.T) {
	_, coord, _ := coordinatorFixture(t, 3)
	ctx := context.Background()
	var verr *ValidationError

	_, err := coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 4), CheckOut: date(2026, time.June, 4),
		Guests: 2,
	})
	assert.ErrorAs(t, err, &verr)

	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: date(2026, time.April, 1), CheckOut: date(2026, time.April, 3),
		Guests: 2,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "check_in", verr.Field)

	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 1), CheckOut: date(2026, time.June, 3),
		Guests: 0,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "guests", verr.Field)

	// Capacity is 3 guests per unit.
	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 1), CheckOut: date(2026, time.June, 3),
		Guests: 4,
	})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "guests", verr.Field)
}

func TestCreateReservationTodayCheckInAllowed(t *testing.T) {
	_, coord, clock := coordinatorFixture(t, 3)

	today := Day(clock.Now())
	_, err := coord.CreateReservation(context.Background(), CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: today, CheckOut: today.AddDate(0, 0, 2),
		Guests: 1,
	})
	assert.NoError(t, err)
}

func TestCreateReservationSoldOut(t *testing.T) {
	_, coord, _ := coordinatorFixture(t, 1)
	ctx := context.Background()

	_, err := coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 1), CheckOut: date(2026, time.June, 4),
		Guests: 1,
	})
	require.NoError(t, err)

	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 8, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 3), CheckOut: date(2026, time.June, 5),
		Guests: 1,
	})
	var aerr *AvailabilityError
	require.ErrorAs(t, err, &aerr)
	assert.Equal(t, uint64(1), aerr.RoomTypeID)
	assert.Equal(t, 0, aerr.UnitsFree)
	assert.Equal(t, []time.Time{date(2026, time.June, 3)}, aerr.BlockedDates)

	// Back-to-back with the existing stay is fine.
	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 8, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 4), CheckOut: date(2026, time.June, 6),
		Guests: 1,
	})
	assert.NoError(t, err)
}

func TestCreateReservationAgreesWithResolver(t *testing.T) {
	store, coord, clock := coordinatorFixture(t, 1)
	resolver := NewAvailabilityResolver(store, clock.Now)
	ctx := context.Background()
	rng := NewStayRange(date(2026, time.June, 1), date(2026, time.June, 4))

	avail, err := resolver.CheckAvailability(ctx, 1, rng, 1)
	require.NoError(t, err)
	require.True(t, avail.Available)

	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: rng.CheckIn, CheckOut: rng.CheckOut,
		Guests: 1,
	})
	require.NoError(t, err)

	avail, err = resolver.CheckAvailability(ctx, 1, rng, 1)
	require.NoError(t, err)
	assert.False(t, avail.Available, "a fresh hold must be visible to checks immediately")
}

func TestCancelReleasesInventory(t *testing.T) {
	store, coord, clock := coordinatorFixture(t, 1)
	lifecycle := NewLifecycleManager(store, store, clock.Now)
	ctx := context.Background()

	res, err := coord.CreateReservation(ctx, CreateRequest{
		GuestID: 7, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 1), CheckOut: date(2026, time.June, 4),
		Guests: 1,
	})
	require.NoError(t, err)

	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 8, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 1), CheckOut: date(2026, time.June, 4),
		Guests: 1,
	})
	var aerr *AvailabilityError
	require.ErrorAs(t, err, &aerr)

	_, err = lifecycle.Transition(ctx, res.ID, EventCancel, "")
	require.NoError(t, err)

	_, err = coord.CreateReservation(ctx, CreateRequest{
		GuestID: 8, RoomTypeID: 1,
		CheckIn: date(2026, time.June, 1), CheckOut: date(2026, time.June, 4),
		Guests: 1,
	})
	assert.NoError(t, err)
}

// TestCreateReservationNeverOversells hammers one room type from many
// goroutines with random overlapping ranges and then checks the core
// invariant: on no date do committed units exceed capacity.
func TestCreateReservationNeverOversells(t *testing.T) {
	const totalUnits = 2
	store, coord, clock := coordinatorFixture(t, totalUnits)
	ctx := context.Background()

	start := date(2026, time.June, 1)
	rnd := rand.New(rand.NewSource(1))
	type attempt struct {
		checkIn, checkOut time.Time
	}
	attempts := make([]attempt, 40)
	for i := range attempts {
		in := rnd.Intn(10)
		nights := 1 + rnd.Intn(4)
		attempts[i] = attempt{
			checkIn:  start.AddDate(0, 0, in),
			checkOut: start.AddDate(0, 0, in+nights),
		}
	}

	var wg sync.WaitGroup
	for i, a := range attempts {
		wg.Add(1)
		go func(guest uint64, a attempt) {
			defer wg.Done()
			_, err := coord.CreateReservation(ctx, CreateRequest{
				GuestID: guest, RoomTypeID: 1,
				CheckIn: a.checkIn, CheckOut: a.checkOut,
				Guests: 1,
			})
			if err != nil {
				var aerr *AvailabilityError
				assert.ErrorAs(t, err, &aerr)
			}
		}(uint64(i+1), a)
	}
	wg.Wait()

	resolver := NewAvailabilityResolver(store, clock.Now)
	window := NewStayRange(start, start.AddDate(0, 0, 15))
	held, err := store.OverlappingReservations(ctx, 1, window)
	require.NoError(t, err)
	require.NotEmpty(t, held)

	committed := make(map[string]int)
	for _, h := range held {
		stay := StayRange{CheckIn: h.Reservation.CheckIn, CheckOut: h.Reservation.CheckOut}
		for _, d := range stay.Dates() {
			committed[dateKey(d)] += h.Reservation.Units
		}
	}
	for day, n := range committed {
		assert.LessOrEqual(t, n, totalUnits, "oversold on %s", day)
	}

	// And the resolver agrees nothing is left wherever we are full.
	for _, d := range window.Dates() {
		if committed[dateKey(d)] == totalUnits {
			night := StayRange{CheckIn: d, CheckOut: d.AddDate(0, 0, 1)}
			avail, err := resolver.CheckAvailability(ctx, 1, night, 1)
			require.NoError(t, err)
			assert.False(t, avail.Available)
		}
	}
}
