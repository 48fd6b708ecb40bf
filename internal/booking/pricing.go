package booking

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stayloft/lodging-reservation/internal/model"
)

// minorUnits is the rounding precision of the final total. Every supported
// currency uses two minor units today.
const minorUnits = 2

// PriceCalculator computes the total price of a stay from the room type's
// base nightly rate and its date-ranged rate overrides. Overlapping
// overrides compose additively: every adjustment covering a night is
// summed into that night, none wins over another.
//
// All arithmetic is exact decimal. Nightly values are kept unrounded and
// the total is rounded once, to the currency's minor units, after the last
// night is summed; rounding per night would compound error across long
// stays.
type PriceCalculator struct {
	store Store
}

// NewPriceCalculator constructs a calculator over the given store.
func NewPriceCalculator(store Store) *PriceCalculator {
	if store == nil {
		panic("nil store passed to NewPriceCalculator")
	}
	return &PriceCalculator{store: store}
}

// NightRate is the exact price of a single night before final rounding.
type NightRate struct {
	Date  time.Time
	Price decimal.Decimal
}

// Quote is the result of a price computation.
type Quote struct {
	RoomTypeID uint64
	Nights     []NightRate
	Total      decimal.Decimal
	Currency   string
}

// ComputePrice prices the stay rng for a room type. It can be called
// standalone for quoting (e.g. search-result price display) and therefore
// re-validates the range instead of assuming an availability check ran.
func (p *PriceCalculator) ComputePrice(ctx context.Context, roomTypeID uint64, rng StayRange) (Quote, error) {
	if err := rng.Validate(); err != nil {
		return Quote{}, err
	}
	rt, err := p.store.RoomType(ctx, roomTypeID)
	if err != nil {
		return Quote{}, err
	}
	return p.quote(ctx, p.store, rt, rng)
}

// quote runs the night-by-night computation against an arbitrary store so
// the coordinator can price inside its transaction.
func (p *PriceCalculator) quote(ctx context.Context, store Store, rt *model.RoomType, rng StayRange) (Quote, error) {
	overrides, err := store.RateOverrides(ctx, rt.ID, rng)
	if err != nil {
		return Quote{}, err
	}
	total := decimal.Zero
	nights := make([]NightRate, 0, rng.Nights())
	for _, d := range rng.Dates() {
		price := rt.BasePrice
		for _, ov := range overrides {
			if ov.Covers(d) {
				price = price.Add(ov.Value)
			}
		}
		nights = append(nights, NightRate{Date: d, Price: price})
		total = total.Add(price)
	}
	return Quote{
		RoomTypeID: rt.ID,
		Nights:     nights,
		Total:      total.Round(minorUnits),
		Currency:   rt.Currency,
	}, nil
}
