package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloft/lodging-reservation/internal/booking"
)

// PublicHandler serves the unauthenticated availability and quote
// endpoints. Both are pure reads over the engine and sit behind the Redis
// response cache.
type PublicHandler struct {
	resolver *booking.AvailabilityResolver
	calc     *booking.PriceCalculator
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(resolver *booking.AvailabilityResolver, calc *booking.PriceCalculator) *PublicHandler {
	return &PublicHandler{resolver: resolver, calc: calc}
}

// GetAvailability handles GET /v1/room-types/:id/availability. Query
// params: check_in, check_out (YYYY-MM-DD), units (optional, default 1).
func (h *PublicHandler) GetAvailability(c echo.Context) error {
	roomTypeID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	rng, err := stayRangeFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	units := 1
	if s := c.QueryParam("units"); s != "" {
		n, err := parseID(s)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid units"})
		}
		units = int(n)
	}

	avail, err := h.resolver.CheckAvailability(c.Request().Context(), roomTypeID, rng, units)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_type_id":  roomTypeID,
		"check_in":      rng.CheckIn.Format(dateLayout),
		"check_out":     rng.CheckOut.Format(dateLayout),
		"available":     avail.Available,
		"units_free":    avail.UnitsFree,
		"blocked_dates": formatDates(avail.BlockedDates),
	})
}

// GetQuote handles GET /v1/room-types/:id/quote. Returns the nightly
// breakdown and the rounded total for the requested range.
func (h *PublicHandler) GetQuote(c echo.Context) error {
	roomTypeID, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room type id"})
	}
	rng, err := stayRangeFromQuery(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	quote, err := h.calc.ComputePrice(c.Request().Context(), roomTypeID, rng)
	if err != nil {
		return writeEngineError(c, err)
	}
	nights := make([]echo.Map, 0, len(quote.Nights))
	for _, n := range quote.Nights {
		nights = append(nights, echo.Map{
			"date":  n.Date.Format(dateLayout),
			"price": n.Price.String(),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_type_id": quote.RoomTypeID,
		"nights":       nights,
		"total":        quote.Total.StringFixed(2),
		"currency":     quote.Currency,
	})
}

func stayRangeFromQuery(c echo.Context) (booking.StayRange, error) {
	checkIn, err := parseDate(c.QueryParam("check_in"))
	if err != nil {
		return booking.StayRange{}, errors.New("invalid check_in date, expected YYYY-MM-DD")
	}
	checkOut, err := parseDate(c.QueryParam("check_out"))
	if err != nil {
		return booking.StayRange{}, errors.New("invalid check_out date, expected YYYY-MM-DD")
	}
	return booking.NewStayRange(checkIn, checkOut), nil
}
