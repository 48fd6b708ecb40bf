package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/stayloft/lodging-reservation/internal/booking"
	"github.com/stayloft/lodging-reservation/internal/repository"
)

const dateLayout = "2006-01-02"

// currentUserID extracts the authenticated user's id from the context.
// The JWT middleware stores the raw claim value, whose concrete type
// depends on how the token was minted, so every plausible shape is
// accepted.
func currentUserID(c echo.Context) (uint64, bool) {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v), true
	case uint64:
		return v, true
	case int64:
		return uint64(v), true
	case int:
		return uint64(v), true
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// parseDate parses a YYYY-MM-DD query or path value into a UTC midnight.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return booking.Day(t), nil
}

func parseID(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

func formatDates(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		out = append(out, d.Format(dateLayout))
	}
	return out
}

// writeEngineError translates engine and repository errors into HTTP
// responses. Anything unrecognized is logged and reported as a 500.
func writeEngineError(c echo.Context, err error) error {
	var verr *booking.ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": "validation_failed", "field": verr.Field, "reason": verr.Reason,
		})
	}
	var aerr *booking.AvailabilityError
	if errors.As(err, &aerr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":         "unavailable",
			"room_type_id":  aerr.RoomTypeID,
			"blocked_dates": formatDates(aerr.BlockedDates),
			"units_free":    aerr.UnitsFree,
		})
	}
	var terr *booking.InvalidTransitionError
	if errors.As(err, &terr) {
		return c.JSON(http.StatusConflict, echo.Map{
			"error": "invalid_transition", "from": terr.From, "event": terr.Event,
		})
	}
	var xerr *booking.ExpiredReservationError
	if errors.As(err, &xerr) {
		return c.JSON(http.StatusGone, echo.Map{
			"error":          "reservation_expired",
			"payment_due_at": xerr.PaymentDueAt.UTC().Format(time.RFC3339),
		})
	}
	switch {
	case errors.Is(err, booking.ErrRoomTypeNotFound), errors.Is(err, booking.ErrReservationNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not_found"})
	case errors.Is(err, booking.ErrProofAlreadyAttached):
		return c.JSON(http.StatusConflict, echo.Map{"error": "proof_already_attached"})
	case errors.Is(err, booking.ErrConcurrencyConflict):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "busy", "message": "please retry"})
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflict"})
	}
	log.Printf("handler: unexpected error: %v", err)
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal"})
}
