package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stayloft/lodging-reservation/internal/booking"
	"github.com/stayloft/lodging-reservation/internal/repository"
	"github.com/stayloft/lodging-reservation/internal/service"
)

// HostReservationHandler serves the host-facing lifecycle endpoints:
// verifying or rejecting a guest's payment proof and completing a stay.
type HostReservationHandler struct {
	lifecycle *booking.LifecycleManager
	owners    *repository.RoomTypeRepo
}

// NewHostReservationHandler constructs a HostReservationHandler.
func NewHostReservationHandler(lifecycle *booking.LifecycleManager, owners *repository.RoomTypeRepo) *HostReservationHandler {
	return &HostReservationHandler{lifecycle: lifecycle, owners: owners}
}

// VerifyProof handles POST /v1/reservations/:id/payment-proof/verify.
func (h *HostReservationHandler) VerifyProof(c echo.Context) error {
	return h.transition(c, booking.EventVerifyProof, "reservation.confirmed")
}

// RejectProof handles POST /v1/reservations/:id/payment-proof/reject. The
// reservation is cancelled and its inventory released.
func (h *HostReservationHandler) RejectProof(c echo.Context) error {
	return h.transition(c, booking.EventRejectProof, "reservation.cancelled")
}

// Complete handles POST /v1/reservations/:id/complete.
func (h *HostReservationHandler) Complete(c echo.Context) error {
	return h.transition(c, booking.EventComplete, "reservation.completed")
}

func (h *HostReservationHandler) transition(c echo.Context, event booking.Event, eventType string) error {
	hostID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	if err := h.owners.HostOwnsReservation(ctx, hostID, id); err != nil {
		return writeEngineError(c, err)
	}
	updated, err := h.lifecycle.Transition(ctx, id, event, "")
	if err != nil {
		return writeEngineError(c, err)
	}
	_ = service.PublishReservationEvent(ctx, newReservationEvent(eventType, updated))
	return c.JSON(http.StatusOK, reservationView(updated, updated.Status))
}
