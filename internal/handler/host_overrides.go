package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/stayloft/lodging-reservation/internal/booking"
	"github.com/stayloft/lodging-reservation/internal/model"
	"github.com/stayloft/lodging-reservation/internal/repository"
)

// HostOverrideHandler serves the host-facing calendar and rate override
// endpoints. Every operation verifies room type ownership first.
type HostOverrideHandler struct {
	owners   *repository.RoomTypeRepo
	calendar *repository.CalendarRepo
	rates    *repository.RateRepo
}

// NewHostOverrideHandler constructs a HostOverrideHandler.
func NewHostOverrideHandler(owners *repository.RoomTypeRepo, calendar *repository.CalendarRepo, rates *repository.RateRepo) *HostOverrideHandler {
	return &HostOverrideHandler{owners: owners, calendar: calendar, rates: rates}
}

type calendarOverrideRequest struct {
	Available bool   `json:"available"`
	Units     *int   `json:"units"`
	Note      string `json:"note"`
}

// UpsertCalendarOverride handles PUT /v1/room-types/:id/calendar/:date.
func (h *HostOverrideHandler) UpsertCalendarOverride(c echo.Context) error {
	_, roomTypeID, err := h.authorizedRoomType(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	date, err := parseDate(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	var req calendarOverrideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Units != nil && *req.Units < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "units must not be negative"})
	}
	if err := h.calendar.Upsert(c.Request().Context(), roomTypeID, date, req.Available, req.Units, req.Note); err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"room_type_id": roomTypeID,
		"date":         date.Format(dateLayout),
		"available":    req.Available,
		"units":        req.Units,
	})
}

// DeleteCalendarOverride handles DELETE /v1/room-types/:id/calendar/:date.
func (h *HostOverrideHandler) DeleteCalendarOverride(c echo.Context) error {
	_, roomTypeID, err := h.authorizedRoomType(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	date, err := parseDate(c.Param("date"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid date, expected YYYY-MM-DD"})
	}
	if err := h.calendar.Delete(c.Request().Context(), roomTypeID, date); err != nil {
		return writeEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

type rateOverrideRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Value     string `json:"value"`
	Note      string `json:"note"`
}

// CreateRateOverride handles POST /v1/room-types/:id/rate-overrides.
func (h *HostOverrideHandler) CreateRateOverride(c echo.Context) error {
	_, roomTypeID, err := h.authorizedRoomType(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	var req rateOverrideRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid start_date, expected YYYY-MM-DD"})
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid end_date, expected YYYY-MM-DD"})
	}
	if rng := booking.NewStayRange(start, end); rng.Validate() != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "end_date must be after start_date"})
	}
	value, err := decimal.NewFromString(req.Value)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid value, expected a decimal string"})
	}

	ov := &model.RateOverride{
		RoomTypeID: roomTypeID,
		StartDate:  start,
		EndDate:    end,
		Kind:       model.KindNominal,
		Value:      value,
		Note:       req.Note,
	}
	if err := h.rates.Create(c.Request().Context(), ov); err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, rateOverrideView(*ov))
}

// ListRateOverrides handles GET /v1/room-types/:id/rate-overrides.
func (h *HostOverrideHandler) ListRateOverrides(c echo.Context) error {
	_, roomTypeID, err := h.authorizedRoomType(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	overrides, err := h.rates.ListByRoomType(c.Request().Context(), roomTypeID)
	if err != nil {
		return writeEngineError(c, err)
	}
	out := make([]echo.Map, 0, len(overrides))
	for _, ov := range overrides {
		out = append(out, rateOverrideView(ov))
	}
	return c.JSON(http.StatusOK, echo.Map{"rate_overrides": out})
}

// DeleteRateOverride handles DELETE /v1/rate-overrides/:id. Ownership is
// enforced inside the delete itself.
func (h *HostOverrideHandler) DeleteRateOverride(c echo.Context) error {
	hostID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid override id"})
	}
	if err := h.rates.Delete(c.Request().Context(), hostID, id); err != nil {
		return writeEngineError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *HostOverrideHandler) authorizedRoomType(c echo.Context) (hostID, roomTypeID uint64, err error) {
	hostID, ok := currentUserID(c)
	if !ok {
		return 0, 0, repository.ErrForbidden
	}
	roomTypeID, err = parseID(c.Param("id"))
	if err != nil {
		return 0, 0, booking.ErrRoomTypeNotFound
	}
	if err := h.owners.HostOwnsRoomType(c.Request().Context(), hostID, roomTypeID); err != nil {
		return 0, 0, err
	}
	return hostID, roomTypeID, nil
}

func rateOverrideView(ov model.RateOverride) echo.Map {
	return echo.Map{
		"id":           ov.ID,
		"room_type_id": ov.RoomTypeID,
		"start_date":   ov.StartDate.Format(dateLayout),
		"end_date":     ov.EndDate.Format(dateLayout),
		"kind":         ov.Kind,
		"value":        ov.Value.String(),
		"note":         ov.Note,
	}
}
