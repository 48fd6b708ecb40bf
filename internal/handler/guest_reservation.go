package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/stayloft/lodging-reservation/internal/booking"
	"github.com/stayloft/lodging-reservation/internal/model"
	"github.com/stayloft/lodging-reservation/internal/queue"
	"github.com/stayloft/lodging-reservation/internal/repository"
	"github.com/stayloft/lodging-reservation/internal/service"
)

// GuestReservationHandler serves the guest-facing reservation endpoints:
// create, list, inspect, cancel, attach a payment proof and review a
// completed stay.
type GuestReservationHandler struct {
	coord     *booking.Coordinator
	lifecycle *booking.LifecycleManager
	reader    booking.ReservationReader
	reviews   *repository.ReviewRepo
	now       booking.Clock
}

// NewGuestReservationHandler constructs a GuestReservationHandler.
func NewGuestReservationHandler(coord *booking.Coordinator, lifecycle *booking.LifecycleManager, reader booking.ReservationReader, reviews *repository.ReviewRepo, now booking.Clock) *GuestReservationHandler {
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &GuestReservationHandler{coord: coord, lifecycle: lifecycle, reader: reader, reviews: reviews, now: now}
}

type createReservationRequest struct {
	RoomTypeID uint64 `json:"room_type_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
	Units      int    `json:"units"`
}

// Create handles POST /v1/reservations.
func (h *GuestReservationHandler) Create(c echo.Context) error {
	guestID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	checkIn, err := parseDate(req.CheckIn)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_in date, expected YYYY-MM-DD"})
	}
	checkOut, err := parseDate(req.CheckOut)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid check_out date, expected YYYY-MM-DD"})
	}

	res, err := h.coord.CreateReservation(c.Request().Context(), booking.CreateRequest{
		GuestID:    guestID,
		RoomTypeID: req.RoomTypeID,
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Guests:     req.Guests,
		Units:      req.Units,
	})
	if err != nil {
		return writeEngineError(c, err)
	}

	// Event publishing is best-effort; a broker outage never fails a booking.
	_ = service.PublishReservationEvent(c.Request().Context(), newReservationEvent("reservation.created", res))

	return c.JSON(http.StatusCreated, reservationView(res, res.Status))
}

// List handles GET /v1/my-reservations. Statuses in the response are
// effective: a lapsed unpaid reservation shows as CANCELLED even before
// the sweep runs.
func (h *GuestReservationHandler) List(c echo.Context) error {
	guestID, ok := currentUserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	held, err := h.reader.ReservationsByGuest(c.Request().Context(), guestID)
	if err != nil {
		return writeEngineError(c, err)
	}
	now := h.now()
	out := make([]echo.Map, 0, len(held))
	for _, hr := range held {
		res := hr.Reservation
		out = append(out, reservationView(&res, booking.EffectiveStatus(&res, hr.HasProof, now)))
	}
	return c.JSON(http.StatusOK, echo.Map{"reservations": out})
}

// Get handles GET /v1/reservations/:id.
func (h *GuestReservationHandler) Get(c echo.Context) error {
	res, status, err := h.ownedReservation(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(res, status))
}

// Cancel handles DELETE /v1/reservations/:id. Only WAITING_PAYMENT and
// WAITING_CONFIRMATION reservations can be cancelled by the guest; the
// state machine rejects anything else.
func (h *GuestReservationHandler) Cancel(c echo.Context) error {
	res, _, err := h.ownedReservation(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	updated, err := h.lifecycle.Transition(c.Request().Context(), res.ID, booking.EventCancel, "")
	if err != nil {
		return writeEngineError(c, err)
	}
	_ = service.PublishReservationEvent(c.Request().Context(), newReservationEvent("reservation.cancelled", updated))
	return c.JSON(http.StatusOK, reservationView(updated, updated.Status))
}

type attachProofRequest struct {
	UploadRef string `json:"upload_ref"`
}

// AttachProof handles POST /v1/reservations/:id/payment-proof. An upload
// past the payment deadline returns 410 and settles the cancellation.
func (h *GuestReservationHandler) AttachProof(c echo.Context) error {
	res, _, err := h.ownedReservation(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	var req attachProofRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ref := req.UploadRef
	if ref == "" {
		ref = uuid.NewString()
	}
	updated, err := h.lifecycle.Transition(c.Request().Context(), res.ID, booking.EventAttachProof, ref)
	if err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusOK, reservationView(updated, updated.Status))
}

type createReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// CreateReview handles POST /v1/reservations/:id/review. Reviews are only
// accepted once the stay is COMPLETED.
func (h *GuestReservationHandler) CreateReview(c echo.Context) error {
	res, status, err := h.ownedReservation(c)
	if err != nil {
		return writeEngineError(c, err)
	}
	var req createReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Rating < 1 || req.Rating > 5 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
	}
	if status != model.StatusCompleted {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation is not completed"})
	}
	rev := &model.Review{
		ReservationID: res.ID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		CreatedAt:     h.now(),
	}
	if err := h.reviews.Create(c.Request().Context(), rev); err != nil {
		return writeEngineError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": rev.ID})
}

// ownedReservation loads the reservation from the path id, verifies the
// caller owns it and returns its effective status.
func (h *GuestReservationHandler) ownedReservation(c echo.Context) (*model.Reservation, model.ReservationStatus, error) {
	guestID, ok := currentUserID(c)
	if !ok {
		return nil, "", repository.ErrForbidden
	}
	id, err := parseID(c.Param("id"))
	if err != nil {
		return nil, "", booking.ErrReservationNotFound
	}
	status, res, err := h.lifecycle.CurrentState(c.Request().Context(), id)
	if err != nil {
		return nil, "", err
	}
	if res.GuestID != guestID {
		return nil, "", repository.ErrForbidden
	}
	return res, status, nil
}

// reservationView is the JSON shape shared by every reservation response.
// status is passed separately so callers can render the effective state.
func reservationView(res *model.Reservation, status model.ReservationStatus) echo.Map {
	return echo.Map{
		"id":             res.ID,
		"reference_code": res.ReferenceCode,
		"property_id":    res.PropertyID,
		"room_type_id":   res.RoomTypeID,
		"check_in":       res.CheckIn.Format(dateLayout),
		"check_out":      res.CheckOut.Format(dateLayout),
		"guests":         res.Guests,
		"units":          res.Units,
		"status":         status,
		"payment_due_at": res.PaymentDueAt.UTC().Format(time.RFC3339),
		"total_amount":   res.TotalAmount.StringFixed(2),
		"currency":       res.Currency,
	}
}

func newReservationEvent(typ string, res *model.Reservation) queue.ReservationEvent {
	return queue.ReservationEvent{
		Type:          typ,
		ReservationID: res.ID,
		ReferenceCode: res.ReferenceCode,
		GuestID:       res.GuestID,
		RoomTypeID:    res.RoomTypeID,
		CheckIn:       res.CheckIn.Format(dateLayout),
		CheckOut:      res.CheckOut.Format(dateLayout),
		TotalAmount:   res.TotalAmount.StringFixed(2),
		Currency:      res.Currency,
		Status:        string(res.Status),
		OccurredAt:    time.Now().UTC().Format(time.RFC3339),
	}
}
