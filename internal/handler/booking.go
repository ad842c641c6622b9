package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odeska/cinema-booking/internal/booking"
	"github.com/odeska/cinema-booking/internal/cache"
	"github.com/odeska/cinema-booking/internal/utils"
)

// BookingHandler serves the hold and booking endpoints. Ownership of a
// hold is established by the signed hold token issued at creation: the
// client must present it on confirm and cancel, so no other session can
// act on the hold.
type BookingHandler struct {
	Holds     *booking.HoldManager
	Finalizer *booking.Finalizer
	Snapshots *cache.SnapshotCache
	Secret    string // hold token signing secret
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(holds *booking.HoldManager, fin *booking.Finalizer, snapshots *cache.SnapshotCache, secret string) *BookingHandler {
	if holds == nil || fin == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{Holds: holds, Finalizer: fin, Snapshots: snapshots, Secret: secret}
}

// CreateHold handles POST /v1/shows/:id/holds. The body carries a
// "seat_ids" array. On success it returns 201 with the hold, its expiry
// and the signed token; when any seat is taken it returns 409 with the
// list of unavailable seats and no hold is created.
func (h *BookingHandler) CreateHold(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if len(body.SeatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	ctx := c.Request().Context()
	hold, err := h.Holds.CreateHold(ctx, showID, body.SeatIDs)
	if err != nil {
		return writeErr(c, err)
	}
	h.Snapshots.Invalidate(ctx, showID)

	token, err := utils.NewHoldToken(h.Secret, hold.ID, hold.ShowID, hold.ExpiresAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to issue hold token"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"hold_id":    hold.ID,
		"seat_ids":   hold.SeatIDs,
		"expires_at": hold.ExpiresAt.Format(time.RFC3339),
		"token":      token,
	})
}

// CancelHold handles DELETE /v1/holds/:id. Cancelling a hold that
// already reached a terminal state succeeds with no effect, so clients
// can safely retry.
func (h *BookingHandler) CancelHold(c echo.Context) error {
	holdID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}
	claims, err := utils.ParseHoldTokenLenient(h.Secret, c.Request().Header.Get("X-Hold-Token"))
	if err != nil || claims.HoldID != holdID {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid hold token"})
	}
	ctx := c.Request().Context()
	if err := h.Holds.CancelHold(ctx, holdID); err != nil {
		return writeErr(c, err)
	}
	h.Snapshots.Invalidate(ctx, claims.ShowID)
	return c.NoContent(http.StatusNoContent)
}

// GetHold handles GET /v1/holds/:id. The response reflects lazy expiry:
// asking about a lapsed hold retires it and reports EXPIRED.
func (h *BookingHandler) GetHold(c echo.Context) error {
	holdID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}
	claims, err := utils.ParseHoldTokenLenient(h.Secret, c.Request().Header.Get("X-Hold-Token"))
	if err != nil || claims.HoldID != holdID {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid hold token"})
	}
	hold, err := h.Holds.GetHold(c.Request().Context(), holdID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"hold_id":    hold.ID,
		"show_id":    hold.ShowID,
		"seat_ids":   hold.SeatIDs,
		"status":     hold.Status,
		"expires_at": hold.ExpiresAt.Format(time.RFC3339),
	})
}

// ConfirmHold handles POST /v1/holds/:id/confirm. It finalises the hold
// into a booking, charging the price table's current rates plus tax.
func (h *BookingHandler) ConfirmHold(c echo.Context) error {
	holdID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid hold id"})
	}
	claims, err := utils.ParseHoldToken(h.Secret, c.Request().Header.Get("X-Hold-Token"))
	if err != nil || claims.HoldID != holdID {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid hold token"})
	}
	var body struct {
		PaymentRef string `json:"payment_ref"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}

	ctx := c.Request().Context()
	bkg, err := h.Finalizer.Confirm(ctx, holdID, body.PaymentRef)
	if err != nil {
		return writeErr(c, err)
	}
	h.Snapshots.Invalidate(ctx, bkg.ShowID)
	return c.JSON(http.StatusCreated, echo.Map{
		"booking_id":  bkg.ID,
		"show_id":     bkg.ShowID,
		"tax_cents":   bkg.TaxCents,
		"total_cents": bkg.TotalCents,
	})
}

// GetBooking handles GET /v1/bookings/:id.
func (h *BookingHandler) GetBooking(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	bkg, seats, err := h.Finalizer.GetBooking(c.Request().Context(), bookingID)
	if err != nil {
		return writeErr(c, err)
	}
	seatOut := make([]echo.Map, 0, len(seats))
	for _, s := range seats {
		seatOut = append(seatOut, echo.Map{"seat_id": s.SeatID, "price_cents": s.PriceCents})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"booking_id":  bkg.ID,
		"show_id":     bkg.ShowID,
		"status":      bkg.Status,
		"tax_cents":   bkg.TaxCents,
		"total_cents": bkg.TotalCents,
		"seats":       seatOut,
	})
}

// CancelBooking handles DELETE /v1/bookings/:id. It succeeds only while
// the show's cancellation window is open; afterwards it returns 409.
func (h *BookingHandler) CancelBooking(c echo.Context) error {
	bookingID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx := c.Request().Context()
	bkg, _, err := h.Finalizer.GetBooking(ctx, bookingID)
	if err != nil {
		return writeErr(c, err)
	}
	if err := h.Finalizer.CancelBooking(ctx, bookingID); err != nil {
		return writeErr(c, err)
	}
	h.Snapshots.Invalidate(ctx, bkg.ShowID)
	return c.NoContent(http.StatusNoContent)
}

// pathID parses a non-zero uint64 path parameter.
func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, echo.ErrBadRequest
	}
	return id, nil
}
