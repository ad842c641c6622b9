package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odeska/cinema-booking/internal/booking"
	"github.com/odeska/cinema-booking/internal/model"
	"github.com/odeska/cinema-booking/internal/repository"
)

// AdminHandler serves the provisioning path: showrooms, seat layouts,
// price rules and shows. These routes sit behind the admin key
// middleware and are how reference data enters the system; the booking
// core itself never writes any of it.
type AdminHandler struct {
	Showrooms *repository.ShowroomRepo
	Prices    *repository.PriceRepo
	Shows     *repository.ShowRepo
	Ledger    *repository.LedgerRepo
	Finalizer *booking.Finalizer
}

// CreateShowroom handles POST /v1/admin/showrooms.
func (h *AdminHandler) CreateShowroom(c echo.Context) error {
	var body struct {
		Name    string `json:"name"`
		Details string `json:"details"`
	}
	if err := c.Bind(&body); err != nil || body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	room := model.Showroom{Name: body.Name, Details: body.Details}
	if err := h.Showrooms.CreateShowroom(c.Request().Context(), &room); err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": room.ID})
}

// CreateSeats handles POST /v1/admin/showrooms/:id/seats, bulk-creating
// the room's seat layout. The layout is written once and reused by every
// show scheduled in the room.
func (h *AdminHandler) CreateSeats(c echo.Context) error {
	showroomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom id"})
	}
	var body struct {
		Seats []struct {
			RowLabel   string `json:"row_label"`
			SeatNumber uint32 `json:"seat_number"`
			SeatType   string `json:"seat_type"`
			Order      uint32 `json:"order"`
		} `json:"seats"`
	}
	if err := c.Bind(&body); err != nil || len(body.Seats) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seats is required"})
	}

	ctx := c.Request().Context()
	if _, err := h.Showrooms.GetShowroom(ctx, showroomID); err != nil {
		return writeErr(c, err)
	}
	seats := make([]model.Seat, 0, len(body.Seats))
	for _, s := range body.Seats {
		seats = append(seats, model.Seat{
			RowLabel:    s.RowLabel,
			SeatNumber:  s.SeatNumber,
			SeatType:    model.SeatType(s.SeatType),
			OrderNumber: s.Order,
		})
	}
	if err := h.Showrooms.CreateSeats(ctx, showroomID, seats); err != nil {
		return writeErr(c, err)
	}
	ids := make([]uint64, 0, len(seats))
	for _, s := range seats {
		ids = append(ids, s.ID)
	}
	return c.JSON(http.StatusCreated, echo.Map{"seat_ids": ids})
}

// PutPriceRules handles POST /v1/admin/showrooms/:id/prices, upserting
// the room's per-seat-type prices. Existing bookings keep the price they
// were charged.
func (h *AdminHandler) PutPriceRules(c echo.Context) error {
	showroomID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid showroom id"})
	}
	var body struct {
		Rules []struct {
			SeatType   string `json:"seat_type"`
			PriceCents uint32 `json:"price_cents"`
		} `json:"rules"`
	}
	if err := c.Bind(&body); err != nil || len(body.Rules) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rules is required"})
	}
	ctx := c.Request().Context()
	if _, err := h.Showrooms.GetShowroom(ctx, showroomID); err != nil {
		return writeErr(c, err)
	}
	for _, r := range body.Rules {
		rule := model.PriceRule{
			ShowroomID: showroomID,
			SeatType:   model.SeatType(r.SeatType),
			PriceCents: r.PriceCents,
		}
		if err := h.Prices.UpsertRule(ctx, &rule); err != nil {
			return writeErr(c, err)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// CreateShow handles POST /v1/admin/shows. Creating a show provisions a
// FREE ledger row for every seat of its showroom in the same
// transaction, so the show is bookable the moment it exists.
func (h *AdminHandler) CreateShow(c echo.Context) error {
	var body struct {
		ShowroomID uint64    `json:"showroom_id"`
		MovieTitle string    `json:"movie_title"`
		StartsAt   time.Time `json:"starts_at"`
		EndsAt     time.Time `json:"ends_at"`
	}
	if err := c.Bind(&body); err != nil || body.ShowroomID == 0 || body.MovieTitle == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "showroom_id and movie_title are required"})
	}
	if !body.EndsAt.After(body.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}

	ctx := c.Request().Context()
	seats, err := h.Showrooms.SeatsFor(ctx, body.ShowroomID)
	if err != nil {
		return writeErr(c, err)
	}
	if len(seats) == 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "showroom has no seats"})
	}

	show := model.Show{
		ShowroomID: body.ShowroomID,
		MovieTitle: body.MovieTitle,
		StartsAt:   body.StartsAt.UTC(),
		EndsAt:     body.EndsAt.UTC(),
		Status:     model.ShowOpen,
	}
	err = h.Shows.WithTx(ctx, func(txCtx context.Context) error {
		if err := h.Shows.CreateShow(txCtx, &show); err != nil {
			return err
		}
		ids := make([]uint64, 0, len(seats))
		for _, s := range seats {
			ids = append(ids, s.ID)
		}
		return h.Ledger.InitSeats(txCtx, show.ID, ids)
	})
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"id": show.ID})
}

// CancelShow handles DELETE /v1/admin/shows/:id. The finalizer owns the
// cleanup: active holds and bookings are released explicitly rather than
// through storage cascades.
func (h *AdminHandler) CancelShow(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	if err := h.Finalizer.CancelShow(c.Request().Context(), showID); err != nil {
		return writeErr(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
