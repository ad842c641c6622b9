// Package handler exposes the HTTP surface of the booking service. The
// handlers are a thin translation layer: they parse requests, invoke the
// booking core and map its error taxonomy onto HTTP statuses. No seat
// state decisions are made here.
package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/odeska/cinema-booking/internal/model"
)

// writeErr maps a core error onto the HTTP response. Expected outcomes
// (not found, conflict, dead hold, closed window) get their user-facing
// status; an internal inconsistency is logged loudly and returns 500.
func writeErr(c echo.Context, err error) error {
	if ce, ok := model.IsConflict(err); ok {
		return c.JSON(http.StatusConflict, echo.Map{
			"error":       "some seats are unavailable",
			"unavailable": ce.SeatIDs,
		})
	}
	switch {
	case errors.Is(err, model.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, model.ErrHoldNotActive):
		return c.JSON(http.StatusConflict, echo.Map{"error": "hold is no longer active"})
	case errors.Is(err, model.ErrShowNotOpen):
		return c.JSON(http.StatusConflict, echo.Map{"error": "show not open for booking"})
	case errors.Is(err, model.ErrCancellationWindowClosed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "cancellation window closed"})
	case errors.Is(err, model.ErrInternal):
		log.Printf("INVARIANT VIOLATION: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal inconsistency"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
