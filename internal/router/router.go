// Package router wires the HTTP routes onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/odeska/cinema-booking/internal/config"
	"github.com/odeska/cinema-booking/internal/handler"
	"github.com/odeska/cinema-booking/internal/middleware"
)

// Register mounts every route of the booking service. The hold-creation
// endpoint carries the rate limiter; the admin group sits behind the
// API key guard.
func Register(e *echo.Echo, browse *handler.BrowseHandler, book *handler.BookingHandler, admin *handler.AdminHandler, rlCfg config.RateLimitConfig, adminKeyHash string, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// Public browse endpoints; no authentication.
	e.GET("/v1/shows", browse.ListShows)
	e.GET("/v1/shows/:id", browse.GetShow)
	e.GET("/v1/shows/:id/seats", browse.GetShowSeats)

	// Booking path. Hold creation is the endpoint worth limiting: it is
	// the one a scalper script hammers.
	limited := middleware.RateLimit(rlCfg, rdb)
	e.POST("/v1/shows/:id/holds", book.CreateHold, limited)
	e.GET("/v1/holds/:id", book.GetHold)
	e.DELETE("/v1/holds/:id", book.CancelHold)
	e.POST("/v1/holds/:id/confirm", book.ConfirmHold)
	e.GET("/v1/bookings/:id", book.GetBooking)
	e.DELETE("/v1/bookings/:id", book.CancelBooking)

	// Provisioning path, guarded by the admin key.
	g := e.Group("/v1/admin", middleware.AdminKey(adminKeyHash))
	g.POST("/showrooms", admin.CreateShowroom)
	g.POST("/showrooms/:id/seats", admin.CreateSeats)
	g.POST("/showrooms/:id/prices", admin.PutPriceRules)
	g.POST("/shows", admin.CreateShow)
	g.DELETE("/shows/:id", admin.CancelShow)
}
