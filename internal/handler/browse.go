package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/odeska/cinema-booking/internal/booking"
	"github.com/odeska/cinema-booking/internal/cache"
	"github.com/odeska/cinema-booking/internal/clock"
	"github.com/odeska/cinema-booking/internal/model"
	"github.com/odeska/cinema-booking/internal/repository"
)

// BrowseHandler serves the unauthenticated browse endpoints: upcoming
// shows, show details and the per-show seat availability snapshot.
type BrowseHandler struct {
	Shows     *repository.ShowRepo
	Seats     booking.SeatMap
	Holds     *booking.HoldManager
	Snapshots *cache.SnapshotCache
	Clock     clock.Clock
}

// ShowView is a show row in list responses, with the number of seats
// still free so clients can skip shows that are booked out.
type ShowView struct {
	ID         uint64    `json:"id"`
	MovieTitle string    `json:"movie_title"`
	ShowroomID uint64    `json:"showroom_id"`
	StartsAt   time.Time `json:"starts_at"`
	EndsAt     time.Time `json:"ends_at"`
	FreeSeats  uint32    `json:"free_seats"`
}

// SeatView is one seat in a snapshot response.
type SeatView struct {
	SeatID uint64 `json:"seat_id"`
	Label  string `json:"label"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// ListShows handles GET /v1/shows. Pass ?available=true to filter out
// shows with no free seats, per the "only see shows which are not booked
// out" story.
func (h *BrowseHandler) ListShows(c echo.Context) error {
	listings, err := h.Shows.ListUpcoming(c.Request().Context(), h.Clock.Now())
	if err != nil {
		return writeErr(c, err)
	}
	onlyAvailable := c.QueryParam("available") == "true"
	out := make([]ShowView, 0, len(listings))
	for _, l := range listings {
		if onlyAvailable && l.FreeSeats == 0 {
			continue
		}
		out = append(out, ShowView{
			ID:         l.Show.ID,
			MovieTitle: l.Show.MovieTitle,
			ShowroomID: l.Show.ShowroomID,
			StartsAt:   l.Show.StartsAt,
			EndsAt:     l.Show.EndsAt,
			FreeSeats:  l.FreeSeats,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// GetShow handles GET /v1/shows/:id.
func (h *BrowseHandler) GetShow(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	show, err := h.Shows.GetShow(c.Request().Context(), showID)
	if err != nil {
		return writeErr(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"id":          show.ID,
		"movie_title": show.MovieTitle,
		"showroom_id": show.ShowroomID,
		"starts_at":   show.StartsAt,
		"ends_at":     show.EndsAt,
		"status":      show.Status,
	})
}

// GetShowSeats handles GET /v1/shows/:id/seats. The response lists every
// seat of the showroom in display order with its current status. Bodies
// are cached per show and invalidated on every booking mutation.
func (h *BrowseHandler) GetShowSeats(c echo.Context) error {
	showID, err := pathID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()

	if body := h.Snapshots.Get(ctx, showID); body != nil {
		return c.JSONBlob(http.StatusOK, body)
	}

	show, err := h.Shows.GetShow(ctx, showID)
	if err != nil {
		return writeErr(c, err)
	}
	states, err := h.Holds.Snapshot(ctx, showID)
	if err != nil {
		return writeErr(c, err)
	}
	layout, err := h.Seats.SeatsFor(ctx, show.ShowroomID)
	if err != nil {
		return writeErr(c, err)
	}

	out := make([]SeatView, 0, len(layout))
	for _, s := range layout {
		status := string(model.SeatFree)
		if st, ok := states[s.ID]; ok {
			status = string(st.Status)
		}
		out = append(out, SeatView{
			SeatID: s.ID,
			Label:  s.Label(),
			Type:   string(s.SeatType),
			Status: status,
		})
	}

	body, err := json.Marshal(echo.Map{"items": out})
	if err != nil {
		return err
	}
	h.Snapshots.Set(ctx, showID, body)
	return c.JSONBlob(http.StatusOK, body)
}
