package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/odeska/cinema-booking/internal/model"
)

func TestWriteErr(t *testing.T) {
	t.Parallel()

	write := func(err error) *httptest.ResponseRecorder {
		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		if werr := writeErr(e.NewContext(req, rec), err); werr != nil {
			t.Fatalf("writeErr: %v", werr)
		}
		return rec
	}

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"not found", model.ErrNotFound, http.StatusNotFound},
		{"hold not active", model.ErrHoldNotActive, http.StatusConflict},
		{"show not open", model.ErrShowNotOpen, http.StatusConflict},
		{"window closed", model.ErrCancellationWindowClosed, http.StatusConflict},
		{"internal inconsistency", model.Internalf("seat lost"), http.StatusInternalServerError},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if rec := write(tc.err); rec.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rec.Code)
			}
		})
	}

	t.Run("conflict names the seats", func(t *testing.T) {
		rec := write(&model.ConflictError{SeatIDs: []uint64{2, 5}})
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "unavailable") || !strings.Contains(body, "[2,5]") {
			t.Fatalf("expected body to list unavailable seats, got %s", body)
		}
	})
}
