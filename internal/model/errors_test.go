package model

import (
	"errors"
	"fmt"
	"testing"
)

func TestConflictError(t *testing.T) {
	t.Parallel()

	t.Run("message lists seats in order", func(t *testing.T) {
		err := &ConflictError{SeatIDs: []uint64{9, 2, 5}}
		if got, want := err.Error(), "seats unavailable: [2, 5, 9]"; got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	})

	t.Run("IsConflict unwraps", func(t *testing.T) {
		err := fmt.Errorf("placing hold: %w", &ConflictError{SeatIDs: []uint64{3}})
		ce, ok := IsConflict(err)
		if !ok {
			t.Fatalf("expected conflict, got %v", err)
		}
		if len(ce.SeatIDs) != 1 || ce.SeatIDs[0] != 3 {
			t.Fatalf("expected seats [3], got %v", ce.SeatIDs)
		}
	})

	t.Run("IsConflict rejects other errors", func(t *testing.T) {
		if _, ok := IsConflict(ErrNotFound); ok {
			t.Fatalf("ErrNotFound should not be a conflict")
		}
	})
}

func TestInternalf(t *testing.T) {
	t.Parallel()

	err := Internalf("hold %d lost seat %d", 1, 2)
	if !errors.Is(err, ErrInternal) {
		t.Fatalf("expected ErrInternal, got %v", err)
	}
	if got, want := err.Error(), "internal inconsistency: hold 1 lost seat 2"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestHoldStatusTerminal(t *testing.T) {
	t.Parallel()

	for _, status := range []HoldStatus{HoldConfirmed, HoldCancelled, HoldExpired} {
		if !status.Terminal() {
			t.Fatalf("expected %s to be terminal", status)
		}
	}
	if HoldActive.Terminal() {
		t.Fatalf("ACTIVE must not be terminal")
	}
}
