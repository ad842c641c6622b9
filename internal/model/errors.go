// Package model defines the domain entities of the booking core together
// with the error taxonomy shared by services and repositories. These
// sentinel values let higher layers such as handlers distinguish expected
// outcomes (seat taken, hold expired) from genuine failures.
package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrNotFound is returned when a show, showroom, seat, hold, booking or
// price rule does not exist. Handlers translate it into HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrHoldNotActive is returned when an operation requires an ACTIVE hold
// but the hold is already confirmed, cancelled or expired. This is the
// error the loser of a confirm/expiry race receives.
var ErrHoldNotActive = errors.New("hold not active")

// ErrShowNotOpen is returned when a hold is requested for a show that is
// closed or cancelled.
var ErrShowNotOpen = errors.New("show not open for booking")

// ErrCancellationWindowClosed is returned when a booking cancellation
// arrives after the show's cutoff time.
var ErrCancellationWindowClosed = errors.New("cancellation window closed")

// ErrInternal marks an invariant violation: the ledger rejected a
// transition the caller believed it exclusively owned. It is never
// retried and must be surfaced loudly.
var ErrInternal = errors.New("internal inconsistency")

// ConflictError is returned when a seat state transition fails because
// one or more seats were not in the expected state. It always identifies
// the full set of conflicting seats so the caller can report exactly
// which seats were just taken. A transition never partially succeeds.
type ConflictError struct {
	SeatIDs []uint64
}

func (e *ConflictError) Error() string {
	ids := append([]uint64(nil), e.SeatIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%d", id))
	}
	return "seats unavailable: [" + strings.Join(parts, ", ") + "]"
}

// IsConflict reports whether err is a seat conflict and returns the
// conflicting seat IDs when it is.
func IsConflict(err error) (*ConflictError, bool) {
	var ce *ConflictError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Internalf wraps ErrInternal with context about the violated invariant.
func Internalf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInternal}, args...)...)
}
