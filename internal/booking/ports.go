// Package booking implements the seat-booking concurrency core: the
// availability ledger contract, the hold manager and the booking
// finalizer. All seat state mutations funnel through the Ledger's
// TryTransition; no component writes seat state any other way.
package booking

import (
	"context"
	"strconv"
	"time"

	"github.com/odeska/cinema-booking/internal/model"
	"github.com/odeska/cinema-booking/internal/queue"
)

// Ledger is the authoritative per-seat state store for a show. The
// storage implementation must make TryTransition atomic and linearizable
// per (show, seat): of two concurrent transitions touching the same seat,
// exactly one succeeds. Operations on different shows are independent.
type Ledger interface {
	// InitSeats provisions a FREE row for every seat of a new show.
	InitSeats(ctx context.Context, showID uint64, seatIDs []uint64) error

	// Snapshot returns the current state of every seat for a show.
	Snapshot(ctx context.Context, showID uint64) (map[uint64]model.SeatState, error)

	// TryTransition atomically moves every listed seat from (from,
	// prevOwner) to (to, newOwner), or none at all. On failure it returns
	// a *model.ConflictError naming every seat that was not in the
	// expected state. prevOwner and newOwner are empty for FREE.
	TryTransition(ctx context.Context, showID uint64, seatIDs []uint64, from, to model.SeatStatus, prevOwner, newOwner string) error
}

// HoldStore persists holds. MarkStatus is the guarded single-row update
// both confirmation and expiry race through; it reports whether this
// caller won the transition.
type HoldStore interface {
	// WithTx runs fn inside a storage transaction. Nested calls join the
	// surrounding transaction.
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateHold(ctx context.Context, h *model.Hold) error
	GetHold(ctx context.Context, id uint64) (model.Hold, error)

	// MarkStatus moves a hold from one status to another only when the
	// current status matches. It returns false when the guard failed,
	// meaning a concurrent transition reached the row first.
	MarkStatus(ctx context.Context, id uint64, from, to model.HoldStatus) (bool, error)

	// ListDue returns ACTIVE holds whose expiry is at or before now.
	// showID zero means across all shows (used by the sweep).
	ListDue(ctx context.Context, showID uint64, now time.Time) ([]model.Hold, error)

	// ListActiveByShow returns all ACTIVE holds for a show.
	ListActiveByShow(ctx context.Context, showID uint64) ([]model.Hold, error)
}

// BookingStore persists bookings and their per-seat prices.
type BookingStore interface {
	CreateBooking(ctx context.Context, b *model.Booking, seats []model.BookingSeat) error
	GetBooking(ctx context.Context, id uint64) (model.Booking, []model.BookingSeat, error)

	// MarkStatus is the guarded booking status update, same contract as
	// HoldStore.MarkStatus.
	MarkStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error)

	ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error)
}

// SeatMap exposes the static per-showroom seat layout. Read-only after
// provisioning.
type SeatMap interface {
	SeatsFor(ctx context.Context, showroomID uint64) ([]model.Seat, error)
}

// PriceTable looks up the unit price for a seat type within a showroom.
// A missing rule is model.ErrNotFound; the finalizer treats that as fatal
// for the whole booking rather than defaulting to zero.
type PriceTable interface {
	PriceFor(ctx context.Context, showroomID uint64, seatType model.SeatType) (uint32, error)
}

// ShowStore provides show lookups and the status transition used when a
// show is cancelled.
type ShowStore interface {
	GetShow(ctx context.Context, id uint64) (model.Show, error)
	SetStatus(ctx context.Context, id uint64, status model.ShowStatus) error
}

// EventSink receives domain events after a transition commits. Publish
// failures never fail the originating request; implementations log and
// move on.
type EventSink interface {
	PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent)
	PublishHoldExpired(ctx context.Context, ev queue.HoldExpiredEvent)
}

// holdOwnerRef and bookingOwnerRef build the owner tags written into the
// ledger so a seat's claimant is always identifiable from a snapshot.
func holdOwnerRef(id uint64) string {
	return "hold:" + strconv.FormatUint(id, 10)
}

func bookingOwnerRef(id uint64) string {
	return "booking:" + strconv.FormatUint(id, 10)
}
