package booking

import (
	"context"
	"time"

	"github.com/odeska/cinema-booking/internal/clock"
	"github.com/odeska/cinema-booking/internal/model"
	"github.com/odeska/cinema-booking/internal/queue"
)

// Finalizer converts active holds into durable bookings and handles
// booking cancellation. Prices are read at confirmation time, so the
// booking locks in whatever the price table said at that moment.
//
// The confirm/expiry race is decided by the hold's guarded status
// update: whichever side moves the hold out of ACTIVE first wins, and
// the loser observes HoldNotActive.
type Finalizer struct {
	shows    ShowStore
	seats    SeatMap
	prices   PriceTable
	ledger   Ledger
	holds    HoldStore
	bookings BookingStore
	clock    clock.Clock
	tax      TaxPolicy
	cutoff   time.Duration
	events   EventSink // may be nil
}

// NewFinalizer constructs a Finalizer. cutoff is how long before the
// show's start time booking cancellation closes; zero means cancellation
// is allowed right up to the start.
func NewFinalizer(shows ShowStore, seats SeatMap, prices PriceTable, ledger Ledger, holds HoldStore, bookings BookingStore, clk clock.Clock, tax TaxPolicy, cutoff time.Duration, events EventSink) *Finalizer {
	if shows == nil || seats == nil || prices == nil || ledger == nil || holds == nil || bookings == nil || clk == nil {
		panic("nil dependency passed to NewFinalizer")
	}
	return &Finalizer{
		shows:    shows,
		seats:    seats,
		prices:   prices,
		ledger:   ledger,
		holds:    holds,
		bookings: bookings,
		clock:    clk,
		tax:      tax,
		cutoff:   cutoff,
		events:   events,
	}
}

// Confirm finalises an active, unexpired hold into a booking. The hold's
// seats move HELD→BOOKED and the hold becomes CONFIRMED. A ledger
// conflict at this point means a seat the hold exclusively owned was
// taken from under it, which is an invariant violation surfaced as
// ErrInternal, never retried.
func (f *Finalizer) Confirm(ctx context.Context, holdID uint64, paymentRef string) (model.Booking, error) {
	now := f.clock.Now()
	var bkg model.Booking
	var ev queue.BookingConfirmedEvent
	var lapsed bool
	var expiredEv *queue.HoldExpiredEvent

	err := f.holds.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := f.holds.GetHold(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status.Terminal() {
			return model.ErrHoldNotActive
		}
		if hold.ExpiredAt(now) {
			// Lapsed but not yet retired: do the expiry transition here so
			// the seats free up immediately. The transaction must commit,
			// so the not-active outcome is reported after it, not as its
			// error.
			won, err := f.holds.MarkStatus(txCtx, holdID, model.HoldActive, model.HoldExpired)
			if err != nil {
				return err
			}
			if won {
				if err := f.ledger.TryTransition(txCtx, hold.ShowID, hold.SeatIDs,
					model.SeatHeld, model.SeatFree, holdOwnerRef(holdID), ""); err != nil {
					if _, ok := model.IsConflict(err); ok {
						return model.Internalf("expiry of hold %d found seats not held by it", holdID)
					}
					return err
				}
				expiredEv = &queue.HoldExpiredEvent{
					HoldID:    holdID,
					ShowID:    hold.ShowID,
					SeatIDs:   hold.SeatIDs,
					ExpiredAt: now.Format(time.RFC3339),
				}
			}
			lapsed = true
			return nil
		}

		won, err := f.holds.MarkStatus(txCtx, holdID, model.HoldActive, model.HoldConfirmed)
		if err != nil {
			return err
		}
		if !won {
			return model.ErrHoldNotActive
		}

		show, err := f.shows.GetShow(txCtx, hold.ShowID)
		if err != nil {
			return err
		}

		layout, err := f.seats.SeatsFor(txCtx, show.ShowroomID)
		if err != nil {
			return err
		}
		typeOf := make(map[uint64]model.Seat, len(layout))
		for _, s := range layout {
			typeOf[s.ID] = s
		}

		var total, tax uint32
		seatRows := make([]model.BookingSeat, 0, len(hold.SeatIDs))
		labels := make([]string, 0, len(hold.SeatIDs))
		for _, seatID := range hold.SeatIDs {
			seat, ok := typeOf[seatID]
			if !ok {
				return model.Internalf("hold %d references seat %d outside showroom %d", holdID, seatID, show.ShowroomID)
			}
			price, err := f.prices.PriceFor(txCtx, show.ShowroomID, seat.SeatType)
			if err != nil {
				// No price rule for this seat type aborts the whole
				// booking; charging zero is never acceptable.
				return err
			}
			total += price
			tax += f.tax.TaxFor(seat.SeatType, price)
			seatRows = append(seatRows, model.BookingSeat{SeatID: seatID, PriceCents: price})
			labels = append(labels, seat.Label())
		}

		bkg = model.Booking{
			ShowID:     hold.ShowID,
			HoldID:     holdID,
			Status:     model.BookingBooked,
			TaxCents:   tax,
			TotalCents: total + tax,
			PaymentRef: paymentRef,
			CreatedAt:  now,
		}
		if err := f.bookings.CreateBooking(txCtx, &bkg, seatRows); err != nil {
			return err
		}

		if err := f.ledger.TryTransition(txCtx, hold.ShowID, hold.SeatIDs,
			model.SeatHeld, model.SeatBooked, holdOwnerRef(holdID), bookingOwnerRef(bkg.ID)); err != nil {
			if _, ok := model.IsConflict(err); ok {
				return model.Internalf("confirm of hold %d found seats not held by it", holdID)
			}
			return err
		}

		ev = queue.BookingConfirmedEvent{
			BookingID:   bkg.ID,
			ShowID:      show.ID,
			MovieTitle:  show.MovieTitle,
			SeatLabels:  labels,
			TaxCents:    tax,
			TotalCents:  bkg.TotalCents,
			ConfirmedAt: now.Format(time.RFC3339),
		}
		return nil
	})
	if err != nil {
		return model.Booking{}, err
	}
	if lapsed {
		if f.events != nil && expiredEv != nil {
			f.events.PublishHoldExpired(ctx, *expiredEv)
		}
		return model.Booking{}, model.ErrHoldNotActive
	}

	if f.events != nil {
		f.events.PublishBookingConfirmed(ctx, ev)
	}
	return bkg, nil
}

// CancelBooking releases a booking's seats back to FREE. It is only
// permitted while the show's start time, minus the configured cutoff, is
// still in the future; past that it fails with CancellationWindowClosed.
// Cancelling an already-cancelled booking is a no-op.
func (f *Finalizer) CancelBooking(ctx context.Context, bookingID uint64) error {
	now := f.clock.Now()
	return f.holds.WithTx(ctx, func(txCtx context.Context) error {
		bkg, seats, err := f.bookings.GetBooking(txCtx, bookingID)
		if err != nil {
			return err
		}
		if bkg.Status == model.BookingCancelled {
			return nil
		}
		show, err := f.shows.GetShow(txCtx, bkg.ShowID)
		if err != nil {
			return err
		}
		if !now.Before(show.StartsAt.Add(-f.cutoff)) {
			return model.ErrCancellationWindowClosed
		}
		won, err := f.bookings.MarkStatus(txCtx, bookingID, model.BookingBooked, model.BookingCancelled)
		if err != nil {
			return err
		}
		if !won {
			return nil
		}
		seatIDs := make([]uint64, 0, len(seats))
		for _, s := range seats {
			seatIDs = append(seatIDs, s.SeatID)
		}
		if err := f.ledger.TryTransition(txCtx, bkg.ShowID, seatIDs,
			model.SeatBooked, model.SeatFree, bookingOwnerRef(bookingID), ""); err != nil {
			if _, ok := model.IsConflict(err); ok {
				return model.Internalf("cancel of booking %d found seats not booked by it", bookingID)
			}
			return err
		}
		return nil
	})
}

// CancelShow cancels a show and explicitly cleans up everything hanging
// off it: active holds are expired, bookings are cancelled and every
// seat returns to FREE. The cleanup is owned here rather than by
// storage-layer cascades so the rules stay visible in one place.
func (f *Finalizer) CancelShow(ctx context.Context, showID uint64) error {
	return f.holds.WithTx(ctx, func(txCtx context.Context) error {
		show, err := f.shows.GetShow(txCtx, showID)
		if err != nil {
			return err
		}
		if show.Status == model.ShowCancelled {
			return nil
		}
		if err := f.shows.SetStatus(txCtx, showID, model.ShowCancelled); err != nil {
			return err
		}

		active, err := f.holds.ListActiveByShow(txCtx, showID)
		if err != nil {
			return err
		}
		for _, h := range active {
			won, err := f.holds.MarkStatus(txCtx, h.ID, model.HoldActive, model.HoldCancelled)
			if err != nil {
				return err
			}
			if !won {
				continue
			}
			if err := f.ledger.TryTransition(txCtx, showID, h.SeatIDs,
				model.SeatHeld, model.SeatFree, holdOwnerRef(h.ID), ""); err != nil {
				return err
			}
		}

		booked, err := f.bookings.ListByShow(txCtx, showID)
		if err != nil {
			return err
		}
		for _, b := range booked {
			if b.Status != model.BookingBooked {
				continue
			}
			won, err := f.bookings.MarkStatus(txCtx, b.ID, model.BookingBooked, model.BookingCancelled)
			if err != nil {
				return err
			}
			if !won {
				continue
			}
			_, seats, err := f.bookings.GetBooking(txCtx, b.ID)
			if err != nil {
				return err
			}
			seatIDs := make([]uint64, 0, len(seats))
			for _, s := range seats {
				seatIDs = append(seatIDs, s.SeatID)
			}
			if err := f.ledger.TryTransition(txCtx, showID, seatIDs,
				model.SeatBooked, model.SeatFree, bookingOwnerRef(b.ID), ""); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetBooking returns a booking with its seats.
func (f *Finalizer) GetBooking(ctx context.Context, bookingID uint64) (model.Booking, []model.BookingSeat, error) {
	return f.bookings.GetBooking(ctx, bookingID)
}
