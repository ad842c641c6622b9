package booking

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/odeska/cinema-booking/internal/model"
)

// TestLedgerInvariantUnderRandomOps drives the hold manager and
// finalizer through a randomized operation sequence and checks after
// every step that no seat is claimed twice and that the number of
// HELD plus BOOKED seats never exceeds the seat map size.
func TestLedgerInvariantUnderRandomOps(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewSource(1))
	fx := newFixture(0)
	ctx := context.Background()

	var holdIDs []uint64
	var bookingIDs []uint64
	seatPool := []uint64{1, 2, 3}

	check := func(step int) {
		states, err := fx.store.Snapshot(ctx, 1)
		if err != nil {
			t.Fatalf("step %d: snapshot: %v", step, err)
		}
		claimed := 0
		for seatID, st := range states {
			switch st.Status {
			case model.SeatFree:
				if st.OwnerRef != "" {
					t.Fatalf("step %d: free seat %d has owner %q", step, seatID, st.OwnerRef)
				}
			case model.SeatHeld, model.SeatBooked:
				claimed++
				if st.OwnerRef == "" {
					t.Fatalf("step %d: claimed seat %d has no owner", step, seatID)
				}
			default:
				t.Fatalf("step %d: seat %d in unknown state %q", step, seatID, st.Status)
			}
		}
		if claimed > len(seatPool) {
			t.Fatalf("step %d: %d seats claimed, map has %d", step, claimed, len(seatPool))
		}
	}

	for step := 0; step < 400; step++ {
		switch rng.Intn(6) {
		case 0: // hold a random non-empty seat subset
			var seats []uint64
			for _, s := range seatPool {
				if rng.Intn(2) == 0 {
					seats = append(seats, s)
				}
			}
			if len(seats) == 0 {
				seats = []uint64{seatPool[rng.Intn(len(seatPool))]}
			}
			if hold, err := fx.holds.CreateHold(ctx, 1, seats); err == nil {
				holdIDs = append(holdIDs, hold.ID)
			} else if _, ok := model.IsConflict(err); !ok {
				t.Fatalf("step %d: create hold: %v", step, err)
			}
		case 1: // cancel a random known hold
			if len(holdIDs) > 0 {
				id := holdIDs[rng.Intn(len(holdIDs))]
				if err := fx.holds.CancelHold(ctx, id); err != nil {
					t.Fatalf("step %d: cancel hold %d: %v", step, id, err)
				}
			}
		case 2: // confirm a random known hold
			if len(holdIDs) > 0 {
				id := holdIDs[rng.Intn(len(holdIDs))]
				bkg, err := fx.finalizer.Confirm(ctx, id, "pay")
				switch {
				case err == nil:
					bookingIDs = append(bookingIDs, bkg.ID)
				case errors.Is(err, model.ErrHoldNotActive):
				default:
					t.Fatalf("step %d: confirm hold %d: %v", step, id, err)
				}
			}
		case 3: // cancel a random known booking
			if len(bookingIDs) > 0 {
				id := bookingIDs[rng.Intn(len(bookingIDs))]
				err := fx.finalizer.CancelBooking(ctx, id)
				if err != nil && !errors.Is(err, model.ErrCancellationWindowClosed) {
					t.Fatalf("step %d: cancel booking %d: %v", step, id, err)
				}
			}
		case 4: // let some time pass, occasionally beyond the TTL
			fx.clock.Advance(time.Duration(rng.Intn(int(fixtureTTL) / 2)))
		case 5: // advisory sweep
			if _, err := fx.holds.ExpireDue(ctx, 0); err != nil {
				t.Fatalf("step %d: expire due: %v", step, err)
			}
		}
		check(step)
	}
}
