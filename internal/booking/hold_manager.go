package booking

import (
	"context"
	"log"
	"time"

	"github.com/odeska/cinema-booking/internal/clock"
	"github.com/odeska/cinema-booking/internal/model"
	"github.com/odeska/cinema-booking/internal/queue"
)

// HoldManager issues time-boxed holds on seats for a show, releases them
// on cancellation and retires them on expiry. Every seat claim goes
// through the ledger's compare-and-set, so two concurrent requests for
// overlapping seats can never both succeed.
//
// Expiry is enforced by comparing the hold's absolute expiry against the
// clock at the moment of access. The background sweep is advisory
// cleanup only; authority always rests with the guarded status update.
type HoldManager struct {
	shows  ShowStore
	seats  SeatMap
	ledger Ledger
	holds  HoldStore
	clock  clock.Clock
	ttl    time.Duration
	events EventSink // may be nil
}

// NewHoldManager constructs a HoldManager. ttl is the lifetime of new
// holds; events may be nil when no broker is configured.
func NewHoldManager(shows ShowStore, seats SeatMap, ledger Ledger, holds HoldStore, clk clock.Clock, ttl time.Duration, events EventSink) *HoldManager {
	if shows == nil || seats == nil || ledger == nil || holds == nil || clk == nil {
		panic("nil dependency passed to NewHoldManager")
	}
	return &HoldManager{
		shows:  shows,
		seats:  seats,
		ledger: ledger,
		holds:  holds,
		clock:  clk,
		ttl:    ttl,
		events: events,
	}
}

// CreateHold places an exclusive hold on the requested seats for a show.
// Either every seat transitions FREE→HELD or none do; on conflict the
// returned *model.ConflictError lists exactly which seats were
// unavailable and no partial hold is created.
func (m *HoldManager) CreateHold(ctx context.Context, showID uint64, seatIDs []uint64) (model.Hold, error) {
	seatIDs = dedupe(seatIDs)
	if len(seatIDs) == 0 {
		return model.Hold{}, model.ErrNotFound
	}

	show, err := m.shows.GetShow(ctx, showID)
	if err != nil {
		return model.Hold{}, err
	}
	if show.Status != model.ShowOpen {
		return model.Hold{}, model.ErrShowNotOpen
	}

	// Validate the request against the showroom's seat map before
	// touching the ledger.
	layout, err := m.seats.SeatsFor(ctx, show.ShowroomID)
	if err != nil {
		return model.Hold{}, err
	}
	known := make(map[uint64]struct{}, len(layout))
	for _, s := range layout {
		known[s.ID] = struct{}{}
	}
	for _, id := range seatIDs {
		if _, ok := known[id]; !ok {
			return model.Hold{}, model.ErrNotFound
		}
	}

	now := m.clock.Now()
	var hold model.Hold
	var expired []queue.HoldExpiredEvent

	err = m.holds.WithTx(ctx, func(txCtx context.Context) error {
		// Lazily retire stale holds so their seats are contestable again.
		var err error
		expired, err = m.expireDue(txCtx, showID, now)
		if err != nil {
			return err
		}

		hold = model.Hold{
			ShowID:    showID,
			SeatIDs:   seatIDs,
			Status:    model.HoldActive,
			ExpiresAt: now.Add(m.ttl),
			CreatedAt: now,
		}
		if err := m.holds.CreateHold(txCtx, &hold); err != nil {
			return err
		}
		return m.ledger.TryTransition(txCtx, showID, seatIDs,
			model.SeatFree, model.SeatHeld, "", holdOwnerRef(hold.ID))
	})
	if err != nil {
		return model.Hold{}, err
	}

	m.emitExpired(ctx, expired)
	return hold, nil
}

// CancelHold releases an active hold and returns its seats to FREE. On a
// hold that already reached a terminal state it is a no-op, not an
// error, so duplicate cancellation requests are harmless.
func (m *HoldManager) CancelHold(ctx context.Context, holdID uint64) error {
	return m.holds.WithTx(ctx, func(txCtx context.Context) error {
		hold, err := m.holds.GetHold(txCtx, holdID)
		if err != nil {
			return err
		}
		if hold.Status.Terminal() {
			return nil
		}
		won, err := m.holds.MarkStatus(txCtx, holdID, model.HoldActive, model.HoldCancelled)
		if err != nil {
			return err
		}
		if !won {
			// A concurrent confirm or expiry got there first; the hold is
			// terminal either way, so cancellation has nothing left to do.
			return nil
		}
		if err := m.ledger.TryTransition(txCtx, hold.ShowID, hold.SeatIDs,
			model.SeatHeld, model.SeatFree, holdOwnerRef(holdID), ""); err != nil {
			if _, ok := model.IsConflict(err); ok {
				return model.Internalf("cancel of hold %d found seats not held by it", holdID)
			}
			return err
		}
		return nil
	})
}

// GetHold returns the hold as stored, applying the lazy expiry check: a
// hold past its TTL is retired before being returned.
func (m *HoldManager) GetHold(ctx context.Context, holdID uint64) (model.Hold, error) {
	now := m.clock.Now()
	var hold model.Hold
	var expired []queue.HoldExpiredEvent
	err := m.holds.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		hold, err = m.holds.GetHold(txCtx, holdID)
		if err != nil {
			return err
		}
		if !hold.ExpiredAt(now) {
			return nil
		}
		ev, err := m.retire(txCtx, hold, now)
		if err != nil {
			return err
		}
		if ev != nil {
			expired = append(expired, *ev)
			hold.Status = model.HoldExpired
		}
		return nil
	})
	if err != nil {
		return model.Hold{}, err
	}
	m.emitExpired(ctx, expired)
	return hold, nil
}

// Snapshot reports the state of every seat for a show, for "seats still
// available" displays. Due holds are retired first so the view never
// shows a seat as HELD by a lapsed hold.
func (m *HoldManager) Snapshot(ctx context.Context, showID uint64) (map[uint64]model.SeatState, error) {
	if _, err := m.shows.GetShow(ctx, showID); err != nil {
		return nil, err
	}
	now := m.clock.Now()
	var states map[uint64]model.SeatState
	var expired []queue.HoldExpiredEvent
	err := m.holds.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		expired, err = m.expireDue(txCtx, showID, now)
		if err != nil {
			return err
		}
		states, err = m.ledger.Snapshot(txCtx, showID)
		return err
	})
	if err != nil {
		return nil, err
	}
	m.emitExpired(ctx, expired)
	return states, nil
}

// ExpireDue retires every ACTIVE hold past its expiry. showID zero means
// all shows. It is called by the background sweep and is purely
// advisory: the same guarded transition runs lazily on access, so a
// missed sweep never extends a hold's life.
func (m *HoldManager) ExpireDue(ctx context.Context, showID uint64) (int, error) {
	now := m.clock.Now()
	var expired []queue.HoldExpiredEvent
	err := m.holds.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		expired, err = m.expireDue(txCtx, showID, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	m.emitExpired(ctx, expired)
	return len(expired), nil
}

// expireDue runs inside a transaction and retires due holds one by one.
func (m *HoldManager) expireDue(ctx context.Context, showID uint64, now time.Time) ([]queue.HoldExpiredEvent, error) {
	due, err := m.holds.ListDue(ctx, showID, now)
	if err != nil {
		return nil, err
	}
	var events []queue.HoldExpiredEvent
	for _, h := range due {
		ev, err := m.retire(ctx, h, now)
		if err != nil {
			return nil, err
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}

// retire moves one hold ACTIVE→EXPIRED under the status guard and frees
// its seats. A lost guard means a concurrent confirm or cancel won; that
// is a normal outcome and retire reports no event for it.
func (m *HoldManager) retire(ctx context.Context, h model.Hold, now time.Time) (*queue.HoldExpiredEvent, error) {
	won, err := m.holds.MarkStatus(ctx, h.ID, model.HoldActive, model.HoldExpired)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, nil
	}
	if err := m.ledger.TryTransition(ctx, h.ShowID, h.SeatIDs,
		model.SeatHeld, model.SeatFree, holdOwnerRef(h.ID), ""); err != nil {
		if _, ok := model.IsConflict(err); ok {
			return nil, model.Internalf("expiry of hold %d found seats not held by it", h.ID)
		}
		return nil, err
	}
	return &queue.HoldExpiredEvent{
		HoldID:    h.ID,
		ShowID:    h.ShowID,
		SeatIDs:   h.SeatIDs,
		ExpiredAt: now.Format(time.RFC3339),
	}, nil
}

func (m *HoldManager) emitExpired(ctx context.Context, events []queue.HoldExpiredEvent) {
	if m.events == nil {
		return
	}
	for _, ev := range events {
		m.events.PublishHoldExpired(ctx, ev)
	}
}

// Sweeper periodically runs ExpireDue across all shows. It exists to
// keep the ledger tidy between requests for quiet shows; correctness
// never depends on it.
type Sweeper struct {
	holds    *HoldManager
	interval time.Duration
}

// NewSweeper returns a sweeper that fires every interval.
func NewSweeper(holds *HoldManager, interval time.Duration) *Sweeper {
	return &Sweeper{holds: holds, interval: interval}
}

// Run blocks until ctx is cancelled, expiring due holds on every tick.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n, err := s.holds.ExpireDue(ctx, 0); err != nil {
				log.Printf("hold-sweep: %v", err)
			} else if n > 0 {
				log.Printf("hold-sweep: expired %d hold(s)", n)
			}
		}
	}
}

// dedupe drops zero and duplicate seat IDs while preserving order.
func dedupe(ids []uint64) []uint64 {
	out := make([]uint64, 0, len(ids))
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
