package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/odeska/cinema-booking/internal/model"
	"github.com/odeska/cinema-booking/internal/queue"
)

// fakeStore is an in-memory implementation of every storage port the
// hold manager and finalizer depend on. TryTransition and MarkStatus
// keep their compare-and-set semantics, and WithTx snapshots the state
// so a failed transaction rolls back, mirroring what the SQL layer does.
type fakeStore struct {
	mu sync.Mutex
	// txMu serialises transactions; services never nest WithTx.
	txMu sync.Mutex

	shows   map[uint64]model.Show
	layouts map[uint64][]model.Seat
	prices  map[uint64]map[model.SeatType]uint32

	states map[uint64]map[uint64]model.SeatState

	nextHoldID uint64
	holds      map[uint64]model.Hold

	nextBookingID uint64
	bookings      map[uint64]model.Booking
	bookingSeats  map[uint64][]model.BookingSeat
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		shows:        make(map[uint64]model.Show),
		layouts:      make(map[uint64][]model.Seat),
		prices:       make(map[uint64]map[model.SeatType]uint32),
		states:       make(map[uint64]map[uint64]model.SeatState),
		holds:        make(map[uint64]model.Hold),
		bookings:     make(map[uint64]model.Booking),
		bookingSeats: make(map[uint64][]model.BookingSeat),
	}
}

// --- Ledger ---

func (f *fakeStore) InitSeats(_ context.Context, showID uint64, seatIDs []uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows := make(map[uint64]model.SeatState, len(seatIDs))
	for _, id := range seatIDs {
		rows[id] = model.SeatState{ShowID: showID, SeatID: id, Status: model.SeatFree}
	}
	f.states[showID] = rows
	return nil
}

func (f *fakeStore) Snapshot(_ context.Context, showID uint64) (map[uint64]model.SeatState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.states[showID]
	if !ok {
		return nil, model.ErrNotFound
	}
	out := make(map[uint64]model.SeatState, len(rows))
	for id, st := range rows {
		out[id] = st
	}
	return out, nil
}

func (f *fakeStore) TryTransition(_ context.Context, showID uint64, seatIDs []uint64, from, to model.SeatStatus, prevOwner, newOwner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rows, ok := f.states[showID]
	if !ok {
		return model.ErrNotFound
	}
	var conflicts []uint64
	for _, id := range seatIDs {
		st, ok := rows[id]
		if !ok || st.Status != from || st.OwnerRef != prevOwner {
			conflicts = append(conflicts, id)
		}
	}
	if len(conflicts) > 0 {
		return &model.ConflictError{SeatIDs: conflicts}
	}
	for _, id := range seatIDs {
		st := rows[id]
		st.Status = to
		st.OwnerRef = newOwner
		st.Version++
		rows[id] = st
	}
	return nil
}

// --- HoldStore ---

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.txMu.Lock()
	defer f.txMu.Unlock()
	snap := f.snapshotAll()
	if err := fn(ctx); err != nil {
		f.restoreAll(snap)
		return err
	}
	return nil
}

func (f *fakeStore) CreateHold(_ context.Context, h *model.Hold) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextHoldID++
	h.ID = f.nextHoldID
	f.holds[h.ID] = cloneHold(*h)
	return nil
}

func (f *fakeStore) GetHold(_ context.Context, id uint64) (model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.holds[id]
	if !ok {
		return model.Hold{}, model.ErrNotFound
	}
	return cloneHold(h), nil
}

func (f *fakeStore) MarkStatus(_ context.Context, id uint64, from, to model.HoldStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.holds[id]
	if !ok || h.Status != from {
		return false, nil
	}
	h.Status = to
	f.holds[id] = h
	return true, nil
}

func (f *fakeStore) ListDue(_ context.Context, showID uint64, now time.Time) ([]model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Hold
	for _, h := range f.holds {
		if h.Status != model.HoldActive || h.ExpiresAt.After(now) {
			continue
		}
		if showID != 0 && h.ShowID != showID {
			continue
		}
		out = append(out, cloneHold(h))
	}
	return out, nil
}

func (f *fakeStore) ListActiveByShow(_ context.Context, showID uint64) ([]model.Hold, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Hold
	for _, h := range f.holds {
		if h.ShowID == showID && h.Status == model.HoldActive {
			out = append(out, cloneHold(h))
		}
	}
	return out, nil
}

// --- BookingStore ---

func (f *fakeStore) CreateBooking(_ context.Context, b *model.Booking, seats []model.BookingSeat) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextBookingID++
	b.ID = f.nextBookingID
	f.bookings[b.ID] = *b
	rows := make([]model.BookingSeat, len(seats))
	for i, s := range seats {
		s.BookingID = b.ID
		rows[i] = s
	}
	f.bookingSeats[b.ID] = rows
	return nil
}

func (f *fakeStore) GetBooking(_ context.Context, id uint64) (model.Booking, []model.BookingSeat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok {
		return model.Booking{}, nil, model.ErrNotFound
	}
	return b, append([]model.BookingSeat(nil), f.bookingSeats[id]...), nil
}

func (f *fakeStore) MarkBookingStatus(_ context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bookings[id]
	if !ok || b.Status != from {
		return false, nil
	}
	b.Status = to
	f.bookings[id] = b
	return true, nil
}

func (f *fakeStore) ListByShow(_ context.Context, showID uint64) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.bookings {
		if b.ShowID == showID {
			out = append(out, b)
		}
	}
	return out, nil
}

// --- SeatMap / PriceTable / ShowStore ---

func (f *fakeStore) SeatsFor(_ context.Context, showroomID uint64) ([]model.Seat, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	layout, ok := f.layouts[showroomID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return append([]model.Seat(nil), layout...), nil
}

func (f *fakeStore) PriceFor(_ context.Context, showroomID uint64, st model.SeatType) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prices[showroomID][st]
	if !ok {
		return 0, model.ErrNotFound
	}
	return p, nil
}

func (f *fakeStore) GetShow(_ context.Context, id uint64) (model.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shows[id]
	if !ok {
		return model.Show{}, model.ErrNotFound
	}
	return s, nil
}

func (f *fakeStore) SetStatus(_ context.Context, id uint64, status model.ShowStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.shows[id]
	if !ok {
		return model.ErrNotFound
	}
	s.Status = status
	f.shows[id] = s
	return nil
}

// --- rollback support ---

type storeSnapshot struct {
	shows         map[uint64]model.Show
	states        map[uint64]map[uint64]model.SeatState
	nextHoldID    uint64
	holds         map[uint64]model.Hold
	nextBookingID uint64
	bookings      map[uint64]model.Booking
	bookingSeats  map[uint64][]model.BookingSeat
}

func (f *fakeStore) snapshotAll() storeSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	snap := storeSnapshot{
		shows:         make(map[uint64]model.Show, len(f.shows)),
		states:        make(map[uint64]map[uint64]model.SeatState, len(f.states)),
		nextHoldID:    f.nextHoldID,
		holds:         make(map[uint64]model.Hold, len(f.holds)),
		nextBookingID: f.nextBookingID,
		bookings:      make(map[uint64]model.Booking, len(f.bookings)),
		bookingSeats:  make(map[uint64][]model.BookingSeat, len(f.bookingSeats)),
	}
	for k, v := range f.shows {
		snap.shows[k] = v
	}
	for showID, rows := range f.states {
		cp := make(map[uint64]model.SeatState, len(rows))
		for k, v := range rows {
			cp[k] = v
		}
		snap.states[showID] = cp
	}
	for k, v := range f.holds {
		snap.holds[k] = cloneHold(v)
	}
	for k, v := range f.bookings {
		snap.bookings[k] = v
	}
	for k, v := range f.bookingSeats {
		snap.bookingSeats[k] = append([]model.BookingSeat(nil), v...)
	}
	return snap
}

func (f *fakeStore) restoreAll(snap storeSnapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shows = snap.shows
	f.states = snap.states
	f.nextHoldID = snap.nextHoldID
	f.holds = snap.holds
	f.nextBookingID = snap.nextBookingID
	f.bookings = snap.bookings
	f.bookingSeats = snap.bookingSeats
}

func cloneHold(h model.Hold) model.Hold {
	h.SeatIDs = append([]uint64(nil), h.SeatIDs...)
	return h
}

// bookingStoreAdapter maps the fake's MarkBookingStatus onto the
// BookingStore interface, whose method shares its name with the hold
// variant.
type bookingStoreAdapter struct {
	*fakeStore
}

func (a bookingStoreAdapter) MarkStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	return a.fakeStore.MarkBookingStatus(ctx, id, from, to)
}

// fakeClock is an adjustable clock shared by tests that move time
// forward mid-scenario.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t.UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeSink records published events.
type fakeSink struct {
	mu        sync.Mutex
	confirmed []queue.BookingConfirmedEvent
	expired   []queue.HoldExpiredEvent
}

func (s *fakeSink) PublishBookingConfirmed(_ context.Context, ev queue.BookingConfirmedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirmed = append(s.confirmed, ev)
}

func (s *fakeSink) PublishHoldExpired(_ context.Context, ev queue.HoldExpiredEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expired = append(s.expired, ev)
}

func (s *fakeSink) expiredCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.expired)
}

// fixture wires a populated fakeStore into a hold manager and finalizer:
// showroom 1 with seats 1 ("1A", standard, 100.00) and 2 ("2A", VIP,
// 150.00), show 1 OPEN and starting two hours after base.
type fixture struct {
	store     *fakeStore
	clock     *fakeClock
	sink      *fakeSink
	holds     *HoldManager
	finalizer *Finalizer
}

var fixtureBase = time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)

const fixtureTTL = 5 * time.Minute

func newFixture(cutoff time.Duration) *fixture {
	store := newFakeStore()
	store.layouts[1] = []model.Seat{
		{ID: 1, ShowroomID: 1, RowLabel: "A", SeatNumber: 1, SeatType: model.SeatStandard, OrderNumber: 1},
		{ID: 2, ShowroomID: 1, RowLabel: "A", SeatNumber: 2, SeatType: model.SeatVIP, OrderNumber: 2},
		{ID: 3, ShowroomID: 1, RowLabel: "B", SeatNumber: 1, SeatType: model.SeatStandard, OrderNumber: 3},
	}
	store.prices[1] = map[model.SeatType]uint32{
		model.SeatStandard: 10000,
		model.SeatVIP:      15000,
	}
	store.shows[1] = model.Show{
		ID:         1,
		ShowroomID: 1,
		MovieTitle: "The Matrix",
		StartsAt:   fixtureBase.Add(2 * time.Hour),
		EndsAt:     fixtureBase.Add(4 * time.Hour),
		Status:     model.ShowOpen,
	}
	_ = store.InitSeats(context.Background(), 1, []uint64{1, 2, 3})

	clk := newFakeClock(fixtureBase)
	sink := &fakeSink{}
	tax := TaxPolicy{FlatRateBP: 1000, PerSeatTypeBP: map[model.SeatType]uint32{model.SeatVIP: 1800}}

	holds := NewHoldManager(store, store, store, store, clk, fixtureTTL, sink)
	fin := NewFinalizer(store, store, store, store, store, bookingStoreAdapter{store}, clk, tax, cutoff, sink)
	return &fixture{store: store, clock: clk, sink: sink, holds: holds, finalizer: fin}
}

func (fx *fixture) seatState(t *testing.T, showID, seatID uint64) model.SeatState {
	t.Helper()
	states, err := fx.store.Snapshot(context.Background(), showID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	st, ok := states[seatID]
	if !ok {
		t.Fatalf("no state for seat %d", seatID)
	}
	return st
}
