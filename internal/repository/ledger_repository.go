package repository

import (
	"context"
	"database/sql"

	"github.com/odeska/cinema-booking/internal/model"
)

// LedgerRepo is the storage side of the availability ledger. Seat state
// lives in show_seats, one row per (show, seat), and every mutation goes
// through TryTransition's guarded UPDATE. Under MySQL the UPDATE takes
// row locks, so of two concurrent transitions for the same seat the
// second observes the first's result and fails its guard.
type LedgerRepo struct {
	db *sql.DB
}

// NewLedgerRepo constructs a LedgerRepo bound to the given database.
func NewLedgerRepo(db *sql.DB) *LedgerRepo { return &LedgerRepo{db: db} }

// InitSeats inserts a FREE row for every seat of a newly created show.
func (r *LedgerRepo) InitSeats(ctx context.Context, showID uint64, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO show_seats (show_id, seat_id, status, owner_ref, version) VALUES `
	args := make([]any, 0, len(seatIDs)*2)
	for i, sid := range seatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, 'FREE', '', 0)"
		args = append(args, showID, sid)
	}
	_, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// Snapshot returns the state of every seat for a show keyed by seat ID.
// An unknown show yields model.ErrNotFound rather than an empty map so
// callers can distinguish "no such show" from "show with no seats".
func (r *LedgerRepo) Snapshot(ctx context.Context, showID uint64) (map[uint64]model.SeatState, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT seat_id, status, owner_ref, version, updated_at
		 FROM show_seats WHERE show_id = ?`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	states := make(map[uint64]model.SeatState)
	for rows.Next() {
		s := model.SeatState{ShowID: showID}
		if err := rows.Scan(&s.SeatID, &s.Status, &s.OwnerRef, &s.Version, &s.UpdatedAt); err != nil {
			return nil, err
		}
		states[s.SeatID] = s
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(states) == 0 {
		return nil, model.ErrNotFound
	}
	return states, nil
}

// TryTransition atomically moves all listed seats from (from, prevOwner)
// to (to, newOwner). The UPDATE's WHERE clause is the compare-and-set:
// when it touches fewer rows than requested, the transition is rolled
// back by the surrounding transaction and the seats that failed the
// guard are reported in a *model.ConflictError. Callers must invoke this
// inside WithTx; exactly one transaction per transition.
func (r *LedgerRepo) TryTransition(ctx context.Context, showID uint64, seatIDs []uint64, from, to model.SeatStatus, prevOwner, newOwner string) error {
	if len(seatIDs) == 0 {
		return nil
	}
	args := make([]any, 0, len(seatIDs)+5)
	args = append(args, string(to), newOwner, showID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	args = append(args, string(from), prevOwner)

	query := `UPDATE show_seats
	          SET status = ?, owner_ref = ?, version = version + 1
	          WHERE show_id = ? AND seat_id IN (` + placeholders(len(seatIDs)) + `)
	            AND status = ? AND owner_ref = ?`
	res, err := q(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == int64(len(seatIDs)) {
		return nil
	}

	// Partial match: identify the seats that were not in the expected
	// state so the caller can report them, then fail the whole
	// transition. The returned error rolls back the UPDATE above.
	conflicting, err := r.seatsNotIn(ctx, showID, seatIDs, to, newOwner)
	if err != nil {
		return err
	}
	if len(conflicting) == 0 {
		// Rows we updated plus rows already in the target state should
		// cover the request; anything else is a missing seat row.
		return model.Internalf("show %d ledger rows missing for transition", showID)
	}
	return &model.ConflictError{SeatIDs: conflicting}
}

// seatsNotIn lists the requested seats whose row does not match the
// given state. After the guarded UPDATE, matched rows carry the target
// state, so a non-matching row is one the guard rejected.
func (r *LedgerRepo) seatsNotIn(ctx context.Context, showID uint64, seatIDs []uint64, status model.SeatStatus, owner string) ([]uint64, error) {
	args := make([]any, 0, len(seatIDs)+3)
	args = append(args, showID)
	for _, sid := range seatIDs {
		args = append(args, sid)
	}
	args = append(args, string(status), owner)

	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT seat_id FROM show_seats
		 WHERE show_id = ? AND seat_id IN (`+placeholders(len(seatIDs))+`)
		   AND NOT (status = ? AND owner_ref = ?)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		out = append(out, sid)
	}
	return out, rows.Err()
}
