package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/odeska/cinema-booking/internal/model"
)

// HoldRepo provides data access to seat_holds and seat_hold_seats. A
// hold's seat set is written once at creation and never modified; status
// changes go through MarkStatus, whose guarded UPDATE is how concurrent
// confirm, cancel and expiry decide a single winner.
type HoldRepo struct {
	db *sql.DB
}

// NewHoldRepo returns a HoldRepo bound to the provided database.
func NewHoldRepo(db *sql.DB) *HoldRepo { return &HoldRepo{db: db} }

// WithTx runs fn inside a transaction; see repository.WithTx.
func (r *HoldRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.db, fn)
}

// CreateHold inserts the hold and its seat rows, populating h.ID.
func (r *HoldRepo) CreateHold(ctx context.Context, h *model.Hold) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO seat_holds (show_id, status, expires_at, created_at) VALUES (?, ?, ?, ?)`,
		h.ShowID, string(h.Status), h.ExpiresAt.UTC(), h.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	h.ID = uint64(id)

	if len(h.SeatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO seat_hold_seats (hold_id, seat_id) VALUES `
	args := make([]any, 0, len(h.SeatIDs)*2)
	for i, sid := range h.SeatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, h.ID, sid)
	}
	_, err = q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// GetHold loads a hold with its seat IDs. Unknown IDs are ErrNotFound.
func (r *HoldRepo) GetHold(ctx context.Context, id uint64) (model.Hold, error) {
	var h model.Hold
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, show_id, status, expires_at, created_at FROM seat_holds WHERE id = ?`, id).
		Scan(&h.ID, &h.ShowID, &h.Status, &h.ExpiresAt, &h.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Hold{}, model.ErrNotFound
	}
	if err != nil {
		return model.Hold{}, err
	}
	h.SeatIDs, err = r.seatIDs(ctx, id)
	return h, err
}

// MarkStatus moves a hold from one status to another only when the
// current status matches. The boolean result is the race outcome: false
// means another transition reached the row first.
func (r *HoldRepo) MarkStatus(ctx context.Context, id uint64, from, to model.HoldStatus) (bool, error) {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE seat_holds SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListDue returns ACTIVE holds whose expiry is at or before now. Pass
// showID zero to scan across all shows, as the sweep does.
func (r *HoldRepo) ListDue(ctx context.Context, showID uint64, now time.Time) ([]model.Hold, error) {
	query := `SELECT id, show_id, status, expires_at, created_at FROM seat_holds
	          WHERE status = 'ACTIVE' AND expires_at <= ?`
	args := []any{now.UTC()}
	if showID != 0 {
		query += ` AND show_id = ?`
		args = append(args, showID)
	}
	return r.list(ctx, query, args...)
}

// ListActiveByShow returns all ACTIVE holds for a show.
func (r *HoldRepo) ListActiveByShow(ctx context.Context, showID uint64) ([]model.Hold, error) {
	return r.list(ctx,
		`SELECT id, show_id, status, expires_at, created_at FROM seat_holds
		 WHERE status = 'ACTIVE' AND show_id = ?`, showID)
}

func (r *HoldRepo) list(ctx context.Context, query string, args ...any) ([]model.Hold, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var holds []model.Hold
	for rows.Next() {
		var h model.Hold
		if err := rows.Scan(&h.ID, &h.ShowID, &h.Status, &h.ExpiresAt, &h.CreatedAt); err != nil {
			return nil, err
		}
		holds = append(holds, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range holds {
		if holds[i].SeatIDs, err = r.seatIDs(ctx, holds[i].ID); err != nil {
			return nil, err
		}
	}
	return holds, nil
}

func (r *HoldRepo) seatIDs(ctx context.Context, holdID uint64) ([]uint64, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT seat_id FROM seat_hold_seats WHERE hold_id = ? ORDER BY seat_id`, holdID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var sid uint64
		if err := rows.Scan(&sid); err != nil {
			return nil, err
		}
		ids = append(ids, sid)
	}
	return ids, rows.Err()
}
