package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/odeska/cinema-booking/internal/model"
)

// PriceRepo manages per-showroom, per-seat-type price rules. PriceFor is
// consulted at confirmation time only; holds never read prices, so a
// rule change between hold and confirm charges the new rate.
type PriceRepo struct {
	db *sql.DB
}

// NewPriceRepo returns a PriceRepo bound to the provided database.
func NewPriceRepo(db *sql.DB) *PriceRepo { return &PriceRepo{db: db} }

// UpsertRule inserts or replaces the rule for (showroom, seat type).
func (r *PriceRepo) UpsertRule(ctx context.Context, rule *model.PriceRule) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO price_rules (showroom_id, seat_type, price_cents)
		 VALUES (?, ?, ?)
		 ON DUPLICATE KEY UPDATE price_cents = VALUES(price_cents)`,
		rule.ShowroomID, string(rule.SeatType), rule.PriceCents)
	if err != nil {
		return err
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		rule.ID = uint64(id)
	}
	return nil
}

// PriceFor returns the unit price in cents for a seat type within a
// showroom. A missing rule is ErrNotFound; callers must treat that as
// fatal for the seat rather than defaulting to zero.
func (r *PriceRepo) PriceFor(ctx context.Context, showroomID uint64, seatType model.SeatType) (uint32, error) {
	var cents uint32
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT price_cents FROM price_rules WHERE showroom_id = ? AND seat_type = ?`,
		showroomID, string(seatType)).Scan(&cents)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, model.ErrNotFound
	}
	return cents, err
}
