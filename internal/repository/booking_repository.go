package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/odeska/cinema-booking/internal/model"
)

// BookingRepo provides data access to bookings and booking_seats.
// Bookings are append-only apart from the guarded status update; the
// prices recorded per seat are the prices actually charged and are never
// rewritten when price rules change later.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a BookingRepo bound to the provided database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// CreateBooking inserts the booking and its seat rows, populating b.ID.
func (r *BookingRepo) CreateBooking(ctx context.Context, b *model.Booking, seats []model.BookingSeat) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO bookings (show_id, hold_id, status, tax_cents, total_cents, payment_ref, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ShowID, b.HoldID, string(b.Status), b.TaxCents, b.TotalCents, b.PaymentRef, b.CreatedAt.UTC())
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id, price_cents) VALUES `
	args := make([]any, 0, len(seats)*3)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?)"
		args = append(args, b.ID, s.SeatID, s.PriceCents)
	}
	_, err = q(ctx, r.db).ExecContext(ctx, query, args...)
	return err
}

// GetBooking loads a booking together with its seats and prices.
func (r *BookingRepo) GetBooking(ctx context.Context, id uint64) (model.Booking, []model.BookingSeat, error) {
	var b model.Booking
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, show_id, hold_id, status, tax_cents, total_cents, payment_ref, created_at
		 FROM bookings WHERE id = ?`, id).
		Scan(&b.ID, &b.ShowID, &b.HoldID, &b.Status, &b.TaxCents, &b.TotalCents, &b.PaymentRef, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Booking{}, nil, model.ErrNotFound
	}
	if err != nil {
		return model.Booking{}, nil, err
	}

	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT booking_id, seat_id, price_cents FROM booking_seats WHERE booking_id = ? ORDER BY seat_id`, id)
	if err != nil {
		return model.Booking{}, nil, err
	}
	defer rows.Close()

	var seats []model.BookingSeat
	for rows.Next() {
		var s model.BookingSeat
		if err := rows.Scan(&s.BookingID, &s.SeatID, &s.PriceCents); err != nil {
			return model.Booking{}, nil, err
		}
		seats = append(seats, s)
	}
	return b, seats, rows.Err()
}

// MarkStatus moves a booking between statuses under a guard, reporting
// whether this caller performed the transition.
func (r *BookingRepo) MarkStatus(ctx context.Context, id uint64, from, to model.BookingStatus) (bool, error) {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// ListByShow returns every booking for a show, any status.
func (r *BookingRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Booking, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, show_id, hold_id, status, tax_cents, total_cents, payment_ref, created_at
		 FROM bookings WHERE show_id = ?`, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Booking
	for rows.Next() {
		var b model.Booking
		if err := rows.Scan(&b.ID, &b.ShowID, &b.HoldID, &b.Status, &b.TaxCents, &b.TotalCents, &b.PaymentRef, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
