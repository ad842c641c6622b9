package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/odeska/cinema-booking/internal/model"
)

// ShowroomRepo manages showrooms and their seat layouts. A layout is
// written once when the room is provisioned and then reused by every
// show scheduled in that room, so owners never configure seating per
// show.
type ShowroomRepo struct {
	db *sql.DB
}

// NewShowroomRepo returns a ShowroomRepo bound to the provided database.
func NewShowroomRepo(db *sql.DB) *ShowroomRepo { return &ShowroomRepo{db: db} }

// CreateShowroom inserts a showroom and populates room.ID.
func (r *ShowroomRepo) CreateShowroom(ctx context.Context, room *model.Showroom) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO showrooms (name, details) VALUES (?, ?)`, room.Name, room.Details)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	room.ID = uint64(id)
	return nil
}

// GetShowroom loads a showroom by ID.
func (r *ShowroomRepo) GetShowroom(ctx context.Context, id uint64) (model.Showroom, error) {
	var room model.Showroom
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, details, created_at FROM showrooms WHERE id = ?`, id).
		Scan(&room.ID, &room.Name, &room.Details, &room.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Showroom{}, model.ErrNotFound
	}
	return room, err
}

// CreateSeats bulk-inserts the seats of a showroom, populating IDs.
func (r *ShowroomRepo) CreateSeats(ctx context.Context, showroomID uint64, seats []model.Seat) error {
	for i := range seats {
		res, err := q(ctx, r.db).ExecContext(ctx,
			`INSERT INTO seats (showroom_id, row_label, seat_number, seat_type, order_number)
			 VALUES (?, ?, ?, ?, ?)`,
			showroomID, seats[i].RowLabel, seats[i].SeatNumber, string(seats[i].SeatType), seats[i].OrderNumber)
		if err != nil {
			return err
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		seats[i].ID = uint64(id)
		seats[i].ShowroomID = showroomID
	}
	return nil
}

// SeatsFor returns the showroom's seats in display order. An unknown
// showroom is ErrNotFound.
func (r *ShowroomRepo) SeatsFor(ctx context.Context, showroomID uint64) ([]model.Seat, error) {
	if _, err := r.GetShowroom(ctx, showroomID); err != nil {
		return nil, err
	}
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT id, showroom_id, row_label, seat_number, seat_type, order_number, created_at
		 FROM seats WHERE showroom_id = ? ORDER BY order_number, id`, showroomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seats []model.Seat
	for rows.Next() {
		var s model.Seat
		if err := rows.Scan(&s.ID, &s.ShowroomID, &s.RowLabel, &s.SeatNumber, &s.SeatType, &s.OrderNumber, &s.CreatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}
