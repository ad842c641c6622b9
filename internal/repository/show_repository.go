package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/odeska/cinema-booking/internal/model"
)

// ShowRepo manages persistence for shows. Schedule fields are written at
// creation; afterwards only the status column changes, via SetStatus.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo returns a ShowRepo bound to the provided database.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// WithTx runs fn inside a transaction; see repository.WithTx.
func (r *ShowRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return WithTx(ctx, r.db, fn)
}

// CreateShow inserts a show with status OPEN and populates s.ID. The
// caller is responsible for initialising the show's ledger rows in the
// same transaction.
func (r *ShowRepo) CreateShow(ctx context.Context, s *model.Show) error {
	if s.Status == "" {
		s.Status = model.ShowOpen
	}
	res, err := q(ctx, r.db).ExecContext(ctx,
		`INSERT INTO shows (showroom_id, movie_title, starts_at, ends_at, status)
		 VALUES (?, ?, ?, ?, ?)`,
		s.ShowroomID, s.MovieTitle, s.StartsAt.UTC(), s.EndsAt.UTC(), string(s.Status))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetShow loads a show by ID; unknown IDs are ErrNotFound.
func (r *ShowRepo) GetShow(ctx context.Context, id uint64) (model.Show, error) {
	var s model.Show
	err := q(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, showroom_id, movie_title, starts_at, ends_at, status, created_at
		 FROM shows WHERE id = ?`, id).
		Scan(&s.ID, &s.ShowroomID, &s.MovieTitle, &s.StartsAt, &s.EndsAt, &s.Status, &s.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Show{}, model.ErrNotFound
	}
	return s, err
}

// SetStatus updates a show's lifecycle state.
func (r *ShowRepo) SetStatus(ctx context.Context, id uint64, status model.ShowStatus) error {
	res, err := q(ctx, r.db).ExecContext(ctx,
		`UPDATE shows SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

// ShowListing is a show row joined with its free-seat count, used by the
// public browse endpoints so users can skip shows that are booked out.
type ShowListing struct {
	Show      model.Show
	FreeSeats uint32
}

// ListUpcoming returns OPEN shows starting after now, each with the
// number of currently FREE seats. The free count treats HELD seats as
// unavailable even when their hold has lapsed; the next ledger access
// corrects that, and a browse view may be momentarily pessimistic.
func (r *ShowRepo) ListUpcoming(ctx context.Context, now time.Time) ([]ShowListing, error) {
	rows, err := q(ctx, r.db).QueryContext(ctx,
		`SELECT s.id, s.showroom_id, s.movie_title, s.starts_at, s.ends_at, s.status, s.created_at,
		        COALESCE(SUM(CASE WHEN ss.status = 'FREE' THEN 1 ELSE 0 END), 0)
		 FROM shows s
		 LEFT JOIN show_seats ss ON ss.show_id = s.id
		 WHERE s.status = 'OPEN' AND s.starts_at > ?
		 GROUP BY s.id
		 ORDER BY s.starts_at`, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ShowListing
	for rows.Next() {
		var l ShowListing
		if err := rows.Scan(&l.Show.ID, &l.Show.ShowroomID, &l.Show.MovieTitle,
			&l.Show.StartsAt, &l.Show.EndsAt, &l.Show.Status, &l.Show.CreatedAt, &l.FreeSeats); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
