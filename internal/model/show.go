package model

import "time"

// ShowStatus is the lifecycle state of a show.  A show accepts holds and
// bookings only while OPEN.  CLOSED shows keep their bookings but accept
// no new ones; CANCELLED shows release every claim on their seats.
type ShowStatus string

const (
	ShowOpen      ShowStatus = "OPEN"
	ShowClosed    ShowStatus = "CLOSED"
	ShowCancelled ShowStatus = "CANCELLED"
)

// Show represents a scheduled screening of a movie in a showroom.  Once a
// show has bookings the schedule fields are immutable; only the status
// may change.
//
// Fields:
//  ID         – primary key identifier.
//  ShowroomID – showroom in which the show runs.
//  MovieTitle – name of the movie being screened.
//  StartsAt   – when the screening begins (UTC).
//  EndsAt     – when the screening ends (UTC).
//  Status     – lifecycle state (OPEN, CLOSED, CANCELLED).
//  CreatedAt  – creation timestamp.
type Show struct {
	ID         uint64     // shows.id
	ShowroomID uint64     // shows.showroom_id
	MovieTitle string     // shows.movie_title
	StartsAt   time.Time  // shows.starts_at
	EndsAt     time.Time  // shows.ends_at
	Status     ShowStatus // shows.status
	CreatedAt  time.Time  // shows.created_at
}
