package model

import "time"

// SeatStatus is the availability state of one seat for one show.  It is
// the mutable heart of the model: every hold and booking is, at bottom, a
// transition between these three values.
type SeatStatus string

const (
	SeatFree   SeatStatus = "FREE"
	SeatHeld   SeatStatus = "HELD"
	SeatBooked SeatStatus = "BOOKED"
)

// SeatState records the availability of a seat for a particular show.
// There is one row for every seat in the showroom once a show is created.
// OwnerRef identifies the hold or booking currently claiming the seat and
// is empty while the seat is FREE.
//
// Fields:
//  ShowID   – the show this state belongs to.
//  SeatID   – the seat being tracked.
//  Status   – FREE, HELD or BOOKED.
//  OwnerRef – "hold:<id>" or "booking:<id>" of the current claimant.
//  Version  – bumped on every transition; used for auditing.
type SeatState struct {
	ShowID    uint64     // show_seats.show_id
	SeatID    uint64     // show_seats.seat_id
	Status    SeatStatus // show_seats.status
	OwnerRef  string     // show_seats.owner_ref
	Version   uint32     // show_seats.version
	UpdatedAt time.Time  // show_seats.updated_at
}
