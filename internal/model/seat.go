package model

import (
	"strconv"
	"time"
)

// SeatType categorises a seat for pricing purposes.  Prices are defined
// per (showroom, seat type) pair, so adding a new type only requires a
// new price rule.
type SeatType string

const (
	SeatStandard SeatType = "STANDARD"
	SeatVIP      SeatType = "VIP"
	SeatCouple   SeatType = "COUPLE"
)

// Showroom is a single screening room.  Seats are laid out once per
// showroom and reused by every show scheduled in that room, so owners do
// not configure seating per show.
type Showroom struct {
	ID        uint64    // showrooms.id
	Name      string    // showrooms.name
	Details   string    // showrooms.details (e.g. "2D", "IMAX")
	CreatedAt time.Time // showrooms.created_at
}

// Seat describes a physical seat in a showroom.  Seats are uniquely
// identified by their showroom, row label and seat number.
//
// Fields:
//  ID          – primary key identifier.
//  ShowroomID  – showroom this seat belongs to.
//  RowLabel    – letter or string designating the row.
//  SeatNumber  – number of the seat within the row.
//  SeatType    – pricing category of the seat.
//  OrderNumber – position used when rendering the seat map in order.
type Seat struct {
	ID          uint64    // seats.id
	ShowroomID  uint64    // seats.showroom_id
	RowLabel    string    // seats.row_label
	SeatNumber  uint32    // seats.seat_number
	SeatType    SeatType  // seats.seat_type
	OrderNumber uint32    // seats.order_number
	CreatedAt   time.Time // seats.created_at
}

// Label renders the seat's human readable position, e.g. "1A", as it
// appears on a printed ticket.
func (s Seat) Label() string {
	return strconv.FormatUint(uint64(s.SeatNumber), 10) + s.RowLabel
}
