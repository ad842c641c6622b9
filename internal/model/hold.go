package model

import "time"

// HoldStatus is the lifecycle state of a hold.  ACTIVE is the only
// non-terminal state; CONFIRMED, CANCELLED and EXPIRED are terminal and a
// hold never leaves them.
type HoldStatus string

const (
	HoldActive    HoldStatus = "ACTIVE"
	HoldConfirmed HoldStatus = "CONFIRMED"
	HoldCancelled HoldStatus = "CANCELLED"
	HoldExpired   HoldStatus = "EXPIRED"
)

// Terminal reports whether the status is one a hold cannot leave.
func (s HoldStatus) Terminal() bool {
	return s != HoldActive
}

// Hold is a time-boxed, exclusive soft-reservation of seats for a show
// pending confirmation.  The seat set is fixed at creation; changing
// seats means cancelling and creating a new hold.  Whether the hold is
// still live is always decided by comparing ExpiresAt against the clock
// at the moment of access, never by a background timer.
//
// Fields:
//  ID        – primary key identifier.
//  ShowID    – show for which the seats are held.
//  SeatIDs   – seats claimed by the hold, immutable after creation.
//  Status    – ACTIVE, CONFIRMED, CANCELLED or EXPIRED.
//  ExpiresAt – absolute expiry timestamp (creation time + TTL).
//  CreatedAt – when the hold was created.
type Hold struct {
	ID        uint64     // seat_holds.id
	ShowID    uint64     // seat_holds.show_id
	SeatIDs   []uint64   // seat_hold_seats rows
	Status    HoldStatus // seat_holds.status
	ExpiresAt time.Time  // seat_holds.expires_at
	CreatedAt time.Time  // seat_holds.created_at
}

// ExpiredAt reports whether the hold's TTL has lapsed at the given
// instant.  A terminal hold is never considered expired-at; it already
// reached its final state.
func (h Hold) ExpiredAt(now time.Time) bool {
	return h.Status == HoldActive && !h.ExpiresAt.After(now)
}
