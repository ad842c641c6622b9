// Package queue defines message payloads exchanged over the message broker.
package queue

// Queue names shared by the publisher and the consumer.
const (
	BookingConfirmedQueue = "booking.confirmed"
	HoldExpiredQueue      = "hold.expired"
)

// BookingConfirmedEvent is published when a hold is successfully converted
// into a booking. It carries enough detail for downstream consumers to
// log or notify without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID   uint64   `json:"booking_id"`
	ShowID      uint64   `json:"show_id"`
	MovieTitle  string   `json:"movie_title"`
	SeatLabels  []string `json:"seats"`
	TaxCents    uint32   `json:"tax_cents"`
	TotalCents  uint32   `json:"total_cents"`
	ConfirmedAt string   `json:"confirmed_at"`
}

// HoldExpiredEvent is published when a hold's TTL lapses and its seats are
// returned to the free pool. The expiry sweep and the lazy check both emit
// it, whichever detects the lapse first.
type HoldExpiredEvent struct {
	HoldID    uint64   `json:"hold_id"`
	ShowID    uint64   `json:"show_id"`
	SeatIDs   []uint64 `json:"seat_ids"`
	ExpiredAt string   `json:"expired_at"`
}
