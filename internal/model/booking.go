package model

import "time"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingBooked    BookingStatus = "BOOKED"
	BookingCancelled BookingStatus = "CANCELLED"
)

// Booking is a durable reservation of seats for a show, created only from
// a confirmed hold.  TotalCents and TaxCents record the price actually
// charged at confirmation time; later price rule changes never affect an
// existing booking.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show being booked.
//  HoldID     – the hold this booking was confirmed from.
//  Status     – BOOKED or CANCELLED.
//  TaxCents   – tax charged, per the configured tax policy.
//  TotalCents – sum of seat prices plus tax.
//  PaymentRef – external payment reference supplied at confirmation.
//  CreatedAt  – creation timestamp.
type Booking struct {
	ID         uint64        // bookings.id
	ShowID     uint64        // bookings.show_id
	HoldID     uint64        // bookings.hold_id
	Status     BookingStatus // bookings.status
	TaxCents   uint32        // bookings.tax_cents
	TotalCents uint32        // bookings.total_cents
	PaymentRef string        // bookings.payment_ref
	CreatedAt  time.Time     // bookings.created_at
}

// BookingSeat links a booking to a single seat and records the unit price
// charged for it.
type BookingSeat struct {
	BookingID  uint64 // booking_seats.booking_id
	SeatID     uint64 // booking_seats.seat_id
	PriceCents uint32 // booking_seats.price_cents
}

// PriceRule maps a seat type within a showroom to its unit price.  Rules
// are consulted at hold-confirmation time, not at hold-creation time, so
// a price change between the two moments is charged at the new rate.
type PriceRule struct {
	ID         uint64    // price_rules.id
	ShowroomID uint64    // price_rules.showroom_id
	SeatType   SeatType  // price_rules.seat_type
	PriceCents uint32    // price_rules.price_cents
	CreatedAt  time.Time // price_rules.created_at
}
