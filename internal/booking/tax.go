package booking

import "github.com/odeska/cinema-booking/internal/model"

// TaxPolicy computes the tax charged on a booking. The rate is expressed
// in basis points (100 bp = 1%). FlatRateBP applies to every seat unless
// PerSeatTypeBP carries an override for the seat's type, which allows a
// cinema to tax VIP seats at a different rate. Both come from
// configuration; nothing here is hard-coded.
type TaxPolicy struct {
	FlatRateBP    uint32
	PerSeatTypeBP map[model.SeatType]uint32
}

// rateFor returns the basis-point rate applicable to a seat type.
func (p TaxPolicy) rateFor(st model.SeatType) uint32 {
	if r, ok := p.PerSeatTypeBP[st]; ok {
		return r
	}
	return p.FlatRateBP
}

// TaxFor returns the tax in cents for a single seat. Fractions of a cent
// are truncated, matching how the amounts are invoiced.
func (p TaxPolicy) TaxFor(st model.SeatType, priceCents uint32) uint32 {
	return uint32(uint64(priceCents) * uint64(p.rateFor(st)) / 10000)
}
