package pricing

import "github.com/shopspring/decimal"

// DefaultRoundingUnit is the currency granularity unit prices are rounded up to.
const DefaultRoundingUnit int64 = 1000

var hundred = decimal.NewFromInt(100)

// LinePrice is the customer-facing price of one quotation line.
type LinePrice struct {
	ApplicationRate float64 `json:"application_rate"`
	RawUnitPrice    float64 `json:"raw_unit_price"`
	UnitPrice       int64   `json:"unit_price"`
	Quantity        int     `json:"quantity"`
	SupplyPrice     int64   `json:"supply_price"`
}

// CeilToUnit rounds amount up to the next multiple of unit. A non-positive unit rounds up to a
// whole currency unit.
func CeilToUnit(amount decimal.Decimal, unit int64) int64 {
	if unit <= 0 {
		unit = 1
	}
	u := decimal.NewFromInt(unit)
	return amount.Div(u).Ceil().Mul(u).IntPart()
}

// QuoteLinePrice applies the application rate to the breakdown's subtotal, rounds the unit price up
// to roundingUnit and extends it by qty.
func QuoteLinePrice(b CostBreakdown, rate float64, roundingUnit int64, qty int) LinePrice {
	raw := decimal.NewFromFloat(b.SubTotal).Mul(decimal.NewFromFloat(rate)).Div(hundred)
	unitPrice := CeilToUnit(raw, roundingUnit)
	if qty < 0 {
		qty = 0
	}

	return LinePrice{
		ApplicationRate: rate,
		RawUnitPrice:    raw.InexactFloat64(),
		UnitPrice:       unitPrice,
		Quantity:        qty,
		SupplyPrice:     decimal.NewFromInt(unitPrice).Mul(decimal.NewFromInt(int64(qty))).IntPart(),
	}
}

// PriceLine runs the whole pricing pipeline for one line: cost breakdown, quantity discount and
// rounding.
func PriceLine(in CostInput, policy DiscountPolicy, roundingUnit int64, qty int) (CostBreakdown, LinePrice) {
	b := ComputeCost(in)
	rate := InterpolateRate(policy, in.Difficulty, qty)
	return b, QuoteLinePrice(b, rate, roundingUnit, qty)
}
