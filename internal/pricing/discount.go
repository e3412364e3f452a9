package pricing

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"go.uber.org/multierr"
)

// QuantityBreakpoints is the fixed x-axis of every discount curve.
var QuantityBreakpoints = [...]int{1, 10, 50, 100, 500, 1000}

// FullRate is the application rate charged when no discount applies.
const FullRate = 100.0

// DiscountPolicy maps a difficulty grade to the application rates (percent of subtotal) charged at
// each of the QuantityBreakpoints.
type DiscountPolicy map[DifficultyGrade][]float64

// DefaultDiscountPolicy returns the curves a new company starts with.
func DefaultDiscountPolicy() DiscountPolicy {
	return DiscountPolicy{
		GradeA: {100, 95, 90, 85, 80, 75},
		GradeB: {100, 96, 92, 88, 84, 80},
		GradeC: {100, 97, 94, 91, 88, 85},
		GradeD: {100, 98, 96, 94, 92, 90},
		GradeE: {100, 99, 97, 95, 93, 92},
		GradeF: {100, 99, 98, 97, 96, 95},
	}
}

// InterpolateRate returns the application rate for qty parts of grade g, linearly interpolated
// between breakpoints and rounded to one decimal place. Quantities outside the breakpoints clamp
// to the first or last rate. A grade without a curve is charged FullRate.
func InterpolateRate(policy DiscountPolicy, g DifficultyGrade, qty int) float64 {
	rates := policy[g]
	if len(rates) == 0 {
		return FullRate
	}

	n := min(len(rates), len(QuantityBreakpoints))
	q := QuantityBreakpoints[:n]

	if qty <= q[0] {
		return rates[0]
	}
	if qty >= q[n-1] {
		return rates[n-1]
	}

	i := 0
	for i < n-1 && q[i+1] < qty {
		i++
	}

	span := float64(q[i+1] - q[i])
	rate := rates[i] + float64(qty-q[i])*(rates[i+1]-rates[i])/span
	return math.Round(rate*10) / 10
}

// Validate reports every malformed curve: unknown grades, wrong length, values outside 0-100 and
// rates that rise with quantity.
func (p DiscountPolicy) Validate() error {
	var err error
	for _, g := range p.sortedGrades() {
		rates := p[g]
		if !g.Valid() {
			err = multierr.Append(err, fmt.Errorf("grade %q: unknown difficulty grade", g))
			continue
		}
		if len(rates) != len(QuantityBreakpoints) {
			err = multierr.Append(err, fmt.Errorf("grade %s: expected %d rates, got %d", g, len(QuantityBreakpoints), len(rates)))
			continue
		}
		for i, r := range rates {
			if math.IsNaN(r) || r < 0 || r > 100 {
				err = multierr.Append(err, fmt.Errorf("grade %s: rate at qty %d must be between 0 and 100, got %v", g, QuantityBreakpoints[i], r))
			}
			if i > 0 && r > rates[i-1] {
				err = multierr.Append(err, fmt.Errorf("grade %s: rate at qty %d (%v) exceeds rate at qty %d (%v)", g, QuantityBreakpoints[i], r, QuantityBreakpoints[i-1], rates[i-1]))
			}
		}
	}
	return err
}

// Clone returns a deep copy so callers can edit curves without touching shared configuration.
func (p DiscountPolicy) Clone() DiscountPolicy {
	out := make(DiscountPolicy, len(p))
	for g, rates := range p {
		out[g] = append([]float64(nil), rates...)
	}
	return out
}

func (p DiscountPolicy) sortedGrades() []DifficultyGrade {
	grades := make([]DifficultyGrade, 0, len(p))
	for g := range p {
		grades = append(grades, g)
	}
	sort.Slice(grades, func(i, j int) bool { return grades[i] < grades[j] })
	return grades
}

// ParseDiscountPolicy decodes the stored JSON form. Empty input yields an empty policy, which prices
// every grade at FullRate.
func ParseDiscountPolicy(raw []byte) (DiscountPolicy, error) {
	policy := DiscountPolicy{}
	if len(raw) == 0 {
		return policy, nil
	}
	if err := json.Unmarshal(raw, &policy); err != nil {
		return nil, fmt.Errorf("decode discount policy: %w", err)
	}
	return policy, nil
}
