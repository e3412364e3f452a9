// Package quote persists quotations and keeps each line's stored price consistent with the pricing
// engine.
package quote

import (
	"errors"
	"fmt"

	"github.com/metalworks/quoter/internal/pricing"
)

var (
	// ErrNotFound is returned when a quote, line, material or surcharge does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalid wraps input validation failures.
	ErrInvalid = errors.New("invalid input")
)

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Settings is the per-company pricing configuration.
type Settings struct {
	HourlyRate        float64                `json:"hourly_rate"`
	RoundingUnit      int64                  `json:"rounding_unit"`
	ProfitRatePercent float64                `json:"profit_rate_percent"`
	DiscountPolicy    pricing.DiscountPolicy `json:"discount_policy"`
	Margins           pricing.MarginByShape  `json:"margins"`
	Currency          string                 `json:"currency"`
}

// Validate checks the settings before they are stored.
func (s Settings) Validate() error {
	if s.HourlyRate < 0 {
		return invalidf("hourly_rate must be >= 0")
	}
	if s.RoundingUnit <= 0 {
		return invalidf("rounding_unit must be > 0")
	}
	if s.ProfitRatePercent < 0 {
		return invalidf("profit_rate_percent must be >= 0")
	}
	if err := s.DiscountPolicy.Validate(); err != nil {
		return fmt.Errorf("%w: discount policy: %v", ErrInvalid, err)
	}
	return nil
}

// Material is a stock material available for quoting.
type Material struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Density   float64 `json:"density"`
	UnitPrice float64 `json:"unit_price"`
	Notes     string  `json:"notes"`
	Active    bool    `json:"active"`
}

// Validate checks a material before it is stored.
func (m Material) Validate() error {
	if m.Name == "" {
		return invalidf("name is required")
	}
	if m.Density <= 0 {
		return invalidf("density must be > 0")
	}
	if m.UnitPrice < 0 {
		return invalidf("unit_price must be >= 0")
	}
	return nil
}

// SurchargeKind distinguishes post-processing from heat-treatment.
type SurchargeKind string

const (
	SurchargePost SurchargeKind = "POST"
	SurchargeHeat SurchargeKind = "HEAT"
)

// Surcharge is a per-kg treatment price.
type Surcharge struct {
	ID         int64         `json:"id"`
	Kind       SurchargeKind `json:"kind"`
	Name       string        `json:"name"`
	PricePerKg float64       `json:"price_per_kg"`
	Notes      string        `json:"notes"`
	Active     bool          `json:"active"`
}

// Validate checks a surcharge before it is stored.
func (s Surcharge) Validate() error {
	if s.Kind != SurchargePost && s.Kind != SurchargeHeat {
		return invalidf("kind must be POST or HEAT")
	}
	if s.Name == "" {
		return invalidf("name is required")
	}
	if s.PricePerKg < 0 {
		return invalidf("price_per_kg must be >= 0")
	}
	return nil
}

// LineInput is everything the editor collects for one quotation line.
//
// HourlyRate and ProfitRatePercent fall back to the company settings when nil. When
// UseDefaultMargin is set, Raw is derived from Spec and the company's margins each time the line
// is priced.
// PostManual/HeatManual mark the treatment cost as user-entered: the surcharge selection is then
// ignored and the manual value is used as-is.
type LineInput struct {
	PartName          string            `json:"part_name"`
	Shape             pricing.ShapeKind `json:"shape"`
	Spec              [3]float64        `json:"spec"`
	Raw               [3]float64        `json:"raw"`
	UseDefaultMargin  bool              `json:"use_default_margin"`
	MaterialID        *int64            `json:"material_id"`
	ProcessingHours   float64           `json:"processing_hours"`
	HourlyRate        *float64          `json:"hourly_rate"`
	Difficulty        string            `json:"difficulty"`
	PostSurchargeID   *int64            `json:"post_surcharge_id"`
	HeatSurchargeID   *int64            `json:"heat_surcharge_id"`
	PostManual        bool              `json:"post_manual"`
	HeatManual        bool              `json:"heat_manual"`
	ManualPostCost    float64           `json:"manual_post_cost"`
	ManualHeatCost    float64           `json:"manual_heat_cost"`
	ProfitRatePercent *float64          `json:"profit_rate_percent"`
	Quantity          int               `json:"quantity"`
}

// Validate sanitizes boundary input. The pricing engine itself assumes well-formed numbers.
func (in LineInput) Validate() error {
	if _, err := pricing.ParseShapeKind(string(in.Shape)); err != nil {
		return invalidf("%v", err)
	}
	if _, err := pricing.ParseDifficulty(in.Difficulty); err != nil {
		return invalidf("%v", err)
	}
	shape, _ := pricing.ParseShapeKind(string(in.Shape))
	for i := range in.Spec {
		if in.Spec[i] < 0 || in.Raw[i] < 0 {
			return invalidf("dimensions must be >= 0")
		}
		// Round bars have no third dimension.
		if shape == pricing.ShapeRound && i == 2 {
			continue
		}
		if !in.UseDefaultMargin && in.Raw[i] < in.Spec[i] {
			return invalidf("raw dimensions must be >= spec dimensions")
		}
	}
	if in.ProcessingHours < 0 {
		return invalidf("processing_hours must be >= 0")
	}
	if in.HourlyRate != nil && *in.HourlyRate < 0 {
		return invalidf("hourly_rate must be >= 0")
	}
	if in.ProfitRatePercent != nil && *in.ProfitRatePercent < 0 {
		return invalidf("profit_rate_percent must be >= 0")
	}
	if in.ManualPostCost < 0 || in.ManualHeatCost < 0 {
		return invalidf("manual costs must be >= 0")
	}
	if in.Quantity < 1 {
		return invalidf("quantity must be >= 1")
	}
	return nil
}

// AppliedRates are the hourly and profit rates a line was last priced with, whether overridden on
// the line or taken from the settings.
type AppliedRates struct {
	HourlyRate        float64 `json:"hourly_rate"`
	ProfitRatePercent float64 `json:"profit_rate_percent"`
}

// Line is a priced, persisted quotation line.
type Line struct {
	ID      int64 `json:"id"`
	QuoteID int64 `json:"quote_id"`
	LineInput
	Applied   AppliedRates          `json:"applied"`
	Breakdown pricing.CostBreakdown `json:"breakdown"`
	Price     pricing.LinePrice     `json:"price"`
}

// LinePatch is an inline edit from the list view. Nil fields are left unchanged.
type LinePatch struct {
	Difficulty         *string  `json:"difficulty"`
	Quantity           *int     `json:"quantity"`
	PostSurchargeID    *int64   `json:"post_surcharge_id"`
	ClearPostSurcharge bool     `json:"clear_post_surcharge"`
	PostManual         *bool    `json:"post_manual"`
	ManualPostCost     *float64 `json:"manual_post_cost"`
}

// Apply returns in with the patch applied.
func (p LinePatch) Apply(in LineInput) LineInput {
	if p.Difficulty != nil {
		in.Difficulty = *p.Difficulty
	}
	if p.Quantity != nil {
		in.Quantity = *p.Quantity
	}
	if p.ClearPostSurcharge {
		in.PostSurchargeID = nil
	} else if p.PostSurchargeID != nil {
		id := *p.PostSurchargeID
		in.PostSurchargeID = &id
	}
	if p.PostManual != nil {
		in.PostManual = *p.PostManual
	}
	if p.ManualPostCost != nil {
		in.ManualPostCost = *p.ManualPostCost
	}
	return in
}

// Header is the editable part of a quote.
type Header struct {
	Customer string `json:"customer"`
	Title    string `json:"title"`
	Notes    string `json:"notes"`
}

// Quote is a quotation with its lines.
type Quote struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	Header
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
	Lines     []Line `json:"lines"`
	Total     int64  `json:"total"`
}

// ListItem is a row of the quote list.
type ListItem struct {
	ID        int64  `json:"id"`
	Reference string `json:"reference"`
	CreatedAt string `json:"created_at"`
	Customer  string `json:"customer"`
	Title     string `json:"title"`
	Total     int64  `json:"total"`
}
