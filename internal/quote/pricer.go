package quote

import "github.com/metalworks/quoter/internal/pricing"

// Refs is the reference data a line is priced against.
type Refs struct {
	Materials  map[int64]Material
	Surcharges map[int64]Surcharge
}

// NewRefs indexes materials and surcharges by ID.
func NewRefs(materials []Material, surcharges []Surcharge) Refs {
	refs := Refs{
		Materials:  make(map[int64]Material, len(materials)),
		Surcharges: make(map[int64]Surcharge, len(surcharges)),
	}
	for _, m := range materials {
		refs.Materials[m.ID] = m
	}
	for _, s := range surcharges {
		refs.Surcharges[s.ID] = s
	}
	return refs
}

func (r Refs) material(id *int64) *pricing.Material {
	if id == nil {
		return nil
	}
	m, ok := r.Materials[*id]
	if !ok {
		return nil
	}
	return &pricing.Material{Density: m.Density, UnitPrice: m.UnitPrice}
}

func (r Refs) surcharge(id *int64, kind SurchargeKind) *pricing.Surcharge {
	if id == nil {
		return nil
	}
	s, ok := r.Surcharges[*id]
	if !ok || s.Kind != kind {
		return nil
	}
	return &pricing.Surcharge{PricePerKg: s.PricePerKg}
}

// Check rejects references that do not resolve: a material ID that is not in the catalogue, or a
// surcharge ID that is missing or of the wrong kind. Surcharges overridden by a manual cost are not
// checked.
func (r Refs) Check(in LineInput) error {
	if in.MaterialID != nil {
		if _, ok := r.Materials[*in.MaterialID]; !ok {
			return invalidf("unknown material %d", *in.MaterialID)
		}
	}
	if !in.PostManual && in.PostSurchargeID != nil && r.surcharge(in.PostSurchargeID, SurchargePost) == nil {
		return invalidf("unknown post-processing surcharge %d", *in.PostSurchargeID)
	}
	if !in.HeatManual && in.HeatSurchargeID != nil && r.surcharge(in.HeatSurchargeID, SurchargeHeat) == nil {
		return invalidf("unknown heat-treatment surcharge %d", *in.HeatSurchargeID)
	}
	return nil
}

// Price runs the pricing engine for one line. Unknown materials or surcharges price as absent
// rather than failing, so a deleted reference never blocks quoting.
//
// Overrides in the input are kept as given. Values taken from the settings are reported in
// Applied, and a derived raw size is written to Raw while UseDefaultMargin stays set, so a later
// re-price follows the settings again.
func Price(in LineInput, s Settings, refs Refs) Line {
	kind, err := pricing.ParseShapeKind(string(in.Shape))
	if err != nil {
		kind = pricing.ShapeRect
	}
	in.Shape = kind

	part := pricing.PartFromDims(kind, in.Spec, in.Raw)
	if in.UseDefaultMargin {
		part = pricing.WithMargin(part.Finished, s.Margins.For(kind))
		in.Raw[0], in.Raw[1], in.Raw[2] = part.Raw.Dims()
	}

	grade, err := pricing.ParseDifficulty(in.Difficulty)
	if err == nil {
		in.Difficulty = string(grade)
	}

	applied := AppliedRates{HourlyRate: s.HourlyRate, ProfitRatePercent: s.ProfitRatePercent}
	if in.HourlyRate != nil {
		applied.HourlyRate = *in.HourlyRate
	}
	if in.ProfitRatePercent != nil {
		applied.ProfitRatePercent = *in.ProfitRatePercent
	}

	costIn := pricing.CostInput{
		Part:                  part,
		Material:              refs.material(in.MaterialID),
		ProcessingHours:       in.ProcessingHours,
		HourlyRate:            applied.HourlyRate,
		Difficulty:            grade,
		ManualPostProcessCost: in.ManualPostCost,
		ManualHeatTreatCost:   in.ManualHeatCost,
		ProfitRatePercent:     applied.ProfitRatePercent,
	}
	if !in.PostManual {
		costIn.PostProcess = refs.surcharge(in.PostSurchargeID, SurchargePost)
	}
	if !in.HeatManual {
		costIn.HeatTreat = refs.surcharge(in.HeatSurchargeID, SurchargeHeat)
	}

	breakdown, price := pricing.PriceLine(costIn, s.DiscountPolicy, s.RoundingUnit, in.Quantity)
	return Line{LineInput: in, Applied: applied, Breakdown: breakdown, Price: price}
}
