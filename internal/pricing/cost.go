package pricing

import "math"

// mm³·g/cm³ to kg.
const gramsMM3PerKg = 1_000_000.0

// Material is stock reference data.
type Material struct {
	Density   float64 // g/cm³
	UnitPrice float64 // currency per kg
}

// Surcharge is a per-kg post-processing or heat-treatment price.
type Surcharge struct {
	PricePerKg float64
}

// CostInput represents one quotation line's pricing inputs.
//
// Material, PostProcess and HeatTreat are optional. When a surcharge is nil, or the part has no
// weight, the matching Manual* value is carried through unchanged.
type CostInput struct {
	Part                  PartSpec
	Material              *Material
	ProcessingHours       float64
	HourlyRate            float64
	Difficulty            DifficultyGrade
	PostProcess           *Surcharge
	HeatTreat             *Surcharge
	ManualPostProcessCost float64
	ManualHeatTreatCost   float64
	ProfitRatePercent     float64
}

// CostBreakdown contains every intermediate value of the cost calculation.
type CostBreakdown struct {
	WeightKg        float64 `json:"weight_kg"`
	MaterialCost    float64 `json:"material_cost"`
	ProcessingCost  float64 `json:"processing_cost"`
	PostProcessCost float64 `json:"post_process_cost"`
	HeatTreatCost   float64 `json:"heat_treat_cost"`
	TotalCostRaw    float64 `json:"total_cost_raw"`
	ProfitAmount    float64 `json:"profit_amount"`
	SubTotal        float64 `json:"sub_total"`
}

// ComputeCost derives the profit-loaded cost of a single part.
func ComputeCost(in CostInput) CostBreakdown {
	var weightKg, materialCost float64
	if in.Material != nil {
		weightKg = in.Part.RawVolume() * in.Material.Density / gramsMM3PerKg
		materialCost = math.Round(weightKg * in.Material.UnitPrice)
	}

	processingCost := math.Round(in.ProcessingHours * in.HourlyRate * in.Difficulty.Factor())
	postProcessCost := surchargeCost(weightKg, in.PostProcess, in.ManualPostProcessCost)
	heatTreatCost := surchargeCost(weightKg, in.HeatTreat, in.ManualHeatTreatCost)

	totalCostRaw := materialCost + processingCost + postProcessCost + heatTreatCost
	profitAmount := totalCostRaw * (in.ProfitRatePercent / 100.0)

	return CostBreakdown{
		WeightKg:        weightKg,
		MaterialCost:    materialCost,
		ProcessingCost:  processingCost,
		PostProcessCost: postProcessCost,
		HeatTreatCost:   heatTreatCost,
		TotalCostRaw:    totalCostRaw,
		ProfitAmount:    profitAmount,
		SubTotal:        totalCostRaw + profitAmount,
	}
}

func surchargeCost(weightKg float64, s *Surcharge, manual float64) float64 {
	if s == nil || weightKg <= 0 {
		return manual
	}
	return math.Round(weightKg * s.PricePerKg)
}
