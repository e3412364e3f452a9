// quotecalc prices a single part from the command line.
//
// Usage:
//
//	quotecalc price --shape rect --width 95 --depth 45 --height 7 --margin --density 7.85 --unit-price 350 --hours 1.5 --difficulty B --qty 10
//	quotecalc rate --difficulty C --qty 75
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/metalworks/quoter/internal/pricing"
)

var version = "dev"

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		log.Error().Err(err).Msg("quotecalc failed")
		os.Exit(1)
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "quotecalc",
		Usage:   "Price machined parts with the shop's cost and discount rules",
		Version: version,
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "warn",
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
		},
		Before: func(c *cli.Context) error {
			level, err := zerolog.ParseLevel(c.String("log-level"))
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", c.String("log-level"), err)
			}
			zerolog.SetGlobalLevel(level)
			return nil
		},
		Commands: []*cli.Command{
			priceCommand(),
			rateCommand(),
		},
	}
}

var policyFlag = &cli.StringFlag{
	Name:  "policy",
	Usage: "Path to a discount policy JSON file (grade -> six rates)",
}

func priceCommand() *cli.Command {
	return &cli.Command{
		Name:  "price",
		Usage: "Compute the cost breakdown and unit price of one part",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "shape", Value: "rect", Usage: "Part shape (rect, round)"},
			&cli.Float64Flag{Name: "width", Usage: "Finished width (mm), rect"},
			&cli.Float64Flag{Name: "depth", Usage: "Finished depth (mm), rect"},
			&cli.Float64Flag{Name: "height", Usage: "Finished height (mm), rect"},
			&cli.Float64Flag{Name: "dia", Usage: "Finished diameter (mm), round"},
			&cli.Float64Flag{Name: "len", Usage: "Finished length (mm), round"},
			&cli.Float64SliceFlag{Name: "raw", Usage: "Raw stock dimensions, repeated in shape order"},
			&cli.BoolFlag{Name: "margin", Usage: "Derive raw stock from the default machining margin"},
			&cli.Float64Flag{Name: "density", Usage: "Material density (g/cm³)"},
			&cli.Float64Flag{Name: "unit-price", Usage: "Material price per kg"},
			&cli.Float64Flag{Name: "hours", Usage: "Processing hours"},
			&cli.Float64Flag{Name: "rate", Value: 8000, Usage: "Hourly rate"},
			&cli.StringFlag{Name: "difficulty", Value: "A", Usage: "Difficulty grade A-F"},
			&cli.Float64Flag{Name: "post-per-kg", Usage: "Post-processing price per kg"},
			&cli.Float64Flag{Name: "heat-per-kg", Usage: "Heat-treatment price per kg"},
			&cli.Float64Flag{Name: "post-cost", Usage: "Manual post-processing cost, used when --post-per-kg is unset"},
			&cli.Float64Flag{Name: "heat-cost", Usage: "Manual heat-treatment cost, used when --heat-per-kg is unset"},
			&cli.Float64Flag{Name: "profit", Value: 20, Usage: "Profit rate (%)"},
			&cli.IntFlag{Name: "qty", Value: 1, Usage: "Quantity"},
			&cli.Int64Flag{Name: "rounding", Value: pricing.DefaultRoundingUnit, Usage: "Unit price rounding unit"},
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Value: "text", Usage: "Output format (text, json)"},
			policyFlag,
		},
		Action: runPrice,
	}
}

func rateCommand() *cli.Command {
	return &cli.Command{
		Name:  "rate",
		Usage: "Print the application rate for a difficulty grade and quantity",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "difficulty", Required: true, Usage: "Difficulty grade A-F"},
			&cli.IntFlag{Name: "qty", Required: true, Usage: "Quantity"},
			policyFlag,
		},
		Action: func(c *cli.Context) error {
			grade, err := pricing.ParseDifficulty(c.String("difficulty"))
			if err != nil {
				return err
			}
			policy, err := loadPolicy(c.String("policy"))
			if err != nil {
				return err
			}
			rate := pricing.InterpolateRate(policy, grade, c.Int("qty"))
			_, err = fmt.Fprintf(c.App.Writer, "%s%%\n", humanize.Ftoa(rate))
			return err
		},
	}
}

func runPrice(c *cli.Context) error {
	part, err := partFromFlags(c)
	if err != nil {
		return err
	}
	grade, err := pricing.ParseDifficulty(c.String("difficulty"))
	if err != nil {
		return err
	}
	policy, err := loadPolicy(c.String("policy"))
	if err != nil {
		return err
	}

	in := pricing.CostInput{
		Part:                  part,
		ProcessingHours:       c.Float64("hours"),
		HourlyRate:            c.Float64("rate"),
		Difficulty:            grade,
		ManualPostProcessCost: c.Float64("post-cost"),
		ManualHeatTreatCost:   c.Float64("heat-cost"),
		ProfitRatePercent:     c.Float64("profit"),
	}
	if c.IsSet("density") {
		in.Material = &pricing.Material{Density: c.Float64("density"), UnitPrice: c.Float64("unit-price")}
	}
	if c.IsSet("post-per-kg") {
		in.PostProcess = &pricing.Surcharge{PricePerKg: c.Float64("post-per-kg")}
	}
	if c.IsSet("heat-per-kg") {
		in.HeatTreat = &pricing.Surcharge{PricePerKg: c.Float64("heat-per-kg")}
	}

	breakdown, price := pricing.PriceLine(in, policy, c.Int64("rounding"), c.Int("qty"))
	log.Debug().
		Str("shape", string(part.Kind())).
		Float64("raw_volume_mm3", part.RawVolume()).
		Str("difficulty", string(grade)).
		Msg("priced part")

	if c.String("format") == "json" {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Breakdown pricing.CostBreakdown `json:"breakdown"`
			Price     pricing.LinePrice     `json:"price"`
		}{breakdown, price})
	}
	return writeText(c.App.Writer, breakdown, price)
}

func partFromFlags(c *cli.Context) (pricing.PartSpec, error) {
	kind, err := pricing.ParseShapeKind(c.String("shape"))
	if err != nil {
		return pricing.PartSpec{}, err
	}

	var spec [3]float64
	if kind == pricing.ShapeRound {
		spec = [3]float64{c.Float64("dia"), c.Float64("len"), 0}
	} else {
		spec = [3]float64{c.Float64("width"), c.Float64("depth"), c.Float64("height")}
	}

	if c.Bool("margin") {
		finished := pricing.PartFromDims(kind, spec, spec).Finished
		return pricing.WithMargin(finished, pricing.DefaultMarginByShape.For(kind)), nil
	}

	raw := spec
	if values := c.Float64Slice("raw"); len(values) > 0 {
		if len(values) > len(raw) {
			return pricing.PartSpec{}, fmt.Errorf("--raw takes at most %d values, got %d", len(raw), len(values))
		}
		copy(raw[:], values)
	}
	return pricing.PartFromDims(kind, spec, raw), nil
}

func loadPolicy(path string) (pricing.DiscountPolicy, error) {
	if path == "" {
		return pricing.DefaultDiscountPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	policy, err := pricing.ParseDiscountPolicy(data)
	if err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("policy file %s: %w", path, err)
	}
	return policy, nil
}

func writeText(w io.Writer, b pricing.CostBreakdown, p pricing.LinePrice) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Weight:           %s kg\n", humanize.FtoaWithDigits(b.WeightKg, 4))
	fmt.Fprintf(&sb, "Material:         %s\n", humanize.Commaf(b.MaterialCost))
	fmt.Fprintf(&sb, "Processing:       %s\n", humanize.Commaf(b.ProcessingCost))
	fmt.Fprintf(&sb, "Post-processing:  %s\n", humanize.Commaf(b.PostProcessCost))
	fmt.Fprintf(&sb, "Heat treatment:   %s\n", humanize.Commaf(b.HeatTreatCost))
	fmt.Fprintf(&sb, "Total cost:       %s\n", humanize.Commaf(b.TotalCostRaw))
	fmt.Fprintf(&sb, "Profit:           %s\n", humanize.Commaf(b.ProfitAmount))
	fmt.Fprintf(&sb, "Subtotal:         %s\n", humanize.Commaf(b.SubTotal))
	fmt.Fprintf(&sb, "Application rate: %s%%\n", humanize.Ftoa(p.ApplicationRate))
	fmt.Fprintf(&sb, "Unit price:       %s\n", humanize.Comma(p.UnitPrice))
	fmt.Fprintf(&sb, "Quantity:         %s\n", humanize.Comma(int64(p.Quantity)))
	fmt.Fprintf(&sb, "Supply price:     %s\n", humanize.Comma(p.SupplyPrice))
	_, err := io.WriteString(w, sb.String())
	return err
}
