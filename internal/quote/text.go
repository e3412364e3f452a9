package quote

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/metalworks/quoter/internal/pricing"
)

// Summary renders a plain-text quote suitable for pasting into an email.
func Summary(q Quote, currency string, materialNames map[int64]string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Quote %s\n", q.Reference)
	if q.Customer != "" {
		fmt.Fprintf(&b, "Customer: %s\n", q.Customer)
	}
	if q.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", q.Title)
	}
	fmt.Fprintf(&b, "Date: %s\n", q.CreatedAt)
	b.WriteString("\nLines:\n")

	for i, l := range q.Lines {
		name := l.PartName
		if name == "" {
			name = fmt.Sprintf("Part %d", i+1)
		}
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, name, describeDims(l))
		if l.MaterialID != nil {
			if mat, ok := materialNames[*l.MaterialID]; ok {
				fmt.Fprintf(&b, "   Material: %s, %s kg\n", mat, humanize.FtoaWithDigits(l.Breakdown.WeightKg, 3))
			}
		}
		fmt.Fprintf(&b, "   Difficulty: %s, rate %s%%\n", l.Difficulty, humanize.Ftoa(l.Price.ApplicationRate))
		fmt.Fprintf(&b, "   %s x %s = %s %s\n",
			humanize.Comma(l.Price.UnitPrice),
			humanize.Comma(int64(l.Quantity)),
			humanize.Comma(l.Price.SupplyPrice),
			currency,
		)
	}

	fmt.Fprintf(&b, "\nTotal: %s %s\n", humanize.Comma(q.Total), currency)
	if q.Notes != "" {
		fmt.Fprintf(&b, "\nNotes: %s\n", q.Notes)
	}
	return b.String()
}

func describeDims(l Line) string {
	if l.Shape == pricing.ShapeRound {
		return fmt.Sprintf("ø%s x %s mm", humanize.Ftoa(l.Spec[0]), humanize.Ftoa(l.Spec[1]))
	}
	return fmt.Sprintf("%s x %s x %s mm", humanize.Ftoa(l.Spec[0]), humanize.Ftoa(l.Spec[1]), humanize.Ftoa(l.Spec[2]))
}
