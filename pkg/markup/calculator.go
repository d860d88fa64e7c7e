package markup

import (
	"sort"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Apply prices a cost base through the given markups in ascending
// calculationOrder. A compound markup takes its percentage of the running
// total (base plus everything applied before it); a non-compound markup
// always takes its percentage of the original base.
func Apply(base decimal.Decimal, markups []Markup) Breakdown {
	ordered := make([]Markup, len(markups))
	copy(ordered, markups)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CalculationOrder < ordered[j].CalculationOrder
	})

	breakdown := Breakdown{Base: base, Total: base}
	for _, m := range ordered {
		reference := base
		if m.Compound {
			reference = breakdown.Total
		}
		amount := reference.Mul(m.Percentage).Div(hundred)
		breakdown.Total = breakdown.Total.Add(amount)
		breakdown.Contributions = append(breakdown.Contributions, Contribution{
			MarkupType: m.MarkupType,
			Percentage: m.Percentage,
			Compound:   m.Compound,
			Amount:     amount,
		})
	}
	return breakdown
}
