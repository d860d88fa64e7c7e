package markup

import "github.com/shopspring/decimal"

// Markup is a vertical markup entry. At most one entry per markup type
// exists per project; calculationOrder decides the application sequence.
type Markup struct {
	ID               int
	ProjectID        int
	MarkupType       string
	Percentage       decimal.Decimal
	CalculationOrder int
	Compound         bool
}

// Contribution is one markup's share of a priced amount.
type Contribution struct {
	MarkupType string
	Percentage decimal.Decimal
	Compound   bool
	Amount     decimal.Decimal
}

// Breakdown is the result of pricing a cost base through a project's
// markups: the base, each markup's contribution in application order, and
// the final total.
type Breakdown struct {
	Base          decimal.Decimal
	Contributions []Contribution
	Total         decimal.Decimal
}
