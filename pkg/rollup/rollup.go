package rollup

import "github.com/shopspring/decimal"

// Sums are the per-ledger totals for one identity key, restricted to rows
// whose batch state counts as live. A key with no rows in a ledger sums to
// zero.
type Sums struct {
	ApprovedModifications decimal.Decimal
	ApprovedChangeOrders  decimal.Decimal
	CommittedCost         decimal.Decimal
	JobToDateCost         decimal.Decimal
}

// Result is the full financial position of one budget line.
type Result struct {
	BudgetLineID          int
	OriginalAmount        decimal.Decimal
	RevisedBudget         decimal.Decimal
	CommittedCost         decimal.Decimal
	JobToDateCost         decimal.Decimal
	ForecastToComplete    decimal.Decimal
	EstimatedAtCompletion decimal.Decimal
	ProjectedCost         decimal.Decimal
	ProjectedOverUnder    decimal.Decimal
}

// Compute derives the rollup from the original budget amount, the ledger
// sums, and a forecast-to-complete. Pure; summation order never matters
// because amounts are exact decimals.
func Compute(original decimal.Decimal, sums Sums, forecastToComplete decimal.Decimal) Result {
	revised := original.Add(sums.ApprovedModifications).Add(sums.ApprovedChangeOrders)
	estimated := sums.JobToDateCost.Add(forecastToComplete)
	return Result{
		OriginalAmount:        original,
		RevisedBudget:         revised,
		CommittedCost:         sums.CommittedCost,
		JobToDateCost:         sums.JobToDateCost,
		ForecastToComplete:    forecastToComplete,
		EstimatedAtCompletion: estimated,
		ProjectedCost:         sums.CommittedCost.Add(estimated),
		ProjectedOverUnder:    revised.Sub(estimated),
	}
}
