package forecast

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/budgetline"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Inputs are the rollup figures the engine forecasts against.
type Inputs struct {
	RevisedBudget decimal.Decimal
	CommittedCost decimal.Decimal
	JobToDateCost decimal.Decimal
}

// Engine computes forecast-to-complete per budget line. It is stateless;
// curve lookups go through the repository per call.
type Engine struct {
	curves Repository
}

func NewEngine(curves Repository) *Engine {
	return &Engine{curves: curves}
}

// ForecastToComplete dispatches on the line's forecast method. The result is
// never negative.
func (e *Engine) ForecastToComplete(ctx context.Context, line budgetline.BudgetLine, in Inputs) (decimal.Decimal, error) {
	switch line.ForecastMethod {
	case budgetline.ForecastManual, budgetline.ForecastLumpSum:
		if line.ManualForecast == nil {
			return decimal.Zero, fmt.Errorf("budget line %d uses %s forecasting but has no stored amount: %w",
				line.ID, line.ForecastMethod, ledger.ErrConfiguration)
		}
		return *line.ManualForecast, nil

	case budgetline.ForecastMonitored:
		return monitored(in), nil

	case budgetline.ForecastAutomatic:
		return e.automatic(ctx, line, in)
	}
	return decimal.Zero, fmt.Errorf("unknown forecast method %q: %w", line.ForecastMethod, ledger.ErrConfiguration)
}

// automatic weights the remaining budget by the attached curve's spend
// distribution: at progress p = jobToDate/revised, the curve expects
// spent(p) of the budget consumed, so FTC = revised * (1 - spent(p)). A
// custom curve has no built-in evaluator and falls back to the monitored
// formula.
func (e *Engine) automatic(ctx context.Context, line budgetline.BudgetLine, in Inputs) (decimal.Decimal, error) {
	if line.CurveID == nil {
		return decimal.Zero, fmt.Errorf("budget line %d uses automatic forecasting but has no curve: %w",
			line.ID, ledger.ErrConfiguration)
	}
	curve, err := e.curves.Get(ctx, *line.CurveID)
	if err != nil {
		return decimal.Zero, err
	}
	if curve.CurveType == CurveCustom {
		return monitored(in), nil
	}
	if in.RevisedBudget.IsZero() {
		return decimal.Zero, nil
	}

	progress, _ := in.JobToDateCost.Div(in.RevisedBudget).Float64()
	remaining := decimal.NewFromFloat(1 - curve.spent(progress))
	ftc := in.RevisedBudget.Mul(remaining)
	return floorZero(ftc), nil
}

func monitored(in Inputs) decimal.Decimal {
	return floorZero(in.RevisedBudget.Sub(in.CommittedCost.Add(in.JobToDateCost)))
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
