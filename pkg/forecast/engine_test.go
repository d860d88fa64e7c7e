package forecast

import (
	"context"
	"testing"

	"github.com/costline/costline/pkg/budgetline"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

var curveStub = NewStubRepository()
var engine *Engine

func setup(t *testing.T) func() {
	engine = NewEngine(curveStub)
	return func() {
		t.Log("Teardown after test")
		curveStub.Cleanup()
	}
}

func amt(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func manualLine(forecast *decimal.Decimal) budgetline.BudgetLine {
	return budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastManual, ManualForecast: forecast}
}

func TestEngine_ForecastToComplete(t *testing.T) {
	t.Run("should return the stored amount verbatim for manual forecasting", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		value := amt(12500)

		// when
		ftc, err := engine.ForecastToComplete(ctx, manualLine(&value), Inputs{RevisedBudget: amt(50000)})

		// then
		require.NoError(t, err)
		assert.True(t, ftc.Equal(value))
	})

	t.Run("should fail manual forecasting without a stored amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := engine.ForecastToComplete(ctx, manualLine(nil), Inputs{})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})

	t.Run("should subtract committed and incurred cost for monitored forecasting", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		line := budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastMonitored}

		// when
		ftc, err := engine.ForecastToComplete(ctx, line, Inputs{
			RevisedBudget: amt(55000),
			CommittedCost: amt(30000),
			JobToDateCost: amt(12000),
		})

		// then
		require.NoError(t, err)
		assert.True(t, ftc.Equal(amt(13000)), "forecast was %s", ftc)
	})

	t.Run("should never forecast below zero when cost overruns the budget", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		line := budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastMonitored}

		// when
		ftc, err := engine.ForecastToComplete(ctx, line, Inputs{
			RevisedBudget: amt(10000),
			CommittedCost: amt(9000),
			JobToDateCost: amt(4000),
		})

		// then
		require.NoError(t, err)
		assert.True(t, ftc.IsZero(), "forecast was %s", ftc)
	})

	t.Run("should weight remaining budget linearly for a linear curve", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		curve, err := curveStub.Store(ctx, Curve{CompanyID: 1, Name: "Even spend", CurveType: CurveLinear})
		require.NoError(t, err)
		line := budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastAutomatic, CurveID: &curve.ID}

		// when
		ftc, err := engine.ForecastToComplete(ctx, line, Inputs{
			RevisedBudget: amt(100000),
			JobToDateCost: amt(25000),
		})

		// then
		require.NoError(t, err)
		assert.True(t, ftc.Equal(amt(75000)), "forecast was %s", ftc)
	})

	t.Run("should expect more remaining spend early on an s-curve", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given: at 25% progress the smoothstep expects only 15.625% spent
		curve, err := curveStub.Store(ctx, Curve{CompanyID: 1, Name: "Typical build", CurveType: CurveSCurve})
		require.NoError(t, err)
		line := budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastAutomatic, CurveID: &curve.ID}

		// when
		ftc, err := engine.ForecastToComplete(ctx, line, Inputs{
			RevisedBudget: amt(100000),
			JobToDateCost: amt(25000),
		})

		// then
		require.NoError(t, err)
		assert.True(t, ftc.Equal(decimal.RequireFromString("84375")), "forecast was %s", ftc)
	})

	t.Run("should fall back to the monitored formula for a custom curve", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		curve, err := curveStub.Store(ctx, Curve{CompanyID: 1, Name: "Front-loaded", CurveType: CurveCustom})
		require.NoError(t, err)
		line := budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastAutomatic, CurveID: &curve.ID}

		// when
		ftc, err := engine.ForecastToComplete(ctx, line, Inputs{
			RevisedBudget: amt(55000),
			CommittedCost: amt(30000),
			JobToDateCost: amt(12000),
		})

		// then
		require.NoError(t, err)
		assert.True(t, ftc.Equal(amt(13000)), "forecast was %s", ftc)
	})

	t.Run("should fail automatic forecasting without an attached curve", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		line := budgetline.BudgetLine{ID: 1, ForecastMethod: budgetline.ForecastAutomatic}

		// when
		_, err := engine.ForecastToComplete(ctx, line, Inputs{RevisedBudget: amt(1000)})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}

func TestServiceImpl_CreateCurve(t *testing.T) {
	t.Run("should refuse an unknown curve type", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := NewService(curveStub).CreateCurve(ctx, Curve{CompanyID: 1, Name: "Bad", CurveType: "bell"})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}
