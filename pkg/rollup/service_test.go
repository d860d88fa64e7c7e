package rollup

import (
	"context"
	"testing"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/budgetline"
	"github.com/costline/costline/pkg/changeorder"
	"github.com/costline/costline/pkg/commitment"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/directcost"
	"github.com/costline/costline/pkg/forecast"
	"github.com/costline/costline/pkg/ledger"
	"github.com/costline/costline/pkg/modification"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = actor.WithActor(context.Background(), "pm-1")

var lineStub = budgetline.NewStubRepository()
var modStub = modification.NewStubRepository()
var coStub = changeorder.NewStubRepository()
var commitmentStub = commitment.NewStubRepository()
var ccoStub = commitment.NewStubChangeOrderRepository()
var costStub = directcost.NewStubRepository()
var curveStub = forecast.NewStubRepository()
var auditStub = audit.NewStubRepository()

var service Service
var bus *event_bus.EventBus

func setup(t *testing.T) func() {
	bus = event_bus.NewEventBus()
	service = NewService(lineStub, modStub, coStub, commitmentStub, ccoStub, costStub,
		forecast.NewEngine(curveStub), auditStub, bus)
	return func() {
		t.Log("Teardown after test")
		lineStub.Cleanup()
		modStub.Cleanup()
		coStub.Cleanup()
		commitmentStub.Cleanup()
		ccoStub.Cleanup()
		costStub.Cleanup()
		curveStub.Cleanup()
		auditStub.Cleanup()
	}
}

var key = costkey.Normalize(1, nil, 100, 3)

func amt(i int64) decimal.Decimal {
	return decimal.NewFromInt(i)
}

func storedLine(t *testing.T, original int64) int {
	t.Helper()
	id, err := lineStub.Store(ctx, budgetline.BudgetLine{
		Key:            key,
		OriginalAmount: amt(original),
		ForecastMethod: budgetline.ForecastMonitored,
		Active:         true,
	})
	require.NoError(t, err)
	return id
}

func approvedModification(t *testing.T, amount int64) int {
	t.Helper()
	m, err := modStub.Store(ctx, modification.Modification{
		ProjectID: 1,
		Number:    "BM-001",
		Status:    ledger.StateDraft,
		Lines:     []modification.Line{{Key: key, Amount: amt(amount)}},
	})
	require.NoError(t, err)
	_, err = modStub.ApplyTransition(ctx, m.ID, ledger.ActionSubmit, nil)
	require.NoError(t, err)
	_, err = modStub.ApplyTransition(ctx, m.ID, ledger.ActionApprove, nil)
	require.NoError(t, err)
	return m.ID
}

func pendingChangeOrder(t *testing.T, amount int64) int {
	t.Helper()
	co, err := coStub.Store(ctx, changeorder.ChangeOrder{
		ContractID: 7,
		ProjectID:  1,
		Number:     "CO-001",
		Status:     ledger.StatePending,
		Lines:      []changeorder.Line{{Key: key, Amount: amt(amount)}},
	})
	require.NoError(t, err)
	return co.ID
}

func TestServiceImpl_GetRollup(t *testing.T) {
	t.Run("should exclude pending ledger rows from the revised budget", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given: approved +5000 modification, pending +3000 change order
		lineID := storedLine(t, 50000)
		approvedModification(t, 5000)
		coID := pendingChangeOrder(t, 3000)

		// when
		result, err := service.GetRollup(ctx, 1, lineID)

		// then
		require.NoError(t, err)
		assert.True(t, result.RevisedBudget.Equal(amt(55000)), "revised was %s", result.RevisedBudget)

		// when the change order is approved
		_, err = coStub.ApplyTransition(ctx, coID, ledger.ActionApprove, nil)
		require.NoError(t, err)
		result, err = service.GetRollup(ctx, 1, lineID)

		// then it counts
		require.NoError(t, err)
		assert.True(t, result.RevisedBudget.Equal(amt(58000)), "revised was %s", result.RevisedBudget)
	})

	t.Run("should return the revised budget to its prior value after a void", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		lineID := storedLine(t, 50000)
		before, err := service.GetRollup(ctx, 1, lineID)
		require.NoError(t, err)

		modID := approvedModification(t, 5000)
		after, err := service.GetRollup(ctx, 1, lineID)
		require.NoError(t, err)
		require.True(t, after.RevisedBudget.Equal(amt(55000)))

		// when
		_, err = modStub.ApplyTransition(ctx, modID, ledger.ActionVoid, nil)
		require.NoError(t, err)
		reverted, err := service.GetRollup(ctx, 1, lineID)

		// then
		require.NoError(t, err)
		assert.True(t, reverted.RevisedBudget.Equal(before.RevisedBudget),
			"revised was %s, want %s", reverted.RevisedBudget, before.RevisedBudget)
	})

	t.Run("should fold committed and incurred cost into the projection", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		lineID := storedLine(t, 55000)
		c, err := commitmentStub.Store(ctx, commitment.Commitment{
			ProjectID: 1,
			Number:    "SC-001",
			Status:    ledger.StateDraft,
			Lines:     []commitment.Line{{Key: key, Amount: amt(30000)}},
		})
		require.NoError(t, err)
		_, err = commitmentStub.ApplyTransition(ctx, c.ID, ledger.ActionSubmit, nil)
		require.NoError(t, err)
		_, err = commitmentStub.ApplyTransition(ctx, c.ID, ledger.ActionExecute, nil)
		require.NoError(t, err)

		dc, err := costStub.Store(ctx, directcost.DirectCost{
			Key: key, VendorName: "Apex Concrete", Amount: amt(12000), Status: ledger.StatePending,
		})
		require.NoError(t, err)
		_, err = costStub.ApplyTransition(ctx, dc.ID, ledger.ActionApprove, nil)
		require.NoError(t, err)

		// when
		result, err := service.GetRollup(ctx, 1, lineID)

		// then: monitored forecast = 55000 - (30000 + 12000) = 13000
		require.NoError(t, err)
		assert.True(t, result.CommittedCost.Equal(amt(30000)))
		assert.True(t, result.JobToDateCost.Equal(amt(12000)))
		assert.True(t, result.ForecastToComplete.Equal(amt(13000)), "forecast was %s", result.ForecastToComplete)
		assert.True(t, result.EstimatedAtCompletion.Equal(amt(25000)))
		assert.True(t, result.ProjectedCost.Equal(amt(55000)))
		assert.True(t, result.ProjectedOverUnder.Equal(amt(30000)))
	})

	t.Run("should report not found for an unknown budget line", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.GetRollup(ctx, 1, 404)

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestServiceImpl_SetForecast(t *testing.T) {
	t.Run("should overwrite the method and return the recomputed rollup", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		lineID := storedLine(t, 50000)
		manual := amt(20000)

		// when
		result, err := service.SetForecast(ctx, lineID, budgetline.ForecastManual, &manual, nil)

		// then
		require.NoError(t, err)
		assert.True(t, result.ForecastToComplete.Equal(manual))

		entries, err := auditStub.List(ctx, "budget_line", lineID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "set_forecast", entries[0].Action)
		assert.Equal(t, "monitored_resources", entries[0].FromState)
		assert.Equal(t, "manual", entries[0].ToState)
	})

	t.Run("should reject a negative manual amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		lineID := storedLine(t, 50000)
		negative := amt(-100)

		// when
		_, err := service.SetForecast(ctx, lineID, budgetline.ForecastManual, &negative, nil)

		// then
		assert.ErrorIs(t, err, ledger.ErrOutOfRange)
	})

	t.Run("should reject an unknown method", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		lineID := storedLine(t, 50000)

		// when
		_, err := service.SetForecast(ctx, lineID, "psychic", nil, nil)

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})

	t.Run("should announce the change on the event bus", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		lineID := storedLine(t, 50000)
		var received []event_bus.ForecastChanged
		unsubscribe := event_bus.SubscribeTyped(bus, event_bus.ForecastChangedType,
			func(e event_bus.EventT[event_bus.ForecastChanged]) error {
				received = append(received, e.Data)
				return nil
			})
		defer unsubscribe()
		manual := amt(20000)

		// when
		_, err := service.SetForecast(ctx, lineID, budgetline.ForecastLumpSum, &manual, nil)
		require.NoError(t, err)

		// then
		require.Len(t, received, 1)
		assert.Equal(t, lineID, received[0].BudgetLineID)
		assert.Equal(t, 1, received[0].ProjectID)
	})
}

func TestCompute(t *testing.T) {
	t.Run("should contribute zero for ledgers with no matching rows", func(t *testing.T) {
		// when
		result := Compute(amt(50000), Sums{}, decimal.Zero)

		// then
		assert.True(t, result.RevisedBudget.Equal(amt(50000)))
		assert.True(t, result.CommittedCost.IsZero())
		assert.True(t, result.JobToDateCost.IsZero())
		assert.True(t, result.ProjectedOverUnder.Equal(amt(50000)))
	})
}
