package budgetline

import (
	"context"
	"testing"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

var repoStub = NewStubRepository()

var service Service

func setup(t *testing.T) func() {
	service = NewService(repoStub)
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
	}
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create a line with monitored forecast by default", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.Create(ctx, BudgetLine{
			Key:            costkey.Normalize(1, nil, 100, 3),
			OriginalAmount: decimal.NewFromInt(50000),
		})

		// then
		assert.NoError(t, err)
		assert.True(t, created.Active)
		assert.Equal(t, ForecastMonitored, created.ForecastMethod)
	})

	t.Run("should derive original amount from quantity and unit cost", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		quantity := decimal.NewFromInt(120)
		unitCost := decimal.RequireFromString("41.25")

		// when
		created, err := service.Create(ctx, BudgetLine{
			Key:      costkey.Normalize(1, nil, 100, 3),
			Quantity: &quantity,
			UnitCost: &unitCost,
		})

		// then
		assert.NoError(t, err)
		assert.True(t, decimal.RequireFromString("4950").Equal(created.OriginalAmount))
	})

	t.Run("should refuse a second active line for the same key", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		key := costkey.Normalize(1, nil, 100, 3)
		_, err := service.Create(ctx, BudgetLine{Key: key, OriginalAmount: decimal.NewFromInt(1000)})
		require.NoError(t, err)

		// when
		_, err = service.Create(ctx, BudgetLine{Key: key, OriginalAmount: decimal.NewFromInt(2000)})

		// then
		assert.ErrorIs(t, err, ErrDuplicateLine)
	})

	t.Run("should allow the same cost code on different sub-jobs", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		subJob := 4
		_, err := service.Create(ctx, BudgetLine{
			Key:            costkey.Normalize(1, nil, 100, 3),
			OriginalAmount: decimal.NewFromInt(1000),
		})
		require.NoError(t, err)

		// when
		_, err = service.Create(ctx, BudgetLine{
			Key:            costkey.Normalize(1, &subJob, 100, 3),
			OriginalAmount: decimal.NewFromInt(2000),
		})

		// then
		assert.NoError(t, err)
	})

	t.Run("should reactivate a deactivated line instead of duplicating it", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		key := costkey.Normalize(1, nil, 100, 3)
		created, err := service.Create(ctx, BudgetLine{Key: key, OriginalAmount: decimal.NewFromInt(1000)})
		require.NoError(t, err)
		_, err = service.Deactivate(ctx, 1, created.ID)
		require.NoError(t, err)

		// when
		recreated, err := service.Create(ctx, BudgetLine{Key: key, OriginalAmount: decimal.NewFromInt(3000)})

		// then
		assert.NoError(t, err)
		assert.Equal(t, created.ID, recreated.ID)
		assert.True(t, recreated.Active)
	})

	t.Run("should reject a negative original amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, BudgetLine{
			Key:            costkey.Normalize(1, nil, 100, 3),
			OriginalAmount: decimal.NewFromInt(-5),
		})

		// then
		assert.ErrorIs(t, err, ledger.ErrOutOfRange)
	})

	t.Run("should reject an unknown forecast method", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, BudgetLine{
			Key:            costkey.Normalize(1, nil, 100, 3),
			OriginalAmount: decimal.NewFromInt(100),
			ForecastMethod: ForecastMethod("crystal_ball"),
		})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}

func TestServiceImpl_Deactivate(t *testing.T) {
	t.Run("should report not found for an unknown line", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Deactivate(ctx, 1, 42)

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestServiceImpl_KeyOf(t *testing.T) {
	t.Run("should resolve a line id to its normalized key", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		subJob := 9
		created, err := service.Create(ctx, BudgetLine{
			Key:            costkey.Normalize(2, &subJob, 200, 1),
			OriginalAmount: decimal.NewFromInt(500),
		})
		require.NoError(t, err)

		// when
		key, err := service.KeyOf(ctx, 2, created.ID)

		// then
		assert.NoError(t, err)
		assert.Equal(t, costkey.Key{ProjectID: 2, SubJobKey: 9, CostCodeID: 200, CostTypeID: 1}, key)
	})
}
