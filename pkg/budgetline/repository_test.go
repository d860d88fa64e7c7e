package budgetline

import (
	"context"
	"testing"

	"github.com/costline/costline/internal/test_utils"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) (context.Context, Repository) {
	db := test_utils.SetupTestDB(t)
	return context.Background(), NewRepository(db)
}

func TestRepositoryImpl_Store(t *testing.T) {
	t.Run("should store and read back a line by its identity key", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)
		key := costkey.Normalize(7, nil, 100, 3)

		// when
		id, err := repo.Store(testCtx, BudgetLine{
			Key:            key,
			Description:    "Concrete foundations",
			OriginalAmount: decimal.NewFromInt(50000),
			ForecastMethod: ForecastMonitored,
			Active:         true,
		})

		// then
		require.NoError(t, err)
		stored, err := repo.FindByKey(testCtx, key)
		require.NoError(t, err)
		assert.Equal(t, id, stored.ID)
		assert.Equal(t, key, stored.Key)
		assert.True(t, stored.OriginalAmount.Equal(decimal.NewFromInt(50000)))
		assert.Nil(t, stored.Key.SubJobID())
	})

	t.Run("should reject a second line with the same identity key", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)
		key := costkey.Normalize(7, nil, 100, 3)
		_, err := repo.Store(testCtx, BudgetLine{Key: key, OriginalAmount: decimal.NewFromInt(100), ForecastMethod: ForecastMonitored, Active: true})
		require.NoError(t, err)

		// when
		_, err = repo.Store(testCtx, BudgetLine{Key: key, OriginalAmount: decimal.NewFromInt(200), ForecastMethod: ForecastMonitored, Active: true})

		// then
		assert.Error(t, err)
	})

	t.Run("should keep lines with different sub jobs apart", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)
		subJob := 12
		_, err := repo.Store(testCtx, BudgetLine{Key: costkey.Normalize(7, nil, 100, 3), OriginalAmount: decimal.NewFromInt(100), ForecastMethod: ForecastMonitored, Active: true})
		require.NoError(t, err)

		// when
		_, err = repo.Store(testCtx, BudgetLine{Key: costkey.Normalize(7, &subJob, 100, 3), OriginalAmount: decimal.NewFromInt(200), ForecastMethod: ForecastMonitored, Active: true})

		// then
		require.NoError(t, err)
		lines, err := repo.ListByProject(testCtx, 7, false)
		require.NoError(t, err)
		assert.Len(t, lines, 2)
	})
}

func TestRepositoryImpl_UpdateForecast(t *testing.T) {
	t.Run("should persist a forecast method overwrite", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)
		id, err := repo.Store(testCtx, BudgetLine{
			Key:            costkey.Normalize(7, nil, 100, 3),
			OriginalAmount: decimal.NewFromInt(50000),
			ForecastMethod: ForecastMonitored,
			Active:         true,
		})
		require.NoError(t, err)
		manual := decimal.NewFromInt(8000)

		// when
		found, err := repo.UpdateForecast(testCtx, id, ForecastManual, &manual, nil)

		// then
		require.NoError(t, err)
		assert.True(t, found)
		stored, err := repo.Get(testCtx, id)
		require.NoError(t, err)
		assert.Equal(t, ForecastManual, stored.ForecastMethod)
		require.NotNil(t, stored.ManualForecast)
		assert.True(t, stored.ManualForecast.Equal(manual))
	})

	t.Run("should report an unknown line", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)

		// when
		found, err := repo.UpdateForecast(testCtx, 42, ForecastMonitored, nil, nil)

		// then
		require.NoError(t, err)
		assert.False(t, found)
	})
}

func TestRepositoryImpl_SetActive(t *testing.T) {
	t.Run("should hide deactivated lines from the default listing", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)
		id, err := repo.Store(testCtx, BudgetLine{
			Key:            costkey.Normalize(7, nil, 100, 3),
			OriginalAmount: decimal.NewFromInt(50000),
			ForecastMethod: ForecastMonitored,
			Active:         true,
		})
		require.NoError(t, err)

		// when
		found, err := repo.SetActive(testCtx, 7, id, false)

		// then
		require.NoError(t, err)
		assert.True(t, found)

		active, err := repo.ListByProject(testCtx, 7, false)
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := repo.ListByProject(testCtx, 7, true)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

func TestRepositoryImpl_Get(t *testing.T) {
	t.Run("should return not found for an unknown id", func(t *testing.T) {
		// given
		testCtx, repo := setupTestRepository(t)

		// when
		_, err := repo.Get(testCtx, 42)

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}
