package markup

import (
	"context"
	"testing"

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
	t.Run("should reject a percentage above 100", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, Markup{ProjectID: 1, MarkupType: "overhead", Percentage: pct("101")})

		// then
		assert.ErrorIs(t, err, ledger.ErrOutOfRange)
	})

	t.Run("should reject a negative percentage", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, Markup{ProjectID: 1, MarkupType: "overhead", Percentage: pct("-1")})

		// then
		assert.ErrorIs(t, err, ledger.ErrOutOfRange)
	})

	t.Run("should refuse a second markup of the same type on one project", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.Create(ctx, Markup{ProjectID: 1, MarkupType: "overhead", Percentage: pct("10")})
		require.NoError(t, err)

		// when
		_, err = service.Create(ctx, Markup{ProjectID: 1, MarkupType: "overhead", Percentage: pct("5")})

		// then
		assert.ErrorIs(t, err, ErrDuplicateMarkup)
	})

	t.Run("should allow the same type on different projects", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.Create(ctx, Markup{ProjectID: 1, MarkupType: "overhead", Percentage: pct("10")})
		require.NoError(t, err)

		// when
		_, err = service.Create(ctx, Markup{ProjectID: 2, MarkupType: "overhead", Percentage: pct("10")})

		// then
		assert.NoError(t, err)
	})
}

func TestServiceImpl_Price(t *testing.T) {
	t.Run("should price a base through the project's configured markups", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := service.Create(ctx, Markup{ProjectID: 1, MarkupType: "insurance", Percentage: pct("2"), CalculationOrder: 1})
		require.NoError(t, err)
		_, err = service.Create(ctx, Markup{ProjectID: 1, MarkupType: "overhead", Percentage: pct("10"), CalculationOrder: 2, Compound: true})
		require.NoError(t, err)

		// when
		breakdown, err := service.Price(ctx, 1, decimal.NewFromInt(100000))

		// then
		require.NoError(t, err)
		assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(112200)),
			"total was %s", breakdown.Total)
	})
}
