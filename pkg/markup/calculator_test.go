package markup

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestApply(t *testing.T) {
	t.Run("should compound on the running total and not on the base", func(t *testing.T) {
		// given
		markups := []Markup{
			{MarkupType: "overhead", Percentage: pct("10"), CalculationOrder: 2, Compound: true},
			{MarkupType: "insurance", Percentage: pct("2"), CalculationOrder: 1, Compound: false},
		}

		// when
		breakdown := Apply(decimal.NewFromInt(100000), markups)

		// then
		require.Len(t, breakdown.Contributions, 2)
		assert.Equal(t, "insurance", breakdown.Contributions[0].MarkupType)
		assert.True(t, breakdown.Contributions[0].Amount.Equal(decimal.NewFromInt(2000)),
			"insurance contribution was %s", breakdown.Contributions[0].Amount)
		assert.Equal(t, "overhead", breakdown.Contributions[1].MarkupType)
		assert.True(t, breakdown.Contributions[1].Amount.Equal(decimal.NewFromInt(10200)),
			"overhead contribution was %s", breakdown.Contributions[1].Amount)
		assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(112200)),
			"total was %s", breakdown.Total)
	})

	t.Run("should take non-compound percentages of the original base regardless of order", func(t *testing.T) {
		// given
		markups := []Markup{
			{MarkupType: "fee", Percentage: pct("5"), CalculationOrder: 2, Compound: false},
			{MarkupType: "bond", Percentage: pct("1"), CalculationOrder: 1, Compound: false},
		}

		// when
		breakdown := Apply(decimal.NewFromInt(1000), markups)

		// then
		assert.True(t, breakdown.Contributions[1].Amount.Equal(decimal.NewFromInt(50)))
		assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(1060)))
	})

	t.Run("should return the base untouched when no markups exist", func(t *testing.T) {
		// when
		breakdown := Apply(decimal.NewFromInt(500), nil)

		// then
		assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(500)))
		assert.Empty(t, breakdown.Contributions)
	})
}
