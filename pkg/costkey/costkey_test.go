package costkey

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	subJob := 7

	t.Run("two rows without a sub-job produce the same key", func(t *testing.T) {
		budgetLineKey := Normalize(1, nil, 100, 3)
		modificationKey := Normalize(1, nil, 100, 3)

		assert.Equal(t, budgetLineKey, modificationKey)
	})

	t.Run("a concrete sub-job never matches a missing one", func(t *testing.T) {
		withoutSubJob := Normalize(1, nil, 100, 3)
		withSubJob := Normalize(1, &subJob, 100, 3)

		assert.NotEqual(t, withoutSubJob, withSubJob)
	})

	t.Run("missing sub-job maps to the sentinel", func(t *testing.T) {
		key := Normalize(1, nil, 100, 3)

		assert.Equal(t, NoSubJob, key.SubJobKey)
		assert.Nil(t, key.SubJobID())
	})

	t.Run("concrete sub-job round-trips through the key", func(t *testing.T) {
		key := Normalize(1, &subJob, 100, 3)

		assert.Equal(t, 7, key.SubJobKey)
		if assert.NotNil(t, key.SubJobID()) {
			assert.Equal(t, 7, *key.SubJobID())
		}
	})

	t.Run("keys are usable as map keys", func(t *testing.T) {
		totals := map[Key]int{}
		totals[Normalize(1, nil, 100, 3)] += 2
		totals[Normalize(1, nil, 100, 3)] += 3
		totals[Normalize(1, &subJob, 100, 3)] += 5

		assert.Equal(t, 5, totals[Normalize(1, nil, 100, 3)])
		assert.Equal(t, 5, totals[Normalize(1, &subJob, 100, 3)])
	})
}
