package modification

import (
	"context"
	"testing"
	"time"

	"github.com/costline/costline/internal/test_utils"
	"github.com/costline/costline/internal/utils"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) (context.Context, Repository, audit.Repository) {
	db := test_utils.SetupTestDB(t)
	return context.Background(), NewRepository(db), audit.NewRepository(db, &utils.SystemClock{})
}

func storedBatch(t *testing.T, testCtx context.Context, repo Repository, status ledger.State, amount int64) Modification {
	t.Helper()
	m, err := repo.Store(testCtx, Modification{
		UID:           uuid.NewString(),
		ProjectID:     7,
		Number:        "BM-001",
		Title:         "Steel price escalation",
		EffectiveDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Status:        status,
		Version:       1,
		Lines: []Line{
			{Key: costkey.Normalize(7, nil, 100, 3), Amount: decimal.NewFromInt(amount)},
		},
	})
	require.NoError(t, err)
	return m
}

func TestRepositoryImpl_Store(t *testing.T) {
	t.Run("should store a batch with its lines", func(t *testing.T) {
		// given
		testCtx, repo, _ := setupTestRepository(t)

		// when
		m := storedBatch(t, testCtx, repo, ledger.StateDraft, 5000)

		// then
		stored, err := repo.Get(testCtx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, "BM-001", stored.Number)
		assert.Equal(t, ledger.StateDraft, stored.Status)
		require.Len(t, stored.Lines, 1)
		assert.Equal(t, costkey.Normalize(7, nil, 100, 3), stored.Lines[0].Key)
		assert.True(t, stored.Lines[0].Amount.Equal(decimal.NewFromInt(5000)))
	})
}

func TestRepositoryImpl_ApplyTransition(t *testing.T) {
	t.Run("should move a pending batch to approved and write the audit row", func(t *testing.T) {
		// given
		testCtx, repo, auditRepo := setupTestRepository(t)
		m := storedBatch(t, testCtx, repo, ledger.StatePending, 5000)

		// when
		result, err := repo.ApplyTransition(testCtx, m.ID, ledger.ActionApprove,
			func(recordCtx context.Context, ex audit.Execer, from, to ledger.State) error {
				_, err := auditRepo.Record(recordCtx, ex, audit.Entry{
					EntityType: "budget_modification",
					EntityID:   m.ID,
					Action:     string(ledger.ActionApprove),
					FromState:  string(from),
					ToState:    string(to),
					Actor:      "pm-1",
				})
				return err
			})

		// then
		require.NoError(t, err)
		assert.Equal(t, ledger.StatePending, result.From)
		assert.Equal(t, ledger.StateApproved, result.To)
		assert.Equal(t, 7, result.ProjectID)

		stored, err := repo.Get(testCtx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.StateApproved, stored.Status)
		assert.Equal(t, 2, stored.Version)

		entries, err := auditRepo.List(testCtx, "budget_modification", m.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "pm-1", entries[0].Actor)
	})

	t.Run("should refuse approving a draft batch", func(t *testing.T) {
		// given
		testCtx, repo, _ := setupTestRepository(t)
		m := storedBatch(t, testCtx, repo, ledger.StateDraft, 5000)

		// when
		_, err := repo.ApplyTransition(testCtx, m.ID, ledger.ActionApprove, nil)

		// then
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	})

	t.Run("should report an unknown batch", func(t *testing.T) {
		// given
		testCtx, repo, _ := setupTestRepository(t)

		// when
		_, err := repo.ApplyTransition(testCtx, 42, ledger.ActionApprove, nil)

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("should keep the batch unchanged when the audit write fails", func(t *testing.T) {
		// given
		testCtx, repo, _ := setupTestRepository(t)
		m := storedBatch(t, testCtx, repo, ledger.StatePending, 5000)

		// when
		_, err := repo.ApplyTransition(testCtx, m.ID, ledger.ActionApprove,
			func(recordCtx context.Context, ex audit.Execer, from, to ledger.State) error {
				return assert.AnError
			})

		// then
		require.ErrorIs(t, err, assert.AnError)
		stored, err := repo.Get(testCtx, m.ID)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatePending, stored.Status)
		assert.Equal(t, 1, stored.Version)
	})
}

func TestRepositoryImpl_LiveLines(t *testing.T) {
	t.Run("should only surface lines of approved batches", func(t *testing.T) {
		// given
		testCtx, repo, _ := setupTestRepository(t)
		key := costkey.Normalize(7, nil, 100, 3)
		storedBatch(t, testCtx, repo, ledger.StateApproved, 5000)
		storedBatch(t, testCtx, repo, ledger.StatePending, 3000)

		// when
		lines, err := repo.LiveLines(testCtx, key)

		// then
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.True(t, lines[0].Amount.Equal(decimal.NewFromInt(5000)))
	})
}
