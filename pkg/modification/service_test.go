package modification

import (
	"context"
	"testing"
	"time"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = actor.WithActor(context.Background(), "pm-1")

var repoStub = NewStubRepository()
var auditStub = audit.NewStubRepository()

var service Service
var bus *event_bus.EventBus

func setup(t *testing.T) func() {
	bus = event_bus.NewEventBus()
	service = NewService(repoStub, auditStub, bus)
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
		auditStub.Cleanup()
	}
}

func draftModification(t *testing.T, amount int64) Modification {
	t.Helper()
	m, err := service.Create(ctx, Modification{
		ProjectID:     1,
		Number:        "BM-001",
		Title:         "Steel price escalation",
		EffectiveDate: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Lines: []Line{
			{Key: costkey.Normalize(1, nil, 100, 3), Amount: decimal.NewFromInt(amount)},
		},
	})
	require.NoError(t, err)
	return m
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create a modification in draft with a uid", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		m := draftModification(t, 5000)

		// then
		assert.Equal(t, ledger.StateDraft, m.Status)
		assert.NotEmpty(t, m.UID)
		assert.Len(t, m.Lines, 1)
	})

	t.Run("should require a number", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, Modification{ProjectID: 1})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}

func TestServiceImpl_Transition(t *testing.T) {
	t.Run("should walk draft through pending to approved", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		m := draftModification(t, 5000)

		// when
		state, err := service.Transition(ctx, m.ID, ledger.ActionSubmit)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatePending, state)

		state, err = service.Transition(ctx, m.ID, ledger.ActionApprove)

		// then
		assert.NoError(t, err)
		assert.Equal(t, ledger.StateApproved, state)
	})

	t.Run("should fail when approving an already approved batch", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		m := draftModification(t, 5000)
		_, err := service.Transition(ctx, m.ID, ledger.ActionSubmit)
		require.NoError(t, err)
		_, err = service.Transition(ctx, m.ID, ledger.ActionApprove)
		require.NoError(t, err)

		// when
		_, err = service.Transition(ctx, m.ID, ledger.ActionApprove)

		// then
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	})

	t.Run("should record an audit entry with the acting operator", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		m := draftModification(t, 5000)

		// when
		_, err := service.Transition(ctx, m.ID, ledger.ActionSubmit)
		require.NoError(t, err)

		// then
		entries, err := auditStub.List(ctx, "budget_modification", m.ID)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "submit", entries[0].Action)
		assert.Equal(t, "draft", entries[0].FromState)
		assert.Equal(t, "pending", entries[0].ToState)
		assert.Equal(t, "pm-1", entries[0].Actor)
	})

	t.Run("should publish the transition on the event bus", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		m := draftModification(t, 5000)
		var received []event_bus.LedgerTransitioned
		unsubscribe := event_bus.SubscribeTyped(bus, event_bus.LedgerTransitionedType,
			func(e event_bus.EventT[event_bus.LedgerTransitioned]) error {
				received = append(received, e.Data)
				return nil
			})
		defer unsubscribe()

		// when
		_, err := service.Transition(ctx, m.ID, ledger.ActionSubmit)
		require.NoError(t, err)

		// then
		require.Len(t, received, 1)
		assert.Equal(t, "budget_modification", received[0].Ledger)
		assert.Equal(t, m.ID, received[0].BatchID)
		assert.Equal(t, 1, received[0].ProjectID)
	})

	t.Run("should report not found for an unknown batch", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Transition(ctx, 404, ledger.ActionSubmit)

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})
}

func TestServiceImpl_ListEntries(t *testing.T) {
	t.Run("should filter entries by status", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		approved := draftModification(t, 5000)
		_, err := service.Transition(ctx, approved.ID, ledger.ActionSubmit)
		require.NoError(t, err)
		_, err = service.Transition(ctx, approved.ID, ledger.ActionApprove)
		require.NoError(t, err)
		draftModification(t, 7000)

		// when
		status := ledger.StateApproved
		entries, err := service.ListEntries(ctx, ledger.Filter{ProjectID: 1, Status: &status})

		// then
		assert.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, approved.ID, entries[0].BatchID)
	})
}
