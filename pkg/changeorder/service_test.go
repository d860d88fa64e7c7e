package changeorder

import (
	"context"
	"testing"

	"github.com/costline/costline/internal/actor"
	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/audit"
	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/costline/costline/pkg/markup"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = actor.WithActor(context.Background(), "pm-2")

var repoStub = NewStubRepository()
var markupStub = markup.NewStubRepository()
var auditStub = audit.NewStubRepository()

var service Service
var bus *event_bus.EventBus

func setup(t *testing.T) func() {
	bus = event_bus.NewEventBus()
	service = NewService(repoStub, markup.NewService(markupStub), auditStub, bus)
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
		markupStub.Cleanup()
		auditStub.Cleanup()
	}
}

func pendingChangeOrder(t *testing.T, amount int64) ChangeOrder {
	t.Helper()
	co, err := service.Create(ctx, ChangeOrder{
		ContractID: 7,
		ProjectID:  1,
		Number:     "CO-001",
		Title:      "Added scope on level 3",
		Lines: []Line{
			{Key: costkey.Normalize(1, nil, 100, 3), Amount: decimal.NewFromInt(amount)},
		},
	})
	require.NoError(t, err)
	return co
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create a change order already pending", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		co := pendingChangeOrder(t, 3000)

		// then
		assert.Equal(t, ledger.StatePending, co.Status)
		assert.NotEmpty(t, co.UID)
	})

	t.Run("should require a contract", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, ChangeOrder{ProjectID: 1, Number: "CO-002"})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}

func TestServiceImpl_Transition(t *testing.T) {
	t.Run("should approve a pending change order", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		co := pendingChangeOrder(t, 3000)

		// when
		state, err := service.Transition(ctx, co.ID, ledger.ActionApprove)

		// then
		assert.NoError(t, err)
		assert.Equal(t, ledger.StateApproved, state)
	})

	t.Run("should not resurrect a rejected change order", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		co := pendingChangeOrder(t, 3000)
		_, err := service.Transition(ctx, co.ID, ledger.ActionReject)
		require.NoError(t, err)

		// when
		_, err = service.Transition(ctx, co.ID, ledger.ActionApprove)

		// then
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	})

	t.Run("should publish the contract id with the transition event", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		co := pendingChangeOrder(t, 3000)
		var received []event_bus.LedgerTransitioned
		unsubscribe := event_bus.SubscribeTyped(bus, event_bus.LedgerTransitionedType,
			func(e event_bus.EventT[event_bus.LedgerTransitioned]) error {
				received = append(received, e.Data)
				return nil
			})
		defer unsubscribe()

		// when
		_, err := service.Transition(ctx, co.ID, ledger.ActionApprove)
		require.NoError(t, err)

		// then
		require.Len(t, received, 1)
		assert.Equal(t, 7, received[0].ContractID)
		assert.Equal(t, "approved", received[0].ToState)
	})
}

func TestServiceImpl_Price(t *testing.T) {
	t.Run("should quote a base cost through the project markups", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		_, err := markupStub.Store(ctx, markup.Markup{
			ProjectID: 1, MarkupType: "insurance", Percentage: decimal.NewFromInt(2), CalculationOrder: 1,
		})
		require.NoError(t, err)
		_, err = markupStub.Store(ctx, markup.Markup{
			ProjectID: 1, MarkupType: "overhead", Percentage: decimal.NewFromInt(10), CalculationOrder: 2, Compound: true,
		})
		require.NoError(t, err)

		// when
		breakdown, err := service.Price(ctx, 1, decimal.NewFromInt(100000))

		// then
		require.NoError(t, err)
		assert.True(t, breakdown.Total.Equal(decimal.NewFromInt(112200)),
			"total was %s", breakdown.Total)
	})

	t.Run("should refuse a negative base cost", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Price(ctx, 1, decimal.NewFromInt(-1))

		// then
		assert.ErrorIs(t, err, ledger.ErrOutOfRange)
	})
}
