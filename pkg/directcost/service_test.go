package directcost

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

var ctx = actor.WithActor(context.Background(), "accountant-1")

var repoStub = NewStubRepository()
var auditStub = audit.NewStubRepository()

var service Service

func setup(t *testing.T) func() {
	service = NewService(repoStub, auditStub, event_bus.NewEventBus())
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
		auditStub.Cleanup()
	}
}

func pendingCost(t *testing.T, amount int64) DirectCost {
	t.Helper()
	dc, err := service.Create(ctx, DirectCost{
		Key:         costkey.Normalize(1, nil, 100, 3),
		VendorName:  "Apex Concrete",
		InvoiceDate: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		Amount:      decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return dc
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should create a pending row", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		dc := pendingCost(t, 1800)

		// then
		assert.Equal(t, ledger.StatePending, dc.Status)
		assert.NotEmpty(t, dc.UID)
	})

	t.Run("should require a vendor", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, DirectCost{
			Key:         costkey.Normalize(1, nil, 100, 3),
			InvoiceDate: time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC),
		})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})

	t.Run("should require an invoice date", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, DirectCost{
			Key:        costkey.Normalize(1, nil, 100, 3),
			VendorName: "Apex Concrete",
		})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}

func TestServiceImpl_Transition(t *testing.T) {
	t.Run("should walk a row through revision back to approval", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		dc := pendingCost(t, 1800)

		// when
		state, err := service.Transition(ctx, dc.ID, ledger.ActionRequestRevision)
		require.NoError(t, err)
		assert.Equal(t, ledger.StateReviseAndResubmit, state)

		state, err = service.Transition(ctx, dc.ID, ledger.ActionResubmit)
		require.NoError(t, err)
		assert.Equal(t, ledger.StatePending, state)

		state, err = service.Transition(ctx, dc.ID, ledger.ActionApprove)

		// then
		assert.NoError(t, err)
		assert.Equal(t, ledger.StateApproved, state)
	})

	t.Run("should not approve a row awaiting revision", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		dc := pendingCost(t, 1800)
		_, err := service.Transition(ctx, dc.ID, ledger.ActionRequestRevision)
		require.NoError(t, err)

		// when
		_, err = service.Transition(ctx, dc.ID, ledger.ActionApprove)

		// then
		assert.ErrorIs(t, err, ledger.ErrInvalidTransition)
	})
}

func TestStubRepository_LiveRows(t *testing.T) {
	t.Run("should only surface approved rows as job-to-date cost", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		key := costkey.Normalize(1, nil, 100, 3)
		approved := pendingCost(t, 1800)
		_, err := service.Transition(ctx, approved.ID, ledger.ActionApprove)
		require.NoError(t, err)
		pendingCost(t, 950)

		// when
		rows, err := repoStub.LiveRows(ctx, key)

		// then
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.True(t, rows[0].Amount.Equal(decimal.NewFromInt(1800)))
	})
}
