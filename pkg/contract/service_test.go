package contract

import (
	"context"
	"testing"
	"time"

	"github.com/costline/costline/internal/event_bus"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ctx = context.Background()

// stubChangeOrders returns canned per-state totals for one contract.
type stubChangeOrders struct {
	contractID int
	approved   decimal.Decimal
	pending    decimal.Decimal
}

func (s *stubChangeOrders) TotalsByContract(ctx context.Context, contractID int, status ledger.State) (decimal.Decimal, error) {
	if contractID != s.contractID {
		return decimal.Zero, nil
	}
	switch status {
	case ledger.StateApproved:
		return s.approved, nil
	case ledger.StatePending:
		return s.pending, nil
	}
	return decimal.Zero, nil
}

var repoStub = NewStubRepository()
var changeOrdersStub = &stubChangeOrders{approved: decimal.Zero, pending: decimal.Zero}
var bus *event_bus.EventBus
var service Service

func setup(t *testing.T) func() {
	bus = event_bus.NewEventBus()
	service = NewService(repoStub, changeOrdersStub, bus)
	return func() {
		t.Log("Teardown after test")
		repoStub.Cleanup()
		changeOrdersStub.contractID = 0
		changeOrdersStub.approved = decimal.Zero
		changeOrdersStub.pending = decimal.Zero
	}
}

func amt(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func storedContract(t *testing.T) Contract {
	t.Helper()
	c, err := service.Create(ctx, Contract{ProjectID: 1, Number: "PC-100", Title: "Main building", ClientName: "Acme"})
	require.NoError(t, err)
	return c
}

func TestServiceImpl_Create(t *testing.T) {
	t.Run("should assign a uid on create", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		created, err := service.Create(ctx, Contract{ProjectID: 1, Number: "PC-100"})

		// then
		require.NoError(t, err)
		assert.NotEmpty(t, created.UID)
	})

	t.Run("should require a contract number", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.Create(ctx, Contract{ProjectID: 1})

		// then
		assert.ErrorIs(t, err, ledger.ErrConfiguration)
	})
}

func TestServiceImpl_Ledgers(t *testing.T) {
	t.Run("should refuse an SOV line for an unknown contract", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.AddSOVLine(ctx, SOVLine{ContractID: 42, ItemNumber: "001", Amount: amt("1000")})

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("should refuse a negative payment", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		contract := storedContract(t)

		// when
		_, err := service.AddPayment(ctx, Payment{ContractID: contract.ID, Reference: "wire-1", Amount: amt("-10")})

		// then
		assert.ErrorIs(t, err, ledger.ErrOutOfRange)
	})
}

func TestServiceImpl_GetSummary(t *testing.T) {
	t.Run("should compute the summary from all four ledgers", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		contract := storedContract(t)
		_, err := service.AddSOVLine(ctx, SOVLine{ContractID: contract.ID, ItemNumber: "001", Amount: amt("60000")})
		require.NoError(t, err)
		_, err = service.AddSOVLine(ctx, SOVLine{ContractID: contract.ID, ItemNumber: "002", Amount: amt("40000")})
		require.NoError(t, err)
		changeOrdersStub.contractID = contract.ID
		changeOrdersStub.approved = amt("10000")
		changeOrdersStub.pending = amt("5000")

		inv, err := service.AddInvoice(ctx, Invoice{ContractID: contract.ID, Number: "INV-1", Amount: amt("30000"), InvoiceDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)
		require.NoError(t, service.ApproveInvoice(ctx, contract.ID, inv.ID))
		_, err = service.AddInvoice(ctx, Invoice{ContractID: contract.ID, Number: "INV-2", Amount: amt("20000"), InvoiceDate: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)

		_, err = service.AddPayment(ctx, Payment{ContractID: contract.ID, Reference: "wire-1", Amount: amt("27500"), ReceivedAt: time.Date(2024, 3, 20, 0, 0, 0, 0, time.UTC)})
		require.NoError(t, err)

		// when
		summary, err := service.GetSummary(ctx, contract.ID)

		// then
		require.NoError(t, err)
		assert.True(t, summary.OriginalContractAmount.Equal(amt("100000")), "original was %s", summary.OriginalContractAmount)
		assert.True(t, summary.RevisedContractAmount.Equal(amt("110000")), "revised was %s", summary.RevisedContractAmount)
		assert.True(t, summary.PendingChangeOrders.Equal(amt("5000")))
		assert.True(t, summary.DraftChangeOrders.IsZero())
		assert.True(t, summary.InvoicedAmount.Equal(amt("30000")), "only approved invoices count, got %s", summary.InvoicedAmount)
		assert.True(t, summary.PaymentsReceived.Equal(amt("27500")))
		assert.True(t, summary.PercentPaid.Equal(amt("25")), "percent paid was %s", summary.PercentPaid)
		assert.True(t, summary.RemainingBalance.Equal(amt("82500")), "remaining was %s", summary.RemainingBalance)
	})

	t.Run("should report zero percent paid for a zero revised amount", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		contract := storedContract(t)
		_, err := service.AddPayment(ctx, Payment{ContractID: contract.ID, Reference: "wire-1", Amount: amt("500")})
		require.NoError(t, err)

		// when
		summary, err := service.GetSummary(ctx, contract.ID)

		// then
		require.NoError(t, err)
		assert.True(t, summary.PercentPaid.IsZero(), "percent paid was %s", summary.PercentPaid)
		assert.True(t, summary.RemainingBalance.Equal(amt("-500")))
	})

	t.Run("should return an error for an unknown contract", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// when
		_, err := service.GetSummary(ctx, 42)

		// then
		assert.ErrorIs(t, err, ledger.ErrNotFound)
	})

	t.Run("should drop the cached summary when a change order transitions", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		contract := storedContract(t)
		_, err := service.AddSOVLine(ctx, SOVLine{ContractID: contract.ID, ItemNumber: "001", Amount: amt("50000")})
		require.NoError(t, err)
		changeOrdersStub.contractID = contract.ID

		first, err := service.GetSummary(ctx, contract.ID)
		require.NoError(t, err)
		require.True(t, first.RevisedContractAmount.Equal(amt("50000")))

		// when a change order for this contract gets approved
		changeOrdersStub.approved = amt("8000")
		err = bus.Publish(event_bus.NewEvent(ctx, event_bus.LedgerTransitionedType, event_bus.LedgerTransitioned{
			Ledger:     "change_order",
			BatchID:    3,
			ProjectID:  contract.ProjectID,
			ContractID: contract.ID,
			Action:     "approve",
			FromState:  "pending",
			ToState:    "approved",
		}))
		require.NoError(t, err)

		// then the next read reflects the approval
		second, err := service.GetSummary(ctx, contract.ID)
		require.NoError(t, err)
		assert.True(t, second.RevisedContractAmount.Equal(amt("58000")), "revised was %s", second.RevisedContractAmount)
	})

	t.Run("should drop the cached summary when a payment is recorded", func(t *testing.T) {
		teardown := setup(t)
		defer teardown()

		// given
		contract := storedContract(t)
		_, err := service.AddSOVLine(ctx, SOVLine{ContractID: contract.ID, ItemNumber: "001", Amount: amt("20000")})
		require.NoError(t, err)
		first, err := service.GetSummary(ctx, contract.ID)
		require.NoError(t, err)
		require.True(t, first.PaymentsReceived.IsZero())

		// when
		_, err = service.AddPayment(ctx, Payment{ContractID: contract.ID, Reference: "wire-1", Amount: amt("4000")})
		require.NoError(t, err)

		// then
		second, err := service.GetSummary(ctx, contract.ID)
		require.NoError(t, err)
		assert.True(t, second.PaymentsReceived.Equal(amt("4000")), "payments were %s", second.PaymentsReceived)
		assert.True(t, second.RemainingBalance.Equal(amt("16000")))
	})
}
