package contract

import (
	"time"

	"github.com/shopspring/decimal"
)

// Contract is a prime contract. Its financial baseline is the schedule of
// values; change orders, invoices, and payments move against it.
type Contract struct {
	ID         int
	UID        string
	ProjectID  int
	Number     string
	Title      string
	ClientName string
	StartDate  *time.Time
}

// SOVLine is one schedule-of-values row. The sum of a contract's SOV lines
// is its original contract amount.
type SOVLine struct {
	ID          int
	ContractID  int
	ItemNumber  string
	Description string
	Amount      decimal.Decimal
}

type Invoice struct {
	ID          int
	ContractID  int
	Number      string
	Amount      decimal.Decimal
	Approved    bool
	InvoiceDate time.Time
}

type Payment struct {
	ID         int
	ContractID int
	Reference  string
	Amount     decimal.Decimal
	ReceivedAt time.Time
}

// Summary is the financial snapshot of one contract. The change order
// vocabulary has no draft stage, so DraftChangeOrders is always zero; it is
// kept in the shape for report compatibility.
type Summary struct {
	ContractID             int
	OriginalContractAmount decimal.Decimal
	ApprovedChangeOrders   decimal.Decimal
	RevisedContractAmount  decimal.Decimal
	PendingChangeOrders    decimal.Decimal
	DraftChangeOrders      decimal.Decimal
	InvoicedAmount         decimal.Decimal
	PaymentsReceived       decimal.Decimal
	PercentPaid            decimal.Decimal
	RemainingBalance       decimal.Decimal
}
