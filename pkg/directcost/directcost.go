package directcost

import (
	"time"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

// DirectCost is a single incurred cost row attributed to a vendor: an
// invoice, a payroll run, an expense. Rows carry their own approval state;
// only approved rows count as job-to-date cost.
type DirectCost struct {
	ID            int
	UID           string
	Key           costkey.Key
	VendorName    string
	Description   string
	InvoiceNumber string
	InvoiceDate   time.Time
	ReceivedDate  *time.Time
	Amount        decimal.Decimal
	Status        ledger.State
	Version       int
}
