package commitment

import (
	"time"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Commitment is a vendor obligation. Its lines allocate the contract amount
// across identity keys; the lines count as committed cost once the
// commitment is executed or approved.
type Commitment struct {
	ID                  int
	UID                 string
	ProjectID           int
	Number              string
	Title               string
	VendorName          string
	ContractAmount      decimal.Decimal
	RetentionPercentage decimal.Decimal
	ExecutedDate        *time.Time
	Status              ledger.State
	Version             int
	Lines               []Line
}

type Line struct {
	ID           int
	CommitmentID int
	Key          costkey.Key
	Description  string
	Amount       decimal.Decimal
}

// ChangeOrder amends an existing commitment. It walks its own pending
// vocabulary and only approved change order lines add to committed cost.
type ChangeOrder struct {
	ID           int
	UID          string
	CommitmentID int
	ProjectID    int
	Number       string
	Title        string
	Status       ledger.State
	Version      int
	Lines        []Line
}
