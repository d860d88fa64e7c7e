package changeorder

import (
	"time"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

// ChangeOrder is a batch of scope changes against a prime contract. There is
// no draft stage: a change order enters the ledger pending and is either
// approved or rejected. Approved lines raise both the revised budget and the
// contract's approved-change-order total.
type ChangeOrder struct {
	ID            int
	UID           string
	ContractID    int
	ProjectID     int
	Number        string
	Title         string
	Reason        string
	EffectiveDate time.Time
	Status        ledger.State
	Version       int
	Lines         []Line
}

type Line struct {
	ID          int
	BatchID     int
	Key         costkey.Key
	Description string
	Amount      decimal.Decimal
}
