package modification

import (
	"time"

	"github.com/costline/costline/pkg/costkey"
	"github.com/costline/costline/pkg/ledger"
	"github.com/shopspring/decimal"
)

// Modification is a named batch of budget changes. Only lines belonging to an
// approved batch count toward revised budget; the rest stay as audit history.
type Modification struct {
	ID            int
	UID           string
	ProjectID     int
	Number        string
	Title         string
	Reason        string
	EffectiveDate time.Time
	Status        ledger.State
	Version       int
	Lines         []Line
}

// Line is one signed budget change within a modification, carrying its own
// identity key. The amount may be negative.
type Line struct {
	ID          int
	BatchID     int
	Key         costkey.Key
	Description string
	Amount      decimal.Decimal
}
