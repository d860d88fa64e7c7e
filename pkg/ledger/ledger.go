package ledger

import (
	"fmt"

	"github.com/costline/costline/pkg/costkey"
	"github.com/shopspring/decimal"
)

// Type identifies one of the five ledgers sharing the identity key.
type Type string

const (
	TypeBudgetModification    Type = "budget_modification"
	TypeChangeOrder           Type = "change_order"
	TypeCommitmentChangeOrder Type = "commitment_change_order"
	TypeCommitment            Type = "commitment"
	TypeDirectCost            Type = "direct_cost"
)

// ParseType validates a ledger type coming from the transport layer.
func ParseType(s string) (Type, error) {
	switch Type(s) {
	case TypeBudgetModification, TypeChangeOrder, TypeCommitmentChangeOrder, TypeCommitment, TypeDirectCost:
		return Type(s), nil
	}
	return "", fmt.Errorf("unknown ledger type %q: %w", s, ErrNotFound)
}

// State is a batch approval state. The vocabularies differ per ledger type;
// the transition tables in machine.go define which states each type uses.
type State string

const (
	StateDraft             State = "draft"
	StatePending           State = "pending"
	StatePendingApproval   State = "pending_approval"
	StatePendingReview     State = "pending_review"
	StateApproved          State = "approved"
	StateRejected          State = "rejected"
	StateVoid              State = "void"
	StateExecuted          State = "executed"
	StateClosed            State = "closed"
	StateReviseAndResubmit State = "revise_and_resubmit"
)

// Action is an explicit operator action. There are no automatic transitions.
type Action string

const (
	ActionSubmit          Action = "submit"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
	ActionVoid            Action = "void"
	ActionExecute         Action = "execute"
	ActionClose           Action = "close"
	ActionRequestRevision Action = "request_revision"
	ActionResubmit        Action = "resubmit"
)

// Entry is the flattened detail-view row returned by ListEntries, one per
// ledger line, regardless of which ledger it came from.
type Entry struct {
	Ledger      Type
	BatchID     int
	LineID      int
	Reference   string // batch number, commitment number, or vendor name
	Description string
	Status      State
	Key         costkey.Key
	Amount      decimal.Decimal
}
