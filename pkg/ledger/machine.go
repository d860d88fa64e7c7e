package ledger

import "fmt"

// transition is one legal move: any state in from, via one action, to to.
type transition struct {
	from []State
	to   State
}

// transitions holds the per-ledger state machines. Adding a ledger type means
// adding a table entry here; no shared logic changes.
var transitions = map[Type]map[Action]transition{
	TypeBudgetModification: {
		ActionSubmit:  {from: []State{StateDraft}, to: StatePending},
		ActionApprove: {from: []State{StatePending}, to: StateApproved},
		ActionReject:  {from: []State{StatePending}, to: StateDraft},
		ActionVoid:    {from: []State{StateApproved}, to: StateVoid},
	},
	TypeChangeOrder: {
		ActionApprove: {from: []State{StatePending}, to: StateApproved},
		ActionReject:  {from: []State{StatePending}, to: StateRejected},
	},
	TypeCommitmentChangeOrder: {
		ActionApprove: {from: []State{StatePending, StatePendingApproval, StatePendingReview}, to: StateApproved},
		ActionReject:  {from: []State{StatePending, StatePendingApproval, StatePendingReview}, to: StateRejected},
	},
	TypeCommitment: {
		ActionSubmit:  {from: []State{StateDraft}, to: StatePending},
		ActionApprove: {from: []State{StatePending}, to: StateApproved},
		ActionExecute: {from: []State{StatePending}, to: StateExecuted},
		ActionClose:   {from: []State{StateExecuted, StateApproved}, to: StateClosed},
	},
	TypeDirectCost: {
		ActionApprove:         {from: []State{StatePending}, to: StateApproved},
		ActionRequestRevision: {from: []State{StatePending}, to: StateReviseAndResubmit},
		ActionResubmit:        {from: []State{StateReviseAndResubmit}, to: StatePending},
	},
}

// Next returns the state a batch moves to when action is applied from
// current. An action that is not legal from the current state fails with
// ErrInvalidTransition carrying the offending state, including the case where
// the batch already occupies the target state.
func Next(ledgerType Type, current State, action Action) (State, error) {
	actions, ok := transitions[ledgerType]
	if !ok {
		return "", fmt.Errorf("unknown ledger type %q: %w", ledgerType, ErrNotFound)
	}
	t, ok := actions[action]
	if !ok {
		return "", fmt.Errorf("ledger %s has no action %q (current state %q): %w",
			ledgerType, action, current, ErrInvalidTransition)
	}
	for _, from := range t.from {
		if from == current {
			return t.to, nil
		}
	}
	return "", fmt.Errorf("cannot %s a %s in state %q: %w", action, ledgerType, current, ErrInvalidTransition)
}

// CountsAsLive reports whether a batch in the given state contributes its
// amounts to rollups. Commitments count once executed or approved; every other
// ledger counts only approved rows. Void, rejected, draft, and pending rows
// are retained for audit history but excluded.
func CountsAsLive(ledgerType Type, state State) bool {
	if ledgerType == TypeCommitment {
		return state == StateExecuted || state == StateApproved
	}
	return state == StateApproved
}
