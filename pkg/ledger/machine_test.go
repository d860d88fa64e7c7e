package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNext(t *testing.T) {
	tests := []struct {
		name       string
		ledgerType Type
		current    State
		action     Action
		want       State
		wantErr    error
	}{
		{
			name:       "budget modification submit from draft",
			ledgerType: TypeBudgetModification,
			current:    StateDraft,
			action:     ActionSubmit,
			want:       StatePending,
		},
		{
			name:       "budget modification approve from pending",
			ledgerType: TypeBudgetModification,
			current:    StatePending,
			action:     ActionApprove,
			want:       StateApproved,
		},
		{
			name:       "budget modification reject returns to draft",
			ledgerType: TypeBudgetModification,
			current:    StatePending,
			action:     ActionReject,
			want:       StateDraft,
		},
		{
			name:       "budget modification void from approved",
			ledgerType: TypeBudgetModification,
			current:    StateApproved,
			action:     ActionVoid,
			want:       StateVoid,
		},
		{
			name:       "approving an already approved modification fails",
			ledgerType: TypeBudgetModification,
			current:    StateApproved,
			action:     ActionApprove,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "approving a draft modification fails",
			ledgerType: TypeBudgetModification,
			current:    StateDraft,
			action:     ActionApprove,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "change order reject is terminal",
			ledgerType: TypeChangeOrder,
			current:    StateRejected,
			action:     ActionApprove,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "change order approve from pending",
			ledgerType: TypeChangeOrder,
			current:    StatePending,
			action:     ActionApprove,
			want:       StateApproved,
		},
		{
			name:       "change order has no void action",
			ledgerType: TypeChangeOrder,
			current:    StateApproved,
			action:     ActionVoid,
			wantErr:    ErrInvalidTransition,
		},
		{
			name:       "commitment change order approve from pending_review",
			ledgerType: TypeCommitmentChangeOrder,
			current:    StatePendingReview,
			action:     ActionApprove,
			want:       StateApproved,
		},
		{
			name:       "commitment change order reject from pending_approval",
			ledgerType: TypeCommitmentChangeOrder,
			current:    StatePendingApproval,
			action:     ActionReject,
			want:       StateRejected,
		},
		{
			name:       "commitment execute from pending",
			ledgerType: TypeCommitment,
			current:    StatePending,
			action:     ActionExecute,
			want:       StateExecuted,
		},
		{
			name:       "commitment close from executed",
			ledgerType: TypeCommitment,
			current:    StateExecuted,
			action:     ActionClose,
			want:       StateClosed,
		},
		{
			name:       "direct cost request revision",
			ledgerType: TypeDirectCost,
			current:    StatePending,
			action:     ActionRequestRevision,
			want:       StateReviseAndResubmit,
		},
		{
			name:       "direct cost resubmit",
			ledgerType: TypeDirectCost,
			current:    StateReviseAndResubmit,
			action:     ActionResubmit,
			want:       StatePending,
		},
		{
			name:       "direct cost approve from revise_and_resubmit fails",
			ledgerType: TypeDirectCost,
			current:    StateReviseAndResubmit,
			action:     ActionApprove,
			wantErr:    ErrInvalidTransition,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Next(tt.ledgerType, tt.current, tt.action)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNext_ErrorCarriesOffendingState(t *testing.T) {
	_, err := Next(TypeBudgetModification, StateApproved, ActionApprove)

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "approved")
}

func TestNext_UnknownLedgerType(t *testing.T) {
	_, err := Next(Type("invoice"), StatePending, ActionApprove)

	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCountsAsLive(t *testing.T) {
	assert.True(t, CountsAsLive(TypeBudgetModification, StateApproved))
	assert.False(t, CountsAsLive(TypeBudgetModification, StatePending))
	assert.False(t, CountsAsLive(TypeBudgetModification, StateVoid))

	// commitments count their committed states, not just approved
	assert.True(t, CountsAsLive(TypeCommitment, StateExecuted))
	assert.True(t, CountsAsLive(TypeCommitment, StateApproved))
	assert.False(t, CountsAsLive(TypeCommitment, StateDraft))
	assert.False(t, CountsAsLive(TypeCommitment, StateClosed))

	assert.True(t, CountsAsLive(TypeDirectCost, StateApproved))
	assert.False(t, CountsAsLive(TypeDirectCost, StateReviseAndResubmit))
}
