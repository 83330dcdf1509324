package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStatus(t *testing.T) {
	tests := []struct {
		name    string
		current TransactionStatus
		outcome SagaOutcome
		want    TransactionStatus
		wantErr bool
	}{
		{name: "pending completes", current: StatusPending, outcome: OutcomeCompleted, want: StatusCompleted},
		{name: "pending fails", current: StatusPending, outcome: OutcomeFailed, want: StatusFailed},
		{name: "completed is terminal", current: StatusCompleted, outcome: OutcomeFailed, wantErr: true},
		{name: "failed is terminal", current: StatusFailed, outcome: OutcomeCompleted, wantErr: true},
		{name: "cancelled is terminal", current: StatusCancelled, outcome: OutcomeCompleted, wantErr: true},
		{name: "unknown outcome", current: StatusPending, outcome: SagaOutcome("CANCELLED"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextStatus(tt.current, tt.outcome)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDepositAccountID(t *testing.T) {
	to := int64(2)
	withDestination := Transaction{FromAccountID: 1, ToAccountID: &to}
	assert.Equal(t, int64(2), withDestination.DepositAccountID())

	withoutDestination := Transaction{FromAccountID: 1}
	assert.Equal(t, int64(1), withoutDestination.DepositAccountID())
}

func TestTransactionTypeValid(t *testing.T) {
	assert.True(t, TypeDeposit.Valid())
	assert.True(t, TypeWithdrawal.Valid())
	assert.True(t, TypeTransfer.Valid())
	assert.False(t, TransactionType("REFUND").Valid())
}
