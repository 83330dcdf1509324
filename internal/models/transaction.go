package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies the money movement.
type TransactionType string

const (
	TypeDeposit    TransactionType = "DEPOSIT"
	TypeWithdrawal TransactionType = "WITHDRAWAL"
	TypeTransfer   TransactionType = "TRANSFER"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeTransfer:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a transaction.
// PENDING is the only non-terminal state.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusCancelled TransactionStatus = "CANCELLED"
)

// SagaOutcome is the result of running the balance mutations for a
// pending transaction.
type SagaOutcome string

const (
	OutcomeCompleted SagaOutcome = "COMPLETED"
	OutcomeFailed    SagaOutcome = "FAILED"
)

// NextStatus applies a saga outcome to the current status. Only PENDING
// transactions may move; COMPLETED, FAILED and CANCELLED are terminal.
// CANCELLED is never produced here — it can only be written through the
// plain update path.
func NextStatus(current TransactionStatus, outcome SagaOutcome) (TransactionStatus, error) {
	if current != StatusPending {
		return current, fmt.Errorf("transaction status %s is terminal", current)
	}
	switch outcome {
	case OutcomeCompleted:
		return StatusCompleted, nil
	case OutcomeFailed:
		return StatusFailed, nil
	}
	return current, fmt.Errorf("unknown saga outcome %q", outcome)
}

// Transaction is the persisted record of a money movement attempt.
// TransactionID is the caller-supplied idempotency key and is unique
// across all rows; ID is the store-assigned surrogate key.
type Transaction struct {
	ID            int64             `json:"id"`
	TransactionID string            `json:"transactionId"`
	Type          TransactionType   `json:"transactionType"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency,omitempty"`
	Description   string            `json:"description,omitempty"`
	FromAccountID int64             `json:"fromAccountId"`
	ToAccountID   *int64            `json:"toAccountId,omitempty"`
	UserID        int64             `json:"userId"`
	Status        TransactionStatus `json:"status"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// DepositAccountID returns the account credited by a DEPOSIT: the
// destination when one is given, otherwise the source account itself.
func (t *Transaction) DepositAccountID() int64 {
	if t.ToAccountID != nil {
		return *t.ToAccountID
	}
	return t.FromAccountID
}
