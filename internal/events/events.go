package events

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	TransactionCompleted = "transaction.completed"
)

// Stream names
const (
	TransactionEventsStream = "transaction.events"
)

// Envelope wraps every published event with its type and emission time.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// TransactionEvent is the payload emitted once per COMPLETED transaction,
// consumed by the notification service. It mirrors the transaction's
// business fields; its identity is the transactionId, which is also the
// stream key.
type TransactionEvent struct {
	TransactionID   string          `json:"transactionId"`
	TransactionType string          `json:"transactionType"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency,omitempty"`
	Description     string          `json:"description,omitempty"`
	FromAccountID   int64           `json:"fromAccountId"`
	ToAccountID     *int64          `json:"toAccountId,omitempty"`
	UserID          int64           `json:"userId"`
	Status          string          `json:"status"`
}
