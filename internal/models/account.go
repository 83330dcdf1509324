package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is the read/mutate view of an account owned by the account
// service. It is never persisted here; the remote service is the source
// of truth, including for the non-negative balance invariant.
type Account struct {
	ID            int64           `json:"id"`
	AccountNumber string          `json:"accountNumber"`
	AccountType   string          `json:"accountType"`
	Balance       decimal.Decimal `json:"balance"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	UserID        int64           `json:"userId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// BalanceDirection says whether a balance change adds or removes funds.
type BalanceDirection string

const (
	DirectionCredit BalanceDirection = "DEPOSIT"
	DirectionDebit  BalanceDirection = "WITHDRAWAL"
)
