package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/ebanking/transaction-service/internal/client"
	"github.com/ebanking/transaction-service/internal/events"
	"github.com/ebanking/transaction-service/internal/models"
	"github.com/ebanking/transaction-service/internal/repository"
)

// AccountClient is the remote-call surface against the account service.
type AccountClient interface {
	GetAccount(ctx context.Context, id int64) (*models.Account, error)
	UpdateBalance(ctx context.Context, id int64, amount decimal.Decimal, direction models.BalanceDirection) (*models.Account, error)
}

// EventPublisher emits completed-transaction events. Publication is
// best-effort; failures never reach the transaction-creation caller.
type EventPublisher interface {
	PublishTransactionCompleted(ctx context.Context, event *events.TransactionEvent) error
}

// TransactionStore is the durable, uniquely-keyed record of every
// transaction attempt.
type TransactionStore interface {
	Insert(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus) (*models.Transaction, error)
	Update(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	FindByID(ctx context.Context, id int64) (*models.Transaction, error)
	FindAll(ctx context.Context) ([]models.Transaction, error)
	FindByFromAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)
	FindByToAccount(ctx context.Context, accountID int64) ([]models.Transaction, error)
	Delete(ctx context.Context, id int64) error
}

// TransactionService orchestrates money movements across the account
// service, the transaction store and the event stream. Each create runs as
// an independent unit of work with no shared transaction across those
// boundaries: accounts are validated first, the attempt is recorded as
// PENDING, balances are mutated remotely, and the final status is
// persisted before an event goes out.
type TransactionService struct {
	store     TransactionStore
	accounts  AccountClient
	publisher EventPublisher
	log       logrus.FieldLogger
}

func NewTransactionService(store TransactionStore, accounts AccountClient, publisher EventPublisher, log logrus.FieldLogger) *TransactionService {
	return &TransactionService{
		store:     store,
		accounts:  accounts,
		publisher: publisher,
		log:       log,
	}
}

// CreateTransaction runs the full saga for a requested money movement and
// returns the persisted transaction in its final state. The caller's
// status field is ignored; every attempt starts as PENDING.
//
// A TRANSFER performs two independent remote mutations with no
// cross-call atomicity: if the credit fails after the debit succeeded,
// the transaction is marked FAILED and the debit stands. There is no
// compensating credit-back.
func (s *TransactionService) CreateTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	if err := validateTransaction(t); err != nil {
		return nil, err
	}
	if err := s.resolveAccounts(ctx, t); err != nil {
		return nil, err
	}

	t.Status = models.StatusPending
	pending, err := s.store.Insert(ctx, t)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateTransactionID) {
			s.log.WithField("transactionId", t.TransactionID).Error("transaction id already exists")
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, t.TransactionID)
		}
		return nil, fmt.Errorf("failed to persist transaction: %w", err)
	}

	if err := s.applyBalanceChanges(ctx, pending); err != nil {
		return nil, s.failTransaction(ctx, pending, err)
	}

	status, err := models.NextStatus(pending.Status, models.OutcomeCompleted)
	if err != nil {
		return nil, s.failTransaction(ctx, pending, err)
	}
	completed, err := s.store.UpdateStatus(ctx, pending.ID, status)
	if err != nil {
		return nil, s.failTransaction(ctx, pending, fmt.Errorf("failed to persist completed status: %w", err))
	}

	s.publishCompleted(ctx, completed)
	return completed, nil
}

// GetTransactionByID looks up a single transaction.
func (s *TransactionService) GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error) {
	t, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return t, nil
}

// GetAllTransactions returns every transaction in insertion order.
func (s *TransactionService) GetAllTransactions(ctx context.Context) ([]models.Transaction, error) {
	return s.store.FindAll(ctx)
}

// GetTransactionsByAccountID returns the union of transactions where the
// account is the source or the destination: source rows first, then
// destination rows, each in insertion order.
func (s *TransactionService) GetTransactionsByAccountID(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	fromAccount, err := s.store.FindByFromAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	toAccount, err := s.store.FindByToAccount(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return append(fromAccount, toAccount...), nil
}

// UpdateTransaction overwrites the mutable business fields of an existing
// transaction. This is a metadata correction path: the saga is not re-run
// and accounts are not re-validated.
func (s *TransactionService) UpdateTransaction(ctx context.Context, id int64, fields *models.Transaction) (*models.Transaction, error) {
	existing, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrTransactionNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	existing.TransactionID = fields.TransactionID
	existing.Type = fields.Type
	existing.Amount = fields.Amount
	existing.Currency = fields.Currency
	existing.Description = fields.Description
	existing.FromAccountID = fields.FromAccountID
	existing.ToAccountID = fields.ToAccountID
	existing.UserID = fields.UserID
	if fields.Status != "" {
		existing.Status = fields.Status
	}

	updated, err := s.store.Update(ctx, existing)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrTransactionNotFound):
			return nil, ErrTransactionNotFound
		case errors.Is(err, repository.ErrDuplicateTransactionID):
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTransaction, fields.TransactionID)
		}
		return nil, err
	}
	return updated, nil
}

// DeleteTransaction removes the record unconditionally. It does not
// reverse any balance effects the transaction may have had.
func (s *TransactionService) DeleteTransaction(ctx context.Context, id int64) error {
	return s.store.Delete(ctx, id)
}

func validateTransaction(t *models.Transaction) error {
	if t.TransactionID == "" {
		return validationErrorf("transactionId is required")
	}
	if !t.Type.Valid() {
		return validationErrorf("unknown transaction type %q", t.Type)
	}
	if !t.Amount.IsPositive() {
		return validationErrorf("amount must be greater than zero")
	}
	if t.FromAccountID == 0 {
		return validationErrorf("fromAccountId is required")
	}
	if t.Type == models.TypeTransfer && t.ToAccountID == nil {
		return validationErrorf("toAccountId is required for TRANSFER")
	}
	return nil
}

// resolveAccounts checks that every involved account exists before
// anything is persisted.
func (s *TransactionService) resolveAccounts(ctx context.Context, t *models.Transaction) error {
	if _, err := s.accounts.GetAccount(ctx, t.FromAccountID); err != nil {
		return mapAccountError(err, t.FromAccountID)
	}
	if t.Type == models.TypeTransfer {
		if _, err := s.accounts.GetAccount(ctx, *t.ToAccountID); err != nil {
			return mapAccountError(err, *t.ToAccountID)
		}
	}
	return nil
}

func (s *TransactionService) applyBalanceChanges(ctx context.Context, t *models.Transaction) error {
	switch t.Type {
	case models.TypeDeposit:
		accountID := t.DepositAccountID()
		if _, err := s.accounts.UpdateBalance(ctx, accountID, t.Amount, models.DirectionCredit); err != nil {
			return mapAccountError(err, accountID)
		}
	case models.TypeWithdrawal:
		if _, err := s.accounts.UpdateBalance(ctx, t.FromAccountID, t.Amount, models.DirectionDebit); err != nil {
			return mapAccountError(err, t.FromAccountID)
		}
	case models.TypeTransfer:
		if _, err := s.accounts.UpdateBalance(ctx, t.FromAccountID, t.Amount, models.DirectionDebit); err != nil {
			return mapAccountError(err, t.FromAccountID)
		}
		if _, err := s.accounts.UpdateBalance(ctx, *t.ToAccountID, t.Amount, models.DirectionCredit); err != nil {
			// The debit has already been applied and stands; operators
			// reconcile from this log line.
			s.log.WithFields(logrus.Fields{
				"transactionId": t.TransactionID,
				"fromAccountId": t.FromAccountID,
				"toAccountId":   *t.ToAccountID,
			}).WithError(err).Error("transfer credit failed after debit was applied")
			return mapAccountError(err, *t.ToAccountID)
		}
	}
	return nil
}

// failTransaction records the FAILED status and returns the originating
// error. A persistence failure at this step is logged, not retried, and
// does not mask the original error.
func (s *TransactionService) failTransaction(ctx context.Context, t *models.Transaction, cause error) error {
	s.log.WithFields(logrus.Fields{
		"transactionId": t.TransactionID,
		"id":            t.ID,
	}).WithError(cause).Error("transaction failed")

	status, err := models.NextStatus(t.Status, models.OutcomeFailed)
	if err == nil {
		_, err = s.store.UpdateStatus(ctx, t.ID, status)
	}
	if err != nil {
		s.log.WithField("transactionId", t.TransactionID).WithError(err).Error("failed to persist FAILED status")
	}
	return cause
}

// publishCompleted emits the completion event. Fire-and-forget: a
// publication failure is logged and never surfaced to the caller.
func (s *TransactionService) publishCompleted(ctx context.Context, t *models.Transaction) {
	event := &events.TransactionEvent{
		TransactionID:   t.TransactionID,
		TransactionType: string(t.Type),
		Amount:          t.Amount,
		Currency:        t.Currency,
		Description:     t.Description,
		FromAccountID:   t.FromAccountID,
		ToAccountID:     t.ToAccountID,
		UserID:          t.UserID,
		Status:          string(t.Status),
	}
	if err := s.publisher.PublishTransactionCompleted(ctx, event); err != nil {
		s.log.WithField("transactionId", t.TransactionID).WithError(err).Error("failed to publish transaction event")
	}
}

func mapAccountError(err error, accountID int64) error {
	switch {
	case errors.Is(err, client.ErrAccountNotFound):
		return fmt.Errorf("%w: %d", ErrAccountNotFound, accountID)
	case errors.Is(err, client.ErrInsufficientBalance):
		return fmt.Errorf("%w: account %d", ErrInsufficientBalance, accountID)
	case errors.Is(err, client.ErrInvalidRequest):
		return fmt.Errorf("balance change rejected for account %d: %w", accountID, err)
	default:
		return fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
}
