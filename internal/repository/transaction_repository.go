package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	goredis "github.com/redis/go-redis/v9"

	"github.com/ebanking/transaction-service/internal/models"
	"github.com/ebanking/transaction-service/internal/redis"
)

const transactionViewKeyPrefix = "transaction:view:"

// pq unique_violation; the transactions table has a unique constraint on
// transaction_id, which is how idempotency-key collisions surface.
const uniqueViolationCode = "23505"

var (
	ErrDuplicateTransactionID = errors.New("transaction id already exists")
	ErrTransactionNotFound    = errors.New("transaction not found")
)

const transactionColumns = `
	id, transaction_id, transaction_type, amount, currency, description,
	from_account_id, to_account_id, user_id, status, created_at, updated_at`

// TransactionRepository is the durable store for transactions. PostgreSQL
// is the source of truth; Redis holds a by-id read cache that is refreshed
// on every write.
type TransactionRepository struct {
	db    *sql.DB
	cache *redis.ViewCache[models.Transaction]
}

func NewTransactionRepository(db *sql.DB, redisClient *goredis.Client) *TransactionRepository {
	return &TransactionRepository{
		db:    db,
		cache: redis.NewViewCache[models.Transaction](redisClient, 0),
	}
}

// Insert persists a new transaction and returns it with the store-assigned
// id and timestamps. A transaction_id collision is reported as
// ErrDuplicateTransactionID and leaves the existing row untouched.
func (r *TransactionRepository) Insert(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		INSERT INTO transactions
			(transaction_id, transaction_type, amount, currency, description,
			 from_account_id, to_account_id, user_id, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(ctx, query,
		t.TransactionID, t.Type, t.Amount,
		nullString(t.Currency), nullString(t.Description),
		t.FromAccountID, nullInt64(t.ToAccountID), t.UserID, t.Status,
	)
	saved, err := scanTransaction(row)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return nil, ErrDuplicateTransactionID
		}
		return nil, fmt.Errorf("failed to insert transaction: %w", err)
	}

	r.cacheView(ctx, saved)
	return saved, nil
}

// UpdateStatus moves a transaction to the given status, bumping updated_at.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id int64, status models.TransactionStatus) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING ` + transactionColumns

	saved, err := scanTransaction(r.db.QueryRowContext(ctx, query, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to update transaction status: %w", err)
	}

	r.cacheView(ctx, saved)
	return saved, nil
}

// Update overwrites the mutable business fields of an existing row.
// Status is included so the plain update path can reach CANCELLED;
// created_at is never touched.
func (r *TransactionRepository) Update(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	query := `
		UPDATE transactions
		SET transaction_id = $2, transaction_type = $3, amount = $4,
		    currency = $5, description = $6, from_account_id = $7,
		    to_account_id = $8, user_id = $9, status = $10, updated_at = now()
		WHERE id = $1
		RETURNING ` + transactionColumns

	row := r.db.QueryRowContext(ctx, query,
		t.ID, t.TransactionID, t.Type, t.Amount,
		nullString(t.Currency), nullString(t.Description),
		t.FromAccountID, nullInt64(t.ToAccountID), t.UserID, t.Status,
	)
	saved, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
			return nil, ErrDuplicateTransactionID
		}
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}

	r.cacheView(ctx, saved)
	return saved, nil
}

// FindByID returns a transaction by attempting Redis first, then PostgreSQL.
func (r *TransactionRepository) FindByID(ctx context.Context, id int64) (*models.Transaction, error) {
	cacheKey := fmt.Sprintf("%s%d", transactionViewKeyPrefix, id)
	if view, ok := r.cache.Get(ctx, cacheKey); ok {
		return view, nil
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	saved, err := scanTransaction(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	r.cacheView(ctx, saved)
	return saved, nil
}

// FindAll returns every transaction in insertion order.
func (r *TransactionRepository) FindAll(ctx context.Context) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions ORDER BY id`
	return r.queryMany(ctx, query)
}

// FindByFromAccount returns transactions whose source is accountID, in
// insertion order.
func (r *TransactionRepository) FindByFromAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE from_account_id = $1 ORDER BY id`
	return r.queryMany(ctx, query, accountID)
}

// FindByToAccount returns transactions whose destination is accountID, in
// insertion order.
func (r *TransactionRepository) FindByToAccount(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE to_account_id = $1 ORDER BY id`
	return r.queryMany(ctx, query, accountID)
}

// Delete removes a transaction unconditionally. Deleting a missing row is
// not an error.
func (r *TransactionRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	r.cache.Delete(ctx, fmt.Sprintf("%s%d", transactionViewKeyPrefix, id))
	return nil
}

func (r *TransactionRepository) queryMany(ctx context.Context, query string, args ...any) ([]models.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	return transactions, nil
}

func (r *TransactionRepository) cacheView(ctx context.Context, t *models.Transaction) {
	r.cache.Set(ctx, fmt.Sprintf("%s%d", transactionViewKeyPrefix, t.ID), t)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row rowScanner) (*models.Transaction, error) {
	var (
		t           models.Transaction
		currency    sql.NullString
		description sql.NullString
		toAccountID sql.NullInt64
	)
	err := row.Scan(
		&t.ID, &t.TransactionID, &t.Type, &t.Amount, &currency, &description,
		&t.FromAccountID, &toAccountID, &t.UserID, &t.Status,
		&t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Currency = currency.String
	t.Description = description.String
	if toAccountID.Valid {
		t.ToAccountID = &toAccountID.Int64
	}
	return &t, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
