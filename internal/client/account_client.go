package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ebanking/transaction-service/internal/models"
)

// Errors reported by the account service, mapped from its HTTP responses.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidRequest      = errors.New("account service rejected balance change")
	ErrServiceUnavailable  = errors.New("account service unavailable")
)

type contextKey struct{}

// WithAuthToken returns a context carrying the inbound bearer token, so
// outbound account-service calls run with the caller's credentials.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, contextKey{}, token)
}

func authToken(ctx context.Context) string {
	token, _ := ctx.Value(contextKey{}).(string)
	return token
}

// AccountClient talks to the account service over HTTP. Calls are
// synchronous with a single attempt; any transport failure surfaces as
// ErrServiceUnavailable and no retry happens here.
type AccountClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewAccountClient(baseURL string) *AccountClient {
	return &AccountClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type balanceUpdateRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	TransactionType string          `json:"transactionType"`
}

// GetAccount fetches a single account by id.
func (c *AccountClient) GetAccount(ctx context.Context, id int64) (*models.Account, error) {
	url := fmt.Sprintf("%s/api/accounts/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return c.do(req, false)
}

// UpdateBalance applies a signed balance change to an account. The
// account service is the sole enforcer of the non-negative balance
// invariant; a rejected debit comes back as ErrInsufficientBalance.
func (c *AccountClient) UpdateBalance(ctx context.Context, id int64, amount decimal.Decimal, direction models.BalanceDirection) (*models.Account, error) {
	body, err := json.Marshal(balanceUpdateRequest{
		Amount:          amount,
		TransactionType: string(direction),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal balance update: %w", err)
	}

	url := fmt.Sprintf("%s/api/accounts/%d/balance", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, direction == models.DirectionDebit)
}

func (c *AccountClient) do(req *http.Request, debit bool) (*models.Account, error) {
	if token := authToken(req.Context()); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var account models.Account
		if err := json.NewDecoder(resp.Body).Decode(&account); err != nil {
			return nil, fmt.Errorf("%w: decoding account: %v", ErrServiceUnavailable, err)
		}
		return &account, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrAccountNotFound
	case resp.StatusCode == http.StatusBadRequest:
		// The account service answers 400 both for an overdrawn debit and
		// for a malformed change. Only debits can overdraw.
		if debit {
			return nil, ErrInsufficientBalance
		}
		return nil, ErrInvalidRequest
	default:
		return nil, fmt.Errorf("%w: unexpected status %d", ErrServiceUnavailable, resp.StatusCode)
	}
}
