package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ebanking/transaction-service/internal/models"
)

func TestGetAccount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/accounts/42", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"id": 42, "balance": "150.25", "currency": "EUR", "status": "ACTIVE",
		})
	}))
	defer server.Close()

	c := NewAccountClient(server.URL)
	ctx := WithAuthToken(context.Background(), "token-123")
	account, err := c.GetAccount(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), account.ID)
	assert.True(t, account.Balance.Equal(decimal.RequireFromString("150.25")))
}

func TestGetAccountNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewAccountClient(server.URL)
	_, err := c.GetAccount(context.Background(), 42)
	require.ErrorIs(t, err, ErrAccountNotFound)
}

func TestUpdateBalanceSendsChangeRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/accounts/7/balance", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "WITHDRAWAL", body["transactionType"])
		assert.Equal(t, "100", body["amount"])

		json.NewEncoder(w).Encode(map[string]any{"id": 7, "balance": "400"})
	}))
	defer server.Close()

	c := NewAccountClient(server.URL)
	account, err := c.UpdateBalance(context.Background(), 7, decimal.NewFromInt(100), models.DirectionDebit)
	require.NoError(t, err)
	assert.True(t, account.Balance.Equal(decimal.NewFromInt(400)))
}

func TestUpdateBalanceRejectedDebitIsInsufficientBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewAccountClient(server.URL)
	_, err := c.UpdateBalance(context.Background(), 7, decimal.NewFromInt(100), models.DirectionDebit)
	require.ErrorIs(t, err, ErrInsufficientBalance)
}

func TestUpdateBalanceRejectedCreditIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewAccountClient(server.URL)
	_, err := c.UpdateBalance(context.Background(), 7, decimal.NewFromInt(100), models.DirectionCredit)
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewAccountClient(server.URL)
	_, err := c.GetAccount(context.Background(), 42)
	require.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestTransportFailureIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	c := NewAccountClient(server.URL)
	_, err := c.GetAccount(context.Background(), 42)
	require.ErrorIs(t, err, ErrServiceUnavailable)
}
