package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ebanking/transaction-service/internal/client"
	"github.com/ebanking/transaction-service/internal/middleware"
	"github.com/ebanking/transaction-service/internal/models"
	"github.com/ebanking/transaction-service/internal/service"
)

// TransactionOrchestrator defines the operations used by TransactionHandler.
type TransactionOrchestrator interface {
	CreateTransaction(ctx context.Context, t *models.Transaction) (*models.Transaction, error)
	GetTransactionByID(ctx context.Context, id int64) (*models.Transaction, error)
	GetAllTransactions(ctx context.Context) ([]models.Transaction, error)
	GetTransactionsByAccountID(ctx context.Context, accountID int64) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, id int64, fields *models.Transaction) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, id int64) error
}

type TransactionHandler struct {
	transactions TransactionOrchestrator
}

func NewTransactionHandler(transactions TransactionOrchestrator) *TransactionHandler {
	return &TransactionHandler{transactions: transactions}
}

type TransactionRequest struct {
	TransactionID string          `json:"transactionId" validate:"required"`
	Type          string          `json:"transactionType" validate:"required,oneof=DEPOSIT WITHDRAWAL TRANSFER"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Description   string          `json:"description"`
	FromAccountID int64           `json:"fromAccountId" validate:"required"`
	ToAccountID   *int64          `json:"toAccountId"`
	UserID        int64           `json:"userId" validate:"required"`
	Status        string          `json:"status"`
}

func (r *TransactionRequest) toModel() *models.Transaction {
	return &models.Transaction{
		TransactionID: r.TransactionID,
		Type:          models.TransactionType(r.Type),
		Amount:        r.Amount,
		Currency:      r.Currency,
		Description:   r.Description,
		FromAccountID: r.FromAccountID,
		ToAccountID:   r.ToAccountID,
		UserID:        r.UserID,
		Status:        models.TransactionStatus(r.Status),
	}
}

func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	transaction, err := h.transactions.CreateTransaction(requestContext(c), req.toModel())
	if err != nil {
		respondWithServiceError(c, err, "Failed to create transaction")
		return
	}

	c.JSON(http.StatusCreated, transaction)
}

func (h *TransactionHandler) GetAllTransactions(c *gin.Context) {
	transactions, err := h.transactions.GetAllTransactions(requestContext(c))
	if err != nil {
		respondWithServiceError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	transaction, err := h.transactions.GetTransactionByID(requestContext(c), id)
	if err != nil {
		respondWithServiceError(c, err, "Failed to get transaction")
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) GetTransactionsByAccount(c *gin.Context) {
	accountID, ok := pathID(c, "accountId")
	if !ok {
		return
	}
	transactions, err := h.transactions.GetTransactionsByAccountID(requestContext(c), accountID)
	if err != nil {
		respondWithServiceError(c, err, "Failed to list transactions")
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}

	transaction, err := h.transactions.UpdateTransaction(requestContext(c), id, req.toModel())
	if err != nil {
		respondWithServiceError(c, err, "Failed to update transaction")
		return
	}
	c.JSON(http.StatusOK, transaction)
}

func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.transactions.DeleteTransaction(requestContext(c), id); err != nil {
		respondWithServiceError(c, err, "Failed to delete transaction")
		return
	}
	c.Status(http.StatusNoContent)
}

// requestContext carries the caller's bearer token so the account client
// forwards it on outbound calls.
func requestContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if token, ok := middleware.GetAuthToken(c); ok {
		ctx = client.WithAuthToken(ctx, token)
	}
	return ctx
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func respondWithServiceError(c *gin.Context, err error, fallback string) {
	var validationErr *service.ValidationError
	switch {
	case errors.As(err, &validationErr):
		middleware.RespondWithError(c, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, service.ErrAccountNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, service.ErrTransactionNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, service.ErrDuplicateTransaction):
		middleware.RespondWithError(c, http.StatusConflict, "Transaction ID already exists")
	case errors.Is(err, service.ErrInsufficientBalance):
		middleware.RespondWithError(c, http.StatusUnprocessableEntity, "Insufficient balance")
	case errors.Is(err, service.ErrRemoteUnavailable):
		middleware.RespondWithError(c, http.StatusServiceUnavailable, "Account service unavailable")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, fallback)
	}
}
