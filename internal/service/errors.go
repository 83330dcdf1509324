package service

import (
	"errors"
	"fmt"
)

// Failure kinds surfaced by the orchestrator. Each maps to a distinct
// caller-facing signal in the handler layer.
var (
	ErrAccountNotFound      = errors.New("account not found")
	ErrDuplicateTransaction = errors.New("transaction id already exists")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrRemoteUnavailable    = errors.New("account service unavailable")
	ErrTransactionNotFound  = errors.New("transaction not found")
)

// ValidationError reports a malformed transaction request. It is raised
// before any persistence or remote call.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}
