package apperror

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

// AppError is a structured error that maps to a failure envelope.
type AppError struct {
	Code       string `json:"errorCode"`
	Message    string `json:"message"`
	HTTPStatus int    `json:"-"`
	Retryable  bool   `json:"-"` // Caller may retry with the same idempotency key
	Err        error  `json:"-"` // Wrapped internal error (not exposed to client)
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new AppError.
func New(code string, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

// Wrap wraps an internal error with an AppError.
func Wrap(code string, message string, httpStatus int, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func retryable(e *AppError) *AppError {
	e.Retryable = true
	return e
}

// ---- Input validation (VAL) ----

// Validation returns an InvalidInput error carrying the first field message.
func Validation(message string) *AppError {
	return New("VAL_001", message, http.StatusBadRequest)
}

// ---- Wallet business rules (WAL) ----

func ErrNotFound(entity string) *AppError {
	return New("WAL_001", fmt.Sprintf("%s not found", entity), http.StatusNotFound)
}

func ErrInvalidPin() *AppError {
	return New("WAL_002", "Invalid PIN", http.StatusUnauthorized)
}

func ErrInvalidCurrentPin() *AppError {
	return New("WAL_002", "Invalid current PIN", http.StatusUnauthorized)
}

func ErrInsufficientFunds() *AppError {
	return New("WAL_003", "Insufficient balance", http.StatusPaymentRequired)
}

func ErrSameWallet() *AppError {
	return New("WAL_004", "Sender and receiver wallets cannot be the same", http.StatusBadRequest)
}

func ErrAmountLimit() *AppError {
	return New("WAL_005", "Amount must be less than 1B", http.StatusBadRequest)
}

// ---- Rate Limiting (RATE) ----

func ErrRateLimitExceeded() *AppError {
	return New("RATE_001", "Rate limit exceeded", http.StatusTooManyRequests)
}

// ---- System & Infrastructure (SYS) ----

// InternalError wraps a storage or connectivity fault.
func InternalError(err error) *AppError {
	return retryable(Wrap("SYS_001", "Internal server error", http.StatusInternalServerError, err))
}

func ErrLockTimeout(err error) *AppError {
	return retryable(Wrap("SYS_002", "Lock acquisition timeout", http.StatusServiceUnavailable, err))
}

func ErrConflict(err error) *AppError {
	return retryable(Wrap("SYS_003", "Concurrent update conflict, retry the request", http.StatusConflict, err))
}

// Postgres SQLSTATE codes the coordinator treats as retryable contention.
const (
	pgLockNotAvailable     = "55P03"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgQueryCanceled        = "57014"
)

// FromStore classifies an error returned by the ledger store. AppErrors pass
// through unchanged.
func FromStore(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrLockTimeout(err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgQueryCanceled:
			return ErrLockTimeout(err)
		case pgSerializationFailure, pgDeadlockDetected:
			return ErrConflict(err)
		}
	}
	return InternalError(err)
}
