package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the engine's failure kinds. Handlers and callers
// classify errors with errors.Is against these.
var (
	ErrNotFound           = errors.New("resource not found")
	ErrAlreadyExists      = errors.New("resource already exists")
	ErrInvalidInput       = errors.New("invalid input")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotEligible        = errors.New("not eligible")
	ErrCapacityExceeded   = errors.New("phase capacity exceeded")
	ErrWalletCapExceeded  = errors.New("per-wallet mint cap exceeded")
	ErrOracleUnavailable  = errors.New("oracle unavailable")
	ErrInvariantViolation = errors.New("ledger invariant violation")
	ErrInternal           = errors.New("internal error")
)

// AppError is a structured application error with a stable code and an HTTP
// status mapping for the transport layer.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
	// Details carries structured context, e.g. the list of failed criteria
	// for a NOT_ELIGIBLE error, so a UI can explain why.
	Details any `json:"details,omitempty"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetails attaches structured context to the error and returns it.
func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// NotFound creates a 404 error.
func NotFound(resource, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Message: fmt.Sprintf("%s with id %s not found", resource, id),
		Status:  http.StatusNotFound,
		Err:     ErrNotFound,
	}
}

// AlreadyExists creates a 409 error.
func AlreadyExists(resource, field, value string) *AppError {
	return &AppError{
		Code:    "ALREADY_EXISTS",
		Message: fmt.Sprintf("%s with %s %q already exists", resource, field, value),
		Status:  http.StatusConflict,
		Err:     ErrAlreadyExists,
	}
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return &AppError{
		Code:    "INVALID_INPUT",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     ErrInvalidInput,
	}
}

// Configuration creates a 422 error for a malformed or unusable phase or
// collection configuration (disabled phase, unknown collection, negative
// multiplier). Never retried automatically.
func Configuration(message string) *AppError {
	return &AppError{
		Code:    "CONFIGURATION_ERROR",
		Message: message,
		Status:  http.StatusUnprocessableEntity,
		Err:     ErrConfiguration,
	}
}

// NotEligible creates a 403 error; attach the failed criteria via WithDetails.
func NotEligible(message string) *AppError {
	return &AppError{
		Code:    "NOT_ELIGIBLE",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     ErrNotEligible,
	}
}

// CapacityExceeded creates a 409 error for an exhausted phase allowance.
// Safe to retry against a different phase, not against the same one.
func CapacityExceeded(phaseID string) *AppError {
	return &AppError{
		Code:    "CAPACITY_EXCEEDED",
		Message: fmt.Sprintf("phase %s has no remaining mint allowance", phaseID),
		Status:  http.StatusConflict,
		Err:     ErrCapacityExceeded,
	}
}

// WalletCapExceeded creates a 409 error for an exhausted per-wallet allowance.
func WalletCapExceeded(phaseID, wallet string) *AppError {
	return &AppError{
		Code:    "WALLET_CAP_EXCEEDED",
		Message: fmt.Sprintf("wallet %s has no remaining allowance in phase %s", wallet, phaseID),
		Status:  http.StatusConflict,
		Err:     ErrWalletCapExceeded,
	}
}

// OracleUnavailable creates a 503 error for a balance or social signal
// lookup that kept failing through retries.
func OracleUnavailable(oracle string, err error) *AppError {
	return &AppError{
		Code:    "ORACLE_UNAVAILABLE",
		Message: fmt.Sprintf("%s oracle unavailable", oracle),
		Status:  http.StatusServiceUnavailable,
		Err:     fmt.Errorf("%w: %w", ErrOracleUnavailable, err),
	}
}

// InvariantViolation creates a 500 error for an internal consistency check
// failure. The ledger refuses further mutation on the affected phase.
func InvariantViolation(message string) *AppError {
	return &AppError{
		Code:    "INVARIANT_VIOLATION",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     ErrInvariantViolation,
	}
}

// Internal creates a 500 error.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrConfiguration):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrNotEligible):
		return http.StatusForbidden
	case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrWalletCapExceeded):
		return http.StatusConflict
	case errors.Is(err, ErrOracleUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
