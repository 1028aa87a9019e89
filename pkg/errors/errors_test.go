package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	err := NotFound("collection", "collection_the_whales")
	assert.Contains(t, err.Error(), "NOT_FOUND")
	assert.Contains(t, err.Error(), "collection_the_whales")

	wrapped := &AppError{Code: "X", Message: "m", Err: errors.New("cause")}
	assert.Contains(t, wrapped.Error(), "cause")
}

func TestAppError_Unwrap(t *testing.T) {
	err := CapacityExceeded("og_phase")
	assert.True(t, errors.Is(err, ErrCapacityExceeded))
	assert.False(t, errors.Is(err, ErrWalletCapExceeded))

	// Wrapping with fmt.Errorf keeps the sentinel reachable.
	outer := fmt.Errorf("reserve: %w", err)
	assert.True(t, errors.Is(outer, ErrCapacityExceeded))
}

func TestAppError_WithDetails(t *testing.T) {
	err := NotEligible("2 criteria failed").WithDetails([]string{"token_holding", "allow_list"})
	assert.Equal(t, []string{"token_holding", "allow_list"}, err.Details)
}

func TestOracleUnavailable_PreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := OracleUnavailable("balance", cause)
	assert.True(t, errors.Is(err, ErrOracleUnavailable))
	assert.True(t, errors.Is(err, cause))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", NotFound("phase", "p1"), http.StatusNotFound},
		{"already exists", AlreadyExists("collection", "id", "c1"), http.StatusConflict},
		{"invalid input", InvalidInput("quantity must be positive"), http.StatusBadRequest},
		{"configuration", Configuration("negative multiplier"), http.StatusUnprocessableEntity},
		{"not eligible", NotEligible("criteria failed"), http.StatusForbidden},
		{"capacity", CapacityExceeded("p1"), http.StatusConflict},
		{"wallet cap", WalletCapExceeded("p1", "w1"), http.StatusConflict},
		{"oracle", OracleUnavailable("balance", errors.New("timeout")), http.StatusServiceUnavailable},
		{"invariant", InvariantViolation("negative counter"), http.StatusInternalServerError},
		{"wrapped sentinel", fmt.Errorf("ctx: %w", ErrNotEligible), http.StatusForbidden},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}
