package middleware

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-admin-tokens"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func subjectEchoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(r.Header.Get("X-Admin-Subject")))
	}
}

func TestAdminAuth_ValidToken(t *testing.T) {
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"sub":  "ops-1",
		"role": "admin",
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	handler := AdminAuth(testSecret, newTestLogger())(subjectEchoHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ops-1", rr.Body.String())
}

func TestAdminAuth_MissingHeader(t *testing.T) {
	handler := AdminAuth(testSecret, newTestLogger())(subjectEchoHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuth_WrongSecret(t *testing.T) {
	tokenString := signToken(t, "some-other-secret", jwt.MapClaims{
		"role": "admin",
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	handler := AdminAuth(testSecret, newTestLogger())(subjectEchoHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuth_ExpiredToken(t *testing.T) {
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"role": "admin",
		"exp":  jwt.NewNumericDate(time.Now().Add(-time.Hour)),
	})

	handler := AdminAuth(testSecret, newTestLogger())(subjectEchoHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestAdminAuth_NonAdminRole(t *testing.T) {
	tokenString := signToken(t, testSecret, jwt.MapClaims{
		"role": "viewer",
		"exp":  jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})

	handler := AdminAuth(testSecret, newTestLogger())(subjectEchoHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestAdminAuth_MalformedHeader(t *testing.T) {
	handler := AdminAuth(testSecret, newTestLogger())(subjectEchoHandler())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/collections", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
