package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/mintworks/launchgate/pkg/logger"
)

// Recovery converts panics into a 500 response instead of tearing down the
// connection. The panic is logged with the request-scoped fields
// (correlation_id, wallet, trace context) so a crash mid-reservation can be
// traced back to the wallet that triggered it.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				log := logger.WithContext(r.Context(), l)
				log.ErrorContext(r.Context(), "panic recovered",
					slog.Any("panic", rec),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("stack", string(debug.Stack())),
				)

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)

				body := map[string]string{
					"code":    "INTERNAL_ERROR",
					"message": "an internal error occurred",
				}
				if id := logger.CorrelationIDFromContext(r.Context()); id != "" {
					body["request_id"] = id
				}
				if err := json.NewEncoder(w).Encode(body); err != nil {
					log.Error("failed to encode response", slog.String("error", err.Error()))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
