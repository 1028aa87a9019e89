package middleware

import (
	"log/slog"
	"net/http"

	"github.com/mintworks/launchgate/pkg/logger"
)

// RequestLogger builds a request-scoped logger enriched with correlation_id,
// wallet, trace_id, and span_id, then stores it in context. Downstream
// handlers retrieve it with logger.FromContext(ctx).
//
// Mount AFTER RequestLogging (which sets correlation_id) and Tracing (which
// sets the OpenTelemetry span context).
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// Wallet identity is self-reported here and only used for log
			// enrichment, never for authorization.
			if wallet := r.Header.Get("X-Wallet-Address"); wallet != "" {
				ctx = logger.WithWallet(ctx, wallet)
			}

			enriched := logger.WithContext(ctx, base)
			ctx = logger.NewContext(ctx, enriched)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
