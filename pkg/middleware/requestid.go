package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/orghub/orghub/pkg/contextkeys"
	"github.com/orghub/orghub/pkg/observability"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a request ID and a request-scoped logger to every
// request. An incoming X-Request-ID is honored, otherwise one is minted.
func RequestID(logger *observability.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.New().String()
			}

			ctx := contextkeys.WithRequestID(r.Context(), requestID)
			ctx = contextkeys.WithLogger(ctx, logger)
			w.Header().Set(requestIDHeader, requestID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
