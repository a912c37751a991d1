package middleware

import (
	"log/slog"
	"net/http"

	"github.com/lisek75/uma-food-chatbot/pkg/logger"
)

// SessionIDHeader lets REST callers tag requests with a conversation session.
const SessionIDHeader = "X-Session-ID"

// RequestLogger returns middleware that builds a request-scoped logger enriched
// with correlation_id, session_id, trace_id, and span_id, then stores it in
// context via logger.NewContext. Downstream handlers retrieve it with
// logger.FromContext(ctx).
//
// Mount it after RequestLogging (correlation_id) and Tracing (span context).
// The webhook handler re-enriches the logger once it has parsed the session
// from the payload.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if id := r.Header.Get(SessionIDHeader); id != "" {
				ctx = logger.WithSessionID(ctx, id)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
