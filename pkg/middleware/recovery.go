package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
)

// PanicResponder writes the response sent after a recovered panic.
type PanicResponder func(w http.ResponseWriter, r *http.Request)

// Recovery recovers from panics and returns a 500 JSON error instead of crashing.
func Recovery(l *slog.Logger) func(http.Handler) http.Handler {
	return RecoveryWith(l, writeInternalError)
}

// RecoveryWith recovers from panics and lets respond produce the reply. The
// webhook uses it to keep answering with a well-formed fulfillment body.
func RecoveryWith(l *slog.Logger, respond PanicResponder) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					if rec == http.ErrAbortHandler {
						panic(rec)
					}
					l.ErrorContext(r.Context(), "panic recovered",
						slog.Any("panic", rec),
						slog.String("stack", string(debug.Stack())),
						slog.String("method", r.Method),
						slog.String("path", r.URL.Path),
					)
					respond(w, r)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

func writeInternalError(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    "INTERNAL_ERROR",
		"message": "an internal error occurred",
	})
}
