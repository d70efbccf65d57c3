package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/tyforge/client/internal/logging"
)

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(status int) {
	rw.status = status
	rw.ResponseWriter.WriteHeader(status)
}

func (rw *responseWriter) Status() int {
	if rw.status == 0 {
		return http.StatusOK
	}
	return rw.status
}

// RequestLogger runs every request in its own span and logs its outcome. Panics
// are turned into a 500 with the JSON error envelope the client expects.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ctx := logging.WithLogger(r.Context(), base.With(
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("remoteAddr", r.RemoteAddr),
			))
			ctx, span := logging.StartSpan(ctx, "serve "+r.Method+" "+r.URL.Path)
			reqLogger := logging.FromContext(ctx)

			wrapped := &responseWriter{ResponseWriter: w}

			defer func() {
				if rec := recover(); rec != nil {
					reqLogger.Error("panic recovered", "panic", rec)
					wrapped.Header().Set("Content-Type", "application/json")
					wrapped.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(wrapped).Encode(map[string]string{"detail": "Internal Server Error"})
				}
				reqLogger.Info("request completed",
					slog.Int("status", wrapped.Status()),
					slog.Duration("duration", time.Since(start)),
				)
				span.End("status", wrapped.Status())
			}()

			next.ServeHTTP(wrapped, r.WithContext(ctx))
		})
	}
}
