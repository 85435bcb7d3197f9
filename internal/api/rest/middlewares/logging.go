package middlewares

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const ProcessTimeHeader = "X-Process-Time"

// Logging logs every request and its outcome, and reports the handling time
// in seconds through X-Process-Time.
func Logging(logger *slog.Logger) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLogger := logger.With(
				"method", r.Method,
				"path", r.URL.Path,
				"request_id", RequestIDFromContext(r.Context()),
			)

			reqLogger.InfoContext(r.Context(), "request received",
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			rec := newStatusRecorder(w, func(h http.Header) {
				h.Set(ProcessTimeHeader, strconv.FormatFloat(time.Since(start).Seconds(), 'f', -1, 64))
			})
			next.ServeHTTP(rec, r)
			if !rec.wroteHeader {
				rec.WriteHeader(http.StatusOK)
			}

			level := slog.LevelInfo
			switch {
			case rec.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case rec.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			}

			reqLogger.Log(r.Context(), level, "request completed",
				"status_code", rec.status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	})
}
