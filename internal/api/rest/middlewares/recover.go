package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/CameronXie/order-service/internal/api/rest/response"
)

const internalServerErrorMessage = "Internal server error"

// Recover turns a handler panic into a 500 response.
func Recover(logger *slog.Logger) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				p := recover()
				if p == nil {
					return
				}
				if p == http.ErrAbortHandler {
					panic(p)
				}

				logger.ErrorContext(r.Context(), "handler panicked",
					"method", r.Method,
					"path", r.URL.Path,
					"error", fmt.Sprint(p),
					"stack", string(debug.Stack()),
				)
				response.JSONErrorResponse(w, http.StatusInternalServerError, internalServerErrorMessage)
			}()

			next.ServeHTTP(w, r)
		})
	})
}
