package middlewares

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/CameronXie/order-service/internal/api/rest/response"
)

const (
	bearerScheme = "bearer"

	// NotAuthenticatedMessage is returned when no usable bearer credential was sent.
	NotAuthenticatedMessage = "Not authenticated"
)

type tokenContextKey struct{}

// BearerTokenMiddleware requires an "Authorization: Bearer <token>" header and
// hands the raw token to the next handler. Validating the token is left to
// the order pipeline.
type BearerTokenMiddleware struct {
	logger *slog.Logger
}

// Handle rejects requests without a bearer credential before they reach next.
func (m *BearerTokenMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, err := extractToken(r.Header.Get("Authorization"))
		if err != nil {
			m.logger.WarnContext(r.Context(), "rejected request without bearer token",
				"path", r.URL.Path,
				"error", err,
			)
			response.JSONErrorResponse(w, http.StatusUnauthorized, NotAuthenticatedMessage)
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tokenContextKey{}, token)))
	})
}

// extractToken extracts a Bearer token from the Authorization header. The
// scheme is matched case-insensitively.
func extractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header missing")
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(authHeader), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, bearerScheme) || token == "" {
		return "", errors.New("invalid authorization header format")
	}

	return token, nil
}

// TokenFromContext returns the bearer token stored by BearerTokenMiddleware.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenContextKey{}).(string)
	return token, ok
}

// NewBearerTokenMiddleware returns a new instance of BearerTokenMiddleware.
func NewBearerTokenMiddleware(logger *slog.Logger) Middleware {
	return &BearerTokenMiddleware{logger: logger}
}
