// Package authn turns a bearer credential into the identity of the calling principal.
package authn

import (
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CameronXie/order-service/internal/apperr"
)

const (
	DetailMissingUserID = "Invalid token: missing user ID"
	DetailTokenExpired  = "Token has expired"
	DetailInvalidToken  = "Invalid token"
)

// Identity is the principal a request acts for. It only lives for one request.
type Identity struct {
	PrincipalID int64
	Token       string
}

// TokenParser decodes a raw token into its claims. Implementations decide
// whether and how the signature is verified.
type TokenParser interface {
	Parse(raw string) (*Claims, error)
}

type Authenticator struct {
	parser TokenParser
}

func NewAuthenticator(parser TokenParser) *Authenticator {
	return &Authenticator{parser: parser}
}

// Authenticate returns the identity carried by raw, or an Unauthorized error.
func (a *Authenticator) Authenticate(raw string) (*Identity, error) {
	claims, err := a.parser.Parse(raw)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.Unauthorized(DetailTokenExpired, err)
		}
		return nil, apperr.Unauthorized(DetailInvalidToken, err)
	}

	if claims.Subject == "" {
		return nil, apperr.Unauthorized(DetailMissingUserID, nil)
	}

	principalID, err := strconv.ParseInt(string(claims.Subject), 10, 64)
	if err != nil {
		return nil, apperr.Unauthorized(DetailInvalidToken, err)
	}

	return &Identity{PrincipalID: principalID, Token: raw}, nil
}
