package authn

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/CameronXie/order-service/internal/keyfetcher"
)

const DefaultClockSkewTolerance = 5 * time.Minute

var (
	rsaMethods  = []string{"RS256", "RS384", "RS512"}
	hmacMethods = []string{"HS256", "HS384", "HS512"}
)

// ValidationConfig holds the claim checks shared by every parser.
type ValidationConfig struct {
	Issuer    string
	Audience  string
	ClockSkew time.Duration // Optional: defaults to DefaultClockSkewTolerance
}

func (c ValidationConfig) options() []jwt.ParserOption {
	clockSkew := c.ClockSkew
	if clockSkew == 0 {
		clockSkew = DefaultClockSkewTolerance
	}

	opts := []jwt.ParserOption{
		jwt.WithLeeway(clockSkew),
		jwt.WithIssuedAt(),
	}

	if c.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(c.Issuer))
	}

	if c.Audience != "" {
		opts = append(opts, jwt.WithAudience(c.Audience))
	}

	return opts
}

// RSAParser verifies RS256/384/512 signatures against a public key.
type RSAParser struct {
	keyFetcher keyfetcher.PublicKeyFetcher
	parser     *jwt.Parser
}

func NewRSAParser(keyFetcher keyfetcher.PublicKeyFetcher, config ValidationConfig) *RSAParser {
	return &RSAParser{
		keyFetcher: keyFetcher,
		parser:     jwt.NewParser(append(config.options(), jwt.WithValidMethods(rsaMethods))...),
	}
}

func (p *RSAParser) Parse(raw string) (*Claims, error) {
	claims := new(Claims)
	_, err := p.parser.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		key, err := p.keyFetcher.FetchPublicKey()
		if err != nil {
			return nil, fmt.Errorf("failed to fetch public key: %w", err)
		}
		return key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return claims, nil
}

// HMACParser verifies HS256/384/512 signatures with a shared secret.
type HMACParser struct {
	secret []byte
	parser *jwt.Parser
}

func NewHMACParser(secret []byte, config ValidationConfig) *HMACParser {
	return &HMACParser{
		secret: secret,
		parser: jwt.NewParser(append(config.options(), jwt.WithValidMethods(hmacMethods))...),
	}
}

func (p *HMACParser) Parse(raw string) (*Claims, error) {
	if len(p.secret) == 0 {
		return nil, errors.New("hmac secret is not configured")
	}

	claims := new(Claims)
	_, err := p.parser.ParseWithClaims(raw, claims, func(_ *jwt.Token) (any, error) {
		return p.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	return claims, nil
}

// UnverifiedParser decodes claims without checking the signature. Timing,
// issuer and audience claims are still validated. Only use it behind a
// gateway that has already verified the token.
type UnverifiedParser struct {
	parser    *jwt.Parser
	validator *jwt.Validator
}

func NewUnverifiedParser(config ValidationConfig) *UnverifiedParser {
	return &UnverifiedParser{
		parser:    jwt.NewParser(),
		validator: jwt.NewValidator(config.options()...),
	}
}

func (p *UnverifiedParser) Parse(raw string) (*Claims, error) {
	claims := new(Claims)
	if _, _, err := p.parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}

	if err := p.validator.Validate(claims); err != nil {
		return nil, fmt.Errorf("invalid claims: %w", err)
	}

	return claims, nil
}
