// Package keyfetcher loads the RSA public key used to verify bearer tokens
// issued by the users service.
package keyfetcher

import (
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/golang-jwt/jwt/v5"
)

var ErrKeyNotFound = errors.New("key is not found")

type PublicKeyFetcher interface {
	FetchPublicKey() (*rsa.PublicKey, error)
}

// From is a source of PEM encoded key material.
type From func() ([]byte, error)

// FetchPublicKey parses the loaded key as an RSA public key.
func (f From) FetchPublicKey() (*rsa.PublicKey, error) {
	keyBytes, err := f()
	if err != nil {
		return nil, err
	}

	return jwt.ParseRSAPublicKeyFromPEM(keyBytes)
}

// FromBase64 decodes a Base64 encoded PEM value, typically taken from configuration.
func FromBase64(value string) From {
	return func() ([]byte, error) {
		if value == "" {
			return nil, ErrKeyNotFound
		}

		return base64.StdEncoding.DecodeString(value)
	}
}

// FromFile reads a PEM file from disk.
func FromFile(path string) From {
	return func() ([]byte, error) {
		if path == "" {
			return nil, ErrKeyNotFound
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		return content, nil
	}
}

// cachedFetcher parses the key once and serves the result afterwards.
// Failures are not cached so a later call can succeed.
type cachedFetcher struct {
	next PublicKeyFetcher

	mu  sync.Mutex
	key *rsa.PublicKey
}

func (c *cachedFetcher) FetchPublicKey() (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.key != nil {
		return c.key, nil
	}

	key, err := c.next.FetchPublicKey()
	if err != nil {
		return nil, err
	}

	c.key = key
	return key, nil
}

// Cached memoizes the first successfully fetched key.
func Cached(next PublicKeyFetcher) PublicKeyFetcher {
	return &cachedFetcher{next: next}
}
