// Package directory confirms that an authenticated principal still exists in
// the users service.
package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/CameronXie/order-service/internal/apperr"
)

const (
	DefaultTimeout = 10 * time.Second

	DetailUnavailable     = "Users service unavailable"
	DetailConnectionError = "Failed to connect to users service"

	mePath = "/v1/auth/me"
)

// Confirmer reports whether principalID is a known user, using token to call on their behalf.
type Confirmer interface {
	ConfirmExists(ctx context.Context, principalID int64, token string) (bool, error)
}

// Client calls the users service "current user" endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the default client. Its Timeout is left untouched.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for baseURL. A non-positive timeout falls back to DefaultTimeout.
func NewClient(baseURL string, timeout time.Duration, opts ...ClientOption) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

type meResponse struct {
	ID json.RawMessage `json:"id"`
}

// ConfirmExists returns true when the users service resolves token to principalID.
// A 404 means the user is gone. Any other failure is a ServiceUnavailable error.
func (c *Client) ConfirmExists(ctx context.Context, principalID int64, token string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+mePath, http.NoBody)
	if err != nil {
		return false, apperr.ServiceUnavailable(DetailConnectionError, fmt.Errorf("build request: %w", err))
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, apperr.ServiceUnavailable(DetailConnectionError, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return false, nil
	default:
		return false, apperr.ServiceUnavailable(
			DetailUnavailable,
			fmt.Errorf("unexpected status %d from users service", resp.StatusCode),
		)
	}

	var body meResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, apperr.ServiceUnavailable(DetailUnavailable, fmt.Errorf("decode users service response: %w", err))
	}

	id, ok := idText(body.ID)
	if !ok {
		return false, nil
	}

	return id == strconv.FormatInt(principalID, 10), nil
}

// idText renders a JSON id (number or string) as text for comparison.
func idText(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}

	return "", false
}
