package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CameronXie/order-service/internal/apperr"
)

func TestClient_ConfirmExists(t *testing.T) {
	testCases := map[string]struct {
		status         int
		body           string
		delay          time.Duration
		expected       bool
		expectedDetail string
	}{
		"should confirm matching numeric id": {
			status:   http.StatusOK,
			body:     `{"id": 42, "email": "jane@example.com"}`,
			expected: true,
		},
		"should confirm matching string id": {
			status:   http.StatusOK,
			body:     `{"id": "42"}`,
			expected: true,
		},
		"should not confirm different id": {
			status:   http.StatusOK,
			body:     `{"id": 43}`,
			expected: false,
		},
		"should not confirm missing id": {
			status:   http.StatusOK,
			body:     `{"email": "jane@example.com"}`,
			expected: false,
		},
		"should not confirm fractional id": {
			status:   http.StatusOK,
			body:     `{"id": 42.0}`,
			expected: false,
		},
		"should return false when user is not found": {
			status:   http.StatusNotFound,
			body:     `{"detail": "User not found"}`,
			expected: false,
		},
		"should report unavailable on server error": {
			status:         http.StatusInternalServerError,
			expectedDetail: DetailUnavailable,
		},
		"should report unavailable on unauthorized": {
			status:         http.StatusUnauthorized,
			expectedDetail: DetailUnavailable,
		},
		"should report unavailable on undecodable body": {
			status:         http.StatusOK,
			body:           `not json`,
			expectedDetail: DetailUnavailable,
		},
		"should report connection failure on timeout": {
			status:         http.StatusOK,
			body:           `{"id": 42}`,
			delay:          200 * time.Millisecond,
			expectedDetail: DetailConnectionError,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/v1/auth/me", r.URL.Path)
				assert.Equal(t, "Bearer raw-token", r.Header.Get("Authorization"))

				if tc.delay > 0 {
					select {
					case <-time.After(tc.delay):
					case <-r.Context().Done():
						return
					}
				}

				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			client := NewClient(server.URL+"/", 50*time.Millisecond)
			exists, err := client.ConfirmExists(context.Background(), 42, "raw-token")

			if tc.expectedDetail != "" {
				var appErr *apperr.Error
				require.ErrorAs(t, err, &appErr)
				assert.Equal(t, apperr.KindServiceUnavailable, appErr.Kind)
				assert.Equal(t, tc.expectedDetail, appErr.Detail)
				assert.False(t, exists)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, exists)
		})
	}
}

func TestClient_ConfirmExists_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient(url, time.Second).ConfirmExists(context.Background(), 1, "raw-token")

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, DetailConnectionError, appErr.Detail)
}

func TestClient_ConfirmExists_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"id": 1}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(server.URL, time.Second).ConfirmExists(ctx, 1, "raw-token")

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, DetailConnectionError, appErr.Detail)
}

func TestNewClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Minute}

	testCases := map[string]struct {
		timeout         time.Duration
		opts            []ClientOption
		expectedTimeout time.Duration
	}{
		"should use default timeout": {
			expectedTimeout: DefaultTimeout,
		},
		"should use given timeout": {
			timeout:         3 * time.Second,
			expectedTimeout: 3 * time.Second,
		},
		"should use injected http client": {
			timeout:         3 * time.Second,
			opts:            []ClientOption{WithHTTPClient(custom)},
			expectedTimeout: time.Minute,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			client := NewClient("http://users:8000/", tc.timeout, tc.opts...)
			assert.Equal(t, "http://users:8000", client.baseURL)
			assert.Equal(t, tc.expectedTimeout, client.httpClient.Timeout)
		})
	}
}
