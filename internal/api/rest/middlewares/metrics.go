package middlewares

import (
	"net/http"
	"strings"
	"time"

	"github.com/CameronXie/order-service/internal/telemetry"
)

const unmatchedEndpoint = "unmatched"

// Metrics records request count, latency and in-flight requests. It must wrap
// a handler registered on a ServeMux so the endpoint label is the route
// pattern rather than the raw path.
func Metrics(recorder telemetry.Recorder) Middleware {
	return MiddlewareFunc(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			recorder.RequestStarted()
			defer recorder.RequestFinished()

			start := time.Now()
			rec := newStatusRecorder(w, nil)

			defer func() {
				status := rec.status
				p := recover()
				if p != nil {
					status = http.StatusInternalServerError
				}

				recorder.ObserveRequest(r.Method, endpoint(r), status, time.Since(start))
				if p != nil {
					panic(p)
				}
			}()

			next.ServeHTTP(rec, r)
		})
	})
}

// endpoint strips the method and the exact-match marker from the matched
// pattern, e.g. "GET /api/v1/orders/{id}" becomes "/api/v1/orders/{id}" and
// "GET /{$}" becomes "/".
func endpoint(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedEndpoint
	}

	path := r.Pattern
	if _, p, ok := strings.Cut(path, " "); ok {
		path = p
	}

	return strings.TrimSuffix(path, "{$}")
}
