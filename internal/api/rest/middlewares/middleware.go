package middlewares

import (
	"net/http"
)

// Middleware wraps a handler with cross-cutting behaviour.
type Middleware interface {
	Handle(next http.Handler) http.Handler
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(next http.Handler) http.Handler

func (f MiddlewareFunc) Handle(next http.Handler) http.Handler {
	return f(next)
}

// Chain wraps h so that the first middleware sees the request first.
func Chain(h http.Handler, middlewares ...Middleware) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i].Handle(h)
	}

	return h
}

// statusRecorder remembers the status written through it. beforeHeader runs
// once, right before the header is sent.
type statusRecorder struct {
	http.ResponseWriter
	status       int
	wroteHeader  bool
	beforeHeader func(http.Header)
}

func newStatusRecorder(w http.ResponseWriter, beforeHeader func(http.Header)) *statusRecorder {
	return &statusRecorder{ResponseWriter: w, status: http.StatusOK, beforeHeader: beforeHeader}
}

func (r *statusRecorder) WriteHeader(status int) {
	if r.wroteHeader {
		return
	}

	r.wroteHeader = true
	r.status = status
	if r.beforeHeader != nil {
		r.beforeHeader(r.Header())
	}
	r.ResponseWriter.WriteHeader(status)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if !r.wroteHeader {
		r.WriteHeader(http.StatusOK)
	}

	return r.ResponseWriter.Write(b)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
