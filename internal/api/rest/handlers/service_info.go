package handlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/CameronXie/order-service/internal/api/rest/response"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"

	DefaultHealthTimeout = 2 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceInfo identifies the running service in health and welcome documents.
type ServiceInfo struct {
	Name    string
	Version string
}

type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

type WelcomeResponse struct {
	Message string `json:"message"`
	Health  string `json:"health"`
	Metrics string `json:"metrics"`
}

// HealthHandler reports healthy while the order store answers a ping.
type HealthHandler struct {
	info    ServiceInfo
	store   Pinger
	timeout time.Duration
	logger  *slog.Logger
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body := HealthResponse{Status: statusHealthy, Service: h.info.Name, Version: h.info.Version}
	if err := h.store.Ping(ctx); err != nil {
		h.logger.ErrorContext(r.Context(), "health check failed", "error", err)
		body.Status = statusUnhealthy
		response.JSONResponse(w, http.StatusServiceUnavailable, body)
		return
	}

	h.logger.DebugContext(r.Context(), "health check requested")
	response.JSONResponse(w, http.StatusOK, body)
}

func NewHealthHandler(info ServiceInfo, store Pinger, timeout time.Duration, logger *slog.Logger) http.Handler {
	if timeout <= 0 {
		timeout = DefaultHealthTimeout
	}

	return &HealthHandler{info: info, store: store, timeout: timeout, logger: logger}
}

// NewRootHandler serves the welcome document.
func NewRootHandler(info ServiceInfo, healthPath, metricsPath string) http.Handler {
	body := WelcomeResponse{
		Message: fmt.Sprintf("Welcome to %s", info.Name),
		Health:  healthPath,
		Metrics: metricsPath,
	}

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		response.JSONResponse(w, http.StatusOK, body)
	})
}
