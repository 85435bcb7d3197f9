package rest

import (
	"net/http"

	"github.com/CameronXie/order-service/internal/api/rest/handlers"
	"github.com/CameronXie/order-service/internal/api/rest/middlewares"
	"github.com/CameronXie/order-service/internal/telemetry"
)

const (
	APIPrefix   = "/api/v1"
	HealthPath  = "/health"
	MetricsPath = "/metrics"
)

type RouterConfig struct {
	OrderHandler   *handlers.OrderHandler
	HealthHandler  http.Handler
	RootHandler    http.Handler
	MetricsHandler http.Handler

	// BearerMiddleware guards the order routes only.
	BearerMiddleware middlewares.Middleware
	Recorder         telemetry.Recorder
}

// NewMuxWithHandlers initializes a new HTTP mux with routes defined by the given RouterConfig.
func NewMuxWithHandlers(cfg *RouterConfig) *http.ServeMux {
	router := http.NewServeMux()
	metrics := middlewares.Metrics(cfg.Recorder)

	order := func(h http.HandlerFunc) http.Handler {
		return middlewares.Chain(h, metrics, cfg.BearerMiddleware)
	}

	router.Handle("POST "+APIPrefix+"/orders", order(cfg.OrderHandler.CreateOrder))
	router.Handle("GET "+APIPrefix+"/orders", order(cfg.OrderHandler.ListOrders))
	router.Handle("GET "+APIPrefix+"/orders/{id}", order(cfg.OrderHandler.GetOrder))
	router.Handle("PUT "+APIPrefix+"/orders/{id}", order(cfg.OrderHandler.UpdateOrder))
	router.Handle("DELETE "+APIPrefix+"/orders/{id}", order(cfg.OrderHandler.DeleteOrder))

	router.Handle("GET "+HealthPath, metrics.Handle(cfg.HealthHandler))
	router.Handle("GET "+MetricsPath, cfg.MetricsHandler)
	router.Handle("GET /{$}", metrics.Handle(cfg.RootHandler))

	return router
}
