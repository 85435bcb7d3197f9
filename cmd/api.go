package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/CameronXie/order-service/internal/api/rest"
	"github.com/CameronXie/order-service/internal/api/rest/handlers"
	"github.com/CameronXie/order-service/internal/api/rest/middlewares"
	"github.com/CameronXie/order-service/internal/authn"
	"github.com/CameronXie/order-service/internal/config"
	"github.com/CameronXie/order-service/internal/logging"
	"github.com/CameronXie/order-service/internal/orders"
	"github.com/CameronXie/order-service/internal/telemetry"
)

const (
	ReadTimeout     = 5 * time.Second
	WriteTimeout    = 30 * time.Second
	IdleTimeout     = 120 * time.Second
	ShutdownTimeout = 15 * time.Second
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	level, err := cfg.Level()
	if err != nil {
		return err
	}

	logger, closeLog, err := logging.New(logging.Options{
		Name:    cfg.LoggerName,
		Version: cfg.AppVersion,
		Level:   level,
		Path:    cfg.LoggerPath,
	})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	metrics, err := telemetry.NewMetrics(registry)
	if err != nil {
		return err
	}

	repo, closeStore, err := newStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize order store", "error", err)
		return err
	}
	defer closeStore()
	store := orders.InstrumentStore(repo, metrics)

	confirmer, closeConfirmer, err := newIdentityConfirmer(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize identity confirmer", "error", err)
		return err
	}
	defer closeConfirmer()

	access, policyReload, closeAccess, err := newEnforcer(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize enforcer", "error", err)
		return err
	}
	defer closeAccess()

	svc := orders.NewService(
		authn.NewAuthenticator(newTokenParser(cfg, logger)),
		confirmer,
		access,
		store,
		metrics,
		logger,
	)

	info := handlers.ServiceInfo{Name: cfg.AppName, Version: cfg.AppVersion}
	router := rest.NewMuxWithHandlers(&rest.RouterConfig{
		OrderHandler:     handlers.NewOrderHandler(svc, logger),
		HealthHandler:    handlers.NewHealthHandler(info, store, handlers.DefaultHealthTimeout, logger),
		RootHandler:      handlers.NewRootHandler(info, rest.HealthPath, rest.MetricsPath),
		MetricsHandler:   telemetry.Handler(registry),
		BearerMiddleware: middlewares.NewBearerTokenMiddleware(logger),
		Recorder:         metrics,
	})

	server := &http.Server{
		Addr: cfg.Addr(),
		Handler: middlewares.Chain(router,
			middlewares.Recover(logger),
			middlewares.RequestID(),
			middlewares.CORS(cfg.CORSAllowedOrigins),
			middlewares.Logging(logger),
		),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "addr", server.Addr, "service", cfg.AppName)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return telemetry.NewProcessSampler(metrics, cfg.SampleInterval(), logger).Run(gctx)
	})

	if policyReload != nil {
		g.Go(func() error {
			return policyReload(gctx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("server stopped with error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
