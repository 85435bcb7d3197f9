package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CameronXie/order-service/internal/config"
	"github.com/CameronXie/order-service/internal/orders"
	"github.com/CameronXie/order-service/internal/repository/postgres"
	"github.com/CameronXie/order-service/internal/repository/sqlite"
)

// newStore opens the database named by DATABASE_URL and makes sure the orders
// table exists.
func newStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (orders.Store, func(), error) {
	switch cfg.DatabaseDriver {
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		repo := sqlite.NewOrderRepository(db)
		if err := repo.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		logger.Info("order store ready", "driver", cfg.DatabaseDriver)
		return repo, func() { _ = db.Close() }, nil
	default:
		pool, err := initializeDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}

		repo := postgres.NewOrderRepository(pool, cfg.DatabaseQueryTimeout)
		if err := repo.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("order store ready", "driver", cfg.DatabaseDriver)
		return repo, pool.Close, nil
	}
}

// initializeDatabase creates a pool and verifies connectivity.
func initializeDatabase(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}
