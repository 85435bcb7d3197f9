package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/repository"
)

const (
	DefaultQueryTimeout = 5 * time.Second

	orderColumns = "id, product_id, quantity, price, status, customer_id, created_at, updated_at"
)

var schemaStatements = []string{
	`CREATE SCHEMA IF NOT EXISTS orders`,
	`CREATE TABLE IF NOT EXISTS orders.orders (
		id          BIGSERIAL PRIMARY KEY,
		customer_id BIGINT NOT NULL,
		product_id  BIGINT NOT NULL,
		quantity    INTEGER NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_id_idx ON orders.orders (customer_id)`,
}

// OrderRepository provides database operations for orders
type OrderRepository struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// NewOrderRepository creates a new OrderRepository instance. A non-positive
// queryTimeout falls back to DefaultQueryTimeout.
func NewOrderRepository(pool *pgxpool.Pool, queryTimeout time.Duration) *OrderRepository {
	if queryTimeout <= 0 {
		queryTimeout = DefaultQueryTimeout
	}

	return &OrderRepository{
		pool:         pool,
		queryTimeout: queryTimeout,
	}
}

// Migrate creates the orders schema and table when they do not exist yet.
func (r *OrderRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate orders schema: %w", err)
		}
	}

	return nil
}

// Create inserts an order owned by ownerID and returns the stored row.
func (r *OrderRepository) Create(ctx context.Context, ownerID int64, order domain.NewOrder) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	status := order.Status
	if status == "" {
		status = domain.StatusPending
	}

	query := `INSERT INTO orders.orders (customer_id, product_id, quantity, price, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + orderColumns

	rows, err := r.pool.Query(ctx, query, ownerID, order.ProductID, order.Quantity, order.Price, status)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	created, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Order])
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return created, nil
}

// GetByID retrieves an order by its ID regardless of owner.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(ctx, "SELECT "+orderColumns+" FROM orders.orders WHERE id = $1", id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve order with id %d: %w", id, err)
	}

	order, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.OrderNotFound(id)
		}
		return nil, fmt.Errorf("failed to retrieve order with id %d: %w", id, err)
	}

	return order, nil
}

// ListByOwner returns every order owned by ownerID ordered by id.
func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	rows, err := r.pool.Query(
		ctx,
		"SELECT "+orderColumns+" FROM orders.orders WHERE customer_id = $1 ORDER BY id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %d: %w", ownerID, err)
	}

	orders, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Order])
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %d: %w", ownerID, err)
	}

	if orders == nil {
		orders = []domain.Order{}
	}

	return orders, nil
}

// Update applies the non-nil fields of patch to the order matching both id
// and ownerID. A missing or foreign order yields a NotFoundError.
func (r *OrderRepository) Update(
	ctx context.Context,
	id, ownerID int64,
	patch domain.OrderPatch,
) (*domain.Order, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	query := `UPDATE orders.orders SET
			product_id = COALESCE($3, product_id),
			quantity   = COALESCE($4, quantity),
			price      = COALESCE($5, price),
			status     = COALESCE($6, status),
			updated_at = now()
		WHERE id = $1 AND customer_id = $2
		RETURNING ` + orderColumns

	rows, err := r.pool.Query(ctx, query, id, ownerID, patch.ProductID, patch.Quantity, patch.Price, patch.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update order with id %d: %w", id, err)
	}

	updated, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[domain.Order])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.OrderNotFound(id)
		}
		return nil, fmt.Errorf("failed to update order with id %d: %w", id, err)
	}

	return updated, nil
}

// Delete removes the order matching both id and ownerID and reports whether a row was removed.
func (r *OrderRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	tag, err := r.pool.Exec(ctx, "DELETE FROM orders.orders WHERE id = $1 AND customer_id = $2", id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete order with id %d: %w", id, err)
	}

	return tag.RowsAffected() > 0, nil
}

// Ping checks that a pooled connection can reach the database.
func (r *OrderRepository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.queryTimeout)
	defer cancel()

	return r.pool.Ping(ctx)
}
