// Package sqlite stores orders in an SQLite database. It mirrors the
// Postgres repository and is meant for local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/repository"
)

const (
	DriverName = "sqlite3"

	orderColumns = "id, product_id, quantity, price, status, customer_id, created_at, updated_at"
	timeLayout   = time.RFC3339Nano
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS orders (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		customer_id INTEGER NOT NULL,
		product_id  INTEGER NOT NULL,
		quantity    INTEGER NOT NULL,
		price       REAL NOT NULL,
		status      TEXT NOT NULL DEFAULT 'pending',
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS orders_customer_id_idx ON orders (customer_id)`,
}

// Open opens the database at dsn. SQLite serialises writers, so the pool is
// limited to one connection, which also keeps ":memory:" databases alive.
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	return db, nil
}

type Option func(*OrderRepository)

// WithClock overrides the time source used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *OrderRepository) {
		r.now = now
	}
}

// OrderRepository provides database operations for orders
type OrderRepository struct {
	db  *sql.DB
	now func() time.Time
}

func NewOrderRepository(db *sql.DB, opts ...Option) *OrderRepository {
	r := &OrderRepository{db: db, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Migrate creates the orders table when it does not exist yet.
func (r *OrderRepository) Migrate(ctx context.Context) error {
	for _, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to migrate orders schema: %w", err)
		}
	}

	return nil
}

func (r *OrderRepository) Create(ctx context.Context, ownerID int64, order domain.NewOrder) (*domain.Order, error) {
	status := order.Status
	if status == "" {
		status = domain.StatusPending
	}

	now := r.timestamp()
	row := r.db.QueryRowContext(
		ctx,
		`INSERT INTO orders (customer_id, product_id, quantity, price, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+orderColumns,
		ownerID, order.ProductID, order.Quantity, order.Price, string(status), now, now,
	)

	created, err := scanOrder(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	return created, nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+orderColumns+" FROM orders WHERE id = ?", id)

	order, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.OrderNotFound(id)
		}
		return nil, fmt.Errorf("failed to retrieve order with id %d: %w", id, err)
	}

	return order, nil
}

func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(
		ctx,
		"SELECT "+orderColumns+" FROM orders WHERE customer_id = ? ORDER BY id",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %d: %w", ownerID, err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to list orders for customer %d: %w", ownerID, err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list orders for customer %d: %w", ownerID, err)
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
	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}

	row := r.db.QueryRowContext(
		ctx,
		`UPDATE orders SET
			product_id = COALESCE(?, product_id),
			quantity   = COALESCE(?, quantity),
			price      = COALESCE(?, price),
			status     = COALESCE(?, status),
			updated_at = ?
		WHERE id = ? AND customer_id = ?
		RETURNING `+orderColumns,
		patch.ProductID, patch.Quantity, patch.Price, status, r.timestamp(), id, ownerID,
	)

	updated, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.OrderNotFound(id)
		}
		return nil, fmt.Errorf("failed to update order with id %d: %w", id, err)
	}

	return updated, nil
}

func (r *OrderRepository) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ? AND customer_id = ?", id, ownerID)
	if err != nil {
		return false, fmt.Errorf("failed to delete order with id %d: %w", id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to delete order with id %d: %w", id, err)
	}

	return affected > 0, nil
}

func (r *OrderRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *OrderRepository) timestamp() string {
	return r.now().UTC().Format(timeLayout)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(s scanner) (*domain.Order, error) {
	var (
		order                domain.Order
		status               string
		createdAt, updatedAt string
	)

	err := s.Scan(
		&order.ID,
		&order.ProductID,
		&order.Quantity,
		&order.Price,
		&status,
		&order.CustomerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	order.Status = domain.Status(status)
	if order.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if order.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}

	return &order, nil
}
