package domain

import "time"

// Status is the lifecycle state of an order. Any status may follow any other.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Statuses lists every accepted order status.
var Statuses = []Status{StatusPending, StatusProcessing, StatusCompleted, StatusCancelled}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusCancelled:
		return true
	default:
		return false
	}
}

// Order represents a customer order. CustomerID is the principal that created it.
type Order struct {
	ID         int64     `json:"id" db:"id"`
	ProductID  int64     `json:"product_id" db:"product_id"`
	Quantity   int       `json:"quantity" db:"quantity"`
	Price      float64   `json:"price" db:"price"`
	Status     Status    `json:"status" db:"status"`
	CustomerID int64     `json:"customer_id" db:"customer_id"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// NewOrder carries the client-settable fields of an order at creation.
// The owner is never part of it.
type NewOrder struct {
	ProductID int64
	Quantity  int
	Price     float64
	Status    Status
}

// OrderPatch is a partial update. Nil fields are left untouched.
type OrderPatch struct {
	ProductID *int64
	Quantity  *int
	Price     *float64
	Status    *Status
}
