package repository

import (
	"fmt"
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	Key      string
	Value    string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with %s %s not found", e.Resource, e.Key, e.Value)
}

// OrderNotFound builds the error returned when no order matches the given id.
func OrderNotFound(id int64) *NotFoundError {
	return &NotFoundError{
		Resource: OrderResource,
		Key:      "id",
		Value:    fmt.Sprintf("%d", id),
	}
}

// OrderResource names orders in NotFoundError.
const OrderResource = "Order"
