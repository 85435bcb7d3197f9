package orders

import (
	"math"

	"github.com/CameronXie/order-service/internal/apperr"
	"github.com/CameronXie/order-service/internal/domain"
)

// CreateRequest is the client payload for a new order. Nil fields were absent.
// The owner always comes from the caller.
type CreateRequest struct {
	ProductID *int64
	Quantity  *int
	Price     *float64
	Status    *domain.Status
}

// Validate checks required fields and value ranges and returns the order to store.
func (r CreateRequest) Validate() (domain.NewOrder, error) {
	switch {
	case r.ProductID == nil:
		return domain.NewOrder{}, apperr.Invalid("product_id is required")
	case r.Quantity == nil:
		return domain.NewOrder{}, apperr.Invalid("quantity is required")
	case r.Price == nil:
		return domain.NewOrder{}, apperr.Invalid("price is required")
	}

	order := domain.NewOrder{
		ProductID: *r.ProductID,
		Quantity:  *r.Quantity,
		Price:     *r.Price,
		Status:    domain.StatusPending,
	}
	if r.Status != nil {
		order.Status = *r.Status
	}

	if err := validateFields(&order.ProductID, &order.Quantity, &order.Price, &order.Status); err != nil {
		return domain.NewOrder{}, err
	}

	return order, nil
}

// ValidatePatch checks the values of the fields present in patch.
func ValidatePatch(patch domain.OrderPatch) error {
	return validateFields(patch.ProductID, patch.Quantity, patch.Price, patch.Status)
}

func validateFields(productID *int64, quantity *int, price *float64, status *domain.Status) error {
	if productID != nil && *productID <= 0 {
		return apperr.Invalid("product_id must be greater than 0")
	}

	if quantity != nil && *quantity <= 0 {
		return apperr.Invalid("quantity must be greater than 0")
	}

	if price != nil && (*price < 0 || math.IsNaN(*price) || math.IsInf(*price, 0)) {
		return apperr.Invalid("price must be a non-negative number")
	}

	if status != nil && !status.Valid() {
		return apperr.Invalid("status must be one of pending, processing, completed, cancelled")
	}

	return nil
}
