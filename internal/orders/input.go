package orders

import (
	"errors"

	"github.com/CameronXie/order-service/internal/apperr"
)

const DetailInvalidInput = "Invalid request"

// Input supplies a decoded request value. The service resolves it only once
// the caller is authenticated, confirmed and allowed, so decoding errors never
// take precedence over those checks.
type Input[T any] func() (T, error)

// Value is an Input that has already been decoded.
func Value[T any](v T) Input[T] {
	return func() (T, error) {
		return v, nil
	}
}

// resolve decodes in. A failure that is not already classified is reported as invalid input.
func resolve[T any](in Input[T]) (T, error) {
	v, err := in()
	if err == nil {
		return v, nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return v, err
	}

	return v, apperr.Invalid(DetailInvalidInput)
}
