// Package apperr defines the failure kinds surfaced by the order pipeline
// and their HTTP mapping.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindNotFound           Kind = "not_found"
	KindInvalid            Kind = "invalid"
	KindServiceUnavailable Kind = "service_unavailable"
	KindStorage            Kind = "storage"
)

// Error is a classified failure. Detail is safe to show to clients, Err is not.
type Error struct {
	Kind   Kind
	Detail string
	Err    error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func Unauthorized(detail string, err error) *Error {
	return &Error{Kind: KindUnauthorized, Detail: detail, Err: err}
}

func Forbidden(detail string) *Error {
	return &Error{Kind: KindForbidden, Detail: detail}
}

func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

func Invalid(detail string) *Error {
	return &Error{Kind: KindInvalid, Detail: detail}
}

func ServiceUnavailable(detail string, err error) *Error {
	return &Error{Kind: KindServiceUnavailable, Detail: detail, Err: err}
}

// Storage wraps a persistence fault behind a generic detail.
func Storage(err error) *Error {
	return &Error{Kind: KindStorage, Detail: StorageDetail, Err: err}
}

// StorageDetail is the only message clients see for persistence faults.
const StorageDetail = "Database operation failed"

// KindOf returns the kind of err, or KindStorage when err is not classified.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// HTTPStatus maps a kind to its response status code.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalid:
		return http.StatusUnprocessableEntity
	case KindServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
