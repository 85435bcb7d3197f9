package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/CameronXie/order-service/internal/api/rest/middlewares"
	"github.com/CameronXie/order-service/internal/apperr"
	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/orders"
)

// mockOrderService behaves like a pipeline that has already authorized the
// caller: inputs are decoded first and their errors returned as is.
type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Create(
	ctx context.Context,
	credential string,
	input orders.Input[orders.CreateRequest],
) (*domain.Order, error) {
	req, err := input()
	if err != nil {
		return nil, err
	}

	args := m.Called(ctx, credential, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) ListMine(ctx context.Context, credential string) ([]domain.Order, error) {
	args := m.Called(ctx, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderService) Get(ctx context.Context, credential string, orderID orders.Input[int64]) (*domain.Order, error) {
	id, err := orderID()
	if err != nil {
		return nil, err
	}

	args := m.Called(ctx, credential, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) Update(
	ctx context.Context,
	credential string,
	orderID orders.Input[int64],
	input orders.Input[domain.OrderPatch],
) (*domain.Order, error) {
	id, err := orderID()
	if err != nil {
		return nil, err
	}

	patch, err := input()
	if err != nil {
		return nil, err
	}

	args := m.Called(ctx, credential, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderService) Delete(ctx context.Context, credential string, orderID orders.Input[int64]) error {
	id, err := orderID()
	if err != nil {
		return err
	}

	args := m.Called(ctx, credential, id)
	return args.Error(0)
}

func ptr[T any](v T) *T {
	return &v
}

const testToken = "header.payload.signature"

var sampleOrder = &domain.Order{
	ID:         1,
	ProductID:  10,
	Quantity:   2,
	Price:      19.99,
	Status:     domain.StatusPending,
	CustomerID: 42,
	CreatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	UpdatedAt:  time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
}

const sampleOrderJSON = `{
	"id": 1, "product_id": 10, "quantity": 2, "price": 19.99, "status": "pending",
	"customer_id": 42, "created_at": "2024-05-01T10:00:00Z", "updated_at": "2024-05-01T10:00:00Z"
}`

// newRouter mounts the handler the way the API router does, behind the
// bearer middleware.
func newRouter(h *OrderHandler) http.Handler {
	bearer := middlewares.NewBearerTokenMiddleware(slog.New(slog.DiscardHandler))
	mux := http.NewServeMux()
	mux.Handle("POST /orders", bearer.Handle(http.HandlerFunc(h.CreateOrder)))
	mux.Handle("GET /orders", bearer.Handle(http.HandlerFunc(h.ListOrders)))
	mux.Handle("GET /orders/{id}", bearer.Handle(http.HandlerFunc(h.GetOrder)))
	mux.Handle("PUT /orders/{id}", bearer.Handle(http.HandlerFunc(h.UpdateOrder)))
	mux.Handle("DELETE /orders/{id}", bearer.Handle(http.HandlerFunc(h.DeleteOrder)))
	return mux
}

func doRequest(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, bytes.NewBufferString(body))
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	cases := map[string]struct {
		body            string
		expectedRequest *orders.CreateRequest
		serviceOrder    *domain.Order
		serviceErr      error
		expectedStatus  int
		expectedBody    string
	}{
		"created": {
			body: `{"product_id":10,"quantity":2,"price":19.99}`,
			expectedRequest: &orders.CreateRequest{
				ProductID: ptr(int64(10)),
				Quantity:  ptr(2),
				Price:     ptr(19.99),
			},
			serviceOrder:   sampleOrder,
			expectedStatus: http.StatusOK,
			expectedBody:   sampleOrderJSON,
		},
		"claimed owner and unknown fields are ignored": {
			body: `{"product_id":10,"quantity":2,"price":19.99,"status":"processing","customer_id":7,"coupon":"X"}`,
			expectedRequest: &orders.CreateRequest{
				ProductID: ptr(int64(10)),
				Quantity:  ptr(2),
				Price:     ptr(19.99),
				Status:    ptr(domain.StatusProcessing),
			},
			serviceOrder:   sampleOrder,
			expectedStatus: http.StatusOK,
			expectedBody:   sampleOrderJSON,
		},
		"validation failure": {
			body:            `{"quantity":2,"price":19.99}`,
			expectedRequest: &orders.CreateRequest{Quantity: ptr(2), Price: ptr(19.99)},
			serviceErr:      apperr.Invalid("product_id is required"),
			expectedStatus:  http.StatusUnprocessableEntity,
			expectedBody:    `{"detail":"product_id is required"}`,
		},
		"malformed json": {
			body:           `{"product_id":`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid request body"}`,
		},
		"wrong field type": {
			body:           `{"product_id":"ten","quantity":2,"price":1}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid request body"}`,
		},
		"fractional quantity": {
			body:           `{"product_id":10,"quantity":2.5,"price":1}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid request body"}`,
		},
		"empty body": {
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid request body"}`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mockOrderService)
			if tc.expectedRequest != nil {
				svc.On("Create", mock.Anything, testToken, *tc.expectedRequest).Return(tc.serviceOrder, tc.serviceErr)
			}

			w := doRequest(newRouter(NewOrderHandler(svc, slog.New(slog.DiscardHandler))), http.MethodPost, "/orders", tc.body)

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_ListOrders(t *testing.T) {
	cases := map[string]struct {
		serviceOrders  []domain.Order
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		"orders": {
			serviceOrders:  []domain.Order{*sampleOrder},
			expectedStatus: http.StatusOK,
			expectedBody:   "[" + sampleOrderJSON + "]",
		},
		"no orders is an empty array": {
			expectedStatus: http.StatusOK,
			expectedBody:   `[]`,
		},
		"users service down": {
			serviceErr:     apperr.ServiceUnavailable("Users service unavailable", errors.New("dial tcp: refused")),
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"detail":"Users service unavailable"}`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mockOrderService)
			svc.On("ListMine", mock.Anything, testToken).Return(tc.serviceOrders, tc.serviceErr)

			w := doRequest(newRouter(NewOrderHandler(svc, slog.New(slog.DiscardHandler))), http.MethodGet, "/orders", "")

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestOrderHandler_GetOrder(t *testing.T) {
	cases := map[string]struct {
		target         string
		expectedID     int64
		serviceOrder   *domain.Order
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		"found": {
			target:         "/orders/1",
			expectedID:     1,
			serviceOrder:   sampleOrder,
			expectedStatus: http.StatusOK,
			expectedBody:   sampleOrderJSON,
		},
		"not found": {
			target:         "/orders/404",
			expectedID:     404,
			serviceErr:     apperr.NotFound("Order with id 404 not found"),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"detail":"Order with id 404 not found"}`,
		},
		"non integer id": {
			target:         "/orders/abc",
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid order ID"}`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mockOrderService)
			if tc.expectedID != 0 {
				svc.On("Get", mock.Anything, testToken, tc.expectedID).Return(tc.serviceOrder, tc.serviceErr)
			}

			w := doRequest(newRouter(NewOrderHandler(svc, slog.New(slog.DiscardHandler))), http.MethodGet, tc.target, "")

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_UpdateOrder(t *testing.T) {
	cases := map[string]struct {
		target         string
		body           string
		expectedPatch  *domain.OrderPatch
		serviceOrder   *domain.Order
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		"status only": {
			target:         "/orders/1",
			body:           `{"status":"completed"}`,
			expectedPatch:  &domain.OrderPatch{Status: ptr(domain.StatusCompleted)},
			serviceOrder:   sampleOrder,
			expectedStatus: http.StatusOK,
			expectedBody:   sampleOrderJSON,
		},
		"null fields are absent": {
			target:         "/orders/1",
			body:           `{"price":null,"quantity":5}`,
			expectedPatch:  &domain.OrderPatch{Quantity: ptr(5)},
			serviceOrder:   sampleOrder,
			expectedStatus: http.StatusOK,
			expectedBody:   sampleOrderJSON,
		},
		"forbidden": {
			target:         "/orders/1",
			body:           `{}`,
			expectedPatch:  &domain.OrderPatch{},
			serviceErr:     apperr.Forbidden("Operation not permitted"),
			expectedStatus: http.StatusForbidden,
			expectedBody:   `{"detail":"Operation not permitted"}`,
		},
		"invalid id": {
			target:         "/orders/1.5",
			body:           `{"status":"completed"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid order ID"}`,
		},
		"malformed body": {
			target:         "/orders/1",
			body:           `status=completed`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `{"detail":"Invalid request body"}`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mockOrderService)
			if tc.expectedPatch != nil {
				svc.On("Update", mock.Anything, testToken, int64(1), *tc.expectedPatch).Return(tc.serviceOrder, tc.serviceErr)
			}

			w := doRequest(newRouter(NewOrderHandler(svc, slog.New(slog.DiscardHandler))), http.MethodPut, tc.target, tc.body)

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_DeleteOrder(t *testing.T) {
	cases := map[string]struct {
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		"deleted": {
			expectedStatus: http.StatusOK,
			expectedBody:   `{"order_id":3,"deleted":true}`,
		},
		"not owned": {
			serviceErr:     apperr.NotFound("Order with id 3 not found"),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"detail":"Order with id 3 not found"}`,
		},
		"storage failure": {
			serviceErr:     apperr.Storage(errors.New("disk I/O error")),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"detail":"Database operation failed"}`,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc := new(mockOrderService)
			svc.On("Delete", mock.Anything, testToken, int64(3)).Return(tc.serviceErr)

			w := doRequest(newRouter(NewOrderHandler(svc, slog.New(slog.DiscardHandler))), http.MethodDelete, "/orders/3", "")

			assert.Equal(t, tc.expectedStatus, w.Code)
			assert.JSONEq(t, tc.expectedBody, w.Body.String())
		})
	}
}

func TestOrderHandler_MissingBearerNeverReachesService(t *testing.T) {
	svc := new(mockOrderService)
	router := newRouter(NewOrderHandler(svc, slog.New(slog.DiscardHandler)))

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(method, "/orders/1", bytes.NewBufferString(`{}`)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
		assert.JSONEq(t, `{"detail":"Not authenticated"}`, w.Body.String())
	}

	svc.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	svc.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)
}

// rejectingService refuses every caller without decoding any input.
type rejectingService struct {
	OrderService
	err error
}

func (s rejectingService) Create(context.Context, string, orders.Input[orders.CreateRequest]) (*domain.Order, error) {
	return nil, s.err
}

func (s rejectingService) Get(context.Context, string, orders.Input[int64]) (*domain.Order, error) {
	return nil, s.err
}

func (s rejectingService) Update(
	context.Context,
	string,
	orders.Input[int64],
	orders.Input[domain.OrderPatch],
) (*domain.Order, error) {
	return nil, s.err
}

func (s rejectingService) Delete(context.Context, string, orders.Input[int64]) error {
	return s.err
}

func TestOrderHandler_CallerRejectionOutranksMalformedInput(t *testing.T) {
	cases := map[string]struct {
		serviceErr     error
		expectedStatus int
		expectedBody   string
	}{
		"invalid token": {
			serviceErr:     apperr.Unauthorized("Invalid token", nil),
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"detail":"Invalid token"}`,
		},
		"unknown principal": {
			serviceErr:     apperr.NotFound("User with id 7 not found"),
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"detail":"User with id 7 not found"}`,
		},
	}

	requests := []struct {
		method string
		target string
		body   string
	}{
		{http.MethodPost, "/orders", `{not json`},
		{http.MethodGet, "/orders/abc", ""},
		{http.MethodPut, "/orders/abc", `{not json`},
		{http.MethodDelete, "/orders/abc", ""},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			router := newRouter(NewOrderHandler(rejectingService{err: tc.serviceErr}, slog.New(slog.DiscardHandler)))

			for _, req := range requests {
				w := doRequest(router, req.method, req.target, req.body)

				assert.Equal(t, tc.expectedStatus, w.Code, "%s %s", req.method, req.target)
				assert.JSONEq(t, tc.expectedBody, w.Body.String())
			}
		})
	}
}
