package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CameronXie/order-service/internal/api/rest/middlewares"
	"github.com/CameronXie/order-service/internal/api/rest/response"
	"github.com/CameronXie/order-service/internal/apperr"
	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/orders"
)

const (
	invalidRequestBodyMessage = "Invalid request body"
	invalidOrderIDMessage     = "Invalid order ID"
)

// OrderService is the order pipeline as seen by the HTTP layer. Path and
// body inputs are decoded by the pipeline after the caller is authorized.
type OrderService interface {
	Create(ctx context.Context, credential string, req orders.Input[orders.CreateRequest]) (*domain.Order, error)
	ListMine(ctx context.Context, credential string) ([]domain.Order, error)
	Get(ctx context.Context, credential string, id orders.Input[int64]) (*domain.Order, error)
	Update(
		ctx context.Context,
		credential string,
		id orders.Input[int64],
		patch orders.Input[domain.OrderPatch],
	) (*domain.Order, error)
	Delete(ctx context.Context, credential string, id orders.Input[int64]) error
}

// orderPayload is the JSON body of create and update requests. Fields that
// are absent or null decode to nil. Unknown fields, customer_id included, are
// ignored.
type orderPayload struct {
	ProductID *int64         `json:"product_id"`
	Quantity  *int           `json:"quantity"`
	Price     *float64       `json:"price"`
	Status    *domain.Status `json:"status"`
}

// DeleteOrderResponse confirms a deletion.
type DeleteOrderResponse struct {
	OrderID int64 `json:"order_id"`
	Deleted bool  `json:"deleted"`
}

// OrderHandler handles HTTP requests for order operations
type OrderHandler struct {
	service OrderService
	logger  *slog.Logger
}

// NewOrderHandler creates a new OrderHandler instance
func NewOrderHandler(service OrderService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		service: service,
		logger:  logger,
	}
}

// CreateOrder handles POST /api/v1/orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Create(r.Context(), credential(r), h.createRequest(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSONResponse(w, http.StatusOK, order)
}

// ListOrders handles GET /api/v1/orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListMine(r.Context(), credential(r))
	if err != nil {
		writeError(w, err)
		return
	}

	if list == nil {
		list = []domain.Order{}
	}

	response.JSONResponse(w, http.StatusOK, list)
}

// GetOrder handles GET /api/v1/orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Get(r.Context(), credential(r), orderID(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSONResponse(w, http.StatusOK, order)
}

// UpdateOrder handles PUT /api/v1/orders/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.Update(r.Context(), credential(r), orderID(r), h.orderPatch(r))
	if err != nil {
		writeError(w, err)
		return
	}

	response.JSONResponse(w, http.StatusOK, order)
}

// DeleteOrder handles DELETE /api/v1/orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id := orderID(r)
	if err := h.service.Delete(r.Context(), credential(r), id); err != nil {
		writeError(w, err)
		return
	}

	// A successful delete has already parsed the id.
	deletedID, _ := id()
	response.JSONResponse(w, http.StatusOK, DeleteOrderResponse{OrderID: deletedID, Deleted: true})
}

func (h *OrderHandler) createRequest(r *http.Request) orders.Input[orders.CreateRequest] {
	return func() (orders.CreateRequest, error) {
		payload, err := h.decodePayload(r)
		if err != nil {
			return orders.CreateRequest{}, err
		}

		return orders.CreateRequest{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Price:     payload.Price,
			Status:    payload.Status,
		}, nil
	}
}

func (h *OrderHandler) orderPatch(r *http.Request) orders.Input[domain.OrderPatch] {
	return func() (domain.OrderPatch, error) {
		payload, err := h.decodePayload(r)
		if err != nil {
			return domain.OrderPatch{}, err
		}

		return domain.OrderPatch{
			ProductID: payload.ProductID,
			Quantity:  payload.Quantity,
			Price:     payload.Price,
			Status:    payload.Status,
		}, nil
	}
}

func (h *OrderHandler) decodePayload(r *http.Request) (*orderPayload, error) {
	payload := new(orderPayload)
	if err := json.NewDecoder(r.Body).Decode(payload); err != nil {
		h.logger.WarnContext(r.Context(), "failed to decode order payload", "error", err)
		return nil, apperr.Invalid(invalidRequestBodyMessage)
	}

	return payload, nil
}

func orderID(r *http.Request) orders.Input[int64] {
	return func() (int64, error) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			return 0, apperr.Invalid(invalidOrderIDMessage)
		}

		return id, nil
	}
}

// credential is the bearer token set by the bearer middleware. Without it the
// pipeline rejects the call as unauthenticated.
func credential(r *http.Request) string {
	token, _ := middlewares.TokenFromContext(r.Context())
	return token
}
