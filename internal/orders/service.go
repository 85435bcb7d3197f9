// Package orders implements the authenticated order operations: every call
// authenticates the credential, confirms the principal with the users
// service, checks the operation policy and only then touches the store.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/CameronXie/order-service/internal/apperr"
	"github.com/CameronXie/order-service/internal/authn"
	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/enforcer"
	"github.com/CameronXie/order-service/internal/repository"
	"github.com/CameronXie/order-service/internal/telemetry"
)

// Operation names an order operation. It is the policy action and the metric label.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationList   Operation = "list"
	OperationGet    Operation = "get"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

const (
	Resource = "orders"

	DetailForbidden         = "Operation not permitted"
	DetailPolicyUnavailable = "Authorization policy unavailable"
	DetailUsersUnavailable  = "Users service unavailable"

	outcomeSuccess = "success"
)

type Authenticator interface {
	Authenticate(raw string) (*authn.Identity, error)
}

type IdentityConfirmer interface {
	ConfirmExists(ctx context.Context, principalID int64, token string) (bool, error)
}

// Store persists orders. Update and Delete match on id and owner together.
type Store interface {
	Create(ctx context.Context, ownerID int64, order domain.NewOrder) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error)
	Update(ctx context.Context, id, ownerID int64, patch domain.OrderPatch) (*domain.Order, error)
	Delete(ctx context.Context, id, ownerID int64) (bool, error)
	Ping(ctx context.Context) error
}

type Service struct {
	authenticator Authenticator
	confirmer     IdentityConfirmer
	access        enforcer.Enforcer
	store         Store
	recorder      telemetry.Recorder
	logger        *slog.Logger
}

func NewService(
	authenticator Authenticator,
	confirmer IdentityConfirmer,
	access enforcer.Enforcer,
	store Store,
	recorder telemetry.Recorder,
	logger *slog.Logger,
) *Service {
	return &Service{
		authenticator: authenticator,
		confirmer:     confirmer,
		access:        access,
		store:         store,
		recorder:      recorder,
		logger:        logger,
	}
}

// Create stores a new order owned by the authenticated principal.
func (s *Service) Create(ctx context.Context, credential string, input Input[CreateRequest]) (order *domain.Order, err error) {
	defer s.observe(OperationCreate, time.Now(), &err)

	identity, err := s.authorize(ctx, credential, OperationCreate)
	if err != nil {
		return nil, err
	}

	req, err := resolve(input)
	if err != nil {
		return nil, err
	}

	newOrder, err := req.Validate()
	if err != nil {
		return nil, err
	}

	order, err = s.store.Create(ctx, identity.PrincipalID, newOrder)
	if err != nil {
		return nil, s.storeFailure(ctx, OperationCreate, err)
	}

	s.logger.InfoContext(ctx, "order created", "order_id", order.ID, "user_id", identity.PrincipalID)
	return order, nil
}

// ListMine returns the principal's orders. It never returns another principal's order.
func (s *Service) ListMine(ctx context.Context, credential string) (orders []domain.Order, err error) {
	defer s.observe(OperationList, time.Now(), &err)

	identity, err := s.authorize(ctx, credential, OperationList)
	if err != nil {
		return nil, err
	}

	orders, err = s.store.ListByOwner(ctx, identity.PrincipalID)
	if err != nil {
		return nil, s.storeFailure(ctx, OperationList, err)
	}

	return orders, nil
}

// Get returns the order with id when the principal owns it. An order owned by
// someone else is reported exactly like a missing one.
func (s *Service) Get(ctx context.Context, credential string, orderID Input[int64]) (order *domain.Order, err error) {
	defer s.observe(OperationGet, time.Now(), &err)

	identity, err := s.authorize(ctx, credential, OperationGet)
	if err != nil {
		return nil, err
	}

	id, err := resolve(orderID)
	if err != nil {
		return nil, err
	}

	order, err = s.store.GetByID(ctx, id)
	if err != nil {
		return nil, s.storeFailure(ctx, OperationGet, err)
	}

	if order.CustomerID != identity.PrincipalID {
		s.logger.WarnContext(ctx, "order read by non owner", "order_id", id, "user_id", identity.PrincipalID)
		return nil, orderNotFound(id)
	}

	return order, nil
}

// Update applies patch to the principal's order with id.
func (s *Service) Update(
	ctx context.Context,
	credential string,
	orderID Input[int64],
	input Input[domain.OrderPatch],
) (order *domain.Order, err error) {
	defer s.observe(OperationUpdate, time.Now(), &err)

	identity, err := s.authorize(ctx, credential, OperationUpdate)
	if err != nil {
		return nil, err
	}

	id, err := resolve(orderID)
	if err != nil {
		return nil, err
	}

	patch, err := resolve(input)
	if err != nil {
		return nil, err
	}

	if err = ValidatePatch(patch); err != nil {
		return nil, err
	}

	order, err = s.store.Update(ctx, id, identity.PrincipalID, patch)
	if err != nil {
		return nil, s.storeFailure(ctx, OperationUpdate, err)
	}

	s.logger.InfoContext(ctx, "order updated", "order_id", order.ID, "user_id", identity.PrincipalID)
	return order, nil
}

// Delete removes the principal's order with id.
func (s *Service) Delete(ctx context.Context, credential string, orderID Input[int64]) (err error) {
	defer s.observe(OperationDelete, time.Now(), &err)

	identity, err := s.authorize(ctx, credential, OperationDelete)
	if err != nil {
		return err
	}

	id, err := resolve(orderID)
	if err != nil {
		return err
	}

	deleted, err := s.store.Delete(ctx, id, identity.PrincipalID)
	if err != nil {
		return s.storeFailure(ctx, OperationDelete, err)
	}

	if !deleted {
		return orderNotFound(id)
	}

	s.logger.InfoContext(ctx, "order deleted", "order_id", id, "user_id", identity.PrincipalID)
	return nil
}

// authorize runs authentication, identity confirmation and the operation policy in that order.
func (s *Service) authorize(ctx context.Context, credential string, op Operation) (*authn.Identity, error) {
	identity, err := s.authenticator.Authenticate(credential)
	if err != nil {
		return nil, err
	}

	exists, err := s.confirmer.ConfirmExists(ctx, identity.PrincipalID, identity.Token)
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		return nil, apperr.ServiceUnavailable(DetailUsersUnavailable, err)
	}

	if !exists {
		return nil, apperr.NotFound(fmt.Sprintf("User with id %d not found", identity.PrincipalID))
	}

	allowed, err := s.access.Enforce(ctx, enforcer.PrincipalRequest(identity.PrincipalID, Resource, string(op)))
	if err != nil {
		s.logger.ErrorContext(ctx, "policy evaluation failed", "operation", op, "error", err)
		return nil, apperr.ServiceUnavailable(DetailPolicyUnavailable, err)
	}

	if !allowed {
		return nil, apperr.Forbidden(DetailForbidden)
	}

	return identity, nil
}

// storeFailure classifies a store error. Anything but a missing order is a
// storage fault whose cause is logged and hidden from the client.
func (s *Service) storeFailure(ctx context.Context, op Operation, err error) error {
	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		return apperr.NotFound(notFound.Error())
	}

	s.logger.ErrorContext(ctx, "order store failure", "operation", op, "error", err)
	return apperr.Storage(err)
}

func (s *Service) observe(op Operation, start time.Time, err *error) {
	outcome := outcomeSuccess
	if *err != nil {
		outcome = string(apperr.KindOf(*err))
	}

	s.recorder.ObserveOperation(string(op), outcome, time.Since(start))
}

func orderNotFound(id int64) error {
	return apperr.NotFound(repository.OrderNotFound(id).Error())
}
