package orders

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/CameronXie/order-service/internal/authn"
	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/enforcer"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Authenticate(raw string) (*authn.Identity, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*authn.Identity), args.Error(1)
}

type mockConfirmer struct {
	mock.Mock
}

func (m *mockConfirmer) ConfirmExists(ctx context.Context, principalID int64, token string) (bool, error) {
	args := m.Called(ctx, principalID, token)
	return args.Bool(0), args.Error(1)
}

type mockEnforcer struct {
	mock.Mock
}

func (m *mockEnforcer) Enforce(ctx context.Context, req *enforcer.AccessRequest) (bool, error) {
	args := m.Called(ctx, req)
	return args.Bool(0), args.Error(1)
}

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Create(ctx context.Context, ownerID int64, order domain.NewOrder) (*domain.Order, error) {
	args := m.Called(ctx, ownerID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockStore) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockStore) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockStore) Update(ctx context.Context, id, ownerID int64, patch domain.OrderPatch) (*domain.Order, error) {
	args := m.Called(ctx, id, ownerID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockStore) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	args := m.Called(ctx, id, ownerID)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type operationRecord struct {
	operation string
	outcome   string
}

type recordingRecorder struct {
	operations []operationRecord
	queries    []string
}

func (r *recordingRecorder) ObserveRequest(string, string, int, time.Duration) {}
func (r *recordingRecorder) RequestStarted()                                   {}
func (r *recordingRecorder) RequestFinished()                                  {}

func (r *recordingRecorder) ObserveOperation(operation, outcome string, _ time.Duration) {
	r.operations = append(r.operations, operationRecord{operation: operation, outcome: outcome})
}

func (r *recordingRecorder) ObserveQuery(queryType string, _ time.Duration) {
	r.queries = append(r.queries, queryType)
}

func ptr[T any](v T) *T {
	return &v
}
