package orders

import (
	"context"
	"time"

	"github.com/CameronXie/order-service/internal/domain"
	"github.com/CameronXie/order-service/internal/telemetry"
)

const (
	queryInsert = "insert"
	querySelect = "select"
	queryUpdate = "update"
	queryDelete = "delete"
)

type instrumentedStore struct {
	next     Store
	recorder telemetry.Recorder
}

// InstrumentStore records the duration of every store call by query type.
func InstrumentStore(next Store, recorder telemetry.Recorder) Store {
	return &instrumentedStore{next: next, recorder: recorder}
}

func (s *instrumentedStore) Create(ctx context.Context, ownerID int64, order domain.NewOrder) (*domain.Order, error) {
	defer s.observe(queryInsert, time.Now())
	return s.next.Create(ctx, ownerID, order)
}

func (s *instrumentedStore) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	defer s.observe(querySelect, time.Now())
	return s.next.GetByID(ctx, id)
}

func (s *instrumentedStore) ListByOwner(ctx context.Context, ownerID int64) ([]domain.Order, error) {
	defer s.observe(querySelect, time.Now())
	return s.next.ListByOwner(ctx, ownerID)
}

func (s *instrumentedStore) Update(
	ctx context.Context,
	id, ownerID int64,
	patch domain.OrderPatch,
) (*domain.Order, error) {
	defer s.observe(queryUpdate, time.Now())
	return s.next.Update(ctx, id, ownerID, patch)
}

func (s *instrumentedStore) Delete(ctx context.Context, id, ownerID int64) (bool, error) {
	defer s.observe(queryDelete, time.Now())
	return s.next.Delete(ctx, id, ownerID)
}

// Ping backs the health check and is not recorded as a query.
func (s *instrumentedStore) Ping(ctx context.Context) error {
	return s.next.Ping(ctx)
}

func (s *instrumentedStore) observe(queryType string, start time.Time) {
	s.recorder.ObserveQuery(queryType, time.Since(start))
}
