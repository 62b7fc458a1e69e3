package ordersvc_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/services/ordersvc"
)

type fakeOrderRepo struct {
	calls  int32
	err    error
	nextID int64
	last   order.Order
}

func (f *fakeOrderRepo) CreateOrder(_ context.Context, ord order.Order) (int64, error) {
	atomic.AddInt32(&f.calls, 1)
	f.last = ord
	if f.err != nil {
		return 0, f.err
	}

	return f.nextID, nil
}

type fakePublisher struct {
	calls int32
	err   error
	delay time.Duration
}

func (f *fakePublisher) Publish(ctx context.Context, _ order.Order) error {
	atomic.AddInt32(&f.calls, 1)
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return f.err
}

func validOrder() order.Order {
	return order.Order{
		CustomerName:  "Ana",
		CustomerEmail: "a@x.com",
		TotalAmount:   19.98,
		Items: []order.OrderItem{
			{ProductID: 1, Quantity: 2, Price: 9.99},
		},
	}
}

func TestSubmitRejectsEmptyOrder(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 1}
	pub := &fakePublisher{}
	svc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(repo),
		ordersvc.WithPublisher(pub),
	)

	ord := validOrder()
	ord.Items = nil

	_, err := svc.Submit(context.Background(), ord)

	require.ErrorIs(t, err, order.ErrNoItems)
	assert.Zero(t, repo.calls, "store must not be touched for an invalid order")
	assert.Zero(t, pub.calls, "broker must not be touched for an invalid order")
}

func TestSubmitPersistsDirectlyWithoutPublisher(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 42}
	svc := ordersvc.MustNewOrderService(ordersvc.WithOrderRepository(repo))

	result, err := svc.Submit(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, ordersvc.OutcomePersisted, result.Outcome)
	assert.Equal(t, int64(42), result.OrderID)
	assert.Equal(t, int32(1), repo.calls)
	assert.Equal(t, order.StatusProcessed, repo.last.Status)
}

func TestSubmitQueuesOnPublishSuccess(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 1}
	pub := &fakePublisher{}
	svc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(repo),
		ordersvc.WithPublisher(pub),
	)

	result, err := svc.Submit(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, ordersvc.OutcomeQueued, result.Outcome)
	assert.Equal(t, int32(1), pub.calls)
	assert.Zero(t, repo.calls, "queued orders are not persisted by the request")
}

func TestSubmitFallsBackOnPublishError(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 7}
	pub := &fakePublisher{err: errors.New("broker rejected the message")}
	svc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(repo),
		ordersvc.WithPublisher(pub),
	)

	result, err := svc.Submit(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, ordersvc.OutcomePersistedDegraded, result.Outcome)
	assert.Equal(t, int64(7), result.OrderID)
	assert.Equal(t, int32(1), pub.calls, "the publish itself is never retried")
	assert.Equal(t, int32(1), repo.calls)
}

func TestSubmitFallsBackOnPublishTimeout(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 9}
	pub := &fakePublisher{delay: 500 * time.Millisecond}
	svc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(repo),
		ordersvc.WithPublisher(pub),
		ordersvc.WithPublishTimeout(20*time.Millisecond),
	)

	start := time.Now()
	result, err := svc.Submit(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, ordersvc.OutcomePersistedDegraded, result.Outcome)
	assert.Equal(t, int32(1), repo.calls, "a hung publish must not drop the order")
	assert.Less(t, time.Since(start), 500*time.Millisecond, "the timeout must not await the hung publish")
}

func TestSubmitSurfacesPersistenceFailureAfterFallback(t *testing.T) {
	repo := &fakeOrderRepo{err: errors.New("connection refused")}
	pub := &fakePublisher{err: errors.New("broker unreachable")}
	svc := ordersvc.MustNewOrderService(
		ordersvc.WithOrderRepository(repo),
		ordersvc.WithPublisher(pub),
	)

	_, err := svc.Submit(context.Background(), validOrder())

	require.Error(t, err)
	assert.Equal(t, int32(1), repo.calls, "the fallback is attempted exactly once")
}

func TestSubmitSurfacesDirectPersistenceFailure(t *testing.T) {
	repo := &fakeOrderRepo{err: errors.New("deadlock detected")}
	svc := ordersvc.MustNewOrderService(ordersvc.WithOrderRepository(repo))

	_, err := svc.Submit(context.Background(), validOrder())

	require.Error(t, err)
}

func TestProcessOrderRejectsEmptyOrder(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 1}
	svc := ordersvc.MustNewOrderService(ordersvc.WithOrderRepository(repo))

	_, err := svc.ProcessOrder(context.Background(), order.Order{CustomerName: "Ana"})

	require.ErrorIs(t, err, order.ErrNoItems)
	assert.Zero(t, repo.calls)
}

func TestProcessOrderStampsStatus(t *testing.T) {
	repo := &fakeOrderRepo{nextID: 3}
	svc := ordersvc.MustNewOrderService(ordersvc.WithOrderRepository(repo))

	id, err := svc.ProcessOrder(context.Background(), validOrder())

	require.NoError(t, err)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, order.StatusProcessed, repo.last.Status)
	assert.Equal(t, validOrder().Items, repo.last.Items)
}
