package ordersvc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/Helvio-Lourenco/projectofinal/internal/dal/interfaces/iorderrepo"
	"github.com/Helvio-Lourenco/projectofinal/internal/dal/interfaces/iproductrepo"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/product"
)

// defaultPublishTimeout bounds how long a single request waits on the broker
// before degrading to direct persistence.
const defaultPublishTimeout = 5 * time.Second

// ErrPublishTimeout is returned when the broker publish does not complete
// within the configured deadline.
var ErrPublishTimeout = errors.New("broker publish timed out")

// Publisher sends a serialized order to the broker.
type Publisher interface {
	Publish(ctx context.Context, ord order.Order) error
}

// Outcome describes how a submitted order reached (or will reach) storage.
type Outcome string

const (
	// OutcomeQueued means the order was handed to the broker; durability is
	// delegated to the consumer.
	OutcomeQueued Outcome = "queued"
	// OutcomePersisted means the order was written directly.
	OutcomePersisted Outcome = "persisted"
	// OutcomePersistedDegraded means the broker path failed and the order was
	// written directly as a fallback.
	OutcomePersistedDegraded Outcome = "persisted_degraded"
)

// Result is the per-request outcome of Submit.
type Result struct {
	Outcome Outcome
	OrderID int64
}

// OrderService coordinates how an inbound order reaches durable storage.
type OrderService struct {
	orderRepo      iorderrepo.IOrderRepository
	productRepo    iproductrepo.IProductRepository
	publisher      Publisher
	publishTimeout time.Duration
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		publishTimeout: defaultPublishTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithOrderRepository sets the order repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *OrderService) {
		s.orderRepo = repo
	}
}

// WithProductRepository sets the product repository for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *OrderService) {
		s.productRepo = repo
	}
}

// WithPublisher sets the broker publisher for the OrderService. Leaving it
// unset is the documented local-only mode: every order takes the direct path.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPublisher(p Publisher) option {
	return func(s *OrderService) {
		s.publisher = p
	}
}

// WithPublishTimeout overrides the broker publish deadline.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPublishTimeout(d time.Duration) option {
	return func(s *OrderService) {
		if d > 0 {
			s.publishTimeout = d
		}
	}
}

// Submit routes an inbound order to durable storage. If a publisher is
// configured it races the publish against the deadline; a timeout or publish
// failure falls through exactly once to direct persistence. Without a
// publisher the order is persisted directly.
func (s *OrderService) Submit(ctx context.Context, ord order.Order) (Result, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.Submit")
	defer span.End()

	if len(ord.Items) == 0 {
		return Result{}, order.ErrNoItems
	}

	if s.publisher == nil {
		slog.InfoContext(ctx, "Broker not configured, persisting order directly")

		id, err := s.ProcessOrder(ctx, ord)
		if err != nil {
			return Result{}, err
		}

		return Result{Outcome: OutcomePersisted, OrderID: id}, nil
	}

	if err := s.tryPublish(ctx, ord); err != nil {
		slog.ErrorContext(ctx, "Broker publish failed, recovering via direct persistence", "error", err)

		id, perr := s.ProcessOrder(ctx, ord)
		if perr != nil {
			return Result{}, perr
		}

		return Result{Outcome: OutcomePersistedDegraded, OrderID: id}, nil
	}

	slog.InfoContext(ctx, "Order sent to broker")

	return Result{Outcome: OutcomeQueued}, nil
}

// tryPublish races the publish against the deadline. The publish attempt is
// abandoned, not awaited, once the timer fires; a late completion on the
// broker side is harmless because the caller falls back to the direct path.
func (s *OrderService) tryPublish(ctx context.Context, ord order.Order) error {
	pubCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.publisher.Publish(pubCtx, ord)
	}()

	timer := time.NewTimer(s.publishTimeout)
	defer timer.Stop()

	select {
	case <-timer.C:
		return ErrPublishTimeout
	case err := <-done:
		if err != nil {
			return err
		}
		// The timer wins when both complete together.
		select {
		case <-timer.C:
			return ErrPublishTimeout
		default:
		}

		return nil
	}
}

// ProcessOrder stamps the order as processed and writes it atomically. It is
// the single convergence point for the direct path and the consumer path.
func (s *OrderService) ProcessOrder(ctx context.Context, ord order.Order) (int64, error) {
	ctx, span := otel.Tracer("ordersvc").Start(ctx, "OrderService.ProcessOrder")
	defer span.End()

	if len(ord.Items) == 0 {
		return 0, order.ErrNoItems
	}

	ord.Status = order.StatusProcessed

	id, err := s.orderRepo.CreateOrder(ctx, ord)
	if err != nil {
		return 0, err
	}

	slog.InfoContext(ctx, "Order persisted", "order_id", id)

	return id, nil
}

// GetProducts retrieves the product catalog.
func (s *OrderService) GetProducts(ctx context.Context) ([]product.Product, error) {
	return s.productRepo.Query(ctx)
}
