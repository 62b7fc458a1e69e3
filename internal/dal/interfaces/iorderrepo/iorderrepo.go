package iorderrepo

import (
	"context"

	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
)

// IOrderRepository defines the durable order storage operations.
type IOrderRepository interface {
	// CreateOrder atomically persists one order with all of its items and
	// returns the generated order ID. Either every row is written or none.
	CreateOrder(ctx context.Context, ord order.Order) (int64, error)
}
