package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"go.opentelemetry.io/otel"

	"github.com/Helvio-Lourenco/projectofinal/internal/dal/postgres"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
	"github.com/jackc/pgx/v5"
)

// txBeginner is the subset of pgxpool.Pool the repository needs: scoped
// acquisition of a connection wrapped in a transaction.
type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	pool txBeginner
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(client *postgres.Client) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		pool: client.Pool(),
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// CreateOrder persists one order together with all of its items in a single
// transaction. The order row is inserted first because the generated ID is
// needed for the item rows; items are inserted in input order. Any failure
// rolls the whole transaction back.
func (r *PostgresOrderRepository) CreateOrder(ctx context.Context, ord order.Order) (int64, error) {
	ctx, span := otel.Tracer("orderrepo").Start(ctx, "PostgresOrderRepository.CreateOrder")
	defer span.End()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		// No-op once the transaction is committed.
		_ = tx.Rollback(ctx)
	}()

	query, args, err := r.sb.Insert("orders").
		Columns(
			"customer_name",
			"customer_email",
			"total_amount",
			"status",
		).
		Values(
			ord.CustomerName,
			ord.CustomerEmail,
			ord.TotalAmount,
			ord.Status,
		).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build order insert query: %w", err)
	}

	var orderID int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&orderID); err != nil {
		return 0, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, item := range ord.Items {
		query, args, err := r.sb.Insert("order_items").
			Columns(
				"order_id",
				"product_id",
				"quantity",
				"price",
			).
			Values(
				orderID,
				item.ProductID,
				item.Quantity,
				item.Price,
			).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build order item insert query: %w", err)
		}

		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("failed to insert order item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit order transaction: %w", err)
	}

	return orderID, nil
}
