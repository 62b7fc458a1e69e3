package postgresrepo

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/Helvio-Lourenco/projectofinal/internal/dal/postgres"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/product"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	pool *pgxpool.Pool
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(client *postgres.Client) *PostgresProductRepository {
	return &PostgresProductRepository{
		pool: client.Pool(),
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Query retrieves the full product catalog.
func (r *PostgresProductRepository) Query(ctx context.Context) ([]product.Product, error) {
	query, args, err := r.sb.Select(
		"id",
		"name",
		"price",
	).
		From("products").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build products query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		var p product.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}
