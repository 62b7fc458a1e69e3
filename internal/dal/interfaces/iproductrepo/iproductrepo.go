package iproductrepo

import (
	"context"

	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/product"
)

// IProductRepository defines read access to the product catalog.
type IProductRepository interface {
	Query(ctx context.Context) ([]product.Product, error)
}
