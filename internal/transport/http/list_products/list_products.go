package listproducts

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/product"
)

type service interface {
	GetProducts(ctx context.Context) ([]product.Product, error)
}

// ListProducts handles the product catalog request.
func ListProducts(w http.ResponseWriter, r *http.Request, service service) {
	products, err := service.GetProducts(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error getting products", "error", err)

		return
	}

	if products == nil {
		products = []product.Product{}
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(products); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error sending response for list products", "error", err)
	}
}
