package listproducts_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/product"
	listproducts "github.com/Helvio-Lourenco/projectofinal/internal/transport/http/list_products"
)

type fakeService struct {
	products []product.Product
	err      error
}

func (f *fakeService) GetProducts(_ context.Context) ([]product.Product, error) {
	return f.products, f.err
}

func TestListProducts(t *testing.T) {
	svc := &fakeService{products: []product.Product{
		{ID: 1, Name: "Laptop", Price: 999.99},
		{ID: 2, Name: "Headphones", Price: 79.99},
	}}

	rec := httptest.NewRecorder()
	listproducts.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil), svc)

	assert.Equal(t, http.StatusOK, rec.Code)

	var got []product.Product
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, svc.products, got)
}

func TestListProductsEmptyCatalog(t *testing.T) {
	svc := &fakeService{}

	rec := httptest.NewRecorder()
	listproducts.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil), svc)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestListProductsFailure(t *testing.T) {
	svc := &fakeService{err: errors.New("connection refused")}

	rec := httptest.NewRecorder()
	listproducts.ListProducts(rec, httptest.NewRequest(http.MethodGet, "/api/products", nil), svc)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
