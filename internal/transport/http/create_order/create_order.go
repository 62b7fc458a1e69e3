package createorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Helvio-Lourenco/projectofinal/internal/service/models/order"
	"github.com/Helvio-Lourenco/projectofinal/internal/service/services/ordersvc"
)

// service is an interface for the service layer.
type service interface {
	Submit(ctx context.Context, ord order.Order) (ordersvc.Result, error)
}

// itemInCreateOrderRequest represents an item in a create order request.
// product_id and price are trusted from the caller; no existence or range
// check happens here.
type itemInCreateOrderRequest struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity" validate:"gt=0"`
	Price     float64 `json:"price"`
}

// toModel converts itemInCreateOrderRequest to order.OrderItem.
func (r *itemInCreateOrderRequest) toModel() order.OrderItem {
	return order.OrderItem{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		Price:     r.Price,
	}
}

// createOrderRequest represents a create order request. Its shape is also the
// broker payload shape.
type createOrderRequest struct {
	CustomerName  string                     `json:"customer_name"  validate:"required"`
	CustomerEmail string                     `json:"customer_email" validate:"required"`
	TotalAmount   float64                    `json:"total_amount"`
	Items         []itemInCreateOrderRequest `json:"items"          validate:"required,min=1,dive"`
}

// Validate validates the create order request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

// toModel converts createOrderRequest to order.Order.
func (r *createOrderRequest) toModel() order.Order {
	items := make([]order.OrderItem, len(r.Items))
	for i := range r.Items {
		items[i] = r.Items[i].toModel()
	}

	return order.Order{
		CustomerName:  r.CustomerName,
		CustomerEmail: r.CustomerEmail,
		TotalAmount:   r.TotalAmount,
		Items:         items,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func respondMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(messageResponse{Message: message}); err != nil {
		slog.Error("Error sending response for create order", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message}); err != nil {
		slog.Error("Error sending error response for create order", "error", err)
	}
}

// CreateOrder handles the place order request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if len(req.Items) == 0 {
		respondError(w, http.StatusBadRequest, "no items in order")

		return
	}

	if err := req.Validate(); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	result, err := service.Submit(r.Context(), req.toModel())
	if err != nil {
		if errors.Is(err, order.ErrNoItems) {
			respondError(w, http.StatusBadRequest, "no items in order")

			return
		}

		respondError(w, http.StatusInternalServerError, "failed to process order")
		slog.Error("Error submitting order", "error", err)

		return
	}

	switch result.Outcome {
	case ordersvc.OutcomeQueued:
		respondMessage(w, http.StatusAccepted, "Order placed successfully! Processing in background.")
	case ordersvc.OutcomePersistedDegraded:
		respondMessage(w, http.StatusCreated, "Order placed successfully (local mode due to broker failure).")
	default:
		respondMessage(w, http.StatusCreated, "Order placed and processed.")
	}
}
