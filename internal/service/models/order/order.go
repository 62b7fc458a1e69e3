package order

import (
	"database/sql/driver"
	"errors"
)

// Status represents the processing state of an order.
type Status string

const (
	StatusProcessed Status = "Processed"
)

var ErrInvalidStatus = errors.New("invalid order status")

// ErrNoItems is returned when an order carries no line items.
var ErrNoItems = errors.New("order has no items")

func (s Status) String() string {
	return string(s)
}

func (s Status) Value() (driver.Value, error) {
	return s.String(), nil
}

func ParseStatus(v string) (Status, error) {
	switch v {
	case StatusProcessed.String():
		return StatusProcessed, nil
	default:
		return "", ErrInvalidStatus
	}
}

// Order represents a customer purchase. The JSON shape is shared between the
// HTTP request body and the broker payload, so the consumer deserializes
// exactly what the API accepted.
type Order struct {
	ID            int64       `json:"id,omitempty"`
	CustomerName  string      `json:"customer_name"`
	CustomerEmail string      `json:"customer_email"`
	TotalAmount   float64     `json:"total_amount"`
	Status        Status      `json:"status,omitempty"`
	Items         []OrderItem `json:"items"`
}

// OrderItem represents one product line within an order.
type OrderItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}
