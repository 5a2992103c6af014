package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry as fetched from the commerce API.
// It is never mutated after mapping.
type Product struct {
	ID       int64           `json:"id"`
	SKU      string          `json:"sku,omitempty"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
	Unit     string          `json:"unit"`
	Category string          `json:"category"`
	Brand    string          `json:"brand,omitempty"`
	Stock    int             `json:"stock"`
	Rating   float64         `json:"rating"`
	Color    string          `json:"color,omitempty"`
	Image    string          `json:"image,omitempty"`
}

// InStock reports whether at least one unit is available
func (p Product) InStock() bool {
	return p.Stock > 0
}

// CartLine is one product/quantity pair held by a cart.
type CartLine struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// Order is a placed (or failed) order recorded in the order history
type Order struct {
	ID              int64           `db:"id" json:"id"`
	EventID         string          `db:"event_id" json:"event_id"`
	OrderNumber     string          `db:"order_number" json:"order_number,omitempty"`
	SessionID       string          `db:"session_id" json:"session_id"`
	CustomerName    string          `db:"customer_name" json:"customer_name"`
	Address         string          `db:"address" json:"address"`
	Phone           string          `db:"phone" json:"phone"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	PaymentMethodID string          `db:"payment_method_id" json:"payment_method_id"`
	TotalAmount     decimal.Decimal `db:"total_amount" json:"total_amount"`
	Currency        string          `db:"currency" json:"currency"`
	Status          string          `db:"status" json:"status"`
	FailureReason   string          `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
}

// OrderItem is one line of a recorded order
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Order statuses
const (
	OrderStatusPlaced = "PLACED"
	OrderStatusFailed = "FAILED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
