package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeOrderPlaced = "ORDER_PLACED"
	EventTypeOrderFailed = "ORDER_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderPlacedEvent published when the commerce API accepted an order
type OrderPlacedEvent struct {
	BaseEvent
	SessionID   string          `json:"session_id"`
	OrderNumber string          `json:"order_number"`
	Shipping    ShippingData    `json:"shipping"`
	Payment     PaymentData     `json:"payment"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Items       []OrderItemData `json:"items"`
}

// OrderFailedEvent published when order placement was rejected
type OrderFailedEvent struct {
	BaseEvent
	SessionID   string          `json:"session_id"`
	Shipping    ShippingData    `json:"shipping"`
	Payment     PaymentData     `json:"payment"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	Items       []OrderItemData `json:"items"`
	Reason      string          `json:"reason"`
}

// ShippingData represents shipping details in events
type ShippingData struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// PaymentData represents the payment selection in events
type PaymentData struct {
	Method          string `json:"method"`
	PaymentMethodID string `json:"payment_method_id"`
}

// OrderItemData represents item data in events
type OrderItemData struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
