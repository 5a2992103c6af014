// Package checkout validates shipping and payment input and freezes the cart
// into an order payload.
package checkout

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront-service/internal/cart"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart         = errors.New("cart is empty, nothing to checkout")
	ErrIllegalTransition = errors.New("illegal transition of checkout state")
	ErrPlacementInFlight = errors.New("order placement already in progress")
	ErrCheckoutClosed    = errors.New("checkout already completed")
	ErrCartChanged       = errors.New("cart changed since the summary was reviewed")
)

// Fields named by ValidationError
const (
	FieldName          = "name"
	FieldAddress       = "address"
	FieldPhone         = "phone"
	FieldPaymentMethod = "payment_method"
)

// ValidationError reports a missing required checkout field
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required field: %s", e.Field)
}

// ShippingInfo is the shipping form
type ShippingInfo struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

// Validate returns a ValidationError for the first empty field
func (s ShippingInfo) Validate() error {
	switch {
	case strings.TrimSpace(s.Name) == "":
		return &ValidationError{Field: FieldName}
	case strings.TrimSpace(s.Address) == "":
		return &ValidationError{Field: FieldAddress}
	case strings.TrimSpace(s.Phone) == "":
		return &ValidationError{Field: FieldPhone}
	}
	return nil
}

// PaymentSelection is the chosen payment method: a method tag such as "card"
// or "cash" plus the commerce API's payment method code.
type PaymentSelection struct {
	Method          string `json:"method"`
	PaymentMethodID string `json:"payment_method_id"`
}

// Validate requires both the method tag and the remote identifier
func (p PaymentSelection) Validate() error {
	if strings.TrimSpace(p.Method) == "" || strings.TrimSpace(p.PaymentMethodID) == "" {
		return &ValidationError{Field: FieldPaymentMethod}
	}
	return nil
}

// Payload is the frozen order bundle submitted for placement. Its total is
// locked when built; later cart changes do not affect it.
type Payload struct {
	shipping  ShippingInfo
	payment   PaymentSelection
	lines     []cart.SnapshotLine
	quantity  int
	total     decimal.Decimal
	currency  string
	createdAt time.Time
}

// Build validates input and assembles a Payload from snapshot. An empty
// snapshot yields a payload with no lines and a zero total.
func Build(shipping ShippingInfo, payment PaymentSelection, snapshot cart.Snapshot) (Payload, error) {
	if err := shipping.Validate(); err != nil {
		return Payload{}, err
	}
	if err := payment.Validate(); err != nil {
		return Payload{}, err
	}

	lines := make([]cart.SnapshotLine, len(snapshot.Lines))
	copy(lines, snapshot.Lines)

	return Payload{
		shipping:  shipping,
		payment:   payment,
		lines:     lines,
		quantity:  snapshot.TotalQuantity,
		total:     snapshot.TotalPrice,
		currency:  snapshot.Currency,
		createdAt: time.Now(),
	}, nil
}

// Shipping returns the shipping details the payload was built with
func (p Payload) Shipping() ShippingInfo { return p.shipping }

// Payment returns the payment selection the payload was built with
func (p Payload) Payment() PaymentSelection { return p.payment }

// Total returns the cart total frozen at build time
func (p Payload) Total() decimal.Decimal { return p.total }

// TotalQuantity returns the unit count frozen at build time
func (p Payload) TotalQuantity() int { return p.quantity }

// Currency returns the cart currency, empty for an empty cart
func (p Payload) Currency() string { return p.currency }

// CreatedAt returns when the payload was built
func (p Payload) CreatedAt() time.Time { return p.createdAt }

// IsZero reports whether p was never built
func (p Payload) IsZero() bool { return p.lines == nil }

// Matches reports whether snapshot still holds the frozen lines and total
func (p Payload) Matches(snapshot cart.Snapshot) bool {
	if len(snapshot.Lines) != len(p.lines) || !snapshot.TotalPrice.Equal(p.total) {
		return false
	}
	for i, l := range p.lines {
		s := snapshot.Lines[i]
		if s.ProductID != l.ProductID || s.Quantity != l.Quantity || !s.UnitPrice.Equal(l.UnitPrice) {
			return false
		}
	}
	return true
}

// Lines returns a copy of the frozen cart lines
func (p Payload) Lines() []cart.SnapshotLine {
	out := make([]cart.SnapshotLine, len(p.lines))
	copy(out, p.lines)
	return out
}

type payloadJSON struct {
	Shipping      ShippingInfo        `json:"shipping"`
	Payment       PaymentSelection    `json:"payment"`
	Lines         []cart.SnapshotLine `json:"lines"`
	TotalQuantity int                 `json:"total_quantity"`
	Total         decimal.Decimal     `json:"total"`
	Currency      string              `json:"currency,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
}

// MarshalJSON renders the payload for the order summary screen
func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(payloadJSON{
		Shipping:      p.shipping,
		Payment:       p.payment,
		Lines:         p.lines,
		TotalQuantity: p.quantity,
		Total:         p.total,
		Currency:      p.currency,
		CreatedAt:     p.createdAt,
	})
}
