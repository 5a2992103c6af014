package cart

import "github.com/shopspring/decimal"

// SnapshotLine is a cart line joined with its product data
type SnapshotLine struct {
	ProductID int64           `json:"product_id"`
	Name      string          `json:"name"`
	Unit      string          `json:"unit"`
	Image     string          `json:"image,omitempty"`
	Color     string          `json:"color,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Snapshot is a derived read of the cart. TotalPrice is always the sum of
// the line subtotals it carries.
type Snapshot struct {
	Lines         []SnapshotLine  `json:"lines"`
	TotalQuantity int             `json:"total_quantity"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Currency      string          `json:"currency,omitempty"`
}

// Empty reports whether the snapshot has no lines
func (s Snapshot) Empty() bool {
	return len(s.Lines) == 0
}
