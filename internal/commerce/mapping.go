package commerce

import (
	"encoding/json"
	"strconv"
	"strings"

	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
)

const (
	defaultProductName = "Unknown Product"
	defaultUnit        = "1 kg"
	defaultCurrency    = "USD"
	defaultImage       = "🛒"
	defaultStock       = 50
)

var (
	cardColors    = []string{"#f3e8ff", "#fee2e2", "#fef9c3", "#ffedd5", "#dcfce7"}
	fallbackBrand = []string{"Fresh Farm", "Organic Plus", "Green Valley"}
)

type rawMoney struct {
	Value    *decimal.Decimal `json:"value"`
	Currency string           `json:"currency"`
}

type rawProduct struct {
	ID               json.RawMessage `json:"id"`
	SKU              string          `json:"sku"`
	Name             string          `json:"name"`
	StockStatus      string          `json:"stock_status"`
	OnlyXLeftInStock *float64        `json:"only_x_left_in_stock"`
	RatingSummary    *float64        `json:"rating_summary"`
	Brand            json.RawMessage `json:"brand"`
	Categories       []struct {
		Name string `json:"name"`
	} `json:"categories"`
	SmallImage *struct {
		URL string `json:"url"`
	} `json:"small_image"`
	PriceRange *struct {
		MinimumPrice struct {
			RegularPrice rawMoney `json:"regular_price"`
		} `json:"minimum_price"`
	} `json:"price_range"`
}

type rawCart struct {
	ID    string `json:"id"`
	Items []struct {
		UID      string  `json:"uid"`
		Quantity float64 `json:"quantity"`
		Product  struct {
			ID   json.RawMessage `json:"id"`
			SKU  string          `json:"sku"`
			Name string          `json:"name"`
		} `json:"product"`
	} `json:"items"`
	TotalQuantity float64 `json:"total_quantity"`
	Prices        *struct {
		GrandTotal rawMoney `json:"grand_total"`
	} `json:"prices"`
}

type rawOrder struct {
	Number    string `json:"number"`
	Status    string `json:"status"`
	OrderDate string `json:"order_date"`
	Total     *struct {
		GrandTotal rawMoney `json:"grand_total"`
	} `json:"total"`
	Items []struct {
		ProductSKU      string  `json:"product_sku"`
		ProductName     string  `json:"product_name"`
		QuantityOrdered float64 `json:"quantity_ordered"`
	} `json:"items"`
}

type rawWishlist struct {
	ID         string `json:"id"`
	ItemsCount int    `json:"items_count"`
	ItemsV2    struct {
		Items []struct {
			ID      string     `json:"id"`
			Product rawProduct `json:"product"`
		} `json:"items"`
	} `json:"items_v2"`
}

// parseID accepts ids encoded as JSON numbers or numeric strings
func parseID(raw json.RawMessage) (int64, bool) {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	if s == "" || s == "null" {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func rawString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

// mapProduct converts an API item into a Product, filling every optional
// field with its default. category overrides the item's own first category
// when non-empty. index picks the fallback brand and card color.
func mapProduct(item rawProduct, category string, index int) (models.Product, bool) {
	id, ok := parseID(item.ID)
	if !ok {
		return models.Product{}, false
	}

	p := models.Product{
		ID:       id,
		SKU:      item.SKU,
		Name:     strings.TrimSpace(item.Name),
		Price:    decimal.Zero,
		Currency: defaultCurrency,
		Unit:     defaultUnit,
		Category: category,
		Brand:    strings.TrimSpace(rawString(item.Brand)),
		Image:    defaultImage,
		Color:    cardColors[index%len(cardColors)],
	}
	if p.Name == "" {
		p.Name = defaultProductName
	}
	if p.Brand == "" {
		p.Brand = fallbackBrand[index%len(fallbackBrand)]
	}
	if p.Category == "" && len(item.Categories) > 0 {
		p.Category = item.Categories[0].Name
	}
	if item.SmallImage != nil && item.SmallImage.URL != "" {
		p.Image = item.SmallImage.URL
	}

	if item.PriceRange != nil {
		price := item.PriceRange.MinimumPrice.RegularPrice
		if price.Value != nil && !price.Value.IsNegative() {
			p.Price = *price.Value
		}
		if price.Currency != "" {
			p.Currency = price.Currency
		}
	}

	if item.RatingSummary != nil {
		p.Rating = clampRating(*item.RatingSummary / 20)
	}

	switch {
	case strings.EqualFold(item.StockStatus, "OUT_OF_STOCK"):
		p.Stock = 0
	case item.OnlyXLeftInStock != nil && *item.OnlyXLeftInStock > 0:
		p.Stock = int(*item.OnlyXLeftInStock)
	default:
		p.Stock = defaultStock
	}

	return p, true
}

func clampRating(r float64) float64 {
	if r < 0 {
		return 0
	}
	if r > 5 {
		return 5
	}
	return r
}

func mapProducts(items []rawProduct, category string) []models.Product {
	products := make([]models.Product, 0, len(items))
	for i, item := range items {
		if p, ok := mapProduct(item, category, i); ok {
			products = append(products, p)
		}
	}
	return products
}

func mapMoney(m rawMoney) (decimal.Decimal, string) {
	amount := decimal.Zero
	if m.Value != nil {
		amount = *m.Value
	}
	currency := m.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	return amount, currency
}

func mapCart(raw rawCart) *RemoteCart {
	rc := &RemoteCart{
		ID:            raw.ID,
		TotalQuantity: int(raw.TotalQuantity),
		TotalPrice:    decimal.Zero,
		Currency:      defaultCurrency,
	}
	if raw.Prices != nil {
		rc.TotalPrice, rc.Currency = mapMoney(raw.Prices.GrandTotal)
	}
	for _, item := range raw.Items {
		id, _ := parseID(item.Product.ID)
		rc.Items = append(rc.Items, RemoteCartItem{
			UID:       item.UID,
			ProductID: id,
			SKU:       item.Product.SKU,
			Name:      item.Product.Name,
			Quantity:  int(item.Quantity),
		})
	}
	return rc
}

func mapOrder(raw rawOrder) RemoteOrder {
	o := RemoteOrder{
		Number:   raw.Number,
		Status:   raw.Status,
		PlacedAt: raw.OrderDate,
		Total:    decimal.Zero,
		Currency: defaultCurrency,
	}
	if raw.Total != nil {
		o.Total, o.Currency = mapMoney(raw.Total.GrandTotal)
	}
	for _, item := range raw.Items {
		o.Items = append(o.Items, RemoteOrderItem{
			SKU:      item.ProductSKU,
			Name:     item.ProductName,
			Quantity: int(item.QuantityOrdered),
		})
	}
	return o
}

func mapWishlist(raw rawWishlist) *Wishlist {
	w := &Wishlist{ID: raw.ID}
	for i, item := range raw.ItemsV2.Items {
		p, ok := mapProduct(item.Product, "", i)
		if !ok {
			continue
		}
		w.Items = append(w.Items, WishlistItem{ID: item.ID, Product: p})
	}
	return w
}
