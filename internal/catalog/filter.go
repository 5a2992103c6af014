// Package catalog filters and pages product lists for the browse and search screens.
package catalog

import (
	"strings"

	"storefront-service/internal/models"
)

// DefaultCategories is the category bar shown before the remote list arrives
var DefaultCategories = []string{"All", "Fruits", "Vegetables", "Breads", "Other"}

// CategoryAll disables the category predicate
const CategoryAll = "All"

// Criteria is the set of active browse constraints. The zero value matches everything.
type Criteria struct {
	Query       string   `json:"query"`
	Brands      []string `json:"brands"`
	MinRating   float64  `json:"min_rating"`
	InStockOnly bool     `json:"in_stock_only"`
	Category    string   `json:"category"`
}

type predicate func(models.Product) bool

// Apply returns the products matching c, preserving input order.
// Predicates run as category, name, brand, rating, stock.
func Apply(products []models.Product, c Criteria) []models.Product {
	preds := c.predicates()

	out := make([]models.Product, 0, len(products))
next:
	for _, p := range products {
		for _, match := range preds {
			if !match(p) {
				continue next
			}
		}
		out = append(out, p)
	}
	return out
}

func (c Criteria) predicates() []predicate {
	var preds []predicate

	if c.Category != "" && c.Category != CategoryAll {
		category := c.Category
		preds = append(preds, func(p models.Product) bool {
			return p.Category == category
		})
	}

	if c.Query != "" {
		query := strings.ToLower(c.Query)
		preds = append(preds, func(p models.Product) bool {
			return strings.Contains(strings.ToLower(p.Name), query)
		})
	}

	if len(c.Brands) > 0 {
		brands := make(map[string]struct{}, len(c.Brands))
		for _, b := range c.Brands {
			brands[b] = struct{}{}
		}
		preds = append(preds, func(p models.Product) bool {
			_, ok := brands[p.Brand]
			return ok
		})
	}

	if c.MinRating > 0 {
		minRating := c.MinRating
		preds = append(preds, func(p models.Product) bool {
			return p.Rating >= minRating
		})
	}

	if c.InStockOnly {
		preds = append(preds, models.Product.InStock)
	}

	return preds
}

// ToggleBrand adds brand to the selection, or removes it if already selected
func (c Criteria) ToggleBrand(brand string) Criteria {
	brands := make([]string, 0, len(c.Brands)+1)
	found := false
	for _, b := range c.Brands {
		if b == brand {
			found = true
			continue
		}
		brands = append(brands, b)
	}
	if !found {
		brands = append(brands, brand)
	}
	c.Brands = brands
	return c
}

// Brands lists the distinct non-empty brands in first-seen order
func Brands(products []models.Product) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range products {
		if p.Brand == "" {
			continue
		}
		if _, ok := seen[p.Brand]; ok {
			continue
		}
		seen[p.Brand] = struct{}{}
		out = append(out, p.Brand)
	}
	return out
}
