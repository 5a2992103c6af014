package catalog

import "storefront-service/internal/models"

// Page sizes used by the category screen
const (
	DefaultPageSize = 5
	DefaultStep     = 4
)

// Pager exposes a growing prefix of a filtered product list
type Pager struct {
	items   []models.Product
	visible int
	step    int
}

// NewPager shows the first pageSize items and grows by step on LoadMore.
// Non-positive values fall back to the defaults.
func NewPager(items []models.Product, pageSize, step int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if step <= 0 {
		step = DefaultStep
	}
	p := &Pager{items: items, step: step}
	p.visible = min(pageSize, len(items))
	return p
}

// Visible returns the currently visible prefix
func (p *Pager) Visible() []models.Product {
	return p.items[:p.visible]
}

// LoadMore grows the visible count by one step, capped at the list length
func (p *Pager) LoadMore() []models.Product {
	p.visible = min(p.visible+p.step, len(p.items))
	return p.Visible()
}

// HasMore reports whether LoadMore would reveal more items
func (p *Pager) HasMore() bool {
	return p.visible < len(p.items)
}

// Total is the length of the filtered list
func (p *Pager) Total() int {
	return len(p.items)
}

// NoResults reports an empty filtered list
func (p *Pager) NoResults() bool {
	return len(p.items) == 0
}
