package catalog

import (
	"sync"

	"storefront-service/internal/models"
)

// Ticket identifies one asynchronous fetch started by a View
type Ticket uint64

// View is one shopper's browse state: the last fetched product list, the
// active criteria and the pager over the filtered result.
//
// Each fetch takes a ticket from Begin. Starting a new fetch (navigating to
// another category or query) invalidates every earlier ticket, so late results
// are dropped by Commit instead of overwriting the newer screen.
type View struct {
	mu       sync.Mutex
	gen      uint64
	products []models.Product
	criteria Criteria
	pager    *Pager
	pageSize int
	step     int
}

// Page is what the browse screen renders
type Page struct {
	Criteria  Criteria         `json:"criteria"`
	Products  []models.Product `json:"products"`
	Total     int              `json:"total"`
	HasMore   bool             `json:"has_more"`
	NoResults bool             `json:"no_results"`
	Brands    []string         `json:"brands"`
}

// NewView creates an empty view
func NewView(pageSize, step int) *View {
	v := &View{pageSize: pageSize, step: step}
	v.pager = NewPager(nil, pageSize, step)
	return v
}

// Begin starts a fetch and returns its ticket
func (v *View) Begin() Ticket {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.gen++
	return Ticket(v.gen)
}

// Commit applies a fetch result with new criteria. It returns false and
// changes nothing when t is no longer the latest ticket.
func (v *View) Commit(t Ticket, products []models.Product, c Criteria) bool {
	v.mu.Lock()
	defer v.mu.Unlock()

	if uint64(t) != v.gen {
		return false
	}
	v.products = products
	v.applyLocked(c)
	return true
}

// Refine re-filters the already fetched products with c and resets paging
func (v *View) Refine(c Criteria) Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.applyLocked(c)
	return v.pageLocked()
}

// LoadMore grows the visible window
func (v *View) LoadMore() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.pager.LoadMore()
	return v.pageLocked()
}

// Current returns the page as it stands
func (v *View) Current() Page {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pageLocked()
}

// Criteria returns the active criteria
func (v *View) Criteria() Criteria {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.criteria
}

func (v *View) applyLocked(c Criteria) {
	v.criteria = c
	v.pager = NewPager(Apply(v.products, c), v.pageSize, v.step)
}

func (v *View) pageLocked() Page {
	visible := v.pager.Visible()
	products := make([]models.Product, len(visible))
	copy(products, visible)

	return Page{
		Criteria:  v.criteria,
		Products:  products,
		Total:     v.pager.Total(),
		HasMore:   v.pager.HasMore(),
		NoResults: v.pager.NoResults(),
		Brands:    Brands(v.products),
	}
}
