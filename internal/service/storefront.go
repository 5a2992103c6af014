package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"storefront-service/internal/cart"
	"storefront-service/internal/catalog"
	"storefront-service/internal/commerce"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const noticeAddedToCart = "Added to cart"

// productIndexLimit caps the shared product index. Crossing it starts a fresh index.
const productIndexLimit = 5000

// StorefrontService backs the browse, search and cart screens
type StorefrontService struct {
	sessions       *SessionManager
	catalogAPI     CatalogAPI
	cartAPI        CartAPI
	fetches        singleflight.Group
	noticeDuration time.Duration
	now            func() time.Time
	logger         *zap.Logger

	mu         sync.RWMutex
	products   map[int64]models.Product
	indexLimit int
}

// NewStorefrontService creates a new storefront service
func NewStorefrontService(
	sessions *SessionManager,
	catalogAPI CatalogAPI,
	cartAPI CartAPI,
	noticeDuration time.Duration,
) *StorefrontService {
	return &StorefrontService{
		sessions:       sessions,
		catalogAPI:     catalogAPI,
		cartAPI:        cartAPI,
		noticeDuration: noticeDuration,
		now:            time.Now,
		logger:         util.GetLogger(),
		products:       make(map[int64]models.Product),
		indexLimit:     productIndexLimit,
	}
}

// BrowseRequest selects a category or search listing plus the local refinements
type BrowseRequest struct {
	Category    string   `form:"category"`
	Query       string   `form:"q"`
	Brands      []string `form:"brand"`
	MinRating   float64  `form:"min_rating"`
	InStockOnly bool     `form:"in_stock"`
}

// RefineRequest changes the local refinements without refetching
type RefineRequest struct {
	Brands      []string `json:"brands"`
	MinRating   float64  `json:"min_rating"`
	InStockOnly bool     `json:"in_stock_only"`
}

// CartView is the cart screen: the snapshot plus the transient notice
type CartView struct {
	cart.Snapshot
	Notice string `json:"notice,omitempty"`
}

func normalizeCategory(category string) string {
	category = strings.TrimSpace(category)
	if strings.EqualFold(category, catalog.CategoryAll) {
		return ""
	}
	return category
}

// Browse fetches a listing and makes it the session's current view. A
// response that arrives after the shopper started another browse is
// discarded and ErrSuperseded returned.
func (s *StorefrontService) Browse(ctx context.Context, sessionID string, req BrowseRequest) (catalog.Page, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.Browse")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	ticket := sess.View.Begin()

	category := normalizeCategory(req.Category)
	query := strings.TrimSpace(req.Query)

	products, err := s.fetchProducts(ctx, category, query)
	if err != nil {
		return catalog.Page{}, err
	}

	criteria := catalog.Criteria{
		Query:       query,
		Brands:      req.Brands,
		MinRating:   req.MinRating,
		InStockOnly: req.InStockOnly,
		Category:    category,
	}
	if !sess.View.Commit(ticket, products, criteria) {
		util.CatalogFetchDiscardedTotal.Inc()
		s.logger.Debug("Discarded stale catalog result",
			zap.String("session_id", sessionID),
			zap.String("category", category),
			zap.String("query", query))
		return catalog.Page{}, ErrSuperseded
	}
	return sess.View.Current(), nil
}

// fetchProducts collapses identical concurrent listings into one remote call.
// The shared call outlives any single caller; a caller whose context ends
// stops waiting and its result is dropped.
func (s *StorefrontService) fetchProducts(ctx context.Context, category, query string) ([]models.Product, error) {
	key := category + "\x00" + query
	fetchCtx := context.WithoutCancel(ctx)

	ch := s.fetches.DoChan(key, func() (any, error) {
		start := time.Now()
		products, err := s.catalogAPI.ListProducts(fetchCtx, commerce.ProductQuery{
			Search:   query,
			Category: category,
		})
		util.CatalogFetchLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			return nil, err
		}
		s.index(products)
		return products, nil
	})

	select {
	case <-ctx.Done():
		util.CatalogFetchDiscardedTotal.Inc()
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]models.Product), nil
	}
}

func (s *StorefrontService) index(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.products)+len(products) > s.indexLimit {
		s.products = make(map[int64]models.Product, len(products))
	}
	for _, p := range products {
		s.products[p.ID] = p
	}
}

// Refine re-filters the session's current listing
func (s *StorefrontService) Refine(ctx context.Context, sessionID string, req RefineRequest) catalog.Page {
	sess := s.sessions.Get(ctx, sessionID)
	c := sess.View.Criteria()
	c.Brands = req.Brands
	c.MinRating = req.MinRating
	c.InStockOnly = req.InStockOnly
	return sess.View.Refine(c)
}

// ToggleBrand adds or removes one brand chip from the current refinements
func (s *StorefrontService) ToggleBrand(ctx context.Context, sessionID, brand string) catalog.Page {
	sess := s.sessions.Get(ctx, sessionID)
	return sess.View.Refine(sess.View.Criteria().ToggleBrand(brand))
}

// LoadMore reveals the next page of the current listing
func (s *StorefrontService) LoadMore(ctx context.Context, sessionID string) catalog.Page {
	return s.sessions.Get(ctx, sessionID).View.LoadMore()
}

// CurrentPage returns the session's listing without changing it
func (s *StorefrontService) CurrentPage(ctx context.Context, sessionID string) catalog.Page {
	return s.sessions.Get(ctx, sessionID).View.Current()
}

// Product returns a product seen in an earlier listing
func (s *StorefrontService) Product(productID int64) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[productID]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return p, nil
}

// Suggestions returns type-ahead matches for query
func (s *StorefrontService) Suggestions(ctx context.Context, query string) ([]models.Product, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.Suggestions")
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Product{}, nil
	}
	products, err := s.catalogAPI.SearchSuggestions(ctx, query)
	if err != nil {
		return nil, err
	}
	s.index(products)
	return products, nil
}

// Categories lists the category chips, "All" first. The built-in defaults
// are served when the commerce API cannot be reached.
func (s *StorefrontService) Categories(ctx context.Context) []string {
	remote, err := s.catalogAPI.ListCategories(ctx)
	if err != nil || len(remote) == 0 {
		if err != nil {
			s.logger.Warn("Falling back to default categories", zap.Error(err))
		}
		out := make([]string, len(catalog.DefaultCategories))
		copy(out, catalog.DefaultCategories)
		return out
	}

	out := make([]string, 0, len(remote)+1)
	out = append(out, catalog.CategoryAll)
	for _, c := range remote {
		if !strings.EqualFold(c.Name, catalog.CategoryAll) {
			out = append(out, c.Name)
		}
	}
	return out
}

// Cart returns the session's cart
func (s *StorefrontService) Cart(ctx context.Context, sessionID string) CartView {
	return s.view(s.sessions.Get(ctx, sessionID))
}

func (s *StorefrontService) view(sess *Session) CartView {
	v := CartView{Snapshot: sess.Cart.Snapshot()}
	if sess.noticeActive(s.now()) {
		v.Notice = noticeAddedToCart
	}
	return v
}

// AddItem adds delta units of a product; a negative delta takes units away
func (s *StorefrontService) AddItem(ctx context.Context, sessionID string, productID int64, delta int) (CartView, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.AddItem")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	product, err := s.Product(productID)
	if err != nil {
		var inCart bool
		if product, inCart = lineProduct(sess.Cart.Lines(), productID); !inCart {
			return s.view(sess), err
		}
	}

	err = s.mutate(ctx, sess, "add", product, func(c *cart.Store) {
		c.AddItem(product, delta)
	})
	if err != nil {
		return s.view(sess), err
	}
	if delta > 0 {
		sess.setNotice(s.now().Add(s.noticeDuration))
	}
	return s.view(sess), nil
}

// SetQuantity sets a line's quantity; below one removes it
func (s *StorefrontService) SetQuantity(ctx context.Context, sessionID string, productID int64, quantity int) (CartView, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.SetQuantity")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	product, ok := lineProduct(sess.Cart.Lines(), productID)
	if !ok {
		return s.view(sess), nil
	}
	err := s.mutate(ctx, sess, "set", product, func(c *cart.Store) {
		c.SetQuantity(productID, quantity)
	})
	return s.view(sess), err
}

// RemoveItem deletes a line
func (s *StorefrontService) RemoveItem(ctx context.Context, sessionID string, productID int64) (CartView, error) {
	ctx, span := util.StartSpan(ctx, "StorefrontService.RemoveItem")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	product, ok := lineProduct(sess.Cart.Lines(), productID)
	if !ok {
		return s.view(sess), nil
	}
	err := s.mutate(ctx, sess, "remove", product, func(c *cart.Store) {
		c.RemoveItem(productID)
	})
	return s.view(sess), err
}

// ClearCart empties the cart and abandons the remote cart; the next
// addition starts a fresh one.
func (s *StorefrontService) ClearCart(ctx context.Context, sessionID string) CartView {
	sess := s.sessions.Get(ctx, sessionID)

	sess.syncMu.Lock()
	sess.Cart.Clear()
	sess.dropRemoteLocked()
	s.sessions.saveLocked(ctx, sess)
	sess.syncMu.Unlock()

	util.CartMutationsTotal.WithLabelValues("clear").Inc()
	return s.view(sess)
}

// EndSession forgets the session entirely
func (s *StorefrontService) EndSession(ctx context.Context, sessionID string) error {
	return s.sessions.End(ctx, sessionID)
}

// mutate applies a local change, then mirrors the resulting line quantity to
// the remote cart. If the remote call fails the local change is undone.
func (s *StorefrontService) mutate(ctx context.Context, sess *Session, op string, product models.Product, apply func(*cart.Store)) error {
	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()

	before := sess.Cart.Lines()
	prevQty := sess.Cart.Quantity(product.ID)
	apply(sess.Cart)
	newQty := sess.Cart.Quantity(product.ID)

	if prevQty == newQty {
		return nil
	}

	if err := s.pushLineLocked(ctx, sess, product, prevQty, newQty); err != nil {
		sess.Cart.Restore(before)
		util.CartSyncFailedTotal.WithLabelValues(op).Inc()
		s.logger.Warn("Cart change rolled back",
			zap.String("session_id", sess.ID),
			zap.String("op", op),
			zap.Int64("product_id", product.ID),
			zap.Error(err))
		return err
	}

	util.CartMutationsTotal.WithLabelValues(op).Inc()
	s.sessions.saveLocked(ctx, sess)
	return nil
}

// pushLineLocked makes the remote line for product hold newQty units.
// Caller holds sess.syncMu.
func (s *StorefrontService) pushLineLocked(ctx context.Context, sess *Session, product models.Product, prevQty, newQty int) error {
	if sess.cartID == "" {
		if newQty == 0 {
			return nil
		}
		cartID, err := s.cartAPI.CreateCart(ctx)
		if err != nil {
			return err
		}
		sess.cartID = cartID
		sess.remoteItems = nil
	}

	uid, known := sess.remoteItems[product.ID]
	if !known && prevQty > 0 {
		rc, err := s.cartAPI.GetCart(ctx, sess.cartID)
		if err != nil {
			return err
		}
		sess.applyRemoteLocked(rc)
		uid, known = sess.remoteItems[product.ID]
	}

	var (
		rc  *commerce.RemoteCart
		err error
	)
	switch {
	case !known && newQty == 0:
		return nil
	case !known:
		if product.SKU == "" {
			return fmt.Errorf("product %d has no sku", product.ID)
		}
		rc, err = s.cartAPI.AddCartItem(ctx, sess.cartID, product.SKU, newQty)
	case newQty == 0:
		rc, err = s.cartAPI.RemoveCartItem(ctx, sess.cartID, uid)
	default:
		rc, err = s.cartAPI.UpdateCartItem(ctx, sess.cartID, uid, newQty)
	}
	if err != nil {
		return err
	}
	sess.applyRemoteLocked(rc)
	return nil
}

func lineProduct(lines []models.CartLine, productID int64) (models.Product, bool) {
	for _, l := range lines {
		if l.Product.ID == productID {
			return l.Product, true
		}
	}
	return models.Product{}, false
}
