package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront-service/internal/commerce"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
	"storefront-service/internal/store"

	"github.com/shopspring/decimal"
)

func product(id int64, name, price, category, brand string, stock int, rating float64) models.Product {
	return models.Product{
		ID:       id,
		SKU:      fmt.Sprintf("SKU-%d", id),
		Name:     name,
		Price:    decimal.RequireFromString(price),
		Currency: "USD",
		Unit:     "1 kg",
		Category: category,
		Brand:    brand,
		Stock:    stock,
		Rating:   rating,
	}
}

type remoteLine struct {
	uid       string
	productID int64
	quantity  int
}

// fakeCommerce is an in-memory commerce API
type fakeCommerce struct {
	mu       sync.Mutex
	products []models.Product
	carts    map[string][]remoteLine
	nextID   int
	fail     map[string]error
	calls    map[string]int

	listHook  func(q commerce.ProductQuery)
	placeHook func()

	shipping map[string]commerce.Address
	payment  map[string]string
	wishlist *commerce.Wishlist
}

func newFakeCommerce(products ...models.Product) *fakeCommerce {
	return &fakeCommerce{
		products: products,
		carts:    make(map[string][]remoteLine),
		fail:     make(map[string]error),
		calls:    make(map[string]int),
		shipping: make(map[string]commerce.Address),
		payment:  make(map[string]string),
	}
}

func (f *fakeCommerce) failOn(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.fail, op)
		return
	}
	f.fail[op] = &commerce.RemoteCallError{Operation: op, Err: err}
}

func (f *fakeCommerce) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCommerce) enter(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.fail[op]
}

func (f *fakeCommerce) remoteQuantity(cartID string, productID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.carts[cartID] {
		if l.productID == productID {
			return l.quantity
		}
	}
	return 0
}

func (f *fakeCommerce) ListProducts(ctx context.Context, q commerce.ProductQuery) ([]models.Product, error) {
	if err := f.enter("ListProducts"); err != nil {
		return nil, err
	}
	if f.listHook != nil {
		f.listHook(q)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if q.Category == "" || p.Category == q.Category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCommerce) SearchSuggestions(ctx context.Context, search string) ([]models.Product, error) {
	if err := f.enter("SearchSuggestions"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Product, len(f.products))
	copy(out, f.products)
	return out, nil
}

func (f *fakeCommerce) ListCategories(ctx context.Context) ([]commerce.Category, error) {
	if err := f.enter("ListCategories"); err != nil {
		return nil, err
	}
	return []commerce.Category{{ID: 3, Name: "Dairy"}, {ID: 4, Name: "Bakery"}}, nil
}

func (f *fakeCommerce) CreateCart(ctx context.Context) (string, error) {
	if err := f.enter("CreateCart"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("cart-%d", f.nextID)
	f.carts[id] = nil
	return id, nil
}

func (f *fakeCommerce) cartLocked(cartID string) *commerce.RemoteCart {
	rc := &commerce.RemoteCart{ID: cartID, Currency: "USD"}
	for _, l := range f.carts[cartID] {
		rc.Items = append(rc.Items, commerce.RemoteCartItem{UID: l.uid, ProductID: l.productID, Quantity: l.quantity})
		rc.TotalQuantity += l.quantity
	}
	return rc
}

func (f *fakeCommerce) AddCartItem(ctx context.Context, cartID, sku string, quantity int) (*commerce.RemoteCart, error) {
	if err := f.enter("AddCartItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var productID int64
	for _, p := range f.products {
		if p.SKU == sku {
			productID = p.ID
		}
	}
	if productID == 0 {
		return nil, &commerce.RemoteCallError{Operation: "AddCartItem", Err: errors.New("unknown sku")}
	}
	lines := f.carts[cartID]
	for i := range lines {
		if lines[i].productID == productID {
			lines[i].quantity += quantity
			return f.cartLocked(cartID), nil
		}
	}
	f.nextID++
	f.carts[cartID] = append(lines, remoteLine{uid: fmt.Sprintf("uid-%d", f.nextID), productID: productID, quantity: quantity})
	return f.cartLocked(cartID), nil
}

func (f *fakeCommerce) UpdateCartItem(ctx context.Context, cartID, itemUID string, quantity int) (*commerce.RemoteCart, error) {
	if err := f.enter("UpdateCartItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := f.carts[cartID]
	for i := range lines {
		if lines[i].uid == itemUID {
			lines[i].quantity = quantity
		}
	}
	return f.cartLocked(cartID), nil
}

func (f *fakeCommerce) RemoveCartItem(ctx context.Context, cartID, itemUID string) (*commerce.RemoteCart, error) {
	if err := f.enter("RemoveCartItem"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	lines := f.carts[cartID]
	kept := lines[:0]
	for _, l := range lines {
		if l.uid != itemUID {
			kept = append(kept, l)
		}
	}
	f.carts[cartID] = kept
	return f.cartLocked(cartID), nil
}

func (f *fakeCommerce) GetCart(ctx context.Context, cartID string) (*commerce.RemoteCart, error) {
	if err := f.enter("GetCart"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cartLocked(cartID), nil
}

func (f *fakeCommerce) SetShippingAddress(ctx context.Context, cartID string, addr commerce.Address) error {
	if err := f.enter("SetShippingAddress"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shipping[cartID] = addr
	return nil
}

func (f *fakeCommerce) SetShippingMethod(ctx context.Context, cartID string, m commerce.Method) error {
	return f.enter("SetShippingMethod")
}

func (f *fakeCommerce) SetPaymentMethod(ctx context.Context, cartID, code string) error {
	if err := f.enter("SetPaymentMethod"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payment[cartID] = code
	return nil
}

func (f *fakeCommerce) ListPaymentMethods(ctx context.Context, cartID string) ([]commerce.Method, error) {
	if err := f.enter("ListPaymentMethods"); err != nil {
		return nil, err
	}
	return []commerce.Method{{Code: "checkmo", Title: "Cash on Delivery"}}, nil
}

func (f *fakeCommerce) ListShippingMethods(ctx context.Context, cartID string) ([]commerce.Method, error) {
	if err := f.enter("ListShippingMethods"); err != nil {
		return nil, err
	}
	return []commerce.Method{{Code: "flatrate", Carrier: "flatrate", Title: "Flat Rate"}}, nil
}

func (f *fakeCommerce) PlaceOrder(ctx context.Context, cartID string) (string, error) {
	if err := f.enter("PlaceOrder"); err != nil {
		return "", err
	}
	if f.placeHook != nil {
		f.placeHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, cartID)
	return fmt.Sprintf("0000%05d", f.calls["PlaceOrder"]), nil
}

func (f *fakeCommerce) GenerateToken(ctx context.Context, email, password string) (string, error) {
	if err := f.enter("GenerateToken"); err != nil {
		return "", err
	}
	return "tok-" + email, nil
}

func (f *fakeCommerce) RevokeToken(ctx context.Context, token string) error {
	return f.enter("RevokeToken")
}

func (f *fakeCommerce) CreateCustomer(ctx context.Context, in commerce.NewCustomer) (*commerce.Customer, error) {
	if err := f.enter("CreateCustomer"); err != nil {
		return nil, err
	}
	return &commerce.Customer{FirstName: in.FirstName, LastName: in.LastName, Email: in.Email}, nil
}

func (f *fakeCommerce) RequestPasswordReset(ctx context.Context, email string) error {
	return f.enter("RequestPasswordReset")
}

func (f *fakeCommerce) GetCustomer(ctx context.Context, token string) (*commerce.Customer, error) {
	if err := f.enter("GetCustomer"); err != nil {
		return nil, err
	}
	return &commerce.Customer{Email: "ada@example.com"}, nil
}

func (f *fakeCommerce) CustomerOrders(ctx context.Context, token string) ([]commerce.RemoteOrder, error) {
	if err := f.enter("CustomerOrders"); err != nil {
		return nil, err
	}
	return []commerce.RemoteOrder{{Number: "000000001"}}, nil
}

func (f *fakeCommerce) GetOrder(ctx context.Context, token, number string) (*commerce.RemoteOrder, error) {
	if err := f.enter("GetOrder"); err != nil {
		return nil, err
	}
	if number != "000000001" {
		return nil, nil
	}
	return &commerce.RemoteOrder{Number: number}, nil
}

func (f *fakeCommerce) GetWishlist(ctx context.Context, token string) (*commerce.Wishlist, error) {
	if err := f.enter("GetWishlist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wishlist == nil {
		f.wishlist = &commerce.Wishlist{ID: "wl-1"}
	}
	return f.wishlist, nil
}

func (f *fakeCommerce) AddToWishlist(ctx context.Context, token, wishlistID, sku string) (*commerce.Wishlist, error) {
	if err := f.enter("AddToWishlist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.wishlist == nil || f.wishlist.ID != wishlistID {
		return nil, &commerce.RemoteCallError{Operation: "AddToWishlist", Err: errors.New("unknown wishlist")}
	}
	for _, p := range f.products {
		if p.SKU == sku {
			f.wishlist.Items = append(f.wishlist.Items, commerce.WishlistItem{ID: "w-" + sku, Product: p})
		}
	}
	return f.wishlist, nil
}

func (f *fakeCommerce) RemoveFromWishlist(ctx context.Context, token, wishlistID, itemID string) (*commerce.Wishlist, error) {
	if err := f.enter("RemoveFromWishlist"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.wishlist.Items[:0]
	for _, item := range f.wishlist.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	f.wishlist.Items = kept
	return f.wishlist, nil
}

// memorySessionStore keeps sessions as JSON, like the Redis store does
type memorySessionStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{data: make(map[string][]byte)}
}

func (m *memorySessionStore) SaveSession(ctx context.Context, id string, state any, ttl time.Duration) error {
	b, err := json.Marshal(state)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = b
	return nil
}

func (m *memorySessionStore) LoadSession(ctx context.Context, id string, out any) (bool, error) {
	m.mu.Lock()
	b, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (m *memorySessionStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{held: make(map[string]bool)}
}

func (l *fakeLocker) AcquireLock(ctx context.Context, key string, ttl time.Duration) (*redisclient.Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, nil
	}
	l.held[key] = true
	return &redisclient.Lock{}, nil
}

func (l *fakeLocker) ReleaseLock(ctx context.Context, lock *redisclient.Lock) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held = make(map[string]bool)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	placed []*models.OrderPlacedEvent
	failed []*models.OrderFailedEvent
}

func (p *fakePublisher) PublishOrderPlaced(ctx context.Context, e *models.OrderPlacedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.placed = append(p.placed, e)
	return nil
}

func (p *fakePublisher) PublishOrderFailed(ctx context.Context, e *models.OrderFailedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failed = append(p.failed, e)
	return nil
}

type fakeRepo struct {
	mu        sync.Mutex
	orders    []models.Order
	items     map[int64][]models.OrderItem
	processed map[string]bool
	createErr error
	creates   int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{items: make(map[int64][]models.OrderItem), processed: make(map[string]bool)}
}

func (r *fakeRepo) CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.creates++
	if r.createErr != nil {
		return r.createErr
	}
	order.ID = int64(len(r.orders) + 1)
	order.CreatedAt = time.Now()
	r.orders = append(r.orders, *order)
	r.items[order.ID] = append([]models.OrderItem(nil), items...)
	return nil
}

func (r *fakeRepo) GetOrderByNumber(ctx context.Context, sessionID, number string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.OrderNumber == number && o.SessionID == sessionID && number != "" {
			o := o
			return &o, nil
		}
	}
	return nil, store.ErrOrderNotFound
}

func (r *fakeRepo) GetOrdersBySession(ctx context.Context, sessionID string, limit int) ([]models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Order
	for i := len(r.orders) - 1; i >= 0 && len(out) < limit; i-- {
		if r.orders[i].SessionID == sessionID {
			out = append(out, r.orders[i])
		}
	}
	return out, nil
}

func (r *fakeRepo) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[orderID], nil
}

func (r *fakeRepo) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.processed[eventID], nil
}

func (r *fakeRepo) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processed[eventID] = true
	return nil
}
