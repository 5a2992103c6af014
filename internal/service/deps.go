package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/commerce"
	"storefront-service/internal/models"
	"storefront-service/internal/redisclient"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrSuperseded         = errors.New("superseded by a newer catalog request")
	ErrOrderNotFound      = errors.New("order not found")
	ErrNotSignedIn        = errors.New("customer token required")
	ErrMissingCredentials = errors.New("email and password are required")
)

// CatalogAPI is the part of the commerce API the catalog screens use
type CatalogAPI interface {
	ListProducts(ctx context.Context, q commerce.ProductQuery) ([]models.Product, error)
	SearchSuggestions(ctx context.Context, search string) ([]models.Product, error)
	ListCategories(ctx context.Context) ([]commerce.Category, error)
}

// CartAPI mirrors local cart mutations to the remote cart
type CartAPI interface {
	CreateCart(ctx context.Context) (string, error)
	AddCartItem(ctx context.Context, cartID, sku string, quantity int) (*commerce.RemoteCart, error)
	UpdateCartItem(ctx context.Context, cartID, itemUID string, quantity int) (*commerce.RemoteCart, error)
	RemoveCartItem(ctx context.Context, cartID, itemUID string) (*commerce.RemoteCart, error)
	GetCart(ctx context.Context, cartID string) (*commerce.RemoteCart, error)
}

// CheckoutAPI submits checkout data and places orders
type CheckoutAPI interface {
	SetShippingAddress(ctx context.Context, cartID string, addr commerce.Address) error
	SetShippingMethod(ctx context.Context, cartID string, m commerce.Method) error
	SetPaymentMethod(ctx context.Context, cartID, code string) error
	ListPaymentMethods(ctx context.Context, cartID string) ([]commerce.Method, error)
	ListShippingMethods(ctx context.Context, cartID string) ([]commerce.Method, error)
	PlaceOrder(ctx context.Context, cartID string) (string, error)
}

// AccountAPI covers customer accounts and wishlists
type AccountAPI interface {
	GenerateToken(ctx context.Context, email, password string) (string, error)
	RevokeToken(ctx context.Context, token string) error
	CreateCustomer(ctx context.Context, in commerce.NewCustomer) (*commerce.Customer, error)
	RequestPasswordReset(ctx context.Context, email string) error
	GetCustomer(ctx context.Context, token string) (*commerce.Customer, error)
	CustomerOrders(ctx context.Context, token string) ([]commerce.RemoteOrder, error)
	GetOrder(ctx context.Context, token, number string) (*commerce.RemoteOrder, error)
	GetWishlist(ctx context.Context, token string) (*commerce.Wishlist, error)
	AddToWishlist(ctx context.Context, token, wishlistID, sku string) (*commerce.Wishlist, error)
	RemoveFromWishlist(ctx context.Context, token, wishlistID, itemID string) (*commerce.Wishlist, error)
}

// SessionStore persists session state between process restarts
type SessionStore interface {
	SaveSession(ctx context.Context, sessionID string, state any, ttl time.Duration) error
	LoadSession(ctx context.Context, sessionID string, out any) (bool, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Locker guards order placement across service instances
type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (*redisclient.Lock, error)
	ReleaseLock(ctx context.Context, lock *redisclient.Lock) error
}

// EventPublisher publishes order outcomes
type EventPublisher interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderFailed(ctx context.Context, event *models.OrderFailedEvent) error
}

// OrderRepository records order history
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrderByNumber(ctx context.Context, sessionID, number string) (*models.Order, error)
	GetOrdersBySession(ctx context.Context, sessionID string, limit int) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}
