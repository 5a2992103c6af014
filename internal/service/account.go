package service

import (
	"context"
	"strings"

	"storefront-service/internal/commerce"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// AccountService passes sign-in, profile and wishlist calls through to the
// commerce API. The customer token travels with each request.
type AccountService struct {
	api    AccountAPI
	logger *zap.Logger
}

func NewAccountService(api AccountAPI) *AccountService {
	return &AccountService{api: api, logger: util.GetLogger()}
}

func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return "", ErrMissingCredentials
	}
	token, err := s.api.GenerateToken(ctx, email, password)
	if err != nil {
		return "", err
	}
	s.logger.Info("Customer signed in")
	return token, nil
}

func (s *AccountService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return ErrNotSignedIn
	}
	return s.api.RevokeToken(ctx, token)
}

func (s *AccountService) Register(ctx context.Context, in commerce.NewCustomer) (*commerce.Customer, error) {
	in.Email = strings.TrimSpace(in.Email)
	if in.Email == "" || in.Password == "" {
		return nil, ErrMissingCredentials
	}
	return s.api.CreateCustomer(ctx, in)
}

func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ErrMissingCredentials
	}
	return s.api.RequestPasswordReset(ctx, email)
}

func (s *AccountService) Profile(ctx context.Context, token string) (*commerce.Customer, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}
	return s.api.GetCustomer(ctx, token)
}

// Orders lists the customer's orders as known to the commerce API
func (s *AccountService) Orders(ctx context.Context, token string) ([]commerce.RemoteOrder, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}
	return s.api.CustomerOrders(ctx, token)
}

func (s *AccountService) Order(ctx context.Context, token, number string) (*commerce.RemoteOrder, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}
	order, err := s.api.GetOrder(ctx, token, number)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

func (s *AccountService) Wishlist(ctx context.Context, token string) (*commerce.Wishlist, error) {
	if token == "" {
		return nil, ErrNotSignedIn
	}
	return s.api.GetWishlist(ctx, token)
}

// AddToWishlist adds a product to the customer's first wishlist
func (s *AccountService) AddToWishlist(ctx context.Context, token, sku string) (*commerce.Wishlist, error) {
	wl, err := s.Wishlist(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.api.AddToWishlist(ctx, token, wl.ID, sku)
}

func (s *AccountService) RemoveFromWishlist(ctx context.Context, token, itemID string) (*commerce.Wishlist, error) {
	wl, err := s.Wishlist(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.api.RemoveFromWishlist(ctx, token, wl.ID, itemID)
}
