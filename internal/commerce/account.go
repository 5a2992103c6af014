package commerce

import (
	"context"
	"errors"

	"storefront-service/internal/models"
)

var ErrNoWishlist = errors.New("customer has no wishlist")

type Customer struct {
	FirstName string            `json:"firstname"`
	LastName  string            `json:"lastname"`
	Email     string            `json:"email"`
	Addresses []CustomerAddress `json:"addresses,omitempty"`
}

type CustomerAddress struct {
	ID              int64    `json:"id"`
	FirstName       string   `json:"firstname"`
	LastName        string   `json:"lastname"`
	Street          []string `json:"street"`
	Telephone       string   `json:"telephone"`
	DefaultShipping bool     `json:"default_shipping"`
}

// NewCustomer is the input for CreateCustomer
type NewCustomer struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

type Wishlist struct {
	ID    string         `json:"id"`
	Items []WishlistItem `json:"items"`
}

type WishlistItem struct {
	ID      string         `json:"id"`
	Product models.Product `json:"product"`
}

// GenerateToken signs a customer in and returns the bearer token
func (c *Client) GenerateToken(ctx context.Context, email, password string) (string, error) {
	var data struct {
		GenerateCustomerToken *struct {
			Token string `json:"token"`
		} `json:"generateCustomerToken"`
	}
	vars := map[string]any{"email": email, "password": password}
	if err := c.do(ctx, "GenerateToken", mutationGenerateCustomerToken, vars, "", &data); err != nil {
		return "", err
	}
	if data.GenerateCustomerToken == nil || data.GenerateCustomerToken.Token == "" {
		return "", &RemoteCallError{Operation: "GenerateToken", Err: errors.New("empty token")}
	}
	return data.GenerateCustomerToken.Token, nil
}

// RevokeToken signs the customer out
func (c *Client) RevokeToken(ctx context.Context, token string) error {
	return c.do(ctx, "RevokeToken", mutationRevokeCustomerToken, nil, token, nil)
}

// CreateCustomer registers a new customer account
func (c *Client) CreateCustomer(ctx context.Context, in NewCustomer) (*Customer, error) {
	var data struct {
		CreateCustomerV2 struct {
			Customer *Customer `json:"customer"`
		} `json:"createCustomerV2"`
	}
	vars := map[string]any{
		"firstname": in.FirstName,
		"lastname":  in.LastName,
		"email":     in.Email,
		"password":  in.Password,
	}
	if err := c.do(ctx, "CreateCustomer", mutationCreateCustomer, vars, "", &data); err != nil {
		return nil, err
	}
	if data.CreateCustomerV2.Customer == nil {
		return nil, &RemoteCallError{Operation: "CreateCustomer", Err: errors.New("no customer returned")}
	}
	return data.CreateCustomerV2.Customer, nil
}

// RequestPasswordReset asks the API to email a reset link
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	return c.do(ctx, "RequestPasswordReset", mutationRequestPasswordReset, map[string]any{"email": email}, "", nil)
}

// GetCustomer fetches the signed-in customer's profile
func (c *Client) GetCustomer(ctx context.Context, token string) (*Customer, error) {
	var data struct {
		Customer *Customer `json:"customer"`
	}
	if err := c.do(ctx, "GetCustomer", queryCustomer, nil, token, &data); err != nil {
		return nil, err
	}
	return data.Customer, nil
}

// GetWishlist returns the customer's first wishlist
func (c *Client) GetWishlist(ctx context.Context, token string) (*Wishlist, error) {
	var data struct {
		Customer *struct {
			Wishlists []rawWishlist `json:"wishlists"`
		} `json:"customer"`
	}
	if err := c.do(ctx, "GetWishlist", queryWishlist, nil, token, &data); err != nil {
		return nil, err
	}
	if data.Customer == nil || len(data.Customer.Wishlists) == 0 {
		return nil, &RemoteCallError{Operation: "GetWishlist", Err: ErrNoWishlist}
	}
	return mapWishlist(data.Customer.Wishlists[0]), nil
}

// AddToWishlist adds a product to the wishlist by sku
func (c *Client) AddToWishlist(ctx context.Context, token, wishlistID, sku string) (*Wishlist, error) {
	var data struct {
		AddProductsToWishlist struct {
			Wishlist rawWishlist `json:"wishlist"`
		} `json:"addProductsToWishlist"`
	}
	vars := map[string]any{"wishlistId": wishlistID, "sku": sku}
	if err := c.do(ctx, "AddToWishlist", mutationAddToWishlist, vars, token, &data); err != nil {
		return nil, err
	}
	return mapWishlist(data.AddProductsToWishlist.Wishlist), nil
}

// RemoveFromWishlist removes a wishlist item by its item id
func (c *Client) RemoveFromWishlist(ctx context.Context, token, wishlistID, itemID string) (*Wishlist, error) {
	var data struct {
		RemoveProductsFromWishlist struct {
			Wishlist rawWishlist `json:"wishlist"`
		} `json:"removeProductsFromWishlist"`
	}
	vars := map[string]any{"wishlistId": wishlistID, "itemId": itemID}
	if err := c.do(ctx, "RemoveFromWishlist", mutationRemoveFromWishlist, vars, token, &data); err != nil {
		return nil, err
	}
	return mapWishlist(data.RemoveProductsFromWishlist.Wishlist), nil
}
