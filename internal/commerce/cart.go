package commerce

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// RemoteCart is the commerce API's view of a cart
type RemoteCart struct {
	ID            string           `json:"id"`
	Items         []RemoteCartItem `json:"items"`
	TotalQuantity int              `json:"total_quantity"`
	TotalPrice    decimal.Decimal  `json:"total_price"`
	Currency      string           `json:"currency"`
}

// RemoteCartItem is one line of a RemoteCart. UID addresses the line in
// update and remove calls.
type RemoteCartItem struct {
	UID       string `json:"uid"`
	ProductID int64  `json:"product_id"`
	SKU       string `json:"sku"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
}

// Item returns the line for productID, if present
func (rc *RemoteCart) Item(productID int64) (RemoteCartItem, bool) {
	for _, item := range rc.Items {
		if item.ProductID == productID {
			return item, true
		}
	}
	return RemoteCartItem{}, false
}

// CreateCart creates an empty guest cart and returns its id
func (c *Client) CreateCart(ctx context.Context) (string, error) {
	var data struct {
		CreateEmptyCart string `json:"createEmptyCart"`
	}
	if err := c.do(ctx, "CreateCart", mutationCreateEmptyCart, nil, "", &data); err != nil {
		return "", err
	}
	if data.CreateEmptyCart == "" {
		return "", &RemoteCallError{Operation: "CreateCart", Err: ErrCartNotFound}
	}
	return data.CreateEmptyCart, nil
}

// AddCartItem adds quantity units of sku to the cart
func (c *Client) AddCartItem(ctx context.Context, cartID, sku string, quantity int) (*RemoteCart, error) {
	var data struct {
		AddProductsToCart struct {
			Cart       *rawCart `json:"cart"`
			UserErrors []struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"user_errors"`
		} `json:"addProductsToCart"`
	}
	vars := map[string]any{"cartId": cartID, "sku": sku, "quantity": quantity}
	if err := c.do(ctx, "AddCartItem", mutationAddProductToCart, vars, "", &data); err != nil {
		return nil, err
	}

	if ue := data.AddProductsToCart.UserErrors; len(ue) > 0 {
		errs := make(graphQLErrors, 0, len(ue))
		for _, e := range ue {
			errs = append(errs, graphQLError{Message: e.Message})
		}
		return nil, &RemoteCallError{Operation: "AddCartItem", Err: errs}
	}
	if data.AddProductsToCart.Cart == nil {
		return nil, &RemoteCallError{Operation: "AddCartItem", Err: ErrCartNotFound}
	}
	return mapCart(*data.AddProductsToCart.Cart), nil
}

// UpdateCartItem sets the quantity of an existing cart line
func (c *Client) UpdateCartItem(ctx context.Context, cartID, itemUID string, quantity int) (*RemoteCart, error) {
	var data struct {
		UpdateCartItems struct {
			Cart *rawCart `json:"cart"`
		} `json:"updateCartItems"`
	}
	vars := map[string]any{"cartId": cartID, "cartItemUid": itemUID, "quantity": quantity}
	if err := c.do(ctx, "UpdateCartItem", mutationUpdateCartItem, vars, "", &data); err != nil {
		return nil, err
	}
	if data.UpdateCartItems.Cart == nil {
		return nil, &RemoteCallError{Operation: "UpdateCartItem", Err: ErrCartNotFound}
	}
	return mapCart(*data.UpdateCartItems.Cart), nil
}

// RemoveCartItem deletes a cart line
func (c *Client) RemoveCartItem(ctx context.Context, cartID, itemUID string) (*RemoteCart, error) {
	var data struct {
		RemoveItemFromCart struct {
			Cart *rawCart `json:"cart"`
		} `json:"removeItemFromCart"`
	}
	vars := map[string]any{"cartId": cartID, "cartItemUid": itemUID}
	if err := c.do(ctx, "RemoveCartItem", mutationRemoveCartItem, vars, "", &data); err != nil {
		return nil, err
	}
	if data.RemoveItemFromCart.Cart == nil {
		return nil, &RemoteCallError{Operation: "RemoveCartItem", Err: ErrCartNotFound}
	}
	return mapCart(*data.RemoveItemFromCart.Cart), nil
}

// GetCart fetches the current state of a cart
func (c *Client) GetCart(ctx context.Context, cartID string) (*RemoteCart, error) {
	var data struct {
		Cart *rawCart `json:"cart"`
	}
	if err := c.do(ctx, "GetCart", queryCart, map[string]any{"cartId": cartID}, "", &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, &RemoteCallError{Operation: "GetCart", Err: ErrCartNotFound}
	}
	return mapCart(*data.Cart), nil
}

// IsCartNotFound reports whether err means the remote cart no longer exists
func IsCartNotFound(err error) bool {
	return errors.Is(err, ErrCartNotFound)
}
