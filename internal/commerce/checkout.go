package commerce

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// Address is a shipping address in the shape the checkout collects it
type Address struct {
	Name      string
	Street    string
	Telephone string
}

// Method is a payment or shipping method offered for a cart
type Method struct {
	Code    string `json:"code"`
	Carrier string `json:"carrier,omitempty"`
	Title   string `json:"title"`
}

// RemoteOrder is a placed order as reported by the commerce API
type RemoteOrder struct {
	Number   string            `json:"number"`
	Status   string            `json:"status"`
	PlacedAt string            `json:"placed_at"`
	Total    decimal.Decimal   `json:"total"`
	Currency string            `json:"currency"`
	Items    []RemoteOrderItem `json:"items"`
}

type RemoteOrderItem struct {
	SKU      string `json:"sku"`
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

// splitName splits a full name into first and last names. A single word
// is used for both since the API requires a last name.
func splitName(full string) (string, string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], fields[0]
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}

// SetShippingAddress sets the shipping address and mirrors it as billing address
func (c *Client) SetShippingAddress(ctx context.Context, cartID string, addr Address) error {
	first, last := splitName(addr.Name)
	vars := map[string]any{
		"cartId":    cartID,
		"firstname": first,
		"lastname":  last,
		"street":    addr.Street,
		"telephone": addr.Telephone,
	}
	if err := c.do(ctx, "SetShippingAddress", mutationSetShippingAddress, vars, "", nil); err != nil {
		return err
	}
	return c.do(ctx, "SetBillingAddress", mutationSetBillingAddress, map[string]any{"cartId": cartID}, "", nil)
}

// SetShippingMethod selects a carrier method for the cart
func (c *Client) SetShippingMethod(ctx context.Context, cartID string, m Method) error {
	vars := map[string]any{"cartId": cartID, "carrierCode": m.Carrier, "methodCode": m.Code}
	return c.do(ctx, "SetShippingMethod", mutationSetShippingMethod, vars, "", nil)
}

// SetPaymentMethod selects the payment method by code
func (c *Client) SetPaymentMethod(ctx context.Context, cartID, code string) error {
	vars := map[string]any{"cartId": cartID, "code": code}
	return c.do(ctx, "SetPaymentMethod", mutationSetPaymentMethod, vars, "", nil)
}

type checkoutMethodsData struct {
	Cart *struct {
		AvailablePaymentMethods []struct {
			Code  string `json:"code"`
			Title string `json:"title"`
		} `json:"available_payment_methods"`
		ShippingAddresses []struct {
			AvailableShippingMethods []struct {
				CarrierCode string `json:"carrier_code"`
				MethodCode  string `json:"method_code"`
				MethodTitle string `json:"method_title"`
			} `json:"available_shipping_methods"`
		} `json:"shipping_addresses"`
	} `json:"cart"`
}

func (c *Client) checkoutMethods(ctx context.Context, op, cartID string) (*checkoutMethodsData, error) {
	var data checkoutMethodsData
	if err := c.do(ctx, op, queryCheckoutMethods, map[string]any{"cartId": cartID}, "", &data); err != nil {
		return nil, err
	}
	if data.Cart == nil {
		return nil, &RemoteCallError{Operation: op, Err: ErrCartNotFound}
	}
	return &data, nil
}

// ListPaymentMethods returns the payment methods available for the cart
func (c *Client) ListPaymentMethods(ctx context.Context, cartID string) ([]Method, error) {
	data, err := c.checkoutMethods(ctx, "ListPaymentMethods", cartID)
	if err != nil {
		return nil, err
	}
	methods := make([]Method, 0, len(data.Cart.AvailablePaymentMethods))
	for _, m := range data.Cart.AvailablePaymentMethods {
		methods = append(methods, Method{Code: m.Code, Title: m.Title})
	}
	return methods, nil
}

// ListShippingMethods returns the carrier methods available for the cart's
// shipping address. Empty until a shipping address is set.
func (c *Client) ListShippingMethods(ctx context.Context, cartID string) ([]Method, error) {
	data, err := c.checkoutMethods(ctx, "ListShippingMethods", cartID)
	if err != nil {
		return nil, err
	}
	var methods []Method
	for _, addr := range data.Cart.ShippingAddresses {
		for _, m := range addr.AvailableShippingMethods {
			methods = append(methods, Method{Code: m.MethodCode, Carrier: m.CarrierCode, Title: m.MethodTitle})
		}
	}
	return methods, nil
}

// PlaceOrder converts the cart into an order and returns the order number
func (c *Client) PlaceOrder(ctx context.Context, cartID string) (string, error) {
	var data struct {
		PlaceOrder *struct {
			Order struct {
				OrderNumber string `json:"order_number"`
			} `json:"order"`
		} `json:"placeOrder"`
	}
	if err := c.do(ctx, "PlaceOrder", mutationPlaceOrder, map[string]any{"cartId": cartID}, "", &data); err != nil {
		return "", err
	}
	if data.PlaceOrder == nil || data.PlaceOrder.Order.OrderNumber == "" {
		return "", &RemoteCallError{Operation: "PlaceOrder", Err: ErrNoOrderNumber}
	}
	return data.PlaceOrder.Order.OrderNumber, nil
}

type customerOrdersData struct {
	Customer *struct {
		Orders struct {
			Items []rawOrder `json:"items"`
		} `json:"orders"`
	} `json:"customer"`
}

// GetOrder looks up one of the signed-in customer's orders by number
func (c *Client) GetOrder(ctx context.Context, token, number string) (*RemoteOrder, error) {
	var data customerOrdersData
	if err := c.do(ctx, "GetOrder", queryOrder, map[string]any{"number": number}, token, &data); err != nil {
		return nil, err
	}
	if data.Customer == nil || len(data.Customer.Orders.Items) == 0 {
		return nil, nil
	}
	o := mapOrder(data.Customer.Orders.Items[0])
	return &o, nil
}

// CustomerOrders lists the signed-in customer's recent orders
func (c *Client) CustomerOrders(ctx context.Context, token string) ([]RemoteOrder, error) {
	var data customerOrdersData
	if err := c.do(ctx, "CustomerOrders", queryCustomerOrders, nil, token, &data); err != nil {
		return nil, err
	}
	if data.Customer == nil {
		return nil, nil
	}
	orders := make([]RemoteOrder, 0, len(data.Customer.Orders.Items))
	for _, raw := range data.Customer.Orders.Items {
		orders = append(orders, mapOrder(raw))
	}
	return orders, nil
}
