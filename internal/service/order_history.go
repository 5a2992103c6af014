package service

import (
	"context"
	"errors"
	"fmt"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// OrderHistory records order outcomes from the event stream and serves them
// back to the order screens
type OrderHistory struct {
	repo   OrderRepository
	logger *zap.Logger
}

// NewOrderHistory creates a new order history
func NewOrderHistory(repo OrderRepository) *OrderHistory {
	return &OrderHistory{repo: repo, logger: util.GetLogger()}
}

// OrderDetails is a recorded order with its lines
type OrderDetails struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

// HandleOrderPlaced records a placed order. Redelivered events are ignored.
func (h *OrderHistory) HandleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderHistory.HandleOrderPlaced")
	defer span.End()

	order := &models.Order{
		OrderNumber: event.OrderNumber,
		Status:      models.OrderStatusPlaced,
	}
	return h.record(ctx, event.BaseEvent, order, event.SessionID, event.Shipping, event.Payment,
		event.TotalAmount, event.Currency, event.Items)
}

// HandleOrderFailed records a failed placement attempt
func (h *OrderHistory) HandleOrderFailed(ctx context.Context, event *models.OrderFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "OrderHistory.HandleOrderFailed")
	defer span.End()

	order := &models.Order{
		Status:        models.OrderStatusFailed,
		FailureReason: event.Reason,
	}
	return h.record(ctx, event.BaseEvent, order, event.SessionID, event.Shipping, event.Payment,
		event.TotalAmount, event.Currency, event.Items)
}

func (h *OrderHistory) record(
	ctx context.Context,
	base models.BaseEvent,
	order *models.Order,
	sessionID string,
	shipping models.ShippingData,
	payment models.PaymentData,
	total decimal.Decimal,
	currency string,
	lines []models.OrderItemData,
) error {
	processed, err := h.repo.IsEventProcessed(ctx, base.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		h.logger.Info("Event already processed", zap.String("event_id", base.EventID))
		return nil
	}

	order.EventID = base.EventID
	order.SessionID = sessionID
	order.CustomerName = shipping.Name
	order.Address = shipping.Address
	order.Phone = shipping.Phone
	order.PaymentMethod = payment.Method
	order.PaymentMethodID = payment.PaymentMethodID
	order.TotalAmount = total
	order.Currency = currency

	items := make([]models.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}

	err = h.repo.CreateOrder(ctx, order, items)
	switch {
	case errors.Is(err, store.ErrDuplicateOrder):
		h.logger.Info("Order already recorded",
			zap.String("event_id", base.EventID),
			zap.String("order_number", order.OrderNumber))
	case err != nil:
		return fmt.Errorf("failed to record order: %w", err)
	default:
		h.logger.Info("Order recorded",
			zap.Int64("order_id", order.ID),
			zap.String("order_number", order.OrderNumber),
			zap.String("status", order.Status))
	}

	if err := h.repo.MarkEventProcessed(ctx, base.EventID, base.EventType); err != nil {
		return fmt.Errorf("failed to mark event processed: %w", err)
	}
	return nil
}

// GetOrder returns one of the session's placed orders by its order number
func (h *OrderHistory) GetOrder(ctx context.Context, sessionID, number string) (*OrderDetails, error) {
	ctx, span := util.StartSpan(ctx, "OrderHistory.GetOrder")
	defer span.End()

	order, err := h.repo.GetOrderByNumber(ctx, sessionID, number)
	if errors.Is(err, store.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	items, err := h.repo.GetOrderItemsByOrderID(ctx, order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get order items: %w", err)
	}
	return &OrderDetails{Order: *order, Items: items}, nil
}

// ListOrders returns a session's recorded orders, newest first
func (h *OrderHistory) ListOrders(ctx context.Context, sessionID string) ([]models.Order, error) {
	orders, err := h.repo.GetOrdersBySession(ctx, sessionID, 20)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}
