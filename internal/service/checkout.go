package service

import (
	"context"
	"errors"
	"time"

	"storefront-service/internal/checkout"
	"storefront-service/internal/commerce"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService drives the shipping, payment, summary and place-order screens
type CheckoutService struct {
	sessions  *SessionManager
	api       CheckoutAPI
	locker    Locker
	publisher EventPublisher
	lockTTL   time.Duration
	logger    *zap.Logger
}

// NewCheckoutService creates a new checkout service. locker and publisher
// may be nil.
func NewCheckoutService(
	sessions *SessionManager,
	api CheckoutAPI,
	locker Locker,
	publisher EventPublisher,
	lockTTL time.Duration,
) *CheckoutService {
	return &CheckoutService{
		sessions:  sessions,
		api:       api,
		locker:    locker,
		publisher: publisher,
		lockTTL:   lockTTL,
		logger:    util.GetLogger(),
	}
}

// Status returns the session's checkout state
func (s *CheckoutService) Status(ctx context.Context, sessionID string) checkout.Status {
	return s.sessions.Get(ctx, sessionID).Flow().Status()
}

// Start begins a new checkout, discarding any previous attempt
func (s *CheckoutService) Start(ctx context.Context, sessionID string) (checkout.Status, error) {
	flow, err := s.sessions.Get(ctx, sessionID).resetFlow()
	return flow.Status(), err
}

// Back steps back one screen
func (s *CheckoutService) Back(ctx context.Context, sessionID string) checkout.Status {
	flow := s.sessions.Get(ctx, sessionID).Flow()
	flow.Back()
	return flow.Status()
}

// SubmitShipping validates the shipping form, sets it on the remote cart and
// advances to payment
func (s *CheckoutService) SubmitShipping(ctx context.Context, sessionID string, info checkout.ShippingInfo) (checkout.Status, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.SubmitShipping")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	flow := sess.Flow()

	if err := flow.ValidateShipping(info); err != nil {
		countValidation(err)
		return flow.Status(), err
	}

	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()

	if sess.Cart.Len() == 0 || sess.cartID == "" {
		return flow.Status(), checkout.ErrEmptyCart
	}

	addr := commerce.Address{Name: info.Name, Street: info.Address, Telephone: info.Phone}
	if err := s.api.SetShippingAddress(ctx, sess.cartID, addr); err != nil {
		return flow.Status(), err
	}
	if err := flow.SubmitShipping(info); err != nil {
		return flow.Status(), err
	}
	return flow.Status(), nil
}

// SubmitPayment validates the payment selection, sets it on the remote cart
// and advances to the summary
func (s *CheckoutService) SubmitPayment(ctx context.Context, sessionID string, sel checkout.PaymentSelection) (checkout.Status, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.SubmitPayment")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	flow := sess.Flow()

	if err := flow.ValidatePayment(sel); err != nil {
		countValidation(err)
		return flow.Status(), err
	}

	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()

	if sess.cartID == "" {
		return flow.Status(), checkout.ErrEmptyCart
	}
	if err := s.api.SetPaymentMethod(ctx, sess.cartID, sel.PaymentMethodID); err != nil {
		return flow.Status(), err
	}
	if err := flow.SubmitPayment(sel); err != nil {
		return flow.Status(), err
	}
	return flow.Status(), nil
}

// SelectShippingMethod picks a carrier method for the remote cart
func (s *CheckoutService) SelectShippingMethod(ctx context.Context, sessionID string, m commerce.Method) error {
	sess := s.sessions.Get(ctx, sessionID)

	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()

	if sess.cartID == "" {
		return checkout.ErrEmptyCart
	}
	return s.api.SetShippingMethod(ctx, sess.cartID, m)
}

// PaymentMethods lists the payment methods the remote cart accepts
func (s *CheckoutService) PaymentMethods(ctx context.Context, sessionID string) ([]commerce.Method, error) {
	cartID := s.cartID(ctx, sessionID)
	if cartID == "" {
		return nil, checkout.ErrEmptyCart
	}
	return s.api.ListPaymentMethods(ctx, cartID)
}

// ShippingMethods lists the carrier methods for the cart's shipping address
func (s *CheckoutService) ShippingMethods(ctx context.Context, sessionID string) ([]commerce.Method, error) {
	cartID := s.cartID(ctx, sessionID)
	if cartID == "" {
		return nil, checkout.ErrEmptyCart
	}
	return s.api.ListShippingMethods(ctx, cartID)
}

func (s *CheckoutService) cartID(ctx context.Context, sessionID string) string {
	sess := s.sessions.Get(ctx, sessionID)
	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()
	return sess.cartID
}

// Review freezes the current cart into the order summary
func (s *CheckoutService) Review(ctx context.Context, sessionID string) (checkout.Payload, error) {
	sess := s.sessions.Get(ctx, sessionID)
	snapshot := sess.Cart.Snapshot()
	if snapshot.Empty() {
		return checkout.Payload{}, checkout.ErrEmptyCart
	}
	p, err := sess.Flow().Review(snapshot)
	if err != nil {
		countValidation(err)
	}
	return p, err
}

// PlaceOrder submits the reviewed payload. Only one placement per session
// runs at a time, within this process through the flow and across
// processes through the distributed lock; extra triggers get
// ErrPlacementInFlight and have no effect. A cart edited after review fails
// with ErrCartChanged before anything is sent, and the summary must be
// reviewed again.
func (s *CheckoutService) PlaceOrder(ctx context.Context, sessionID string) (checkout.Status, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.PlaceOrder")
	defer span.End()

	sess := s.sessions.Get(ctx, sessionID)
	flow := sess.Flow()

	payload, err := flow.BeginPlacing()
	if err != nil {
		if errors.Is(err, checkout.ErrPlacementInFlight) {
			util.DuplicatePlacementsTotal.Inc()
			s.logger.Info("Ignored duplicate place-order trigger", zap.String("session_id", sessionID))
		}
		return flow.Status(), err
	}

	if s.locker != nil {
		lock, err := s.locker.AcquireLock(ctx, "place-order:"+sessionID, s.lockTTL)
		if err != nil {
			_ = flow.Fail(err)
			return flow.Status(), err
		}
		if lock == nil {
			util.DuplicatePlacementsTotal.Inc()
			_ = flow.Fail(checkout.ErrPlacementInFlight)
			return flow.Status(), checkout.ErrPlacementInFlight
		}
		defer func() {
			if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), lock); err != nil {
				s.logger.Warn("Failed to release place-order lock", zap.String("session_id", sessionID), zap.Error(err))
			}
		}()
	}

	sess.syncMu.Lock()
	defer sess.syncMu.Unlock()

	if !payload.Matches(sess.Cart.Snapshot()) {
		_ = flow.Reopen(checkout.ErrCartChanged)
		s.logger.Info("Cart changed after review, placement refused", zap.String("session_id", sessionID))
		return flow.Status(), checkout.ErrCartChanged
	}
	if sess.cartID == "" {
		_ = flow.Fail(checkout.ErrEmptyCart)
		return flow.Status(), checkout.ErrEmptyCart
	}

	start := time.Now()
	orderNumber, err := s.api.PlaceOrder(ctx, sess.cartID)
	util.OrderPlacementLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		_ = flow.Fail(err)
		util.OrdersFailedTotal.WithLabelValues(failureReason(err)).Inc()
		s.logger.Warn("Order placement failed", zap.String("session_id", sessionID), zap.Error(err))
		s.publishFailed(ctx, sessionID, payload, err)
		return flow.Status(), err
	}

	if err := flow.Succeed(orderNumber); err != nil {
		return flow.Status(), err
	}

	sess.Cart.Clear()
	sess.dropRemoteLocked()
	s.sessions.saveLocked(ctx, sess)

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.String("session_id", sessionID),
		zap.String("order_number", orderNumber),
		zap.String("total", payload.Total().StringFixed(2)))
	s.publishPlaced(ctx, sessionID, orderNumber, payload)

	return flow.Status(), nil
}

func (s *CheckoutService) publishPlaced(ctx context.Context, sessionID, orderNumber string, p checkout.Payload) {
	if s.publisher == nil {
		return
	}
	event := &models.OrderPlacedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderPlaced),
		SessionID:   sessionID,
		OrderNumber: orderNumber,
		Shipping:    shippingData(p.Shipping()),
		Payment:     paymentData(p.Payment()),
		TotalAmount: p.Total(),
		Currency:    p.Currency(),
		Items:       itemData(p),
	}
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.String("order_number", orderNumber), zap.Error(err))
	}
}

func (s *CheckoutService) publishFailed(ctx context.Context, sessionID string, p checkout.Payload, reason error) {
	if s.publisher == nil {
		return
	}
	event := &models.OrderFailedEvent{
		BaseEvent:   newBaseEvent(models.EventTypeOrderFailed),
		SessionID:   sessionID,
		Shipping:    shippingData(p.Shipping()),
		Payment:     paymentData(p.Payment()),
		TotalAmount: p.Total(),
		Currency:    p.Currency(),
		Items:       itemData(p),
		Reason:      reason.Error(),
	}
	if err := s.publisher.PublishOrderFailed(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderFailed event",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func shippingData(info checkout.ShippingInfo) models.ShippingData {
	return models.ShippingData{Name: info.Name, Address: info.Address, Phone: info.Phone}
}

func paymentData(sel checkout.PaymentSelection) models.PaymentData {
	return models.PaymentData{Method: sel.Method, PaymentMethodID: sel.PaymentMethodID}
}

func itemData(p checkout.Payload) []models.OrderItemData {
	lines := p.Lines()
	items := make([]models.OrderItemData, 0, len(lines))
	for _, l := range lines {
		items = append(items, models.OrderItemData{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return items
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	case commerce.IsRemoteCallError(err):
		return "remote_error"
	default:
		return "internal"
	}
}

func countValidation(err error) {
	var ve *checkout.ValidationError
	if errors.As(err, &ve) {
		util.CheckoutValidationErrorsTotal.WithLabelValues(ve.Field).Inc()
	}
}
