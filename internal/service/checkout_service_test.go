package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"storefront-service/internal/checkout"
	"storefront-service/internal/commerce"
	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testShipping = checkout.ShippingInfo{Name: "Ada Lovelace", Address: "12 Analytical Row", Phone: "555-0100"}
	testPayment  = checkout.PaymentSelection{Method: "cash", PaymentMethodID: "checkmo"}
)

type checkoutFixture struct {
	api       *fakeCommerce
	locker    *fakeLocker
	publisher *fakePublisher
	store     *StorefrontService
	checkout  *CheckoutService
}

func newCheckoutFixture(t *testing.T) *checkoutFixture {
	t.Helper()
	api := newFakeCommerce(
		product(1, "Apple", "1.20", "Fruits", "Fresh Farm", 10, 4),
		product(2, "Bread", "3.00", "Breads", "Green Valley", 10, 5),
	)
	sessions := NewSessionManager(nil, time.Hour, 5, 4)
	f := &checkoutFixture{
		api:       api,
		locker:    newFakeLocker(),
		publisher: &fakePublisher{},
		store:     NewStorefrontService(sessions, api, api, time.Second),
	}
	f.checkout = NewCheckoutService(sessions, api, f.locker, f.publisher, 30*time.Second)

	_, err := f.store.Browse(context.Background(), "s-1", BrowseRequest{})
	require.NoError(t, err)
	return f
}

func (f *checkoutFixture) fillCart(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	_, err := f.store.AddItem(ctx, "s-1", 1, 2)
	require.NoError(t, err)
	_, err = f.store.AddItem(ctx, "s-1", 2, 1)
	require.NoError(t, err)
}

func (f *checkoutFixture) toSummary(t *testing.T) checkout.Payload {
	t.Helper()
	ctx := context.Background()
	_, err := f.checkout.SubmitShipping(ctx, "s-1", testShipping)
	require.NoError(t, err)
	_, err = f.checkout.SubmitPayment(ctx, "s-1", testPayment)
	require.NoError(t, err)
	p, err := f.checkout.Review(ctx, "s-1")
	require.NoError(t, err)
	return p
}

func TestPlaceOrderHappyPath(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	p := f.toSummary(t)
	assert.True(t, decimal.RequireFromString("5.40").Equal(p.Total()))
	assert.Equal(t, 3, p.TotalQuantity())

	cartID := f.store.sessions.Get(ctx, "s-1").cartID
	assert.Equal(t, "Ada Lovelace", f.api.shipping[cartID].Name)
	assert.Equal(t, "checkmo", f.api.payment[cartID])

	st, err := f.checkout.PlaceOrder(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatePlaced, st.State)
	assert.Equal(t, "000000001", st.OrderNumber)

	assert.True(t, f.store.Cart(ctx, "s-1").Empty())
	assert.Empty(t, f.store.sessions.Get(ctx, "s-1").cartID)

	require.Len(t, f.publisher.placed, 1)
	event := f.publisher.placed[0]
	assert.Equal(t, models.EventTypeOrderPlaced, event.EventType)
	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "s-1", event.SessionID)
	assert.Equal(t, "000000001", event.OrderNumber)
	assert.True(t, p.Total().Equal(event.TotalAmount))
	assert.Len(t, event.Items, 2)
	assert.Empty(t, f.publisher.failed)
}

func TestSummaryIsFrozen(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	p := f.toSummary(t)
	_, err := f.store.AddItem(ctx, "s-1", 1, 5)
	require.NoError(t, err)

	st := f.checkout.Status(ctx, "s-1")
	require.NotNil(t, st.Payload)
	assert.True(t, p.Total().Equal(st.Payload.Total()))
}

func TestPlaceOrderRefusesCartEditedAfterReview(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	f.toSummary(t)
	_, err := f.store.AddItem(ctx, "s-1", 1, 5)
	require.NoError(t, err)

	st, err := f.checkout.PlaceOrder(ctx, "s-1")
	assert.ErrorIs(t, err, checkout.ErrCartChanged)
	assert.Equal(t, checkout.StateReviewingSummary, st.State)
	assert.Nil(t, st.Payload)
	assert.Zero(t, f.api.callCount("PlaceOrder"))
	assert.Empty(t, f.publisher.placed)
	assert.Empty(t, f.locker.held)

	_, err = f.checkout.PlaceOrder(ctx, "s-1")
	assert.ErrorIs(t, err, checkout.ErrIllegalTransition)

	p, err := f.checkout.Review(ctx, "s-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("11.40").Equal(p.Total()))

	st, err = f.checkout.PlaceOrder(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatePlaced, st.State)
	require.Len(t, f.publisher.placed, 1)
	assert.True(t, decimal.RequireFromString("11.40").Equal(f.publisher.placed[0].TotalAmount))
	assert.Equal(t, 1, f.api.callCount("PlaceOrder"))
}

func TestShippingValidationSkipsRemote(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)

	st, err := f.checkout.SubmitShipping(context.Background(), "s-1", checkout.ShippingInfo{Name: "Ada", Address: "   "})
	var ve *checkout.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, checkout.FieldAddress, ve.Field)
	assert.Equal(t, checkout.StateCollectingShipping, st.State)
	assert.Zero(t, f.api.callCount("SetShippingAddress"))
}

func TestPaymentValidation(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	_, err := f.checkout.SubmitShipping(ctx, "s-1", testShipping)
	require.NoError(t, err)

	st, err := f.checkout.SubmitPayment(ctx, "s-1", checkout.PaymentSelection{Method: "card"})
	var ve *checkout.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, checkout.FieldPaymentMethod, ve.Field)
	assert.Equal(t, checkout.StateCollectingPayment, st.State)
	assert.Zero(t, f.api.callCount("SetPaymentMethod"))
}

func TestCheckoutWithEmptyCart(t *testing.T) {
	f := newCheckoutFixture(t)

	_, err := f.checkout.SubmitShipping(context.Background(), "s-1", testShipping)
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Zero(t, f.api.callCount("SetShippingAddress"))

	_, err = f.checkout.PaymentMethods(context.Background(), "s-1")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestReviewAfterCartEmptied(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	f.toSummary(t)
	f.store.ClearCart(ctx, "s-1")

	_, err := f.checkout.Review(ctx, "s-1")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
}

func TestShippingRemoteFailureKeepsScreen(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	f.api.failOn("SetShippingAddress", errors.New("bad gateway"))

	st, err := f.checkout.SubmitShipping(context.Background(), "s-1", testShipping)
	assert.True(t, commerce.IsRemoteCallError(err))
	assert.Equal(t, checkout.StateCollectingShipping, st.State)
}

func TestPlaceOrderFailureThenRetry(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()
	f.toSummary(t)

	f.api.failOn("PlaceOrder", errors.New("payment declined"))
	st, err := f.checkout.PlaceOrder(ctx, "s-1")
	require.Error(t, err)
	assert.Equal(t, checkout.StateFailed, st.State)
	assert.Contains(t, st.LastError, "payment declined")
	require.NotNil(t, st.Payload)
	assert.Equal(t, 3, f.store.Cart(ctx, "s-1").TotalQuantity)

	require.Len(t, f.publisher.failed, 1)
	assert.Contains(t, f.publisher.failed[0].Reason, "payment declined")

	f.api.failOn("PlaceOrder", nil)
	st, err = f.checkout.PlaceOrder(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatePlaced, st.State)
	assert.Equal(t, "000000002", st.OrderNumber)
	assert.Empty(t, st.LastError)
}

func TestPlaceOrderConcurrentTriggers(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()
	f.toSummary(t)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.placeHook = func() {
		close(entered)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.checkout.PlaceOrder(ctx, "s-1")
	}()
	<-entered

	const extra = 5
	for i := 0; i < extra; i++ {
		_, err := f.checkout.PlaceOrder(ctx, "s-1")
		assert.ErrorIs(t, err, checkout.ErrPlacementInFlight)
	}
	assert.Equal(t, checkout.StatePlacing, f.checkout.Status(ctx, "s-1").State)

	_, err := f.checkout.Start(ctx, "s-1")
	assert.ErrorIs(t, err, checkout.ErrPlacementInFlight)

	close(release)
	wg.Wait()

	require.NoError(t, firstErr)
	assert.Equal(t, 1, f.api.callCount("PlaceOrder"))
	assert.Len(t, f.publisher.placed, 1)

	_, err = f.checkout.PlaceOrder(ctx, "s-1")
	assert.ErrorIs(t, err, checkout.ErrCheckoutClosed)
}

func TestPlaceOrderLockHeldElsewhere(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()
	f.toSummary(t)

	f.locker.held["place-order:s-1"] = true

	st, err := f.checkout.PlaceOrder(ctx, "s-1")
	assert.ErrorIs(t, err, checkout.ErrPlacementInFlight)
	assert.Equal(t, checkout.StateFailed, st.State)
	assert.Zero(t, f.api.callCount("PlaceOrder"))

	f.locker.held = make(map[string]bool)
	st, err = f.checkout.PlaceOrder(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StatePlaced, st.State)
	assert.Empty(t, f.locker.held)
}

func TestPlaceOrderBeforeSummary(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)

	_, err := f.checkout.PlaceOrder(context.Background(), "s-1")
	assert.ErrorIs(t, err, checkout.ErrIllegalTransition)
	assert.Zero(t, f.api.callCount("PlaceOrder"))
}

func TestStartAfterPlacedBeginsNewCheckout(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()
	f.toSummary(t)

	_, err := f.checkout.PlaceOrder(ctx, "s-1")
	require.NoError(t, err)

	st, err := f.checkout.Start(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, checkout.StateCollectingShipping, st.State)
	assert.Empty(t, st.OrderNumber)
}

func TestBackFromSummary(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()
	f.toSummary(t)

	st := f.checkout.Back(ctx, "s-1")
	assert.Equal(t, checkout.StateCollectingPayment, st.State)
	assert.Nil(t, st.Payload)

	st = f.checkout.Back(ctx, "s-1")
	assert.Equal(t, checkout.StateCollectingShipping, st.State)
	assert.Equal(t, testShipping, st.Shipping)
}

func TestCheckoutMethods(t *testing.T) {
	f := newCheckoutFixture(t)
	f.fillCart(t)
	ctx := context.Background()

	methods, err := f.checkout.PaymentMethods(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "checkmo", methods[0].Code)

	methods, err = f.checkout.ShippingMethods(ctx, "s-1")
	require.NoError(t, err)
	require.NoError(t, f.checkout.SelectShippingMethod(ctx, "s-1", methods[0]))
	assert.Equal(t, 1, f.api.callCount("SetShippingMethod"))
}

func TestFailureReason(t *testing.T) {
	assert.Equal(t, "timeout", failureReason(context.DeadlineExceeded))
	assert.Equal(t, "remote_error", failureReason(&commerce.RemoteCallError{Operation: "placeOrder", Err: errors.New("x")}))
	assert.Equal(t, "internal", failureReason(errors.New("x")))
}
