package checkout

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"storefront-service/internal/cart"
	"storefront-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	validShipping = ShippingInfo{Name: "Ada", Address: "1 Market St", Phone: "555-0100"}
	validPayment  = PaymentSelection{Method: "card", PaymentMethodID: "checkmo"}
)

func filledCart() *cart.Store {
	s := cart.NewStore()
	s.AddItem(models.Product{ID: 1, Name: "Apple", Price: decimal.NewFromInt(10), Currency: "USD"}, 2)
	s.AddItem(models.Product{ID: 2, Name: "Bread", Price: decimal.RequireFromString("3.25"), Currency: "USD"}, 1)
	return s
}

func TestBuildValidation(t *testing.T) {
	tests := []struct {
		name     string
		shipping ShippingInfo
		payment  PaymentSelection
		field    string
	}{
		{"missing name", ShippingInfo{Address: "a", Phone: "p"}, validPayment, FieldName},
		{"missing address", ShippingInfo{Name: "n", Phone: "p"}, validPayment, FieldAddress},
		{"missing phone", ShippingInfo{Name: "n", Address: "a"}, validPayment, FieldPhone},
		{"blank phone", ShippingInfo{Name: "n", Address: "a", Phone: "  "}, validPayment, FieldPhone},
		{"no payment method", validShipping, PaymentSelection{}, FieldPaymentMethod},
		{"no payment id", validShipping, PaymentSelection{Method: "card"}, FieldPaymentMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.shipping, tt.payment, filledCart().Snapshot())
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestBuildLocksTotal(t *testing.T) {
	c := filledCart()
	p, err := Build(validShipping, validPayment, c.Snapshot())
	require.NoError(t, err)

	assert.Equal(t, "23.25", p.Total().String())
	assert.Equal(t, 3, p.TotalQuantity())
	assert.Equal(t, "USD", p.Currency())

	c.AddItem(models.Product{ID: 3, Price: decimal.NewFromInt(100)}, 1)
	c.Clear()

	assert.Equal(t, "23.25", p.Total().String())
	assert.Len(t, p.Lines(), 2)
}

func TestBuildLinesAreCopied(t *testing.T) {
	p, err := Build(validShipping, validPayment, filledCart().Snapshot())
	require.NoError(t, err)

	lines := p.Lines()
	lines[0].Quantity = 99
	assert.Equal(t, 2, p.Lines()[0].Quantity)
}

func TestBuildEmptyCart(t *testing.T) {
	p, err := Build(validShipping, validPayment, cart.NewStore().Snapshot())
	require.NoError(t, err)
	assert.False(t, p.IsZero())
	assert.True(t, p.Total().IsZero())
	assert.Equal(t, 0, p.TotalQuantity())
	assert.Empty(t, p.Lines())
}

func TestPayloadMatches(t *testing.T) {
	c := filledCart()
	p, err := Build(validShipping, validPayment, c.Snapshot())
	require.NoError(t, err)
	assert.True(t, p.Matches(c.Snapshot()))

	c.AddItem(models.Product{ID: 1, Name: "Apple", Price: decimal.NewFromInt(10), Currency: "USD"}, 1)
	assert.False(t, p.Matches(c.Snapshot()))

	repriced := cart.NewStore()
	repriced.AddItem(models.Product{ID: 1, Name: "Apple", Price: decimal.NewFromInt(9), Currency: "USD"}, 2)
	repriced.AddItem(models.Product{ID: 2, Name: "Bread", Price: decimal.RequireFromString("3.25"), Currency: "USD"}, 1)
	assert.False(t, p.Matches(repriced.Snapshot()))

	assert.False(t, p.Matches(cart.NewStore().Snapshot()))
}

func TestFlowHappyPath(t *testing.T) {
	f := NewFlow()
	assert.Equal(t, StateCollectingShipping, f.State())

	require.NoError(t, f.SubmitShipping(validShipping))
	assert.Equal(t, StateCollectingPayment, f.State())

	require.NoError(t, f.SubmitPayment(validPayment))
	assert.Equal(t, StateReviewingSummary, f.State())

	p, err := f.Review(filledCart().Snapshot())
	require.NoError(t, err)

	placing, err := f.BeginPlacing()
	require.NoError(t, err)
	assert.Equal(t, p.Total(), placing.Total())
	assert.Equal(t, StatePlacing, f.State())

	require.NoError(t, f.Succeed("000000042"))
	assert.Equal(t, StatePlaced, f.State())
	assert.True(t, f.State().IsTerminal())
	assert.Equal(t, "000000042", f.Status().OrderNumber)

	_, err = f.BeginPlacing()
	assert.ErrorIs(t, err, ErrCheckoutClosed)
	assert.ErrorIs(t, f.SubmitShipping(validShipping), ErrCheckoutClosed)
}

func TestFlowShippingValidationBlocksProgress(t *testing.T) {
	f := NewFlow()
	err := f.SubmitShipping(ShippingInfo{Name: "x"})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldAddress, verr.Field)
	assert.Equal(t, StateCollectingShipping, f.State())
}

func TestFlowPaymentBeforeShipping(t *testing.T) {
	f := NewFlow()
	assert.ErrorIs(t, f.SubmitPayment(validPayment), ErrIllegalTransition)
}

func TestFlowPlaceWithoutReview(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(validShipping))
	require.NoError(t, f.SubmitPayment(validPayment))

	_, err := f.BeginPlacing()
	assert.ErrorIs(t, err, ErrIllegalTransition)
}

func TestFlowFailureReturnsToSummary(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(validShipping))
	require.NoError(t, f.SubmitPayment(validPayment))
	_, err := f.Review(filledCart().Snapshot())
	require.NoError(t, err)

	_, err = f.BeginPlacing()
	require.NoError(t, err)
	require.NoError(t, f.Fail(errors.New("declined")))

	st := f.Status()
	assert.Equal(t, StateFailed, st.State)
	assert.Equal(t, "declined", st.LastError)
	require.NotNil(t, st.Payload)
	assert.Equal(t, validShipping, st.Shipping)

	// retry from the summary
	_, err = f.BeginPlacing()
	require.NoError(t, err)
	require.NoError(t, f.Succeed("1"))
}

func TestFlowSingleInFlightPlacement(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(validShipping))
	require.NoError(t, f.SubmitPayment(validPayment))
	_, err := f.Review(filledCart().Snapshot())
	require.NoError(t, err)

	var started, rejected int32
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.BeginPlacing()
			if err == nil {
				atomic.AddInt32(&started, 1)
			} else if errors.Is(err, ErrPlacementInFlight) {
				atomic.AddInt32(&rejected, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), started)
	assert.Equal(t, int32(19), rejected)
}

func TestFlowReopenDropsStaleSummary(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(validShipping))
	require.NoError(t, f.SubmitPayment(validPayment))
	_, err := f.Review(filledCart().Snapshot())
	require.NoError(t, err)

	assert.ErrorIs(t, f.Reopen(ErrCartChanged), ErrIllegalTransition)

	_, err = f.BeginPlacing()
	require.NoError(t, err)
	require.NoError(t, f.Reopen(ErrCartChanged))

	st := f.Status()
	assert.Equal(t, StateReviewingSummary, st.State)
	assert.Nil(t, st.Payload)
	assert.Equal(t, ErrCartChanged.Error(), st.LastError)

	_, err = f.BeginPlacing()
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = f.Review(filledCart().Snapshot())
	require.NoError(t, err)
	_, err = f.BeginPlacing()
	assert.NoError(t, err)
}

func TestFlowBack(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(validShipping))
	require.NoError(t, f.SubmitPayment(validPayment))
	_, err := f.Review(filledCart().Snapshot())
	require.NoError(t, err)

	assert.Equal(t, StateCollectingPayment, f.Back())
	assert.Nil(t, f.Status().Payload)
	assert.Equal(t, StateCollectingShipping, f.Back())
	assert.Equal(t, StateCollectingShipping, f.Back())
}

func TestFlowResubmittingShippingDropsSummary(t *testing.T) {
	f := NewFlow()
	require.NoError(t, f.SubmitShipping(validShipping))
	require.NoError(t, f.SubmitPayment(validPayment))
	_, err := f.Review(filledCart().Snapshot())
	require.NoError(t, err)

	require.NoError(t, f.SubmitShipping(ShippingInfo{Name: "B", Address: "2 Elm", Phone: "1"}))
	assert.Equal(t, StateCollectingPayment, f.State())
	assert.Nil(t, f.Status().Payload)
}
