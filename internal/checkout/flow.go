package checkout

import (
	"sync"

	"storefront-service/internal/cart"
)

// State of a checkout flow
type State string

const (
	StateCollectingShipping State = "collecting_shipping"
	StateCollectingPayment  State = "collecting_payment"
	StateReviewingSummary   State = "reviewing_summary"
	StatePlacing            State = "placing"
	StatePlaced             State = "placed"
	StateFailed             State = "failed"
)

// IsTerminal reports whether no further transitions are possible
func (s State) IsTerminal() bool {
	return s == StatePlaced
}

func (s State) String() string {
	return string(s)
}

// Flow drives one checkout attempt through shipping, payment, review and
// placement. Only one placement may be in flight at a time.
type Flow struct {
	mu          sync.Mutex
	state       State
	shipping    ShippingInfo
	payment     PaymentSelection
	payload     Payload
	orderNumber string
	lastErr     string
}

// Status is a read-only view of a Flow
type Status struct {
	State       State            `json:"state"`
	Shipping    ShippingInfo     `json:"shipping"`
	Payment     PaymentSelection `json:"payment"`
	Payload     *Payload         `json:"summary,omitempty"`
	OrderNumber string           `json:"order_number,omitempty"`
	LastError   string           `json:"last_error,omitempty"`
}

// NewFlow starts at shipping collection
func NewFlow() *Flow {
	return &Flow{state: StateCollectingShipping}
}

// State returns the current state
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Status returns a copy of the flow's data
func (f *Flow) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()

	st := Status{
		State:       f.state,
		Shipping:    f.shipping,
		Payment:     f.payment,
		OrderNumber: f.orderNumber,
		LastError:   f.lastErr,
	}
	if !f.payload.IsZero() {
		p := f.payload
		st.Payload = &p
	}
	return st
}

// ValidateShipping checks shipping against the current state without
// advancing, so the caller can run a remote call before committing.
func (f *Flow) ValidateShipping(info ShippingInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.collectingLocked(); err != nil {
		return err
	}
	return info.Validate()
}

// SubmitShipping records the shipping form and moves to payment collection
func (f *Flow) SubmitShipping(info ShippingInfo) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.collectingLocked(); err != nil {
		return err
	}
	if err := info.Validate(); err != nil {
		return err
	}
	f.shipping = info
	f.payload = Payload{}
	f.state = StateCollectingPayment
	return nil
}

// ValidatePayment checks a payment selection against the current state
func (f *Flow) ValidatePayment(sel PaymentSelection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.paymentAllowedLocked(); err != nil {
		return err
	}
	return sel.Validate()
}

// SubmitPayment records the payment selection and moves to review
func (f *Flow) SubmitPayment(sel PaymentSelection) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.paymentAllowedLocked(); err != nil {
		return err
	}
	if err := sel.Validate(); err != nil {
		return err
	}
	f.payment = sel
	f.payload = Payload{}
	f.state = StateReviewingSummary
	return nil
}

// Review freezes snapshot into a payload for the summary screen
func (f *Flow) Review(snapshot cart.Snapshot) (Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateReviewingSummary, StateFailed:
	case StatePlacing:
		return Payload{}, ErrPlacementInFlight
	case StatePlaced:
		return Payload{}, ErrCheckoutClosed
	default:
		return Payload{}, ErrIllegalTransition
	}

	p, err := Build(f.shipping, f.payment, snapshot)
	if err != nil {
		return Payload{}, err
	}
	f.payload = p
	f.state = StateReviewingSummary
	return p, nil
}

// BeginPlacing enters the placing state and returns the payload to submit.
// While a placement is in flight every further call fails with
// ErrPlacementInFlight.
func (f *Flow) BeginPlacing() (Payload, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StatePlacing:
		return Payload{}, ErrPlacementInFlight
	case StatePlaced:
		return Payload{}, ErrCheckoutClosed
	case StateReviewingSummary, StateFailed:
	default:
		return Payload{}, ErrIllegalTransition
	}
	if f.payload.IsZero() {
		return Payload{}, ErrIllegalTransition
	}

	f.state = StatePlacing
	f.lastErr = ""
	return f.payload, nil
}

// Succeed resolves an in-flight placement with the order number
func (f *Flow) Succeed(orderNumber string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePlacing {
		return ErrIllegalTransition
	}
	f.state = StatePlaced
	f.orderNumber = orderNumber
	return nil
}

// Fail resolves an in-flight placement as failed; the shopper is returned to
// the summary with the same payload and may try again.
func (f *Flow) Fail(reason error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePlacing {
		return ErrIllegalTransition
	}
	f.state = StateFailed
	if reason != nil {
		f.lastErr = reason.Error()
	}
	return nil
}

// Reopen abandons an in-flight placement whose payload went stale. The flow
// returns to the summary without a payload, so Review must run again before
// the next BeginPlacing.
func (f *Flow) Reopen(reason error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.state != StatePlacing {
		return ErrIllegalTransition
	}
	f.state = StateReviewingSummary
	f.payload = Payload{}
	if reason != nil {
		f.lastErr = reason.Error()
	}
	return nil
}

// Back steps back one collection screen
func (f *Flow) Back() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch f.state {
	case StateCollectingPayment:
		f.state = StateCollectingShipping
	case StateReviewingSummary, StateFailed:
		f.state = StateCollectingPayment
		f.payload = Payload{}
	}
	return f.state
}

func (f *Flow) collectingLocked() error {
	switch f.state {
	case StateCollectingShipping, StateCollectingPayment, StateReviewingSummary, StateFailed:
		return nil
	case StatePlacing:
		return ErrPlacementInFlight
	default:
		return ErrCheckoutClosed
	}
}

func (f *Flow) paymentAllowedLocked() error {
	switch f.state {
	case StateCollectingPayment, StateReviewingSummary, StateFailed:
		return nil
	case StatePlacing:
		return ErrPlacementInFlight
	case StatePlaced:
		return ErrCheckoutClosed
	default:
		return ErrIllegalTransition
	}
}
