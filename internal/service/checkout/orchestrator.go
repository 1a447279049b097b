package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/repository/kv"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

// pendingKey holds the PendingCheckout for the last hand-off.
const pendingKey = "checkout_pending"

// cartSaveRetries is how many more times a failed cart write after hand-off
// is retried.
const cartSaveRetries = 2

// State of the current checkout attempt. The attempt ends at
// AwaitingRedirect; the payment-status poller picks up from there.
type State string

const (
	StateIdle             State = "idle"
	StateSubmitting       State = "submitting"
	StateAwaitingRedirect State = "awaiting_redirect"
)

// Cart is the part of the cart store checkout needs.
type Cart interface {
	Items() []domain.CartLineItem
	Total() domain.Money
	Empty() bool
	Subtract(ctx context.Context, items []domain.CartLineItem) error
	Save(ctx context.Context) error
	Merge(ctx context.Context, items []domain.CartLineItem) error
}

// Identity supplies the bearer token, "" for guests.
type Identity interface {
	Token() string
}

// Collaborator creates orders and payment sessions and reports on them.
type Collaborator interface {
	CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (*domain.Order, error)
	CreatePaymentSession(ctx context.Context, token, orderID, origin string) (*domain.PaymentSession, error)
	PaymentStatus(ctx context.Context, sessionID string) (*domain.PaymentStatus, error)
}

// SubmitInput is what the shopper enters on the checkout form.
type SubmitInput struct {
	Email   string
	Address domain.ShippingAddress
	// Origin is the storefront origin the payment page returns to.
	Origin string
}

// Handoff is the result of a successful submit: send the shopper to
// CheckoutURL. CartSaved is false when the submitted lines were taken out of
// the cart but the stored copy could not be updated, so they may reappear
// after a reload.
type Handoff struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	Quote       Quote  `json:"quote"`
	CartSaved   bool   `json:"cart_saved"`
}

// Orchestrator runs one visitor's checkout attempts.
type Orchestrator struct {
	mu      sync.Mutex
	state   State
	attempt uint64

	cart     Cart
	identity Identity
	client   Collaborator
	kv       kv.Store
	validate *validator.Validate
	logger   logrus.FieldLogger
	now      func() time.Time
}

func New(cart Cart, identity Identity, client Collaborator, store kv.Store, logger logrus.FieldLogger) *Orchestrator {
	return &Orchestrator{
		state:    StateIdle,
		cart:     cart,
		identity: identity,
		client:   client,
		kv:       store,
		validate: newValidator(),
		logger:   logger.WithField("component", "checkout"),
		now:      time.Now,
	}
}

// State returns the current attempt state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Begin checks that checkout can start and returns the quote to display.
func (o *Orchestrator) Begin() (Quote, error) {
	if o.cart.Empty() {
		return Quote{}, ErrEmptyCart
	}
	return o.Quote(), nil
}

// Quote prices the cart as it is now.
func (o *Orchestrator) Quote() Quote {
	return QuoteFor(o.cart.Total())
}

// Submit places an order for the cart and opens a payment session for it.
// The submitted lines leave the cart only once the payment session exists;
// anything added to the cart meanwhile stays. Lines are sent exactly as they
// sit in the cart; the order service owns stock and price checks.
func (o *Orchestrator) Submit(ctx context.Context, in SubmitInput) (*Handoff, error) {
	if o.cart.Empty() {
		return nil, ErrEmptyCart
	}
	c := contact{Email: strings.TrimSpace(in.Email), Address: normalizeAddress(in.Address)}
	if err := validateContact(o.validate, c); err != nil {
		return nil, err
	}

	id, err := o.start()
	if err != nil {
		return nil, err
	}
	items := o.cart.Items()
	if len(items) == 0 {
		o.finish(id, StateIdle)
		return nil, ErrEmptyCart
	}
	quote := QuoteFor(sumItems(items))
	token := o.identity.Token()
	log := o.logger.WithField("attempt", id)

	order, err := o.client.CreateOrder(ctx, token, domain.OrderDraft{
		Email:           c.Email,
		ShippingAddress: c.Address,
		Items:           items,
	})
	if err != nil {
		o.finish(id, StateIdle)
		log.WithError(err).Warn("order rejected")
		return nil, stageError(StageOrder, "Failed to place order", err)
	}
	log = log.WithField("order_id", order.ID)
	if !o.active(id) {
		log.Info("attempt superseded after order creation")
		return nil, ErrAttemptSuperseded
	}

	session, err := o.client.CreatePaymentSession(ctx, token, order.ID, in.Origin)
	if err != nil {
		o.finish(id, StateIdle)
		log.WithError(err).Warn("payment session failed")
		return nil, stageError(StagePayment, "Failed to start payment", err)
	}
	log = log.WithField("session_id", session.SessionID)

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt != id {
		log.Info("attempt superseded after payment session")
		return nil, ErrAttemptSuperseded
	}
	o.savePending(ctx, domain.PendingCheckout{
		OrderID:   order.ID,
		SessionID: session.SessionID,
		Items:     items,
		CreatedAt: o.now().UTC(),
	}, log)
	saved := o.takeSubmitted(ctx, items, log)
	o.state = StateAwaitingRedirect
	log.Info("handing off to payment page")

	return &Handoff{
		OrderID:     order.ID,
		SessionID:   session.SessionID,
		CheckoutURL: session.CheckoutURL,
		Quote:       quote,
		CartSaved:   saved,
	}, nil
}

// takeSubmitted removes the submitted lines from the cart and reports
// whether the change reached storage.
func (o *Orchestrator) takeSubmitted(ctx context.Context, items []domain.CartLineItem, log logrus.FieldLogger) bool {
	err := o.cart.Subtract(ctx, items)
	for i := 0; err != nil && i < cartSaveRetries; i++ {
		log.WithError(err).WithField("retry", i+1).Warn("save cart after hand-off failed")
		err = o.cart.Save(ctx)
	}
	if err != nil {
		log.WithError(err).Error("stored cart still holds submitted lines")
		return false
	}
	return true
}

// Abandon drops the in-flight attempt. A response that arrives for it later
// changes nothing.
func (o *Orchestrator) Abandon() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempt++
	o.state = StateIdle
}

// Restore puts the items of an expired hand-off back in the cart. It reports
// false when sessionID does not match the last hand-off, and
// ErrSessionNotExpired while the payment session is open or once it is paid.
// A paid session settles the hand-off.
func (o *Orchestrator) Restore(ctx context.Context, sessionID string) (bool, error) {
	pending, ok, err := o.loadPending(ctx, sessionID)
	if err != nil || !ok {
		return false, err
	}
	status, err := o.client.PaymentStatus(ctx, sessionID)
	if err != nil {
		return false, fmt.Errorf("check payment session: %w", err)
	}
	if status.Paid() {
		if err := o.Settle(ctx, sessionID); err != nil {
			return false, err
		}
		return false, ErrSessionNotExpired
	}
	if !status.Expired() {
		return false, ErrSessionNotExpired
	}
	if err := o.cart.Merge(ctx, pending.Items); err != nil {
		return false, fmt.Errorf("restore cart: %w", err)
	}
	if err := o.kv.Remove(ctx, pendingKey); err != nil {
		return true, fmt.Errorf("remove pending checkout: %w", err)
	}
	o.mu.Lock()
	if o.state == StateAwaitingRedirect {
		o.state = StateIdle
	}
	o.mu.Unlock()
	o.logger.WithFields(logrus.Fields{"order_id": pending.OrderID, "session_id": sessionID}).Info("cart restored from expired checkout")
	return true, nil
}

// Settle forgets the hand-off once its payment is confirmed.
func (o *Orchestrator) Settle(ctx context.Context, sessionID string) error {
	_, ok, err := o.loadPending(ctx, sessionID)
	if err != nil || !ok {
		return err
	}
	if err := o.kv.Remove(ctx, pendingKey); err != nil {
		return fmt.Errorf("remove pending checkout: %w", err)
	}
	o.mu.Lock()
	if o.state == StateAwaitingRedirect {
		o.state = StateIdle
	}
	o.mu.Unlock()
	return nil
}

// Pending returns the last hand-off, if one is outstanding.
func (o *Orchestrator) Pending(ctx context.Context) (*domain.PendingCheckout, error) {
	raw, err := o.kv.Get(ctx, pendingKey)
	if err != nil {
		return nil, err
	}
	var p domain.PendingCheckout
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode pending checkout: %w", err)
	}
	return &p, nil
}

func (o *Orchestrator) loadPending(ctx context.Context, sessionID string) (*domain.PendingCheckout, bool, error) {
	if sessionID == "" {
		return nil, false, nil
	}
	p, err := o.Pending(ctx)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if p.SessionID != sessionID {
		return nil, false, nil
	}
	return p, true, nil
}

func (o *Orchestrator) savePending(ctx context.Context, p domain.PendingCheckout, log logrus.FieldLogger) {
	payload, err := json.Marshal(p)
	if err == nil {
		err = o.kv.Set(ctx, pendingKey, string(payload))
	}
	if err != nil {
		log.WithError(err).Warn("record pending checkout failed")
	}
}

// start opens a new attempt. Idle and AwaitingRedirect may start one.
func (o *Orchestrator) start() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateSubmitting {
		return 0, ErrCheckoutInProgress
	}
	o.attempt++
	o.state = StateSubmitting
	return o.attempt, nil
}

func (o *Orchestrator) active(id uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempt == id
}

// finish moves attempt id to state unless it has been superseded.
func (o *Orchestrator) finish(id uint64, state State) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.attempt == id {
		o.state = state
	}
}

func sumItems(items []domain.CartLineItem) domain.Money {
	var total domain.Money
	for _, it := range items {
		total += it.LineTotal()
	}
	return total
}
