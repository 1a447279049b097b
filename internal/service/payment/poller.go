package payment

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"apparel-storefront/internal/domain"
	"github.com/sirupsen/logrus"
)

// ErrNotPending is returned by Recheck outside the Pending state.
var ErrNotPending = errors.New("payment is not pending")

// State of the payment return view.
type State string

const (
	StateLoading State = "loading"
	StateSuccess State = "success"
	StatePending State = "pending"
	StateExpired State = "expired"
	StateError   State = "error"
)

// Terminal reports whether the state ends polling for good.
func (s State) Terminal() bool {
	return s == StateSuccess || s == StateExpired || s == StateError
}

// Action is a recovery or follow-up the shopper can take from a state.
type Action string

const (
	ActionViewOrders       Action = "view_orders"
	ActionContinueShopping Action = "continue_shopping"
	ActionCheckAgain       Action = "check_again"
	ActionReturnToCheckout Action = "return_to_checkout"
	ActionReturnHome       Action = "return_home"
)

// Result is what the return view shows. AmountPaid is amount_total/100
// with two decimals and is only set on success.
type Result struct {
	State      State    `json:"state"`
	SessionID  string   `json:"session_id,omitempty"`
	Title      string   `json:"title"`
	Message    string   `json:"message"`
	AmountPaid string   `json:"amount_paid,omitempty"`
	Currency   string   `json:"currency,omitempty"`
	Actions    []Action `json:"actions"`
}

// StatusSource reads a payment session's status.
type StatusSource interface {
	PaymentStatus(ctx context.Context, sessionID string) (*domain.PaymentStatus, error)
}

// Settler forgets a hand-off once its payment is confirmed.
type Settler interface {
	Settle(ctx context.Context, sessionID string) error
}

// Poller reconciles a payment session after the shopper returns from the
// payment page. It polls once per Check; nothing retries on its own except
// Watch.
type Poller struct {
	mu      sync.Mutex
	current Result

	source  StatusSource
	settler Settler
	logger  logrus.FieldLogger
}

func New(source StatusSource, settler Settler, logger logrus.FieldLogger) *Poller {
	return &Poller{
		current: Result{State: StateLoading, Title: "Verifying payment...", Message: "Please wait while we confirm your payment."},
		source:  source,
		settler: settler,
		logger:  logger.WithField("component", "payment"),
	}
}

// Current returns the last result.
func (p *Poller) Current() Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

// Check queries sessionID once and records the outcome.
func (p *Poller) Check(ctx context.Context, sessionID string) Result {
	sessionID = strings.TrimSpace(sessionID)
	p.set(Result{State: StateLoading, SessionID: sessionID, Title: "Verifying payment...", Message: "Please wait while we confirm your payment."})

	if sessionID == "" {
		return p.set(errorResult(""))
	}
	log := p.logger.WithField("session_id", sessionID)

	status, err := p.source.PaymentStatus(ctx, sessionID)
	if err != nil {
		log.WithError(err).Warn("payment status lookup failed")
		return p.set(errorResult(sessionID))
	}

	res := classify(sessionID, status)
	if res.State == StateSuccess && p.settler != nil {
		if err := p.settler.Settle(ctx, sessionID); err != nil {
			log.WithError(err).Warn("settle pending checkout failed")
		}
	}
	log.WithField("state", res.State).Debug("payment status checked")
	return p.set(res)
}

// Recheck re-queries the current session. Only a Pending result can be
// rechecked.
func (p *Poller) Recheck(ctx context.Context) (Result, error) {
	cur := p.Current()
	if cur.State != StatePending {
		return cur, ErrNotPending
	}
	return p.Check(ctx, cur.SessionID), nil
}

// Backoff bounds Watch's re-polling.
type Backoff struct {
	Initial  time.Duration
	Max      time.Duration
	Attempts int
}

// Watch checks sessionID, then keeps re-checking with exponential backoff
// while the result is Pending. Every result is sent on the returned channel,
// which is closed when the state settles, attempts run out, or ctx ends.
func (p *Poller) Watch(ctx context.Context, sessionID string, b Backoff) <-chan Result {
	if b.Initial <= 0 {
		b.Initial = time.Second
	}
	if b.Max < b.Initial {
		b.Max = b.Initial
	}
	if b.Attempts < 1 {
		b.Attempts = 1
	}

	out := make(chan Result, 1)
	go func() {
		defer close(out)
		delay := b.Initial
		for attempt := 1; ; attempt++ {
			res := p.Check(ctx, sessionID)
			select {
			case out <- res:
			case <-ctx.Done():
				return
			}
			if res.State != StatePending || attempt >= b.Attempts {
				return
			}

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			delay *= 2
			if delay > b.Max {
				delay = b.Max
			}
		}
	}()
	return out
}

func (p *Poller) set(r Result) Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = r
	return r
}

func classify(sessionID string, s *domain.PaymentStatus) Result {
	switch {
	case s.Paid():
		return Result{
			State:      StateSuccess,
			SessionID:  sessionID,
			Title:      "Payment Successful!",
			Message:    "Thank you for your purchase. We'll send you a confirmation email with your order details shortly.",
			AmountPaid: domain.Money(s.AmountTotal).String(),
			Currency:   strings.ToUpper(s.Currency),
			Actions:    []Action{ActionViewOrders, ActionContinueShopping},
		}
	case s.Expired():
		return Result{
			State:     StateExpired,
			SessionID: sessionID,
			Title:     "Session Expired",
			Message:   "Your checkout session has expired. Please try again.",
			Actions:   []Action{ActionReturnToCheckout},
		}
	default:
		return Result{
			State:     StatePending,
			SessionID: sessionID,
			Title:     "Payment Processing",
			Message:   "Your payment is being processed. This may take a moment.",
			Actions:   []Action{ActionCheckAgain},
		}
	}
}

func errorResult(sessionID string) Result {
	return Result{
		State:     StateError,
		SessionID: sessionID,
		Title:     "Something went wrong",
		Message:   "We couldn't verify your payment. Please contact support if you believe this is an error.",
		Actions:   []Action{ActionReturnHome, ActionReturnToCheckout},
	}
}
