package checkout

import (
	"errors"
	"fmt"

	"apparel-storefront/internal/backend"
)

var (
	// ErrEmptyCart means there is nothing to check out.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrCheckoutInProgress means another submit for this visitor is in flight.
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	// ErrAttemptSuperseded means the attempt was abandoned or replaced
	// before it finished. The cart is left as it was.
	ErrAttemptSuperseded = errors.New("checkout attempt superseded")
	// ErrSessionNotExpired means a hand-off cannot be restored because its
	// payment session is still open or already paid.
	ErrSessionNotExpired = errors.New("payment session has not expired")
)

// Stages of a checkout attempt that talk to collaborators.
const (
	StageOrder   = "order"
	StagePayment = "payment"
)

// ValidationError is a problem with the shopper's input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// StageError is a collaborator failure during one stage of a checkout
// attempt. Message is ready for the shopper.
type StageError struct {
	Stage   string
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("checkout %s stage: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage, fallback string, err error) *StageError {
	msg := backend.Message(err)
	if msg == "" {
		msg = fallback
	}
	return &StageError{Stage: stage, Message: msg, Err: err}
}

// UserMessage maps an error from Begin, Submit or Restore to text for the
// shopper.
func UserMessage(err error) string {
	var (
		vErr     *ValidationError
		stageErr *StageError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &vErr):
		return vErr.Message
	case errors.As(err, &stageErr):
		return stageErr.Message
	case errors.Is(err, ErrEmptyCart):
		return "Your cart is empty"
	case errors.Is(err, ErrCheckoutInProgress):
		return "Your order is already being placed"
	case errors.Is(err, ErrAttemptSuperseded):
		return "This checkout was cancelled"
	case errors.Is(err, ErrSessionNotExpired):
		return "This payment is still open or already complete"
	default:
		return "Failed to place order"
	}
}
