package domain

import "strings"

const (
	SessionOpen     = "open"
	SessionComplete = "complete"
	SessionExpired  = "expired"

	PaymentUnpaid = "unpaid"
	PaymentPaid   = "paid"
)

// PaymentSession is a hosted payment page created for one order.
type PaymentSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentStatus is the payment collaborator's view of a session.
// AmountTotal is in minor units.
type PaymentStatus struct {
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
}

func (s PaymentStatus) Paid() bool {
	return strings.EqualFold(s.PaymentStatus, PaymentPaid)
}

func (s PaymentStatus) Expired() bool {
	return strings.EqualFold(s.Status, SessionExpired)
}
