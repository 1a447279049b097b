package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"apparel-storefront/internal/domain"
)

// CreatePaymentSession asks the payment collaborator for a hosted payment
// page for orderID. origin is used to build the return URLs.
func (c *Client) CreatePaymentSession(ctx context.Context, token, orderID, origin string) (*domain.PaymentSession, error) {
	var out wireSession
	err := c.do(ctx, http.MethodPost, "/checkout/create", token, nil, wireSessionCreate{
		OrderID:   orderID,
		OriginURL: origin,
	}, &out)
	if err != nil {
		return nil, err
	}
	checkoutURL := out.CheckoutURL
	if checkoutURL == "" {
		checkoutURL = out.URL
	}
	if out.SessionID == "" || checkoutURL == "" {
		return nil, errors.New("payment session response is incomplete")
	}
	return &domain.PaymentSession{SessionID: out.SessionID, CheckoutURL: checkoutURL}, nil
}

// PaymentStatus reads the current state of a payment session.
func (c *Client) PaymentStatus(ctx context.Context, sessionID string) (*domain.PaymentStatus, error) {
	var out domain.PaymentStatus
	path := "/checkout/status/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, nil, &out); err != nil {
		return nil, err
	}
	out.Status = strings.ToLower(out.Status)
	out.PaymentStatus = strings.ToLower(out.PaymentStatus)
	return &out, nil
}
