package domain

import "time"

// ShippingAddress stores address fields collected at checkout.
type ShippingAddress struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city" validate:"required"`
	ZipCode   string `json:"zip_code" validate:"required"`
	Phone     string `json:"phone,omitempty"`
}

// OrderDraft is what the storefront submits to the order collaborator.
// Prices and quantities are carried verbatim from the cart.
type OrderDraft struct {
	Email           string          `json:"email"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Items           []CartLineItem  `json:"items"`
}

// Order is an order accepted by the order collaborator.
type Order struct {
	ID              string          `json:"id"`
	UserID          string          `json:"user_id,omitempty"`
	Email           string          `json:"email"`
	ShippingAddress ShippingAddress `json:"shipping_address"`
	Items           []CartLineItem  `json:"items"`
	Subtotal        Money           `json:"subtotal_cents"`
	ShippingCost    Money           `json:"shipping_cost_cents"`
	Total           Money           `json:"total_cents"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// PendingCheckout remembers what was handed off to the payment page so the
// cart can be restored if the payment session expires.
type PendingCheckout struct {
	OrderID   string         `json:"order_id"`
	SessionID string         `json:"session_id"`
	Items     []CartLineItem `json:"items"`
	CreatedAt time.Time      `json:"created_at"`
}
