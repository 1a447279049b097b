package checkout

import "apparel-storefront/internal/domain"

// Shipping policy. Must match the order service; its computed total is the
// one that gets charged.
const (
	FreeShippingThreshold domain.Money = 3900
	FlatShipping          domain.Money = 599
)

// Quote is the displayed price breakdown for a cart.
type Quote struct {
	Subtotal              domain.Money `json:"subtotal_cents"`
	Shipping              domain.Money `json:"shipping_cents"`
	Total                 domain.Money `json:"total_cents"`
	FreeShippingRemaining domain.Money `json:"free_shipping_remaining_cents"`
}

// QuoteFor prices a subtotal.
func QuoteFor(subtotal domain.Money) Quote {
	q := Quote{Subtotal: subtotal}
	if subtotal < FreeShippingThreshold {
		q.Shipping = FlatShipping
		q.FreeShippingRemaining = FreeShippingThreshold - subtotal
	}
	q.Total = q.Subtotal + q.Shipping
	return q
}
