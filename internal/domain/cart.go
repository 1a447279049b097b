package domain

// CartLineItem is one product variant in the visitor's cart.
type CartLineItem struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price_cents"`
	Image     string `json:"image,omitempty"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// LineKey identifies a cart line: one line per product, size and color.
type LineKey struct {
	ProductID string
	Size      string
	Color     string
}

func (l CartLineItem) Key() LineKey {
	return LineKey{ProductID: l.ProductID, Size: l.Size, Color: l.Color}
}

// LineTotal is the unit price times quantity.
func (l CartLineItem) LineTotal() Money {
	return l.UnitPrice.Times(l.Quantity)
}
