package domain

import "time"

type Product struct {
	ID            string    `json:"id"`
	Slug          string    `json:"slug"`
	Name          string    `json:"name"`
	Price         Money     `json:"price_cents"`
	OriginalPrice Money     `json:"original_price_cents"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description,omitempty"`
	Images        []string  `json:"images"`
	CategoryID    string    `json:"category_id"`
	Sizes         []string  `json:"sizes"`
	Colors        []string  `json:"colors"`
	InStock       bool      `json:"in_stock"`
	CreatedAt     time.Time `json:"created_at,omitempty"`
}

// PrimaryImage returns the first image, used as the cart thumbnail.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// ProductPage is one page of a filtered product listing.
type ProductPage struct {
	Products []Product `json:"products"`
	Total    int       `json:"total"`
}

type Review struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	UserName         string    `json:"user_name"`
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Comment          string    `json:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
}

type Promo struct {
	Code     string `json:"code"`
	Discount string `json:"discount"`
	Message  string `json:"message"`
}

type HeroSlide struct {
	ID    string `json:"id"`
	Image string `json:"image"`
	Link  string `json:"link"`
	Order int    `json:"order"`
}

type MarqueeText struct {
	Text string `json:"text"`
}
