package backend

import (
	"bytes"
	"strings"
	"time"

	"apparel-storefront/internal/domain"
)

// wireTime accepts RFC 3339 as well as the zone-less timestamps the commerce
// API emits for naive UTC datetimes.
type wireTime struct {
	time.Time
}

var wireTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	s := string(bytes.Trim(b, `"`))
	if s == "" || s == "null" {
		return nil
	}
	var lastErr error
	for _, layout := range wireTimeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
		lastErr = err
	}
	return lastErr
}

type wireToken struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type wireUser struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	IsAdmin bool   `json:"is_admin"`
}

func (w wireUser) toDomain() domain.User {
	return domain.User{ID: w.ID, Email: w.Email, Name: w.Name, IsAdmin: w.IsAdmin}
}

type wireProduct struct {
	ID            string   `json:"id"`
	Slug          string   `json:"slug"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice float64  `json:"original_price"`
	Currency      string   `json:"currency"`
	Description   string   `json:"description"`
	Images        []string `json:"images"`
	CategoryID    string   `json:"category_id"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	InStock       *bool    `json:"in_stock"`
	CreatedAt     wireTime `json:"created_at"`
}

func (w wireProduct) toDomain() domain.Product {
	currency := strings.ToUpper(strings.TrimSpace(w.Currency))
	if currency == "" {
		currency = domain.Currency
	}
	inStock := true
	if w.InStock != nil {
		inStock = *w.InStock
	}
	return domain.Product{
		ID:            w.ID,
		Slug:          w.Slug,
		Name:          w.Name,
		Price:         domain.FromDollars(w.Price),
		OriginalPrice: domain.FromDollars(w.OriginalPrice),
		Currency:      currency,
		Description:   w.Description,
		Images:        nonNil(w.Images),
		CategoryID:    w.CategoryID,
		Sizes:         nonNil(w.Sizes),
		Colors:        nonNil(w.Colors),
		InStock:       inStock,
		CreatedAt:     w.CreatedAt.Time,
	}
}

type wireCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Slug  string `json:"slug"`
	Image string `json:"image"`
}

func (w wireCategory) toDomain() domain.Category {
	return domain.Category{ID: w.ID, Name: w.Name, Slug: w.Slug, Image: w.Image}
}

type wireAddress struct {
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Address   string  `json:"address"`
	Apartment *string `json:"apartment"`
	City      string  `json:"city"`
	ZipCode   string  `json:"zip_code"`
	Phone     *string `json:"phone"`
}

func toWireAddress(a domain.ShippingAddress) wireAddress {
	return wireAddress{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Address:   a.Address,
		Apartment: optional(a.Apartment),
		City:      a.City,
		ZipCode:   a.ZipCode,
		Phone:     optional(a.Phone),
	}
}

func (w wireAddress) toDomain() domain.ShippingAddress {
	return domain.ShippingAddress{
		FirstName: w.FirstName,
		LastName:  w.LastName,
		Address:   w.Address,
		Apartment: deref(w.Apartment),
		City:      w.City,
		ZipCode:   w.ZipCode,
		Phone:     deref(w.Phone),
	}
}

type wireOrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	Image     string  `json:"image"`
}

func toWireItem(l domain.CartLineItem) wireOrderItem {
	return wireOrderItem{
		ProductID: l.ProductID,
		Name:      l.Name,
		Price:     l.UnitPrice.Dollars(),
		Size:      l.Size,
		Color:     l.Color,
		Quantity:  l.Quantity,
		Image:     l.Image,
	}
}

func (w wireOrderItem) toDomain() domain.CartLineItem {
	return domain.CartLineItem{
		ProductID: w.ProductID,
		Name:      w.Name,
		UnitPrice: domain.FromDollars(w.Price),
		Image:     w.Image,
		Size:      w.Size,
		Color:     w.Color,
		Quantity:  w.Quantity,
	}
}

type wireOrderCreate struct {
	Email           string          `json:"email"`
	ShippingAddress wireAddress     `json:"shipping_address"`
	Items           []wireOrderItem `json:"items"`
}

type wireOrder struct {
	ID              string          `json:"id"`
	UserID          *string         `json:"user_id"`
	Email           string          `json:"email"`
	ShippingAddress wireAddress     `json:"shipping_address"`
	Items           []wireOrderItem `json:"items"`
	Subtotal        float64         `json:"subtotal"`
	ShippingCost    float64         `json:"shipping_cost"`
	Total           float64         `json:"total"`
	Status          string          `json:"status"`
	CreatedAt       wireTime        `json:"created_at"`
}

func (w wireOrder) toDomain() domain.Order {
	items := make([]domain.CartLineItem, 0, len(w.Items))
	for _, it := range w.Items {
		items = append(items, it.toDomain())
	}
	return domain.Order{
		ID:              w.ID,
		UserID:          deref(w.UserID),
		Email:           w.Email,
		ShippingAddress: w.ShippingAddress.toDomain(),
		Items:           items,
		Subtotal:        domain.FromDollars(w.Subtotal),
		ShippingCost:    domain.FromDollars(w.ShippingCost),
		Total:           domain.FromDollars(w.Total),
		Status:          w.Status,
		CreatedAt:       w.CreatedAt.Time,
	}
}

type wireSessionCreate struct {
	OrderID   string `json:"order_id"`
	OriginURL string `json:"origin_url"`
}

type wireSession struct {
	SessionID   string `json:"session_id"`
	CheckoutURL string `json:"checkout_url"`
	URL         string `json:"url"`
}

type wireReview struct {
	ID               string   `json:"id"`
	ProductID        string   `json:"product_id"`
	UserName         string   `json:"user_name"`
	Rating           int      `json:"rating"`
	Title            string   `json:"title"`
	Comment          string   `json:"comment"`
	VerifiedPurchase bool     `json:"verified_purchase"`
	CreatedAt        wireTime `json:"created_at"`
}

func (w wireReview) toDomain() domain.Review {
	return domain.Review{
		ID:               w.ID,
		ProductID:        w.ProductID,
		UserName:         w.UserName,
		Rating:           w.Rating,
		Title:            w.Title,
		Comment:          w.Comment,
		VerifiedPurchase: w.VerifiedPurchase,
		CreatedAt:        w.CreatedAt.Time,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func optional(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
