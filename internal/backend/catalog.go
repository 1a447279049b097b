package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"apparel-storefront/internal/domain"
)

// ProductQuery mirrors the filters of the product listing endpoint.
type ProductQuery struct {
	Category string
	MinPrice *domain.Money
	MaxPrice *domain.Money
	InStock  *bool
	Sort     string
	Search   string
	Limit    int
	Skip     int
}

// Values encodes the query. It doubles as a stable cache key.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.Category != "" {
		v.Set("category", q.Category)
	}
	if q.MinPrice != nil {
		v.Set("min_price", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("max_price", q.MaxPrice.String())
	}
	if q.InStock != nil {
		v.Set("in_stock", strconv.FormatBool(*q.InStock))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Skip > 0 {
		v.Set("skip", strconv.Itoa(q.Skip))
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (*domain.ProductPage, error) {
	var out struct {
		Products []wireProduct `json:"products"`
		Total    int           `json:"total"`
	}
	if err := c.do(ctx, http.MethodGet, "/products", "", q.Values(), nil, &out); err != nil {
		return nil, err
	}
	page := &domain.ProductPage{Products: make([]domain.Product, 0, len(out.Products)), Total: out.Total}
	for _, p := range out.Products {
		page.Products = append(page.Products, p.toDomain())
	}
	return page, nil
}

func (c *Client) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var out wireProduct
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(slug), "", nil, nil, &out); err != nil {
		return nil, notFound(err)
	}
	p := out.toDomain()
	return &p, nil
}

func (c *Client) ListCategories(ctx context.Context) ([]domain.Category, error) {
	var out []wireCategory
	if err := c.do(ctx, http.MethodGet, "/categories", "", nil, nil, &out); err != nil {
		return nil, err
	}
	cats := make([]domain.Category, 0, len(out))
	for _, cat := range out {
		cats = append(cats, cat.toDomain())
	}
	return cats, nil
}

func (c *Client) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	var out wireCategory
	if err := c.do(ctx, http.MethodGet, "/categories/"+url.PathEscape(slug), "", nil, nil, &out); err != nil {
		return nil, notFound(err)
	}
	cat := out.toDomain()
	return &cat, nil
}

func (c *Client) ProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	var out []wireReview
	if err := c.do(ctx, http.MethodGet, "/reviews/product/"+url.PathEscape(productID), "", nil, nil, &out); err != nil {
		return nil, notFound(err)
	}
	reviews := make([]domain.Review, 0, len(out))
	for _, r := range out {
		reviews = append(reviews, r.toDomain())
	}
	return reviews, nil
}

// ActivePromo returns domain.ErrNotFound when no promo is running.
func (c *Client) ActivePromo(ctx context.Context) (*domain.Promo, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/promo/active", "", nil, nil, &raw); err != nil {
		return nil, notFound(err)
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, domain.ErrNotFound
	}
	var promo domain.Promo
	if err := json.Unmarshal(raw, &promo); err != nil {
		return nil, err
	}
	if promo.Code == "" {
		return nil, domain.ErrNotFound
	}
	return &promo, nil
}

func (c *Client) HeroSlides(ctx context.Context) ([]domain.HeroSlide, error) {
	var out []domain.HeroSlide
	if err := c.do(ctx, http.MethodGet, "/hero-slides", "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MarqueeTexts(ctx context.Context) ([]domain.MarqueeText, error) {
	var out []domain.MarqueeText
	if err := c.do(ctx, http.MethodGet, "/marquee", "", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// notFound maps a collaborator 404 to domain.ErrNotFound.
func notFound(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.NotFound() {
		return domain.ErrNotFound
	}
	return err
}
