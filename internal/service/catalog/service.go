package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/domain"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// Sort orders accepted by the product listing.
var sorts = []string{"recommended", "price-low", "price-high", "name-az", "name-za"}

var (
	// ErrOutOfStock means the product cannot be added to a cart.
	ErrOutOfStock = errors.New("product is out of stock")
	// ErrInvalidVariant means the size or color is not offered.
	ErrInvalidVariant = errors.New("size or color not available")
	// ErrInvalidQuery means a listing filter is malformed.
	ErrInvalidQuery = errors.New("invalid product query")
)

// Source is the catalog collaborator.
type Source interface {
	ListProducts(ctx context.Context, q backend.ProductQuery) (*domain.ProductPage, error)
	ProductBySlug(ctx context.Context, slug string) (*domain.Product, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ProductReviews(ctx context.Context, productID string) ([]domain.Review, error)
	ActivePromo(ctx context.Context) (*domain.Promo, error)
	HeroSlides(ctx context.Context) ([]domain.HeroSlide, error)
	MarqueeTexts(ctx context.Context) ([]domain.MarqueeText, error)
}

// Service reads the catalog. Identical fetches in flight at the same time
// share one upstream request, so results must be treated as read-only.
type Service struct {
	src    Source
	group  singleflight.Group
	logger logrus.FieldLogger
}

func New(src Source, logger logrus.FieldLogger) *Service {
	return &Service{src: src, logger: logger.WithField("component", "catalog")}
}

// NormalizeQuery applies listing defaults and rejects unknown sorts and
// inverted price ranges.
func NormalizeQuery(q backend.ProductQuery) (backend.ProductQuery, error) {
	q.Category = strings.TrimSpace(q.Category)
	q.Search = strings.TrimSpace(q.Search)
	if q.Sort == "" {
		q.Sort = sorts[0]
	}
	if !slices.Contains(sorts, q.Sort) {
		return q, fmt.Errorf("%w: unknown sort %q", ErrInvalidQuery, q.Sort)
	}
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		return q, fmt.Errorf("%w: min_price above max_price", ErrInvalidQuery)
	}
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultLimit
	case q.Limit > MaxLimit:
		q.Limit = MaxLimit
	}
	if q.Skip < 0 {
		q.Skip = 0
	}
	return q, nil
}

func (s *Service) Products(ctx context.Context, q backend.ProductQuery) (*domain.ProductPage, error) {
	q, err := NormalizeQuery(q)
	if err != nil {
		return nil, err
	}
	return coalesce(ctx, &s.group, s.logger, "products?"+q.Values().Encode(), func(ctx context.Context) (*domain.ProductPage, error) {
		return s.src.ListProducts(ctx, q)
	})
}

func (s *Service) Product(ctx context.Context, slug string) (*domain.Product, error) {
	return coalesce(ctx, &s.group, s.logger, "product/"+slug, func(ctx context.Context) (*domain.Product, error) {
		return s.src.ProductBySlug(ctx, slug)
	})
}

func (s *Service) Categories(ctx context.Context) ([]domain.Category, error) {
	return coalesce(ctx, &s.group, s.logger, "categories", s.src.ListCategories)
}

func (s *Service) Category(ctx context.Context, slug string) (*domain.Category, error) {
	return coalesce(ctx, &s.group, s.logger, "category/"+slug, func(ctx context.Context) (*domain.Category, error) {
		return s.src.CategoryBySlug(ctx, slug)
	})
}

// Reviews lists reviews for the product with the given slug, newest first.
func (s *Service) Reviews(ctx context.Context, slug string) ([]domain.Review, error) {
	p, err := s.Product(ctx, slug)
	if err != nil {
		return nil, err
	}
	reviews, err := coalesce(ctx, &s.group, s.logger, "reviews/"+p.ID, func(ctx context.Context) ([]domain.Review, error) {
		return s.src.ProductReviews(ctx, p.ID)
	})
	if err != nil {
		return nil, err
	}
	out := slices.Clone(reviews)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// Promo returns the active promotion; domain.ErrNotFound when none runs.
func (s *Service) Promo(ctx context.Context) (*domain.Promo, error) {
	return coalesce(ctx, &s.group, s.logger, "promo", s.src.ActivePromo)
}

// HeroSlides returns the home page slides in display order.
func (s *Service) HeroSlides(ctx context.Context) ([]domain.HeroSlide, error) {
	slides, err := coalesce(ctx, &s.group, s.logger, "hero-slides", s.src.HeroSlides)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(slides)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

func (s *Service) Marquee(ctx context.Context) ([]domain.MarqueeText, error) {
	return coalesce(ctx, &s.group, s.logger, "marquee", s.src.MarqueeTexts)
}

// ResolveVariant checks that a product variant can go in a cart and fills in
// blank size or color with the product's first option.
func ResolveVariant(p domain.Product, size, color string) (string, string, error) {
	if !p.InStock {
		return "", "", ErrOutOfStock
	}
	size, err := pickOption(p.Sizes, strings.TrimSpace(size), "size")
	if err != nil {
		return "", "", err
	}
	color, err = pickOption(p.Colors, strings.TrimSpace(color), "color")
	if err != nil {
		return "", "", err
	}
	return size, color, nil
}

func pickOption(options []string, chosen, kind string) (string, error) {
	if len(options) == 0 {
		return chosen, nil
	}
	if chosen == "" {
		return options[0], nil
	}
	for _, o := range options {
		if strings.EqualFold(o, chosen) {
			return o, nil
		}
	}
	return "", fmt.Errorf("%w: %s %q", ErrInvalidVariant, kind, chosen)
}

// coalesce runs fn once per key across concurrent callers. The shared call
// is detached from any one caller's cancellation; each caller still stops
// waiting when its own ctx ends.
func coalesce[T any](ctx context.Context, g *singleflight.Group, log logrus.FieldLogger, key string, fn func(context.Context) (T, error)) (T, error) {
	shared := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (interface{}, error) {
		v, err := fn(shared)
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			log.WithError(err).WithField("key", key).Warn("catalog fetch failed")
		}
		return v, err
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			var zero T
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}
