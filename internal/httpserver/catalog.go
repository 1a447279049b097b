package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/domain"
	"github.com/gin-gonic/gin"
)

type catalogHandlers struct {
	svc CatalogService
}

func (h catalogHandlers) register(r gin.IRouter) {
	r.GET("/products", h.products)
	r.GET("/products/:slug", h.product)
	r.GET("/products/:slug/reviews", h.reviews)
	r.GET("/categories", h.categories)
	r.GET("/categories/:slug", h.category)
	r.GET("/promo/active", h.promo)
	r.GET("/hero-slides", h.heroSlides)
	r.GET("/marquee", h.marquee)
}

func (h catalogHandlers) products(c *gin.Context) {
	q, err := parseProductQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	page, err := h.svc.Products(c.Request.Context(), q)
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load products"))
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h catalogHandlers) product(c *gin.Context) {
	p, err := h.svc.Product(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load product"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h catalogHandlers) reviews(c *gin.Context) {
	reviews, err := h.svc.Reviews(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load reviews"))
		return
	}
	c.JSON(http.StatusOK, nonNil(reviews))
}

func (h catalogHandlers) categories(c *gin.Context) {
	cats, err := h.svc.Categories(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load categories"))
		return
	}
	c.JSON(http.StatusOK, nonNil(cats))
}

func (h catalogHandlers) category(c *gin.Context) {
	cat, err := h.svc.Category(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load category"))
		return
	}
	c.JSON(http.StatusOK, cat)
}

// promo answers null when no promotion is running.
func (h catalogHandlers) promo(c *gin.Context) {
	p, err := h.svc.Promo(c.Request.Context())
	if errors.Is(err, domain.ErrNotFound) {
		c.JSON(http.StatusOK, nil)
		return
	}
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load promotion"))
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h catalogHandlers) heroSlides(c *gin.Context) {
	slides, err := h.svc.HeroSlides(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load slides"))
		return
	}
	c.JSON(http.StatusOK, nonNil(slides))
}

func (h catalogHandlers) marquee(c *gin.Context) {
	texts, err := h.svc.Marquee(c.Request.Context())
	if err != nil {
		respondError(c, statusFor(err), messageFor(err, "failed to load marquee"))
		return
	}
	c.JSON(http.StatusOK, nonNil(texts))
}

// parseProductQuery reads listing filters. Prices arrive in dollars.
func parseProductQuery(c *gin.Context) (backend.ProductQuery, error) {
	q := backend.ProductQuery{
		Category: c.Query("category"),
		Sort:     c.Query("sort"),
		Search:   c.Query("search"),
	}
	var err error
	if q.MinPrice, err = parsePrice(c, "min_price"); err != nil {
		return q, err
	}
	if q.MaxPrice, err = parsePrice(c, "max_price"); err != nil {
		return q, err
	}
	if raw := c.Query("in_stock"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("invalid in_stock %q", raw)
		}
		q.InStock = &v
	}
	if q.Limit, err = parseInt(c, "limit"); err != nil {
		return q, err
	}
	if q.Skip, err = parseInt(c, "skip"); err != nil {
		return q, err
	}
	return q, nil
}

func parsePrice(c *gin.Context, name string) (*domain.Money, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, raw)
	}
	m := domain.FromDollars(v)
	return &m, nil
}

func parseInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
