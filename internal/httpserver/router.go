package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/repository/kv"
	"apparel-storefront/internal/service/payment"
	"apparel-storefront/internal/service/visitor"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// VisitorSource hands out a visitor's stores by id.
type VisitorSource interface {
	Get(ctx context.Context, id string) (*visitor.Visitor, error)
}

// CatalogService reads products and merchandising content.
type CatalogService interface {
	Products(ctx context.Context, q backend.ProductQuery) (*domain.ProductPage, error)
	Product(ctx context.Context, slug string) (*domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
	Category(ctx context.Context, slug string) (*domain.Category, error)
	Reviews(ctx context.Context, slug string) ([]domain.Review, error)
	Promo(ctx context.Context) (*domain.Promo, error)
	HeroSlides(ctx context.Context) ([]domain.HeroSlide, error)
	Marquee(ctx context.Context) ([]domain.MarqueeText, error)
}

// OrderLister reads a signed-in shopper's order history.
type OrderLister interface {
	ListOrders(ctx context.Context, token string) ([]domain.Order, error)
}

// Deps groups what the router needs.
type Deps struct {
	Visitors VisitorSource
	Catalog  CatalogService
	Orders   OrderLister
	// Store is pinged by /readyz.
	Store kv.Store

	PublicOrigin   string
	AllowedOrigins []string
	CookieSecure   bool
	Watch          payment.Backoff
}

func (d Deps) validate() error {
	switch {
	case d.Visitors == nil:
		return errors.New("httpserver: visitor source is required")
	case d.Catalog == nil:
		return errors.New("httpserver: catalog service is required")
	case d.Orders == nil:
		return errors.New("httpserver: order lister is required")
	}
	return nil
}

// buildRouter wires routes for the storefront API.
func buildRouter(logger *logrus.Logger, deps Deps) (*gin.Engine, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery(), traceHeader)
	if len(deps.AllowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     deps.AllowedOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "traceparent", "tracestate", "baggage"},
			ExposeHeaders:    []string{"X-Trace-Id"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(deps.Store))

	api := router.Group("/api")

	catalogHandlers{svc: deps.Catalog}.register(api)

	shopper := api.Group("")
	shopper.Use(visitorMiddleware(deps.Visitors, deps.CookieSecure, logger))

	shopper.GET("/session", sessionHandler)
	shopper.POST("/session/login", loginHandler)
	shopper.POST("/session/register", registerHandler)
	shopper.POST("/session/logout", logoutHandler)

	carts := cartHandlers{catalog: deps.Catalog}
	shopper.GET("/cart", getCartHandler)
	shopper.POST("/cart/items", carts.add)
	shopper.PATCH("/cart/items", updateCartItemHandler)
	shopper.DELETE("/cart/items", removeCartItemHandler)
	shopper.DELETE("/cart", clearCartHandler)

	checkouts := checkoutHandlers{publicOrigin: deps.PublicOrigin, watch: deps.Watch}
	shopper.GET("/checkout", checkouts.begin)
	shopper.POST("/checkout", checkouts.submit)
	shopper.GET("/checkout/status", checkouts.status)
	shopper.POST("/checkout/status/recheck", checkouts.recheck)
	shopper.GET("/checkout/status/watch", checkouts.watchStatus)
	shopper.POST("/checkout/restore", checkouts.restore)

	shopper.GET("/orders", ordersHandler(deps.Orders))

	return router, nil
}
