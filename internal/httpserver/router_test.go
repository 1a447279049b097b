package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"apparel-storefront/internal/backend"
	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/logging"
	"apparel-storefront/internal/repository/kv"
	"apparel-storefront/internal/service/catalog"
	"apparel-storefront/internal/service/checkout"
	"apparel-storefront/internal/service/visitor"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// stubBackend stands in for the commerce API.
type stubBackend struct {
	products map[string]domain.Product
	users    map[string]domain.User
	loginErr error
	orderErr error
	status   domain.PaymentStatus
	orders   []domain.Order
}

func newStubBackend() *stubBackend {
	return &stubBackend{
		products: map[string]domain.Product{
			"boxy-tee": {ID: "p1", Slug: "boxy-tee", Name: "Boxy Tee", Price: 698, InStock: true,
				Sizes: []string{"S", "M"}, Colors: []string{"Black"}, Images: []string{"tee.jpg"}},
			"sold-out": {ID: "p2", Slug: "sold-out", Name: "Sold Out", Price: 1000},
		},
		users:  map[string]domain.User{"tok": {ID: "u1", Email: "ada@example.com", Name: "Ada"}},
		status: domain.PaymentStatus{Status: domain.SessionComplete, PaymentStatus: domain.PaymentPaid, AmountTotal: 2693, Currency: "usd"},
	}
}

func (s *stubBackend) Login(ctx context.Context, email, password string) (string, error) {
	if s.loginErr != nil {
		return "", s.loginErr
	}
	return "tok", nil
}

func (s *stubBackend) Register(ctx context.Context, email, password, name string) (string, error) {
	return "tok", nil
}

func (s *stubBackend) CurrentUser(ctx context.Context, token string) (*domain.User, error) {
	u, ok := s.users[token]
	if !ok {
		return nil, &backend.APIError{Status: http.StatusUnauthorized}
	}
	return &u, nil
}

func (s *stubBackend) CreateOrder(ctx context.Context, token string, draft domain.OrderDraft) (*domain.Order, error) {
	if s.orderErr != nil {
		return nil, s.orderErr
	}
	return &domain.Order{ID: "ord-1"}, nil
}

func (s *stubBackend) CreatePaymentSession(ctx context.Context, token, orderID, origin string) (*domain.PaymentSession, error) {
	return &domain.PaymentSession{SessionID: "cs_1", CheckoutURL: origin + "/pay/cs_1"}, nil
}

func (s *stubBackend) PaymentStatus(ctx context.Context, sessionID string) (*domain.PaymentStatus, error) {
	st := s.status
	return &st, nil
}

func (s *stubBackend) ListOrders(ctx context.Context, token string) ([]domain.Order, error) {
	return s.orders, nil
}

func (s *stubBackend) ListProducts(ctx context.Context, q backend.ProductQuery) (*domain.ProductPage, error) {
	return &domain.ProductPage{}, nil
}

func (s *stubBackend) ProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	p, ok := s.products[slug]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (s *stubBackend) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return nil, nil
}

func (s *stubBackend) CategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	return nil, domain.ErrNotFound
}

func (s *stubBackend) ProductReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	return nil, nil
}

func (s *stubBackend) ActivePromo(ctx context.Context) (*domain.Promo, error) {
	return nil, domain.ErrNotFound
}

func (s *stubBackend) HeroSlides(ctx context.Context) ([]domain.HeroSlide, error) {
	return nil, nil
}

func (s *stubBackend) MarqueeTexts(ctx context.Context) ([]domain.MarqueeText, error) {
	return []domain.MarqueeText{{Text: "Free shipping over $39"}}, nil
}

func testDeps(b *stubBackend) Deps {
	store := kv.NewMemory()
	return Deps{
		Visitors:     visitor.NewRegistry(store, b, logging.Discard()),
		Catalog:      catalog.New(b, logging.Discard()),
		Orders:       b,
		Store:        store,
		PublicOrigin: "https://shop.example.com",
	}
}

func newTestRouter(t *testing.T, b *stubBackend) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router, err := buildRouter(logging.Discard(), testDeps(b))
	if err != nil {
		t.Fatalf("build router: %v", err)
	}
	return router
}

func doRequest(router http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func visitorCookieFrom(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookie {
			return c
		}
	}
	t.Fatalf("no %s cookie in response", visitorCookie)
	return nil
}

func TestBuildRouter_RequiresDeps(t *testing.T) {
	if _, err := buildRouter(logging.Discard(), Deps{}); err == nil {
		t.Fatalf("expected error for missing deps")
	}
}

func TestVisitorMiddleware_IssuesCookie(t *testing.T) {
	router := newTestRouter(t, newStubBackend())

	rec := doRequest(router, http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	cookie := visitorCookieFrom(t, rec)
	if _, err := uuid.Parse(cookie.Value); err != nil {
		t.Fatalf("visitor id is not a uuid: %q", cookie.Value)
	}
	if !cookie.HttpOnly {
		t.Fatalf("visitor cookie should be HttpOnly")
	}
}

func TestVisitorMiddleware_ReplacesMalformedCookie(t *testing.T) {
	router := newTestRouter(t, newStubBackend())

	rec := doRequest(router, http.MethodGet, "/api/cart", "", &http.Cookie{Name: visitorCookie, Value: "../../etc"})
	if got := visitorCookieFrom(t, rec).Value; got == "../../etc" {
		t.Fatalf("malformed id should be replaced")
	}
}

func TestVisitorMiddleware_KeepsStateAcrossRequests(t *testing.T) {
	router := newTestRouter(t, newStubBackend())

	rec := doRequest(router, http.MethodPost, "/api/cart/items", `{"slug":"boxy-tee","size":"M","quantity":2}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	cookie := visitorCookieFrom(t, rec)

	rec = doRequest(router, http.MethodGet, "/api/cart", "", cookie)
	if !strings.Contains(rec.Body.String(), `"count":2`) {
		t.Fatalf("cart not kept for visitor: %s", rec.Body.String())
	}

	rec = doRequest(router, http.MethodGet, "/api/cart", "")
	if !strings.Contains(rec.Body.String(), `"count":0`) {
		t.Fatalf("new visitor should have an empty cart: %s", rec.Body.String())
	}
}

type failingVisitors struct{}

func (failingVisitors) Get(ctx context.Context, id string) (*visitor.Visitor, error) {
	return nil, errors.New("boom")
}

func TestVisitorMiddleware_LoadFailure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	b := newStubBackend()
	router, err := buildRouter(logging.Discard(), Deps{
		Visitors: failingVisitors{},
		Catalog:  catalog.New(b, logging.Discard()),
		Orders:   b,
	})
	if err != nil {
		t.Fatalf("build router: %v", err)
	}

	rec := doRequest(router, http.MethodGet, "/api/cart", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}

	rec = doRequest(router, http.MethodGet, "/api/marquee", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("catalog routes should not need a visitor, got %d", rec.Code)
	}
}

func TestReadyHandler(t *testing.T) {
	router := newTestRouter(t, newStubBackend())
	if rec := doRequest(router, http.MethodGet, "/readyz", ""); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	gin.SetMode(gin.TestMode)
	bare := gin.New()
	bare.GET("/readyz", readyHandler(nil))
	if rec := doRequest(bare, http.MethodGet, "/readyz", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without storage, got %d", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{domain.ErrNotFound, http.StatusNotFound},
		{domain.ErrUnauthenticated, http.StatusUnauthorized},
		{checkout.ErrSessionNotExpired, http.StatusConflict},
		{catalog.ErrOutOfStock, http.StatusBadRequest},
		{&backend.APIError{Status: http.StatusUnauthorized}, http.StatusUnauthorized},
		{&backend.APIError{Status: http.StatusBadRequest, Message: "bad"}, http.StatusUnprocessableEntity},
		{&backend.APIError{Status: http.StatusInternalServerError}, http.StatusBadGateway},
		{backend.ErrUnavailable, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
