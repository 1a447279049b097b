package httpserver

import (
	"context"
	"net/http"
	"time"

	"apparel-storefront/internal/repository/kv"
	"apparel-storefront/internal/telemetry"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Server wraps the HTTP server setup.
type Server struct {
	httpServer *http.Server
	logger     logrus.FieldLogger
}

// New builds a Server with all storefront routes.
func New(addr string, logger *logrus.Logger, deps Deps) (*Server, error) {
	handler, err := newHandler(logger, deps)
	if err != nil {
		return nil, err
	}

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Server{
		httpServer: httpSrv,
		logger:     logger,
	}, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// newHandler wraps the router in server-side tracing. Health checks and the
// status stream are left untraced; the stream needs the raw writer.
func newHandler(logger *logrus.Logger, deps Deps) (http.Handler, error) {
	router, err := buildRouter(logger, deps)
	if err != nil {
		return nil, err
	}
	return otelhttp.NewHandler(router, "storefront",
		otelhttp.WithFilter(func(r *http.Request) bool {
			switch r.URL.Path {
			case "/healthz", "/readyz", "/api/checkout/status/watch":
				return false
			}
			return true
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	), nil
}

// traceHeader echoes the request's trace id so a shopper-reported failure
// can be matched to the commerce API calls it made.
func traceHeader(c *gin.Context) {
	if id := telemetry.TraceID(c.Request.Context()); id != "" {
		c.Header("X-Trace-Id", id)
	}
	c.Next()
}

func healthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// readyHandler pings the key-value backend. Backends without a Ping are
// always ready.
func readyHandler(store kv.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not configured"})
			return
		}
		pinger, ok := store.(kv.Pinger)
		if !ok {
			c.JSON(http.StatusOK, gin.H{"status": "ready"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := pinger.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "storage not reachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
