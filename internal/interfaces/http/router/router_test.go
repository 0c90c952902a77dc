package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubPinger struct{ err error }

func (p stubPinger) PingContext(context.Context) error { return p.err }

func TestRouterSetup(t *testing.T) {
	engine := gin.New()
	r := NewRouter(engine, WithAPIVersion("v2"))

	group := NewDomainGroup("test", "/test")
	group.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	group.Group("nested", "/nested").POST("/echo", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v2/test/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "pong", w.Body.String())

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v2/test/nested/echo", nil))
	assert.Equal(t, http.StatusAccepted, w.Code)

	assert.Equal(t, "test", group.Name())
	assert.Equal(t, "/test", group.Prefix())
}

func TestDomainGroup_Middleware(t *testing.T) {
	engine := gin.New()
	group := NewDomainGroup("guarded", "/guarded").
		Use(func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }).
		GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	NewRouter(engine).Register(group).Setup()

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/guarded/x", nil))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func fullHandlers() Handlers {
	return Handlers{
		Checkout:  handler.NewCheckoutHandler(nil),
		Orders:    handler.NewOrderHandler(nil),
		Payments:  handler.NewPaymentHandler(nil),
		Inventory: handler.NewInventoryHandler(nil),
		Returns:   handler.NewReturnHandler(nil),
		Health:    handler.NewHealthHandler(stubPinger{}, "test"),
	}
}

func TestNewEngine_RouteTable(t *testing.T) {
	engine, err := NewEngine(Config{ServiceName: "storefront-test"}, fullHandlers())
	require.NoError(t, err)

	registered := map[string]bool{}
	for _, r := range engine.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	expected := []string{
		"GET /health",
		"GET /api/v1/health",
		"POST /api/v1/cart/validate",
		"POST /api/v1/orders",
		"GET /api/v1/orders",
		"GET /api/v1/orders/:id",
		"POST /api/v1/orders/:id/pack",
		"POST /api/v1/orders/:id/ship",
		"POST /api/v1/orders/:id/complete",
		"POST /api/v1/orders/:id/cancel",
		"POST /api/v1/orders/:id/refund",
		"POST /api/v1/orders/:id/payment/reserve",
		"POST /api/v1/orders/:id/payment/resolve",
		"GET /api/v1/orders/:id/returns",
		"GET /api/v1/tracking/:code",
		"POST /api/v1/inventory/availability",
		"GET /api/v1/inventory/variants/:id/movements",
		"POST /api/v1/returns",
		"POST /api/v1/returns/evidence-upload-url",
		"GET /api/v1/returns/:id",
		"GET /api/v1/returns/:id/evidence",
		"POST /api/v1/returns/:id/decide",
		"POST /api/v1/returns/:id/receive",
		"POST /api/v1/returns/:id/complete",
		"POST /api/v1/returns/:id/cancel",
	}
	for _, route := range expected {
		assert.True(t, registered[route], "missing route %s", route)
	}
	assert.Len(t, registered, len(expected))
}

func TestNewEngine_MiddlewareChain(t *testing.T) {
	engine, err := NewEngine(Config{
		CORS:        middleware.CORSConfig{AllowOrigins: []string{"https://shop.example.com"}, AllowMethods: []string{"GET"}},
		MaxBodySize: 8,
	}, fullHandlers())
	require.NoError(t, err)

	t.Run("health carries request id and security headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, HealthPath, nil)
		req.Header.Set("Origin", "https://shop.example.com")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
		assert.Equal(t, "https://shop.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("unknown route is a JSON 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"NOT_FOUND"`)
	})

	t.Run("body limit applies before handlers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/validate",
			strings.NewReader(`{"lines":[{"product_id":"x"}]}`))
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})
}

func TestNewEngine_HealthDegraded(t *testing.T) {
	h := fullHandlers()
	h.Health = handler.NewHealthHandler(stubPinger{err: errors.New("connection refused")}, "test")
	engine, err := NewEngine(Config{}, h)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestNewEngine_InvalidTrustedProxy(t *testing.T) {
	_, err := NewEngine(Config{TrustedProxies: []string{"not-an-ip"}}, Handlers{})
	assert.Error(t, err)
}
