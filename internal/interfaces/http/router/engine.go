package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// HealthPath is served outside the versioned API for probes.
const HealthPath = "/health"

// Config controls the middleware chain
type Config struct {
	ServiceName    string
	TracingEnabled bool
	// Meter records HTTP metrics; nil disables them.
	Meter          metric.Meter
	Logger         *zap.Logger
	CORS           middleware.CORSConfig
	MaxBodySize    int64
	TrustedProxies []string
	// RateLimiter guards customer write endpoints; nil disables it.
	RateLimiter *middleware.RateLimiter
}

// Handlers are the endpoint groups served by the engine
type Handlers struct {
	Checkout  *handler.CheckoutHandler
	Orders    *handler.OrderHandler
	Payments  *handler.PaymentHandler
	Inventory *handler.InventoryHandler
	Returns   *handler.ReturnHandler
	Health    *handler.HealthHandler
}

// NewEngine builds the gin engine with the middleware chain and every route.
func NewEngine(cfg Config, h Handlers) (*gin.Engine, error) {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("invalid trusted proxies: %w", err)
	}

	metrics, err := middleware.HTTPMetrics(cfg.Meter)
	if err != nil {
		return nil, fmt.Errorf("http metrics: %w", err)
	}

	engine.Use(
		logger.Recovery(log),
		middleware.RequestID(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.ServiceName,
			Enabled:     cfg.TracingEnabled,
			SkipPaths:   []string{HealthPath},
		}),
		middleware.SpanAttributes(),
		logger.GinMiddleware(log),
		metrics,
		middleware.Secure(),
		middleware.CORS(cfg.CORS),
		middleware.BodyLimit(cfg.MaxBodySize),
	)
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, dto.NewErrorResponseWithRequestID(
			dto.CodeNotFound, "Route not found", c.GetString(logger.RequestIDContextKey)))
	})

	if h.Health != nil {
		engine.GET(HealthPath, h.Health.Health)
	}

	r := NewRouter(engine)
	for _, g := range domainGroups(h, cfg.RateLimiter) {
		r.Register(g)
	}
	r.Setup()
	return engine, nil
}

func domainGroups(h Handlers, limiter *middleware.RateLimiter) []RouteRegistrar {
	limited := func(fn gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{fn}
		}
		return []gin.HandlerFunc{middleware.RateLimit(limiter), fn}
	}

	var groups []RouteRegistrar

	if h.Health != nil {
		groups = append(groups, NewDomainGroup("system", "").GET("/health", h.Health.Health))
	}

	if h.Checkout != nil {
		groups = append(groups, NewDomainGroup("cart", "/cart").
			POST("/validate", limited(h.Checkout.ValidateCart)...))
	}

	orders := NewDomainGroup("orders", "/orders")
	if h.Checkout != nil {
		orders.POST("", limited(h.Checkout.CreateOrder)...)
	}
	if h.Orders != nil {
		orders.
			GET("", h.Orders.List).
			GET("/:id", h.Orders.GetByID).
			POST("/:id/pack", h.Orders.Pack).
			POST("/:id/ship", h.Orders.Ship).
			POST("/:id/complete", h.Orders.Complete).
			POST("/:id/cancel", h.Orders.Cancel).
			POST("/:id/refund", h.Orders.MarkRefunded)
		groups = append(groups, NewDomainGroup("tracking", "/tracking").GET("/:code", h.Orders.Track))
	}
	if h.Payments != nil {
		orders.Group("payments", "/:id/payment").
			POST("/reserve", h.Payments.Reserve).
			POST("/resolve", h.Payments.Resolve)
	}
	if h.Returns != nil {
		orders.GET("/:id/returns", h.Returns.ListByOrder)
	}
	groups = append(groups, orders)

	if h.Inventory != nil {
		groups = append(groups, NewDomainGroup("inventory", "/inventory").
			POST("/availability", h.Inventory.CheckAvailability).
			GET("/variants/:id/movements", h.Inventory.ListMovements))
	}

	if h.Returns != nil {
		groups = append(groups, NewDomainGroup("returns", "/returns").
			POST("", limited(h.Returns.Submit)...).
			POST("/evidence-upload-url", limited(h.Returns.EvidenceUploadURL)...).
			GET("/:id", h.Returns.GetByID).
			GET("/:id/evidence", h.Returns.EvidenceLinks).
			POST("/:id/decide", h.Returns.Decide).
			POST("/:id/receive", h.Returns.Receive).
			POST("/:id/complete", h.Returns.Complete).
			POST("/:id/cancel", h.Returns.Cancel))
	}

	return groups
}
