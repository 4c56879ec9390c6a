// Package handler wires the HTTP surface: JSON API routes, gateway callback
// endpoints, health, and metrics.
package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/dokanlabs/dokan/internal/domain"
	"github.com/dokanlabs/dokan/internal/service"
	"github.com/dokanlabs/dokan/internal/telemetry"
)

// Pinger reports database liveness for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps carries everything the routes need.
type Deps struct {
	Catalog  service.CatalogService
	Cart     service.CartService
	Checkout service.CheckoutService
	Orders   service.OrderService
	Payments service.PaymentService
	Reviews  service.ReviewService
	DB       Pinger
	Logger   zerolog.Logger

	// Storefront pages the browser callback variant redirects to. Defaults
	// to /checkout/success and /checkout/failure.
	PaymentSuccessURL string
	PaymentFailureURL string
}

// New builds the echo instance with middleware, error handling, and routes.
func New(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = ErrorHandler(deps.Logger)
	e.Validator = newRequestValidator()

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(telemetry.HTTPMetrics())
	e.Use(requestLogger(deps.Logger))

	registerRoutes(e, deps)
	return e
}

func registerRoutes(e *echo.Echo, deps Deps) {
	e.GET("/health", healthHandler(deps.DB))
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")

	products := newProductHandler(deps.Catalog, deps.Reviews)
	api.GET("/products", products.List)
	api.GET("/products/:sku", products.Get)
	api.GET("/products/:sku/reviews", products.ListReviews)

	cart := newCartHandler(deps.Cart)
	api.GET("/cart", cart.Get)
	api.POST("/cart/items", cart.AddItem)
	api.PUT("/cart/items/:sku", cart.UpdateItem)
	api.DELETE("/cart/items/:sku", cart.RemoveItem)
	api.DELETE("/cart", cart.Clear)

	orders := newOrderHandler(deps.Checkout, deps.Orders)
	api.POST("/orders", orders.Create)
	api.GET("/orders", orders.List)
	api.GET("/orders/:id", orders.Get)
	api.POST("/orders/cod", orders.ConfirmCOD)

	payments := newPaymentHandler(deps.Payments, deps.PaymentSuccessURL, deps.PaymentFailureURL)
	api.POST("/payments/:gateway/init", payments.Initiate)

	// Gateways call back both by browser redirect (GET) and by
	// server-to-server IPN (POST form).
	e.GET("/payments/:gateway/callback", payments.Callback)
	e.POST("/payments/:gateway/callback", payments.Callback)

	reviews := newReviewHandler(deps.Reviews)
	api.POST("/reviews", reviews.Create)
	api.POST("/reviews/:id/verify", reviews.Verify)
	api.DELETE("/reviews/:id", reviews.Delete)
}

func healthHandler(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if db != nil {
			if err := db.Ping(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "degraded",
				})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(logger zerolog.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Msg("request")
			return nil
		},
	})
}

// userID extracts the cart/session identity. Guests get an opaque id minted
// by the storefront and sent on every request; the query parameter form is
// kept for link-style requests like order history pages.
func userID(c echo.Context) (string, error) {
	id := c.Request().Header.Get("X-User-ID")
	if id == "" {
		id = c.QueryParam("user_id")
	}
	if id == "" {
		return "", domain.Unauthorized("", "Missing X-User-ID header")
	}
	return id, nil
}

// parseID validates uuid identifiers before they reach the ::uuid casts in
// the query layer.
func parseID(kind, id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", domain.Invalid("", "Invalid "+kind+" id '"+id+"'")
	}
	return id, nil
}
