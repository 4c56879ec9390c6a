// Package telemetry exposes Prometheus metrics for the HTTP surface and the
// order/payment funnel.
package telemetry

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics tracks the commerce funnel: orders created, payment
// outcomes per gateway, and rejected callbacks.
type BusinessMetrics struct {
	OrdersCreated     prometheus.Counter
	OrderValue        prometheus.Histogram
	PaymentSucceeded  *prometheus.CounterVec
	PaymentFailed     *prometheus.CounterVec
	PaymentInitFailed *prometheus.CounterVec
	CallbackRejected  *prometheus.CounterVec
}

// Business is the process-wide funnel metrics instance.
var Business = NewBusinessMetrics(prometheus.DefaultRegisterer)

// NewBusinessMetrics registers the funnel metrics with reg.
func NewBusinessMetrics(reg prometheus.Registerer) *BusinessMetrics {
	factory := promauto.With(reg)
	return &BusinessMetrics{
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "dokan_orders_created_total",
			Help: "Orders created through checkout.",
		}),
		OrderValue: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "dokan_order_value_taka",
			Help:    "Order totals in taka.",
			Buckets: prometheus.ExponentialBuckets(100, 2, 10),
		}),
		PaymentSucceeded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dokan_payments_succeeded_total",
			Help: "Payments settled as paid, by gateway.",
		}, []string{"gateway"}),
		PaymentFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dokan_payments_failed_total",
			Help: "Payments settled as failed or cancelled, by gateway.",
		}, []string{"gateway"}),
		PaymentInitFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dokan_payment_init_failures_total",
			Help: "Gateway session creations that errored, by gateway.",
		}, []string{"gateway"}),
		CallbackRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dokan_callbacks_rejected_total",
			Help: "Callbacks rejected by signature verification, by gateway.",
		}, []string{"gateway"}),
	}
}

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dokan_http_requests_total",
		Help: "HTTP requests by method, route, and status.",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dokan_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)

// HTTPMetrics is echo middleware recording request counts and latency per
// registered route (not per raw path, so callback URLs with ids don't
// explode cardinality).
func HTTPMetrics() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}

			httpRequests.WithLabelValues(c.Request().Method, route, strconv.Itoa(status)).Inc()
			httpDuration.WithLabelValues(c.Request().Method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}
