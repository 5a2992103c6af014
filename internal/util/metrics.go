package util

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Total number of cart mutations",
	}, []string{"op"})

	CartSyncFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_sync_failed_total",
		Help: "Total number of cart mutations rolled back after a remote cart failure",
	}, []string{"op"})

	CatalogFetchLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "catalog_fetch_latency_seconds",
		Help:    "Latency of catalog fetches from the commerce API",
		Buckets: prometheus.DefBuckets,
	})

	CatalogFetchDiscardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "catalog_fetch_discarded_total",
		Help: "Total number of catalog fetch results dropped because the shopper navigated away",
	})

	CheckoutValidationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_validation_errors_total",
		Help: "Total number of checkout validation failures",
	}, []string{"field"})

	OrdersPlacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_placed_total",
		Help: "Total number of orders placed",
	})

	OrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "orders_failed_total",
		Help: "Total number of failed order placements",
	}, []string{"reason"})

	DuplicatePlacementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "order_duplicate_placements_total",
		Help: "Total number of place-order triggers ignored while a placement was in flight",
	})

	OrderPlacementLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_placement_latency_seconds",
		Help:    "Latency of the remote order placement call",
		Buckets: prometheus.DefBuckets,
	})

	RemoteCallErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "commerce_remote_call_errors_total",
		Help: "Total number of failed commerce API calls",
	}, []string{"operation"})

	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "storefront_active_sessions",
		Help: "Number of shopper sessions held in memory",
	})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)
