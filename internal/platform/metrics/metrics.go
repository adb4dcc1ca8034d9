// Package metrics declares the Prometheus collectors shared by both binaries.
// Collectors register with the default registry at init, so importing the package is
// enough for them to appear on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "crowdfunding"

var (
	ExchangeRateAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_rate_attempts_total",
			Help:      "Remote exchange rate lookups by outcome",
		},
		[]string{"outcome"},
	)

	// ExchangeRateFallbacks counts lookups answered from the static fallback table.
	ExchangeRateFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "exchange_rate_fallback_total",
			Help:      "Exchange rate lookups that used the fallback rate",
		},
		[]string{"pair"},
	)

	SettlementsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlements_processed_total",
			Help:      "Donation settlement confirmations by payment method and outcome",
		},
		[]string{"method", "outcome"},
	)

	WithdrawalsResolved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "withdrawals_resolved_total",
			Help:      "Withdrawal resolution attempts by outcome",
		},
		[]string{"outcome"},
	)

	TransferFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transfer_failures_total",
			Help:      "Provider transfers that failed after a withdrawal was approved",
		},
		[]string{"method"},
	)

	OutboxPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "outbox_messages_total",
			Help:      "Outbox messages handled by the poller by outcome",
		},
		[]string{"outcome"},
	)

	NotificationsConsumed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_notifications_total",
			Help:      "Settlement notifications consumed from Kafka by outcome",
		},
		[]string{"outcome"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2, 5},
		},
		[]string{"method", "route", "status"},
	)
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
