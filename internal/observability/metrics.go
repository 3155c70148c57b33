package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_requests_total",
			Help: "Total number of requests",
		},
		[]string{"route", "code", "method"},
	)

	DBTxDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "marketplace_db_tx_seconds",
			Help:    "Duration of DB transactions",
			Buckets: prometheus.DefBuckets,
		},
	)

	OutboxLag = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_outbox_lag_seconds",
			Help: "Age of the oldest outbox record at publish time",
		},
	)

	RabbitPublishRetries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_rabbit_publish_retries_total",
			Help: "Total rabbit publish retries",
		},
	)

	RateLimitExceeded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_rate_limit_exceeded_total",
			Help: "Total rate limit exceeded",
		},
	)

	PaymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_payments_total",
			Help: "Payment transactions by outcome",
		},
		[]string{"outcome"},
	)

	TicketsSold = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_tickets_sold_total",
			Help: "Tickets sold through completed payments",
		},
	)
)

var registerOnce sync.Once

// InitMetrics registers the collectors with the default registry. Safe to call more than once.
func InitMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestsTotal, DBTxDuration, OutboxLag, RabbitPublishRetries, RateLimitExceeded, PaymentsTotal, TicketsSold)
	})
}
