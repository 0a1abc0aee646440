// Package metrics — prometheus-счётчики сервиса.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	PurchasesRecordedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "purchases_recorded_total",
			Help: "Total number of purchases persisted, by source.",
		},
		[]string{"source"},
	)

	SyncEntriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cart_sync_entries_total",
			Help: "Offline cart sync entries, by outcome.",
		},
		[]string{"result"},
	)

	PushDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "push_deliveries_total",
			Help: "Web push delivery attempts, by outcome.",
		},
		[]string{"result"},
	)
)

// MustRegister регистрирует все коллекторы в реестре по умолчанию.
// Вызывается один раз из main.
func MustRegister() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDurationSeconds,
		PurchasesRecordedTotal,
		SyncEntriesTotal,
		PushDeliveriesTotal,
	)
}
