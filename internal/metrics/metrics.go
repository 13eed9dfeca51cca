// Package metrics defines the Prometheus collectors for statement processing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "bsp"

var (
	StatementsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "statements_total",
			Help:      "Statements processed by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_total",
			Help:      "Normalized transactions produced by statement kind",
		},
		[]string{"kind"},
	)

	CategoryLookupsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_lookups_total",
			Help:      "Category lookups by the strategy that answered",
		},
		[]string{"strategy"}, // exact / description / fuzzy / model / none
	)

	ModelRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_requests_total",
			Help:      "Category fallback requests to the language model",
		},
		[]string{"provider", "status"},
	)

	ModelRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_request_duration_seconds",
			Help:      "Language model request duration in seconds",
			Buckets:   []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)
)

var registered bool

// Register registers the collectors with the default registry. Must be called once from main.
func Register() {
	if registered {
		return
	}
	prometheus.MustRegister(StatementsTotal)
	prometheus.MustRegister(TransactionsTotal)
	prometheus.MustRegister(CategoryLookupsTotal)
	prometheus.MustRegister(ModelRequestsTotal)
	prometheus.MustRegister(ModelRequestDuration)
	registered = true
}
