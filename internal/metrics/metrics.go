package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RateFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_rate_fetches_total",
			Help: "Rate provider calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	RateCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_rate_cache_total",
			Help: "Rate lookups served from cache, by freshness",
		},
		[]string{"freshness"},
	)

	QuotesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_quotes_created_total",
			Help: "Quotes created by network",
		},
		[]string{"network"},
	)

	QuoteTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_quote_transitions_total",
			Help: "Quote status transitions by target status",
		},
		[]string{"status"},
	)

	StockOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_stock_operations_total",
			Help: "Stock ledger operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	OrdersCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_orders_created_total",
			Help: "Orders created from confirmed quotes",
		},
	)

	SweptQuotes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_swept_quotes_total",
			Help: "Quotes expired by the background sweeper",
		},
	)

	SweptReservations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_swept_reservations_total",
			Help: "Reservations returned to stock by the background sweeper",
		},
	)
)

func Handler() http.Handler {
	return promhttp.Handler()
}

// Result maps an error to a metric label.
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
