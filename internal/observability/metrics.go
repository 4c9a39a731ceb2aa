// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the engine.
type Metrics struct {
	// Ingestion metrics
	EventsObserved     *prometheus.CounterVec
	EventsDeduplicated prometheus.Counter
	EventsDropped      *prometheus.CounterVec
	QueueDepth         prometheus.Gauge

	// Filter metrics
	VerdictsTotal     *prometheus.CounterVec
	BlockReasonsTotal *prometheus.CounterVec
	QualityScore      prometheus.Histogram

	// Position metrics
	PositionTransitions *prometheus.CounterVec
	OpenPositions       prometheus.Gauge
	PositionExits       *prometheus.CounterVec

	// Capital metrics
	PoolCurrentUsd  prometheus.Gauge
	TradesExecuted  prometheus.Gauge
	RealizedPnlUsd  prometheus.Gauge
	SessionComplete prometheus.Gauge

	// Execution metrics
	OrdersTotal  *prometheus.CounterVec
	OrderLatency *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_sniper"
	}

	return &Metrics{
		EventsObserved: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_observed_total",
			Help:      "Total number of detection events observed by source program",
		}, []string{"program"}),
		EventsDeduplicated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_deduplicated_total",
			Help:      "Total number of detection events dropped as already seen",
		}),
		EventsDropped: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "events_dropped_total",
			Help:      "Total number of detection events dropped by reason",
		}, []string{"reason"}),
		QueueDepth: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "queue_depth",
			Help:      "Current number of detection events waiting in the work queue",
		}),

		VerdictsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "verdicts_total",
			Help:      "Total number of quality verdicts by outcome",
		}, []string{"outcome"}),
		BlockReasonsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "block_reasons_total",
			Help:      "Total number of block reasons fired",
		}, []string{"reason"}),
		QualityScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "filter",
			Name:      "quality_score",
			Help:      "Composite quality score distribution",
			Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		PositionTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "transitions_total",
			Help:      "Total number of position state transitions by target state",
		}, []string{"state"}),
		OpenPositions: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "open",
			Help:      "Current number of non-terminal positions",
		}),
		PositionExits: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "position",
			Name:      "exits_total",
			Help:      "Total number of position closes by exit reason",
		}, []string{"reason"}),

		PoolCurrentUsd: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capital",
			Name:      "pool_current_usd",
			Help:      "Current capital pool in USD",
		}),
		TradesExecuted: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capital",
			Name:      "trades_executed",
			Help:      "Trades executed in the current session",
		}),
		RealizedPnlUsd: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capital",
			Name:      "realized_pnl_usd",
			Help:      "Cumulative realized P&L in USD for the current session",
		}),
		SessionComplete: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "capital",
			Name:      "session_complete",
			Help:      "1 when the session has terminated, 0 while running",
		}),

		OrdersTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "orders_total",
			Help:      "Total number of orders by side and status",
		}, []string{"side", "status"}),
		OrderLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "execution",
			Name:      "order_latency_seconds",
			Help:      "Order submission latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"side"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordEventObserved increments the observed-events counter.
func RecordEventObserved(program string) {
	DefaultMetrics.EventsObserved.WithLabelValues(program).Inc()
}

// RecordEventDeduplicated increments the deduplicated-events counter.
func RecordEventDeduplicated() {
	DefaultMetrics.EventsDeduplicated.Inc()
}

// RecordEventDropped increments the dropped-events counter.
func RecordEventDropped(reason string) {
	DefaultMetrics.EventsDropped.WithLabelValues(reason).Inc()
}

// SetQueueDepth updates the work queue depth gauge.
func SetQueueDepth(n int) {
	DefaultMetrics.QueueDepth.Set(float64(n))
}

// RecordVerdict records a quality verdict and its block reasons.
func RecordVerdict(admitted bool, score int, reasons []string) {
	outcome := "admitted"
	if !admitted {
		outcome = "rejected"
	}
	DefaultMetrics.VerdictsTotal.WithLabelValues(outcome).Inc()
	DefaultMetrics.QualityScore.Observe(float64(score))
	for _, r := range reasons {
		DefaultMetrics.BlockReasonsTotal.WithLabelValues(r).Inc()
	}
}

// RecordTransition records a position state transition.
func RecordTransition(state string) {
	DefaultMetrics.PositionTransitions.WithLabelValues(state).Inc()
}

// RecordExit records a position close by exit reason.
func RecordExit(reason string) {
	DefaultMetrics.PositionExits.WithLabelValues(reason).Inc()
}

// SetOpenPositions updates the open positions gauge.
func SetOpenPositions(n int) {
	DefaultMetrics.OpenPositions.Set(float64(n))
}

// UpdatePool reflects the pool state in the capital gauges.
func UpdatePool(currentUsd float64, tradesExecuted int, completed bool) {
	DefaultMetrics.PoolCurrentUsd.Set(currentUsd)
	DefaultMetrics.TradesExecuted.Set(float64(tradesExecuted))
	if completed {
		DefaultMetrics.SessionComplete.Set(1)
	} else {
		DefaultMetrics.SessionComplete.Set(0)
	}
}

// AddRealizedPnl accumulates realized P&L.
func AddRealizedPnl(usd float64) {
	DefaultMetrics.RealizedPnlUsd.Add(usd)
}

// RecordOrder records an order outcome and latency.
func RecordOrder(side, status string, seconds float64) {
	DefaultMetrics.OrdersTotal.WithLabelValues(side, status).Inc()
	DefaultMetrics.OrderLatency.WithLabelValues(side).Observe(seconds)
}
