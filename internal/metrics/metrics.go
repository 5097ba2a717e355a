package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "trade_settlement"

// Metrics is safe to use through a nil pointer; every method is then a no-op.
type Metrics struct {
	settlementOutcomes *prometheus.CounterVec
	settlementErrors   *prometheus.CounterVec
	settlementDuration prometheus.Histogram
	deadLetters        prometheus.Counter
	ordersAccepted     *prometheus.CounterVec
	enqueueFailures    prometheus.Counter
	recoveredOrders    prometheus.Counter
}

func New(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		settlementOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_outcomes_total",
			Help:      "Settlement attempts that finished without error, by outcome.",
		}, []string{"outcome"}),
		settlementErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_errors_total",
			Help:      "Settlement attempts aborted with an error.",
		}, []string{"retryable"}),
		settlementDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settlement_duration_seconds",
			Help:      "Wall time of one settlement attempt.",
			Buckets:   prometheus.DefBuckets,
		}),
		deadLetters: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settlement_dead_letters_total",
			Help:      "Deliveries dropped after exceeding the delivery limit.",
		}),
		ordersAccepted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_accepted_total",
			Help:      "Orders persisted as pending by intake.",
		}, []string{"side"}),
		enqueueFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enqueue_failures_total",
			Help:      "Accepted orders whose id could not be queued.",
		}),
		recoveredOrders: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recovered_orders_total",
			Help:      "Stale pending orders queued again by the recovery sweep.",
		}),
	}
}

func (m *Metrics) SettlementFinished(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.settlementOutcomes.WithLabelValues(outcome).Inc()
	m.settlementDuration.Observe(seconds)
}

func (m *Metrics) SettlementFailed(retryable bool, seconds float64) {
	if m == nil {
		return
	}
	label := "false"
	if retryable {
		label = "true"
	}
	m.settlementErrors.WithLabelValues(label).Inc()
	m.settlementDuration.Observe(seconds)
}

func (m *Metrics) DeadLettered() {
	if m == nil {
		return
	}
	m.deadLetters.Inc()
}

func (m *Metrics) OrderAccepted(side string) {
	if m == nil {
		return
	}
	m.ordersAccepted.WithLabelValues(side).Inc()
}

func (m *Metrics) EnqueueFailed() {
	if m == nil {
		return
	}
	m.enqueueFailures.Inc()
}

func (m *Metrics) OrdersRecovered(count int) {
	if m == nil {
		return
	}
	m.recoveredOrders.Add(float64(count))
}
