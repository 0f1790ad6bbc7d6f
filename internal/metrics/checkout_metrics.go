package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Результаты попытки оформления заказа.
const (
	ResultCompleted = "completed"
	ResultRejected  = "rejected"
	ResultFailed    = "failed"
)

// CheckoutMetrics содержит метрики оформления заказов.
// Все методы допускают nil-получатель.
type CheckoutMetrics struct {
	attempts       *prometheus.CounterVec
	rejections     *prometheus.CounterVec
	reconcileFails prometheus.Counter
	outboxEvents   prometheus.Counter

	checkoutDuration prometheus.Histogram
	stepDuration     *prometheus.HistogramVec

	inFlight prometheus.Gauge
}

// NewCheckoutMetrics создаёт метрики в DefaultRegisterer.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer создаёт метрики в заданном registerer (удобно для тестов).
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	return &CheckoutMetrics{
		attempts: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_attempts_total",
			Help: "Total number of checkout attempts grouped by result",
		}, []string{"result"}),
		rejections: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_checkout_rejections_total",
			Help: "Total number of rejected checkouts grouped by reason",
		}, []string{"reason"}),
		reconcileFails: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_stock_reconciliation_failures_total",
			Help: "Total number of stock decrements that failed after the order was created",
		}),
		outboxEvents: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_outbox_events_total",
			Help: "Total number of order events written to the outbox",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_duration_seconds",
			Help:    "Duration of checkout attempts in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		stepDuration: registerHistogramVec(registerer, prometheus.HistogramOpts{
			Name:    "storefront_checkout_step_duration_seconds",
			Help:    "Duration of individual checkout steps in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
		}, []string{"step"}),
		inFlight: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_checkouts_in_flight",
			Help: "Number of checkout attempts currently in progress",
		}),
	}
}

// RecordStarted увеличивает число активных оформлений.
func (m *CheckoutMetrics) RecordStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// RecordFinished фиксирует результат и длительность попытки.
func (m *CheckoutMetrics) RecordFinished(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.inFlight.Dec()
	m.attempts.WithLabelValues(result).Inc()
	m.checkoutDuration.Observe(duration.Seconds())
}

// RecordRejection увеличивает счётчик отказов по причине.
func (m *CheckoutMetrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.rejections.WithLabelValues(reason).Inc()
}

// RecordReconciliationFailure увеличивает счётчик несписанных остатков.
func (m *CheckoutMetrics) RecordReconciliationFailure() {
	if m == nil {
		return
	}
	m.reconcileFails.Inc()
}

// RecordStepDuration записывает время выполнения шага оформления.
func (m *CheckoutMetrics) RecordStepDuration(step string, duration time.Duration) {
	if m == nil {
		return
	}
	m.stepDuration.WithLabelValues(step).Observe(duration.Seconds())
}

// RecordOutboxEvent увеличивает счётчик событий outbox.
func (m *CheckoutMetrics) RecordOutboxEvent() {
	if m == nil {
		return
	}
	m.outboxEvents.Inc()
}
