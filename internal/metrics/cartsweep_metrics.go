package metrics

import "github.com/prometheus/client_golang/prometheus"

// Результаты прохода очистки корзин.
const (
	SweepOK    = "ok"
	SweepError = "error"
)

// CartSweepMetrics — метрики очистки истёкших корзин.
type CartSweepMetrics struct {
	runs        *prometheus.CounterVec
	deleted     prometheus.Counter
	lastDeleted prometheus.Gauge
}

// NewCartSweepMetrics создаёт метрики в заданном registerer; nil означает DefaultRegisterer.
func NewCartSweepMetrics(registerer prometheus.Registerer) *CartSweepMetrics {
	return &CartSweepMetrics{
		runs: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_sweep_runs_total",
			Help: "Total number of expired cart sweep runs grouped by result.",
		}, []string{"result"}),
		deleted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "storefront_cart_sweep_deleted_total",
			Help: "Total number of deleted expired carts.",
		}),
		lastDeleted: registerGauge(registerer, prometheus.GaugeOpts{
			Name: "storefront_cart_sweep_last_deleted",
			Help: "Number of carts deleted during the last sweep run.",
		}),
	}
}

// RecordRun фиксирует результат прохода и число удалённых корзин.
func (m *CartSweepMetrics) RecordRun(result string, deleted int) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	if result == SweepOK {
		m.lastDeleted.Set(float64(deleted))
	}
}

// AddDeleted увеличивает общий счётчик удалённых корзин.
func (m *CartSweepMetrics) AddDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.deleted.Add(float64(n))
}
