package infra

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports pipeline counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	generations     *prometheus.CounterVec
	providerSeconds *prometheus.HistogramVec
	quotaRejections prometheus.Counter
	refreshItems    *prometheus.CounterVec
}

// NewMetrics registers the pipeline collectors on reg (the default registerer when nil).
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tryon",
			Name:      "generations_total",
			Help:      "Generation runs by strategy and outcome.",
		}, []string{"strategy", "outcome"}),
		providerSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tryon",
			Name:      "provider_seconds",
			Help:      "Latency of upstream image provider calls.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"provider"}),
		quotaRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "tryon",
			Name:      "quota_rejections_total",
			Help:      "Requests rejected by the daily generation ceiling.",
		}),
		refreshItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tryon",
			Name:      "refresh_items_total",
			Help:      "Batch refresh items by outcome.",
		}, []string{"outcome"}),
	}
	collectors := []prometheus.Collector{m.generations, m.providerSeconds, m.quotaRejections, m.refreshItems}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return m, nil
}

// ObserveGeneration counts one finished generation run.
func (m *Metrics) ObserveGeneration(strategy string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.generations.WithLabelValues(strategy, outcome).Inc()
}

// ObserveProvider records the latency of one provider call.
func (m *Metrics) ObserveProvider(provider string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.providerSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
}

// QuotaRejected counts one ceiling rejection.
func (m *Metrics) QuotaRejected() {
	if m == nil {
		return
	}
	m.quotaRejections.Inc()
}

// ObserveRefreshItem counts one batch refresh item.
func (m *Metrics) ObserveRefreshItem(ok bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.refreshItems.WithLabelValues(outcome).Inc()
}
