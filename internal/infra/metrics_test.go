package infra

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsCountGenerations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := NewMetrics(reg)
	if err != nil {
		t.Fatalf("NewMetrics error: %v", err)
	}

	m.ObserveGeneration("tryon", nil)
	m.ObserveGeneration("tryon", nil)
	m.ObserveGeneration("inpaint", errors.New("boom"))
	m.QuotaRejected()
	m.ObserveProvider("replicate", 2*time.Second)

	if got := testutil.ToFloat64(m.generations.WithLabelValues("tryon", "ok")); got != 2 {
		t.Fatalf("tryon ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.generations.WithLabelValues("inpaint", "error")); got != 1 {
		t.Fatalf("inpaint error = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.quotaRejections); got != 1 {
		t.Fatalf("quota rejections = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveGeneration("tryon", nil)
	m.ObserveProvider("openai", time.Second)
	m.QuotaRejected()
	m.ObserveRefreshItem(true)
}
