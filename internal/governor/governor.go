// Package governor gates generation on the feature flag, the admin token and
// the daily generation ceiling.
package governor

import (
	"context"
	"crypto/subtle"
	"fmt"
	"sync"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
)

// Options configures a Governor.
type Options struct {
	Enabled    bool
	AdminToken string
	DailyCap   int
	Counter    domain.UsageCounter
	Metrics    *infra.Metrics
	Now        func() time.Time
}

// Governor enforces the generation policy. It holds no mutable state of its
// own; the counter is the only shared resource.
type Governor struct {
	enabled    bool
	adminToken string
	dailyCap   int
	counter    domain.UsageCounter
	metrics    *infra.Metrics
	now        func() time.Time
}

// New builds a Governor. A nil counter with a positive cap falls back to an
// in-process counter.
func New(opts Options) *Governor {
	counter := opts.Counter
	if counter == nil {
		counter = NewMemoryCounter()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Governor{
		enabled:    opts.Enabled,
		adminToken: opts.AdminToken,
		dailyCap:   opts.DailyCap,
		counter:    counter,
		metrics:    opts.Metrics,
		now:        now,
	}
}

// AssertFeatureEnabled fails with ErrFeatureDisabled when generation is off.
func (g *Governor) AssertFeatureEnabled() error {
	if !g.enabled {
		return domain.ErrFeatureDisabled
	}
	return nil
}

// AssertEnabled additionally checks the admin token when one is configured.
func (g *Governor) AssertEnabled(adminToken string) error {
	if err := g.AssertFeatureEnabled(); err != nil {
		return err
	}
	return g.AssertAdmin(adminToken)
}

// AssertAdmin checks only the admin token. It passes when no token is configured.
func (g *Governor) AssertAdmin(adminToken string) error {
	if g.adminToken == "" {
		return nil
	}
	if subtle.ConstantTimeCompare([]byte(adminToken), []byte(g.adminToken)) != 1 {
		return domain.ErrUnauthorized
	}
	return nil
}

// CheckQuota consumes one unit of today's ceiling or fails with ErrQuotaExceeded.
func (g *Governor) CheckQuota(ctx context.Context) error {
	if g.dailyCap <= 0 {
		return nil
	}
	ok, err := g.counter.Consume(ctx, Day(g.now()), g.dailyCap)
	if err != nil {
		return fmt.Errorf("consume quota: %w", err)
	}
	if !ok {
		g.metrics.QuotaRejected()
		return domain.ErrQuotaExceeded
	}
	return nil
}

// Usage reports units consumed today and the configured ceiling.
func (g *Governor) Usage(ctx context.Context) (int, int, error) {
	used, err := g.counter.Count(ctx, Day(g.now()))
	if err != nil {
		return 0, g.dailyCap, fmt.Errorf("count usage: %w", err)
	}
	return used, g.dailyCap, nil
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// MemoryCounter is an in-process UsageCounter for tests and dry runs.
type MemoryCounter struct {
	mu   sync.Mutex
	used map[time.Time]int
}

func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{used: make(map[time.Time]int)}
}

func (m *MemoryCounter) Consume(ctx context.Context, day time.Time, ceiling int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	day = Day(day)
	if m.used[day] >= ceiling {
		return false, nil
	}
	m.used[day]++
	return true, nil
}

func (m *MemoryCounter) Count(ctx context.Context, day time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.used[Day(day)], nil
}

var _ domain.UsageCounter = (*MemoryCounter)(nil)
