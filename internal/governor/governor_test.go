package governor

import (
	"context"
	"errors"
	"testing"
	"time"

	"tryon/internal/domain"
)

func TestAssertEnabled(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		token   string
		wantErr error
	}{
		{name: "disabled", opts: Options{Enabled: false, AdminToken: "s3cret"}, token: "s3cret", wantErr: domain.ErrFeatureDisabled},
		{name: "wrong token", opts: Options{Enabled: true, AdminToken: "s3cret"}, token: "guess", wantErr: domain.ErrUnauthorized},
		{name: "empty token", opts: Options{Enabled: true, AdminToken: "s3cret"}, token: "", wantErr: domain.ErrUnauthorized},
		{name: "matching token", opts: Options{Enabled: true, AdminToken: "s3cret"}, token: "s3cret"},
		{name: "no token configured", opts: Options{Enabled: true}, token: "anything"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := New(tc.opts).AssertEnabled(tc.token)
			if !errors.Is(err, tc.wantErr) || (tc.wantErr == nil && err != nil) {
				t.Fatalf("AssertEnabled() = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestAssertFeatureEnabledIgnoresToken(t *testing.T) {
	g := New(Options{Enabled: true, AdminToken: "s3cret"})
	if err := g.AssertFeatureEnabled(); err != nil {
		t.Fatalf("AssertFeatureEnabled() = %v", err)
	}
}

func TestCheckQuotaCeiling(t *testing.T) {
	const ceiling = 3
	now := time.Date(2024, 5, 1, 23, 59, 0, 0, time.UTC)
	g := New(Options{Enabled: true, DailyCap: ceiling, Counter: NewMemoryCounter(), Now: func() time.Time { return now }})
	ctx := context.Background()

	for i := 1; i <= ceiling; i++ {
		if err := g.CheckQuota(ctx); err != nil {
			t.Fatalf("call %d: CheckQuota() = %v", i, err)
		}
	}
	if err := g.CheckQuota(ctx); !errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("call %d: expected ErrQuotaExceeded, got %v", ceiling+1, err)
	}
	used, limit, err := g.Usage(ctx)
	if err != nil || used != ceiling || limit != ceiling {
		t.Fatalf("Usage() = %d/%d %v", used, limit, err)
	}

	now = now.Add(2 * time.Minute)
	if err := g.CheckQuota(ctx); err != nil {
		t.Fatalf("next UTC day should reset quota: %v", err)
	}
}

func TestCheckQuotaDisabledCeiling(t *testing.T) {
	counter := NewMemoryCounter()
	g := New(Options{Enabled: true, DailyCap: 0, Counter: counter})
	for i := 0; i < 5; i++ {
		if err := g.CheckQuota(context.Background()); err != nil {
			t.Fatalf("CheckQuota() = %v", err)
		}
	}
	if n, _ := counter.Count(context.Background(), time.Now()); n != 0 {
		t.Fatalf("disabled ceiling should not count, got %d", n)
	}
}

type failingCounter struct{}

func (failingCounter) Consume(ctx context.Context, day time.Time, ceiling int) (bool, error) {
	return false, errors.New("db down")
}

func (failingCounter) Count(ctx context.Context, day time.Time) (int, error) {
	return 0, errors.New("db down")
}

func TestCheckQuotaCounterError(t *testing.T) {
	g := New(Options{Enabled: true, DailyCap: 1, Counter: failingCounter{}})
	err := g.CheckQuota(context.Background())
	if err == nil || errors.Is(err, domain.ErrQuotaExceeded) {
		t.Fatalf("expected counter error, got %v", err)
	}
}

func TestDayUsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	local := time.Date(2024, 5, 2, 3, 0, 0, 0, loc)
	if got := Day(local); !got.Equal(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("Day() = %v", got)
	}
}
