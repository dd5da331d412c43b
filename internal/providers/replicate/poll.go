package replicate

import (
	"context"
	"time"
)

// PollPolicy bounds how a prediction is polled. Polling uses a fixed
// interval; there is no backoff.
type PollPolicy struct {
	InitialDelay time.Duration
	Interval     time.Duration
	MaxAttempts  int
	MaxElapsed   time.Duration
	// Sleep waits for d or until ctx is done. Tests inject a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultPollPolicy mirrors the cadence Replicate recommends for short predictions.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{
		InitialDelay: 1200 * time.Millisecond,
		Interval:     1500 * time.Millisecond,
		MaxAttempts:  200,
		MaxElapsed:   5 * time.Minute,
		Sleep:        sleepContext,
	}
}

func (p PollPolicy) withDefaults() PollPolicy {
	d := DefaultPollPolicy()
	if p.InitialDelay < 0 {
		p.InitialDelay = 0
	}
	if p.Interval <= 0 {
		p.Interval = d.Interval
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = d.MaxAttempts
	}
	if p.MaxElapsed <= 0 {
		p.MaxElapsed = d.MaxElapsed
	}
	if p.Sleep == nil {
		p.Sleep = sleepContext
	}
	return p
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
