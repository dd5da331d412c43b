package image

import (
	"context"
	"time"

	"tryon/internal/infra"
)

type instrumented struct {
	name    string
	next    Generator
	metrics *infra.Metrics
	logger  infra.Logger
}

// Instrument wraps g so every call records latency under name and logs the outcome.
func Instrument(name string, g Generator, metrics *infra.Metrics, logger infra.Logger) Generator {
	if g == nil {
		return nil
	}
	return &instrumented{name: name, next: g, metrics: metrics, logger: logger}
}

func (i *instrumented) Generate(ctx context.Context, req Request) (*Output, error) {
	start := time.Now()
	out, err := i.next.Generate(ctx, req)
	elapsed := time.Since(start)
	i.metrics.ObserveProvider(i.name, elapsed)
	if err != nil {
		i.logger.Warn().Err(err).Str("provider", i.name).Str("operation", string(req.Operation)).Dur("elapsed", elapsed).Msg("provider call failed")
		return nil, err
	}
	i.logger.Debug().Str("provider", i.name).Str("operation", string(req.Operation)).Dur("elapsed", elapsed).Bool("inline", out.Inline()).Msg("provider call ok")
	return out, nil
}
