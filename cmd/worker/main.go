package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tryon/internal/app"
	"tryon/internal/infra"
	"tryon/internal/tryon"
)

// refresher is the slice of the orchestrator the worker drives.
type refresher interface {
	Refresh(ctx context.Context, req tryon.BatchRequest) (*tryon.BatchResult, error)
}

type refreshWorker struct {
	pipeline   refresher
	logger     infra.Logger
	adminToken string
	batchSize  int
	interval   time.Duration
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, err := app.Build(ctx, cfg, logger, nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to build pipeline")
	}
	defer svc.Close()

	w := &refreshWorker{
		pipeline:   svc.Orchestrator,
		logger:     infra.Component(logger, "worker"),
		adminToken: cfg.AdminToken,
		batchSize:  cfg.RefreshBatchSize,
		interval:   cfg.RefreshInterval,
	}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run refreshes one batch immediately and then once per interval until ctx
// is cancelled.
func (w *refreshWorker) Run(ctx context.Context) error {
	interval := w.interval
	if interval <= 0 {
		interval = time.Hour
	}
	w.logger.Info().Dur("interval", interval).Int("batch_size", w.batchSize).Msg("worker: started")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		w.tick(ctx)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (w *refreshWorker) tick(ctx context.Context) {
	size := w.batchSize
	res, err := w.pipeline.Refresh(ctx, tryon.BatchRequest{
		AdminToken:  w.adminToken,
		MaxProducts: &size,
		Mode:        tryon.ModeTryOn,
	})
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("worker: refresh failed")
		}
		return
	}
	for _, item := range res.Results {
		if item.Error != "" {
			w.logger.Warn().Str("product_id", item.ProductID).Str("error", item.Error).Msg("worker: item failed")
		}
	}
	w.logger.Info().
		Int("items", len(res.Results)).
		Int("succeeded", res.Succeeded()).
		Msg("worker: refresh complete")
}
