// Package app assembles the pipeline from configuration for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"

	"tryon/internal/adapter/repo"
	"tryon/internal/basemodel"
	"tryon/internal/governor"
	"tryon/internal/infra"
	"tryon/internal/providers/image"
	"tryon/internal/providers/openai"
	"tryon/internal/providers/replicate"
	"tryon/internal/providers/stability"
	"tryon/internal/storage"
	"tryon/internal/transform"
	"tryon/internal/tryon"
)

// Service holds the wired pipeline and the resources that must be closed.
type Service struct {
	Config       *infra.Config
	Logger       infra.Logger
	Pool         *pgxpool.Pool
	Store        storage.Store
	StaticDir    string
	Metrics      *infra.Metrics
	Orchestrator *tryon.Orchestrator
}

// Providers are the optional image generators. Nil entries are unconfigured.
type Providers struct {
	TextToImage image.Generator
	Inpainter   image.Generator
	TryOn       image.Generator
}

// Build connects to Postgres, selects the storage driver and wires providers
// into a tryon.Orchestrator. Metrics register on reg, or the default
// registerer when nil.
func Build(ctx context.Context, cfg *infra.Config, logger infra.Logger, reg prometheus.Registerer) (*Service, error) {
	metrics, err := infra.NewMetrics(reg)
	if err != nil {
		return nil, err
	}

	pool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	runner := infra.NewSQLRunner(pool, logger)

	store, staticDir, err := NewStore(ctx, cfg)
	if err != nil {
		pool.Close()
		return nil, err
	}
	warnPublicFileStore(cfg, logger)

	providers := NewProviders(cfg, metrics, logger)
	fetcher := transform.NewFetcher(&http.Client{Timeout: cfg.ProviderTimeout}, cfg.FetchCacheSize)

	bases := repo.NewBaseModelRepository(runner)
	baseGen := providers.Inpainter
	if baseGen == nil {
		baseGen = providers.TextToImage
	}

	gov := governor.New(governor.Options{
		Enabled:    cfg.AIEnabled,
		AdminToken: cfg.AdminToken,
		DailyCap:   cfg.DailyCap,
		Counter:    repo.NewUsageCounter(runner),
		Metrics:    metrics,
	})

	orch, err := tryon.New(tryon.Options{
		Governor:     gov,
		Registry:     basemodel.NewRegistry(bases),
		Bootstrapper: basemodel.NewBootstrapper(baseGen, fetcher, store, bases, logger),
		Fetcher:      fetcher,
		TextToImage:  providers.TextToImage,
		Inpainter:    providers.Inpainter,
		TryOn:        providers.TryOn,
		Store:        store,
		Products:     repo.NewProductRepository(runner),
		Photos:       repo.NewPhotoRepository(runner),
		Metrics:      metrics,
		Logger:       logger,
	})
	if err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info().
		Bool("ai_enabled", cfg.AIEnabled).
		Int("daily_cap", cfg.DailyCap).
		Str("storage", cfg.StorageDriver).
		Bool("openai", providers.TextToImage != nil).
		Bool("stability", providers.Inpainter != nil).
		Bool("replicate", providers.TryOn != nil).
		Msg("pipeline configured")

	return &Service{
		Config:       cfg,
		Logger:       logger,
		Pool:         pool,
		Store:        store,
		StaticDir:    staticDir,
		Metrics:      metrics,
		Orchestrator: orch,
	}, nil
}

// Close releases the database pool.
func (s *Service) Close() {
	if s != nil && s.Pool != nil {
		s.Pool.Close()
	}
}

// NewStore builds the configured storage driver. staticDir is set only for
// the file driver, whose objects the API serves under /static.
func NewStore(ctx context.Context, cfg *infra.Config) (storage.Store, string, error) {
	switch cfg.StorageDriver {
	case "s3":
		s, err := storage.NewS3Store(ctx, storage.S3Options{
			Bucket:        cfg.S3Bucket,
			Region:        cfg.AWSRegion,
			PublicBaseURL: cfg.S3PublicBaseURL,
			SignedURLTTL:  cfg.SignedURLTTL,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	case "supabase":
		s, err := storage.NewSupabaseStore(storage.SupabaseOptions{
			URL:          cfg.SupabaseURL,
			ServiceKey:   cfg.SupabaseKey,
			Bucket:       cfg.SupabaseBucket,
			SignedURLTTL: cfg.SignedURLTTL,
		})
		if err != nil {
			return nil, "", err
		}
		return s, "", nil
	case "file", "":
		path := cfg.StoragePath
		if !filepath.IsAbs(path) {
			if abs, err := filepath.Abs(path); err == nil {
				path = abs
			}
		}
		s, err := storage.NewFileStore(path, cfg.StorageBaseURL)
		if err != nil {
			return nil, "", err
		}
		return s, s.BasePath(), nil
	default:
		return nil, "", fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}
}

// warnPublicFileStore reports whether the file driver runs in production.
// That driver serves every object under /static and ignores Private, so
// customer uploads are readable by anyone holding the URL.
func warnPublicFileStore(cfg *infra.Config, logger infra.Logger) bool {
	if cfg.StorageDriver != "file" && cfg.StorageDriver != "" {
		return false
	}
	if !strings.EqualFold(strings.TrimSpace(cfg.AppEnv), "production") {
		return false
	}
	logger.Warn().
		Str("storage", "file").
		Str("path", cfg.StoragePath).
		Msg("file storage serves private objects publicly; use s3 or supabase in production")
	return true
}

// NewProviders builds every provider that has credentials. A missing key
// leaves that provider nil and logs a warning; other errors are logged too.
func NewProviders(cfg *infra.Config, metrics *infra.Metrics, logger infra.Logger) Providers {
	var out Providers

	if c, err := openai.NewClient(openai.Options{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		Model:          cfg.OpenAIImageModel,
		RequestTimeout: cfg.ProviderTimeout,
	}); err == nil {
		out.TextToImage = image.Instrument("openai", c, metrics, logger)
	} else {
		warnProvider(logger, "openai", err, errors.Is(err, openai.ErrMissingAPIKey))
	}

	if c, err := stability.NewClient(stability.Options{
		APIKey:         cfg.StabilityAPIKey,
		BaseURL:        cfg.StabilityBaseURL,
		RequestTimeout: cfg.ProviderTimeout,
	}); err == nil {
		out.Inpainter = image.Instrument("stability", c, metrics, logger)
	} else {
		warnProvider(logger, "stability", err, errors.Is(err, stability.ErrMissingAPIKey))
	}

	poll := replicate.DefaultPollPolicy()
	if cfg.ReplicatePollInterval > 0 {
		poll.Interval = cfg.ReplicatePollInterval
	}
	if cfg.ReplicatePollMax > 0 {
		poll.MaxElapsed = cfg.ReplicatePollMax
	}
	if c, err := replicate.NewClient(replicate.Options{
		APIToken:       cfg.ReplicateAPIToken,
		BaseURL:        cfg.ReplicateBaseURL,
		Version:        cfg.ReplicateVitonVersion,
		Poll:           poll,
		Logger:         &logger,
		RequestTimeout: cfg.ProviderTimeout,
	}); err == nil {
		out.TryOn = image.Instrument("replicate", c, metrics, logger)
	} else {
		warnProvider(logger, "replicate", err, errors.Is(err, replicate.ErrMissingAPIToken))
	}

	return out
}

func warnProvider(logger infra.Logger, name string, err error, missingKey bool) {
	if missingKey {
		logger.Warn().Str("provider", name).Msg("provider credentials missing, strategy disabled")
		return
	}
	logger.Error().Err(err).Str("provider", name).Msg("provider configuration failed")
}
