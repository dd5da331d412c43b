package basemodel

import (
	"context"
	"fmt"
	"time"

	"tryon/internal/domain"
	"tryon/internal/garment"
	"tryon/internal/infra"
	"tryon/internal/providers/image"
	"tryon/internal/storage"
	"tryon/internal/transform"
)

// MaxBootstrapCount caps how many base models one call may generate.
const MaxBootstrapCount = 8

// Bootstrapper generates stock mannequin photos and records them in the repository.
type Bootstrapper struct {
	generator image.Generator
	fetcher   *transform.Fetcher
	store     storage.Store
	repo      domain.BaseModelRepository
	logger    infra.Logger
	now       func() time.Time
}

func NewBootstrapper(generator image.Generator, fetcher *transform.Fetcher, store storage.Store, repo domain.BaseModelRepository, logger infra.Logger) *Bootstrapper {
	return &Bootstrapper{
		generator: generator,
		fetcher:   fetcher,
		store:     store,
		repo:      repo,
		logger:    infra.Component(logger, "basemodel"),
		now:       time.Now,
	}
}

// ClampCount bounds a requested count to 1..MaxBootstrapCount.
func ClampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxBootstrapCount {
		return MaxBootstrapCount
	}
	return n
}

// Generate produces count base models alternating female and male. It stops
// at the first failure and returns what was recorded so far.
func (b *Bootstrapper) Generate(ctx context.Context, count int) ([]domain.BaseModelImage, error) {
	if b.generator == nil {
		return nil, fmt.Errorf("base model generator not configured")
	}
	count = ClampCount(count)
	out := make([]domain.BaseModelImage, 0, count)
	for i := 0; i < count; i++ {
		gender := domain.GenderFemale
		if i%2 == 1 {
			gender = domain.GenderMale
		}
		img, err := b.generateOne(ctx, gender)
		if err != nil {
			return out, fmt.Errorf("base model %d/%d: %w", i+1, count, err)
		}
		b.logger.Info().Str("gender", string(gender)).Str("url", img.URL).Msg("base model recorded")
		out = append(out, *img)
	}
	return out, nil
}

func (b *Bootstrapper) generateOne(ctx context.Context, gender domain.Gender) (*domain.BaseModelImage, error) {
	res, err := b.generator.Generate(ctx, image.Request{
		Operation:      image.OperationTextToImage,
		Prompt:         garment.BaseModelPrompt(gender),
		NegativePrompt: garment.NegativePrompt,
	})
	if err != nil {
		return nil, err
	}

	url := res.URL
	if b.store != nil {
		data, contentType := res.Data, res.ContentType
		if !res.Inline() {
			data, contentType, err = b.fetcher.FetchAsBytes(ctx, res.URL)
			if err != nil {
				return nil, err
			}
		}
		url, err = b.store.Put(ctx, storage.BaseModelKey(string(gender), b.now(), contentType), data, contentType, storage.Public)
		if err != nil {
			return nil, &domain.PersistenceError{Stage: "store", GeneratedURL: res.URL, Err: err}
		}
	} else if res.Inline() {
		return nil, &domain.PersistenceError{Stage: "store", Err: fmt.Errorf("inline output requires a storage backend")}
	}

	rec, err := b.repo.Insert(ctx, domain.BaseModelImage{URL: url, Gender: gender})
	if err != nil {
		return nil, &domain.PersistenceError{Stage: "catalog", GeneratedURL: url, Err: err}
	}
	return rec, nil
}
