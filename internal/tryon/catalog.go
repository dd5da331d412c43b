package tryon

import (
	"context"
	"fmt"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/garment"
	"tryon/internal/providers/image"
)

// CatalogImageSize is the square size requested for text-to-image catalog shots.
const CatalogImageSize = "1024x1024"

// GenerateCatalogImage renders a studio photo of the product from its facts
// alone and replaces the product's catalog photo.
func (o *Orchestrator) GenerateCatalogImage(ctx context.Context, productID, adminToken string) (res *Result, err error) {
	productID = strings.TrimSpace(productID)
	log := o.logger.With().Str("product_id", productID).Str("strategy", string(StrategyText)).Logger()
	defer func() {
		o.metrics.ObserveGeneration(string(StrategyText), err)
		if err != nil {
			log.Warn().Err(err).Str("state", string(StateFailed)).Msg("catalog image failed")
		}
	}()

	if err := o.gov.AssertEnabled(adminToken); err != nil {
		return nil, err
	}
	if err := o.gov.CheckQuota(ctx); err != nil {
		return nil, err
	}
	if o.textToImage == nil {
		return nil, fmt.Errorf("%w: text-to-image", ErrProviderNotConfigured)
	}

	g, err := o.loadProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	j := &job{productID: productID, strategy: StrategyText, garment: g, facts: garment.FactsFrom(g)}

	dctx := context.WithoutCancel(ctx)
	log.Info().Str("state", string(StateDispatched)).Int("attempt", 1).Msg("transition")
	out, err := o.textToImage.Generate(dctx, image.Request{
		Operation: image.OperationTextToImage,
		Prompt:    j.facts.TextToImagePrompt(),
		Size:      CatalogImageSize,
		RequestID: productID,
	})
	if err != nil {
		return nil, err
	}

	photo, url, err := o.persist(dctx, j, out)
	if err != nil {
		return nil, err
	}
	log.Info().Str("state", string(StateSucceeded)).Str("provider", out.Provider).Str("url", url).Msg("transition")
	return &Result{URL: url, Photo: photo, Strategy: StrategyText, Provider: out.Provider, Attempts: 1}, nil
}

// GenerateBaseModels bootstraps stock base models. The whole call counts as
// one generation against the daily quota.
func (o *Orchestrator) GenerateBaseModels(ctx context.Context, adminToken string, count int) ([]domain.BaseModelImage, error) {
	if err := o.gov.AssertEnabled(adminToken); err != nil {
		return nil, err
	}
	if err := o.gov.CheckQuota(ctx); err != nil {
		return nil, err
	}
	if o.bootstrapper == nil {
		return nil, fmt.Errorf("%w: base model generation", ErrProviderNotConfigured)
	}
	images, err := o.bootstrapper.Generate(context.WithoutCancel(ctx), count)
	if err != nil {
		o.logger.Warn().Err(err).Int("generated", len(images)).Msg("base model bootstrap incomplete")
		return images, err
	}
	return images, nil
}

// DeleteUserPhoto removes a gallery photo owned by customerID. It reports
// false when the photo does not exist or belongs to someone else.
func (o *Orchestrator) DeleteUserPhoto(ctx context.Context, photoID, customerID string) (bool, error) {
	photoID, customerID = strings.TrimSpace(photoID), strings.TrimSpace(customerID)
	if customerID == "" {
		return false, domain.ErrUnauthorized
	}
	if photoID == "" {
		return false, nil
	}
	ok, err := o.photos.DeleteUserPhoto(ctx, photoID, customerID)
	if err != nil {
		return false, fmt.Errorf("delete photo %s: %w", photoID, err)
	}
	return ok, nil
}

// Gallery lists the customer's try-on photos, newest first.
func (o *Orchestrator) Gallery(ctx context.Context, customerID string) ([]domain.GeneratedPhoto, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, domain.ErrUnauthorized
	}
	items, err := o.photos.ListUserPhotos(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	return items, nil
}

// UsageReport is the daily ceiling view. Used counts reserved generation
// units, GeneratedToday counts photo rows written since UTC midnight.
type UsageReport struct {
	Used           int
	DailyCap       int
	GeneratedToday int
}

// Usage reports today's consumed generations, the ceiling and the number of
// photos generated today. It requires the admin token but not the feature
// flag.
func (o *Orchestrator) Usage(ctx context.Context, adminToken string) (UsageReport, error) {
	if err := o.gov.AssertAdmin(adminToken); err != nil {
		return UsageReport{}, err
	}
	used, ceiling, err := o.gov.Usage(ctx)
	if err != nil {
		return UsageReport{DailyCap: ceiling}, err
	}
	generated, err := o.photos.CountCreatedOn(ctx, o.now())
	if err != nil {
		return UsageReport{Used: used, DailyCap: ceiling}, fmt.Errorf("count generated photos: %w", err)
	}
	return UsageReport{Used: used, DailyCap: ceiling, GeneratedToday: generated}, nil
}
