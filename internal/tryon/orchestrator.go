// Package tryon orchestrates a single garment generation from governance
// through provider dispatch to persistence.
package tryon

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"tryon/internal/basemodel"
	"tryon/internal/domain"
	"tryon/internal/garment"
	"tryon/internal/governor"
	"tryon/internal/infra"
	"tryon/internal/providers/image"
	"tryon/internal/storage"
	"tryon/internal/transform"
)

// ErrProviderNotConfigured is returned when the strategy needs a provider
// that was not wired at startup.
var ErrProviderNotConfigured = errors.New("tryon: provider not configured")

// State is a step of the generation state machine.
type State string

const (
	StateGated           State = "gated"
	StateClassified      State = "classified"
	StateBasePrepared    State = "base_prepared"
	StateDispatched      State = "dispatched"
	StateRetryDispatched State = "retry_dispatched"
	StateSucceeded       State = "succeeded"
	StateFailed          State = "failed"
)

// Strategy selects the provider path. StrategyAuto picks by region.
type Strategy string

const (
	StrategyAuto    Strategy = ""
	StrategyInpaint Strategy = "inpaint"
	StrategyViton   Strategy = "viton"
	StrategyText    Strategy = "text"

	// StrategyGarmentPhoto repaints the garment's own photo into a model
	// shot. It needs no base model and is admin-only.
	StrategyGarmentPhoto Strategy = "img2img"
)

// ParseStrategy maps user input to a Strategy. Unknown values are rejected.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case StrategyAuto, "auto":
		return StrategyAuto, nil
	case StrategyInpaint, "stability":
		return StrategyInpaint, nil
	case StrategyViton, "tryon":
		return StrategyViton, nil
	case StrategyText, "openai":
		return StrategyText, nil
	case StrategyGarmentPhoto, "garment":
		return StrategyGarmentPhoto, nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

// Canvas used for inpainting; portrait to fit a full-body pose.
const (
	CanvasWidth  = 768
	CanvasHeight = 1024
)

// Provider tags recorded with user photos.
const (
	TagVitonUser     = "viton-user"
	TagStabilityUser = "stability-user"
)

// Options wires the orchestrator's collaborators. TextToImage, Inpainter and
// TryOn may be nil; a strategy needing a missing one fails with
// ErrProviderNotConfigured. A nil Store hands provider URLs through unchanged.
type Options struct {
	Governor     *governor.Governor
	Classifier   *garment.Classifier
	Registry     *basemodel.Registry
	Bootstrapper *basemodel.Bootstrapper
	Fetcher      *transform.Fetcher
	TextToImage  image.Generator
	Inpainter    image.Generator
	TryOn        image.Generator
	Store        storage.Store
	Products     domain.ProductRepository
	Photos       domain.PhotoRepository
	Metrics      *infra.Metrics
	Logger       infra.Logger
	Now          func() time.Time
}

// Orchestrator runs generations. It keeps no per-request state.
type Orchestrator struct {
	gov          *governor.Governor
	classifier   *garment.Classifier
	registry     *basemodel.Registry
	bootstrapper *basemodel.Bootstrapper
	fetcher      *transform.Fetcher
	textToImage  image.Generator
	inpainter    image.Generator
	tryOn        image.Generator
	store        storage.Store
	products     domain.ProductRepository
	photos       domain.PhotoRepository
	metrics      *infra.Metrics
	logger       infra.Logger
	now          func() time.Time
}

// New validates opts and builds an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Governor == nil {
		return nil, errors.New("tryon: governor is required")
	}
	if opts.Products == nil || opts.Photos == nil {
		return nil, errors.New("tryon: product and photo repositories are required")
	}
	if opts.Registry == nil {
		return nil, errors.New("tryon: base model registry is required")
	}
	o := &Orchestrator{
		gov:          opts.Governor,
		classifier:   opts.Classifier,
		registry:     opts.Registry,
		bootstrapper: opts.Bootstrapper,
		fetcher:      opts.Fetcher,
		textToImage:  opts.TextToImage,
		inpainter:    opts.Inpainter,
		tryOn:        opts.TryOn,
		store:        opts.Store,
		products:     opts.Products,
		photos:       opts.Photos,
		metrics:      opts.Metrics,
		logger:       infra.Component(opts.Logger, "tryon"),
		now:          opts.Now,
	}
	if o.classifier == nil {
		o.classifier = garment.NewClassifier()
	}
	if o.fetcher == nil {
		o.fetcher = transform.NewFetcher(nil, 0)
	}
	if o.now == nil {
		o.now = time.Now
	}
	return o, nil
}

// Request is an admin-pipeline generation for one product.
type Request struct {
	ProductID    string
	AdminToken   string
	BaseImageURL string
	Region       domain.Region
	Strategy     Strategy
}

// UserRequest dresses a customer's own photo. The photo is the only body
// image; there is no fallback.
type UserRequest struct {
	ProductID    string
	CustomerID   string
	BaseImageURL string
	Region       domain.Region
	Strategy     Strategy
}

// Result describes a persisted generation.
type Result struct {
	URL          string
	Photo        *domain.GeneratedPhoto
	Region       domain.Region
	Gender       domain.Gender
	Strategy     Strategy
	Provider     string
	Attempts     int
	UsedFallback bool
}

// job is the ephemeral generation request assembled across states.
type job struct {
	productID  string
	customerID string
	adminToken string
	explicit   string
	region     domain.Region
	strategy   Strategy
	user       bool

	garment    *domain.Garment
	facts      garment.Facts
	gender     domain.Gender
	candidates basemodel.Candidates
	garmentSrc *image.SourceImage
}

// DressProduct renders the product on a base model and replaces the
// product's catalog photo.
func (o *Orchestrator) DressProduct(ctx context.Context, req Request) (*Result, error) {
	if req.Strategy == StrategyText {
		return o.GenerateCatalogImage(ctx, req.ProductID, req.AdminToken)
	}
	return o.run(ctx, &job{
		productID:  strings.TrimSpace(req.ProductID),
		adminToken: req.AdminToken,
		explicit:   strings.TrimSpace(req.BaseImageURL),
		region:     req.Region,
		strategy:   req.Strategy,
	})
}

// DressUser renders the product on the customer's photo and appends the
// result to the customer's gallery.
func (o *Orchestrator) DressUser(ctx context.Context, req UserRequest) (*Result, error) {
	if strings.TrimSpace(req.CustomerID) == "" {
		return nil, domain.ErrUnauthorized
	}
	if strings.TrimSpace(req.BaseImageURL) == "" {
		return nil, fmt.Errorf("%w: customer photo is required", domain.ErrNoBaseModel)
	}
	if req.Strategy == StrategyText || req.Strategy == StrategyGarmentPhoto {
		return nil, fmt.Errorf("tryon: %s strategy is not available for user try-on", req.Strategy)
	}
	return o.run(ctx, &job{
		productID:  strings.TrimSpace(req.ProductID),
		customerID: strings.TrimSpace(req.CustomerID),
		explicit:   strings.TrimSpace(req.BaseImageURL),
		region:     req.Region,
		strategy:   req.Strategy,
		user:       true,
	})
}

func (o *Orchestrator) run(ctx context.Context, j *job) (res *Result, err error) {
	log := o.logger.With().Str("product_id", j.productID).Bool("user", j.user).Logger()
	defer func() {
		o.metrics.ObserveGeneration(string(j.strategy), err)
		if err != nil {
			log.Warn().Err(err).Str("state", string(StateFailed)).Msg("generation failed")
		}
	}()

	if err := o.gate(ctx, j); err != nil {
		return nil, err
	}
	log.Debug().Str("state", string(StateGated)).Msg("transition")

	if err := o.classify(ctx, j); err != nil {
		return nil, err
	}
	log.Debug().Str("state", string(StateClassified)).
		Str("region", string(j.region)).
		Str("gender", string(j.gender)).
		Str("strategy", string(j.strategy)).
		Msg("transition")

	if err := o.prepareBase(ctx, j); err != nil {
		return nil, err
	}
	log.Debug().Str("state", string(StateBasePrepared)).Bool("has_fallback", j.candidates.Fallback != "").Msg("transition")

	// A dispatched call runs to completion even when the caller goes away.
	dctx := context.WithoutCancel(ctx)

	attempts := 1
	usedFallback := false
	log.Info().Str("state", string(StateDispatched)).Int("attempt", attempts).Str("strategy", string(j.strategy)).Msg("transition")
	out, err := o.dispatch(dctx, j, j.candidates.Primary)
	if err != nil && j.candidates.Fallback != "" {
		firstErr := err
		attempts++
		log.Warn().Err(firstErr).Str("state", string(StateRetryDispatched)).Int("attempt", attempts).Msg("transition")
		out, err = o.dispatch(dctx, j, j.candidates.Fallback)
		if err != nil {
			log.Warn().Err(err).Int("attempt", attempts).Msg("fallback dispatch failed")
			return nil, firstErr
		}
		usedFallback = true
	}
	if err != nil {
		return nil, err
	}

	photo, url, err := o.persist(dctx, j, out)
	if err != nil {
		return nil, err
	}
	log.Info().Str("state", string(StateSucceeded)).Str("provider", out.Provider).Str("url", url).Msg("transition")
	return &Result{
		URL:          url,
		Photo:        photo,
		Region:       j.region,
		Gender:       j.gender,
		Strategy:     j.strategy,
		Provider:     out.Provider,
		Attempts:     attempts,
		UsedFallback: usedFallback,
	}, nil
}

// gate checks the feature flag, the admin token for admin runs, and consumes
// one unit of the daily quota.
func (o *Orchestrator) gate(ctx context.Context, j *job) error {
	var err error
	if j.user {
		err = o.gov.AssertFeatureEnabled()
	} else {
		err = o.gov.AssertEnabled(j.adminToken)
	}
	if err != nil {
		return err
	}
	return o.gov.CheckQuota(ctx)
}

func (o *Orchestrator) classify(ctx context.Context, j *job) error {
	g, err := o.loadProduct(ctx, j.productID)
	if err != nil {
		return err
	}
	j.garment = g
	j.facts = garment.FactsFrom(g)
	if !j.region.Valid() {
		j.region = o.classifier.ClassifyRegion(g)
	}
	j.gender = o.classifier.ClassifyGender(g)

	switch j.strategy {
	case StrategyInpaint, StrategyViton, StrategyGarmentPhoto:
	default:
		j.strategy = StrategyViton
		if j.region == domain.RegionBelt {
			j.strategy = StrategyInpaint
		}
	}

	if _, ok := g.PrimaryPhoto(); !ok {
		return fmt.Errorf("product %s: %w", g.ID, domain.ErrMissingGarmentImage)
	}
	return nil
}

func (o *Orchestrator) loadProduct(ctx context.Context, productID string) (*domain.Garment, error) {
	if productID == "" {
		return nil, fmt.Errorf("%w: empty product id", domain.ErrProductNotFound)
	}
	g, err := o.products.FetchProductByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch product %s: %w", productID, err)
	}
	if g == nil {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrProductNotFound)
	}
	return g, nil
}

func (o *Orchestrator) prepareBase(ctx context.Context, j *job) error {
	if j.strategy == StrategyGarmentPhoto {
		photo, _ := j.garment.PrimaryPhoto()
		src, err := o.canvas(ctx, photo)
		if err != nil {
			return fmt.Errorf("prepare garment image: %w", err)
		}
		j.garmentSrc = src
		j.candidates = basemodel.Candidates{Primary: photo}
		return nil
	}
	if j.user {
		j.candidates = basemodel.Candidates{Primary: j.explicit}
	} else {
		c, err := o.registry.Candidates(ctx, j.gender, j.explicit)
		if err != nil {
			return fmt.Errorf("resolve base model: %w", err)
		}
		j.candidates = c
	}
	if j.candidates.Empty() {
		return domain.ErrNoBaseModel
	}

	if j.strategy == StrategyViton {
		photo, _ := j.garment.PrimaryPhoto()
		src, err := o.prepareSource(ctx, photo)
		if err != nil {
			return fmt.Errorf("prepare garment image: %w", err)
		}
		j.garmentSrc = src
	}
	return nil
}

func (o *Orchestrator) dispatch(ctx context.Context, j *job, baseURL string) (*image.Output, error) {
	switch j.strategy {
	case StrategyInpaint:
		return o.dispatchInpaint(ctx, j, baseURL)
	case StrategyGarmentPhoto:
		return o.dispatchGarmentPhoto(ctx, j)
	default:
		return o.dispatchViton(ctx, j, baseURL)
	}
}

func (o *Orchestrator) dispatchViton(ctx context.Context, j *job, baseURL string) (*image.Output, error) {
	if o.tryOn == nil {
		return nil, fmt.Errorf("%w: try-on", ErrProviderNotConfigured)
	}
	human, err := o.prepareSource(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("prepare base image: %w", err)
	}
	return o.tryOn.Generate(ctx, image.Request{
		Operation:          image.OperationTryOn,
		Base:               human,
		Garment:            j.garmentSrc,
		Category:           garment.VitonCategory(j.region),
		GarmentDescription: j.facts.GarmentDescription(j.region),
		RequestID:          j.productID,
	})
}

func (o *Orchestrator) dispatchInpaint(ctx context.Context, j *job, baseURL string) (*image.Output, error) {
	if o.inpainter == nil {
		return nil, fmt.Errorf("%w: inpaint", ErrProviderNotConfigured)
	}
	base, err := o.canvas(ctx, baseURL)
	if err != nil {
		return nil, fmt.Errorf("prepare base image: %w", err)
	}
	maskPNG, err := buildMask(j.region)
	if err != nil {
		return nil, err
	}
	return o.inpainter.Generate(ctx, image.Request{
		Operation:      image.OperationInpaint,
		Prompt:         j.facts.InpaintPrompt(j.region),
		NegativePrompt: garment.NegativePrompt,
		Base:           base,
		Mask:           maskPNG,
		RequestID:      j.productID,
	})
}

func (o *Orchestrator) dispatchGarmentPhoto(ctx context.Context, j *job) (*image.Output, error) {
	if o.inpainter == nil {
		return nil, fmt.Errorf("%w: image-to-image", ErrProviderNotConfigured)
	}
	return o.inpainter.Generate(ctx, image.Request{
		Operation:      image.OperationImageToImage,
		Prompt:         j.facts.TextToImagePrompt(),
		NegativePrompt: garment.NegativePrompt,
		Garment:        j.garmentSrc,
		RequestID:      j.productID,
	})
}

// persist stores the output and records it: replace-latest for admin runs,
// append for customers. Failures after generation carry the generated URL.
func (o *Orchestrator) persist(ctx context.Context, j *job, out *image.Output) (*domain.GeneratedPhoto, string, error) {
	vis := storage.Public
	key := func(contentType string) string {
		return storage.ProductKey(j.productID, o.now(), contentType)
	}
	if j.user {
		vis = storage.Private
		key = func(contentType string) string {
			return storage.UserTryOnKey(j.customerID, j.productID, o.now(), contentType)
		}
	}

	url, err := o.storeOutput(ctx, out, key, vis)
	if err != nil {
		return nil, "", err
	}

	var photo *domain.GeneratedPhoto
	if j.user {
		photo, err = o.photos.InsertUserPhoto(ctx, j.productID, j.customerID, url, userTag(j.strategy))
	} else {
		photo, err = o.photos.UpsertCatalogPhoto(ctx, j.productID, url, out.Provider)
	}
	if err != nil {
		return nil, "", &domain.PersistenceError{Stage: "catalog", GeneratedURL: url, Err: err}
	}
	return photo, url, nil
}

func userTag(s Strategy) string {
	if s == StrategyInpaint {
		return TagStabilityUser
	}
	return TagVitonUser
}
