package tryon

import (
	"context"
	"fmt"
	"strings"

	"tryon/internal/domain"
)

// Batch limits.
const (
	DefaultBatchSize = 3
	MaxBatchSize     = 20
)

// BatchMode selects the generation path used for every item of a refresh.
type BatchMode string

const (
	ModeTryOn   BatchMode = "tryon"
	ModeInpaint BatchMode = "inpaint"
	ModeText    BatchMode = "text"
)

// ParseBatchMode maps user input to a BatchMode; empty means tryon.
func ParseBatchMode(s string) (BatchMode, error) {
	switch m := BatchMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", ModeTryOn:
		return ModeTryOn, nil
	case ModeInpaint, "stability":
		return ModeInpaint, nil
	case ModeText, "openai":
		return ModeText, nil
	default:
		return "", fmt.Errorf("unknown refresh mode %q", s)
	}
}

// BatchRequest drives Refresh. A nil MaxProducts means DefaultBatchSize; an
// explicit value <= 0 yields an empty batch.
type BatchRequest struct {
	AdminToken         string
	Force              bool
	MaxProducts        *int
	Mode               BatchMode
	GenerateBaseModels int
}

// ItemResult is the outcome for one product. Exactly one of URL or Error is set.
type ItemResult struct {
	ProductID string `json:"productId"`
	URL       string `json:"url,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResult collects per-item outcomes in processing order.
type BatchResult struct {
	Results    []ItemResult            `json:"results"`
	BaseModels []domain.BaseModelImage `json:"-"`
}

// Succeeded counts items that produced a URL.
func (b *BatchResult) Succeeded() int {
	n := 0
	for _, r := range b.Results {
		if r.Error == "" {
			n++
		}
	}
	return n
}

// BatchLimit resolves the effective item count for a requested maximum.
func BatchLimit(requested *int) int {
	if requested == nil {
		return DefaultBatchSize
	}
	n := *requested
	if n <= 0 {
		return 0
	}
	if n > MaxBatchSize {
		return MaxBatchSize
	}
	return n
}

// Refresh generates catalog photos for several products, one at a time.
// Each item passes the governor on its own, so a quota hit fails that item
// and every later one without aborting the batch. Governance failures before
// the first item abort the whole batch.
func (o *Orchestrator) Refresh(ctx context.Context, req BatchRequest) (*BatchResult, error) {
	if err := o.gov.AssertEnabled(req.AdminToken); err != nil {
		return nil, err
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeTryOn
	}
	log := o.logger.With().Str("mode", string(mode)).Bool("force", req.Force).Logger()

	out := &BatchResult{Results: []ItemResult{}}
	if req.GenerateBaseModels > 0 {
		images, err := o.GenerateBaseModels(ctx, req.AdminToken, req.GenerateBaseModels)
		out.BaseModels = images
		if err != nil {
			return out, fmt.Errorf("bootstrap base models: %w", err)
		}
		log.Info().Int("count", len(images)).Msg("base models bootstrapped")
	}

	limit := BatchLimit(req.MaxProducts)
	if limit == 0 {
		return out, nil
	}

	var (
		products []domain.Garment
		err      error
	)
	if req.Force {
		products, err = o.products.ListAny(ctx, limit)
	} else {
		products, err = o.products.ListMissingAI(ctx, limit)
	}
	if err != nil {
		return out, fmt.Errorf("list products: %w", err)
	}
	log.Info().Int("products", len(products)).Int("limit", limit).Msg("refresh started")

	for _, p := range products {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		item := ItemResult{ProductID: p.ID}
		res, err := o.refreshOne(ctx, mode, p.ID, req.AdminToken)
		if err != nil {
			item.Error = err.Error()
		} else {
			item.URL = res.URL
		}
		o.metrics.ObserveRefreshItem(err == nil)
		out.Results = append(out.Results, item)
	}
	log.Info().Int("succeeded", out.Succeeded()).Int("total", len(out.Results)).Msg("refresh finished")
	return out, nil
}

func (o *Orchestrator) refreshOne(ctx context.Context, mode BatchMode, productID, adminToken string) (*Result, error) {
	switch mode {
	case ModeText:
		return o.GenerateCatalogImage(ctx, productID, adminToken)
	case ModeInpaint:
		return o.DressProduct(ctx, Request{ProductID: productID, AdminToken: adminToken, Strategy: StrategyInpaint})
	default:
		return o.DressProduct(ctx, Request{ProductID: productID, AdminToken: adminToken})
	}
}
