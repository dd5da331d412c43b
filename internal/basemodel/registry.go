// Package basemodel selects and produces the stock body photos used as try-on input.
package basemodel

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"tryon/internal/domain"
)

// Registry resolves base-model images from the repository.
type Registry struct {
	repo domain.BaseModelRepository
}

func NewRegistry(repo domain.BaseModelRepository) *Registry {
	return &Registry{repo: repo}
}

// Candidates is the primary body image and the one to retry with. Fallback
// is empty when it would repeat Primary.
type Candidates struct {
	Primary  string
	Fallback string
}

// Empty reports whether no image is available at all.
func (c Candidates) Empty() bool {
	return c.Primary == "" && c.Fallback == ""
}

// Latest returns the newest image tagged gender. Unisex or empty gender, and
// genders with no images, resolve to the newest image overall.
func (r *Registry) Latest(ctx context.Context, gender domain.Gender) (string, bool, error) {
	if tagged(gender) {
		img, err := r.repo.Latest(ctx, gender)
		if err != nil {
			return "", false, fmt.Errorf("latest %s base model: %w", gender, err)
		}
		if img != nil && img.URL != "" {
			return img.URL, true, nil
		}
	}
	img, err := r.repo.Latest(ctx, "")
	if err != nil {
		return "", false, fmt.Errorf("latest base model: %w", err)
	}
	if img == nil || img.URL == "" {
		return "", false, nil
	}
	return img.URL, true, nil
}

// Candidates resolves the primary and fallback images for a garment gender.
// An explicit image always becomes the primary. The two lookups run concurrently.
func (r *Registry) Candidates(ctx context.Context, gender domain.Gender, explicit string) (Candidates, error) {
	var primary, fallback string
	explicit = strings.TrimSpace(explicit)

	g, gctx := errgroup.WithContext(ctx)
	if explicit == "" {
		g.Go(func() error {
			url, _, err := r.Latest(gctx, gender)
			primary = url
			return err
		})
	} else {
		primary = explicit
	}
	g.Go(func() error {
		url, _, err := r.Latest(gctx, gender.Opposite())
		fallback = url
		return err
	})
	if err := g.Wait(); err != nil {
		return Candidates{}, err
	}

	if primary == "" {
		primary, fallback = fallback, ""
	}
	if fallback == primary {
		fallback = ""
	}
	return Candidates{Primary: primary, Fallback: fallback}, nil
}

func tagged(g domain.Gender) bool {
	return g == domain.GenderMale || g == domain.GenderFemale
}
