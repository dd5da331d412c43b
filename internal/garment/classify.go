// Package garment infers try-on parameters from catalog attributes.
package garment

import (
	"strings"

	"golang.org/x/text/cases"

	"tryon/internal/domain"
)

var (
	beltKeywords  = []string{"belt"}
	dressKeywords = []string{"dress", "gown", "jumpsuit"}
	lowerKeywords = []string{"jean", "pant", "trouser", "short", "skirt", "bottom"}
	upperKeywords = []string{"shirt", "top", "tee", "hoodie", "sweater", "jacket", "coat", "blazer", "sweatshirt"}
)

// OverrideFunc returns an explicit region for a garment. ok=false defers to keyword inference.
type OverrideFunc func(g *domain.Garment) (domain.Region, bool)

// Classifier maps a garment to a body region and gender.
type Classifier struct {
	fold     cases.Caser
	override OverrideFunc
}

// NewClassifier returns a keyword classifier without overrides.
func NewClassifier() *Classifier {
	return &Classifier{fold: cases.Fold()}
}

// WithOverride returns a copy of c that consults fn before keyword inference.
func (c *Classifier) WithOverride(fn OverrideFunc) *Classifier {
	return &Classifier{fold: cases.Fold(), override: fn}
}

// ClassifyRegion determines the region a garment covers. It never fails;
// unmatched garments are treated as full body.
func (c *Classifier) ClassifyRegion(g *domain.Garment) domain.Region {
	if c.override != nil {
		if r, ok := c.override(g); ok && r.Valid() {
			return r
		}
	}
	text := c.haystack(g)
	switch {
	case containsAny(text, beltKeywords):
		return domain.RegionBelt
	case containsAny(text, dressKeywords):
		return domain.RegionFull
	case containsAny(text, lowerKeywords):
		return domain.RegionLower
	case containsAny(text, upperKeywords):
		return domain.RegionUpper
	default:
		return domain.RegionFull
	}
}

// ClassifyGender determines the intended wearer. "women" is checked first
// since it contains "men".
func (c *Classifier) ClassifyGender(g *domain.Garment) domain.Gender {
	text := c.haystack(g)
	switch {
	case strings.Contains(text, "women"):
		return domain.GenderFemale
	case strings.Contains(text, "men"):
		return domain.GenderMale
	default:
		return domain.GenderUnisex
	}
}

func (c *Classifier) haystack(g *domain.Garment) string {
	if g == nil {
		return ""
	}
	return c.fold.String(strings.Join([]string{g.Name, g.Category, g.Subcategory}, " "))
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

// VitonCategory maps a region to the category label accepted by the VITON model.
func VitonCategory(r domain.Region) string {
	switch r {
	case domain.RegionLower:
		return "lower_body"
	case domain.RegionFull:
		return "dresses"
	default:
		return "upper_body"
	}
}
