package garment

import (
	"fmt"
	"strings"

	"tryon/internal/domain"
)

const (
	vitonConstraints = "avoid changing silhouette; keep stated fit and length; no turning belt into jacket; do not slim wide legs"
	photoConstraints = "Hard constraints: no extra accessories, no pattern or color changes, keep any implied logos only, realistic fabric texture, respect the stated fit and silhouette."

	// NegativePrompt steers Stability edits away from common garment distortions.
	NegativePrompt = "extra limbs, distorted hands, altered face, changed background, different garment, wrong colour, extra accessories, slimmed legs, cropped garment, text, watermark, blurry"
)

// Facts is the structured description of a garment used by every prompt.
// Empty fields are omitted from rendered text.
type Facts struct {
	Name        string
	Brand       string
	Category    string
	Subcategory string
	Colour      string
	Size        string
	Fit         string
	Material    string
	Description string
}

// FactsFrom copies the prompt-relevant attributes of g with whitespace trimmed.
func FactsFrom(g *domain.Garment) Facts {
	if g == nil {
		return Facts{}
	}
	return Facts{
		Name:        strings.TrimSpace(g.Name),
		Brand:       strings.TrimSpace(g.Brand),
		Category:    strings.TrimSpace(g.Category),
		Subcategory: strings.TrimSpace(g.Subcategory),
		Colour:      strings.TrimSpace(g.Colour),
		Size:        strings.TrimSpace(g.Size),
		Fit:         strings.TrimSpace(g.Fit),
		Material:    strings.TrimSpace(g.Material),
		Description: strings.TrimSpace(g.Description),
	}
}

// TextToImagePrompt renders the studio photo prompt for text-to-image generation.
func (f Facts) TextToImagePrompt() string {
	category := orDefault(f.Category, "Apparel")
	if f.Subcategory != "" {
		category += " / " + f.Subcategory
	}
	parts := []string{
		"E-commerce studio photo, must exactly match the real garment silhouette and details.",
		"Full-body model, neutral pose, facing camera, balanced lighting, clean light-gray background.",
		"Product facts (follow precisely, no creative changes):",
		fmt.Sprintf("- Name: %q", f.Name),
		"- Brand: " + orDefault(f.Brand, "Unbranded"),
		"- Category: " + category,
		"- Colour: " + orDefault(f.Colour, "unspecified") + ", keep this exact hue.",
		"- Size shown: " + orDefault(f.Size, "standard sample size") + ".",
	}
	if f.Fit != "" {
		parts = append(parts, "- Fit / cut: "+f.Fit+" (keep leg width/shape consistent; do not slim or taper if marked baggy/loose).")
	}
	if f.Material != "" {
		parts = append(parts, "- Material: "+f.Material+".")
	}
	if f.Description != "" {
		parts = append(parts, "- Description notes: "+f.Description)
	}
	parts = append(parts, photoConstraints)
	return strings.Join(parts, " ")
}

// GarmentDescription renders the comma separated garment description sent to VITON.
func (f Facts) GarmentDescription(region domain.Region) string {
	parts := []string{f.Name}
	if f.Colour != "" {
		parts = append(parts, "color "+f.Colour)
	}
	if note := f.fitNote(); note != "" {
		parts = append(parts, note)
	} else if f.Fit != "" {
		parts = append(parts, "fit "+f.Fit)
	}
	if f.Material != "" {
		parts = append(parts, "material "+f.Material)
	}
	if region == domain.RegionFull {
		parts = append(parts, f.lengthNote())
	}
	parts = append(parts, f.Description, vitonConstraints)
	return joinNonEmpty(parts, ", ")
}

// InpaintPrompt renders the Stability edit prompt for placing the garment on a base model.
func (f Facts) InpaintPrompt(region domain.Region) string {
	placement := map[domain.Region]string{
		domain.RegionBelt:  "worn around the waist at the belt line, buckle centered",
		domain.RegionUpper: "worn on the upper body",
		domain.RegionLower: "worn on the lower body from waist to ankles",
		domain.RegionFull:  "worn as a full-body garment",
	}[region]
	if placement == "" {
		placement = "worn by the model"
	}
	parts := []string{
		"Photorealistic e-commerce photo of the same person wearing " + orDefault(f.Name, "the garment"),
		placement,
	}
	if f.Colour != "" {
		parts = append(parts, "exact colour "+f.Colour)
	}
	if f.Material != "" {
		parts = append(parts, f.Material+" texture")
	}
	if note := f.fitNote(); note != "" {
		parts = append(parts, note)
	}
	if f.Description != "" {
		parts = append(parts, f.Description)
	}
	parts = append(parts, "keep face, pose, body and background unchanged", "studio lighting")
	return joinNonEmpty(parts, ", ")
}

// BaseModelPrompt renders the prompt for a neutral stock mannequin photo.
func BaseModelPrompt(g domain.Gender) string {
	subject := "adult fashion model"
	switch g {
	case domain.GenderFemale:
		subject = "adult female fashion model"
	case domain.GenderMale:
		subject = "adult male fashion model"
	}
	return "Full-body studio photo of an " + subject +
		", standing straight facing camera, arms relaxed at sides, plain fitted neutral grey t-shirt and leggings, barefoot," +
		" clean light-gray seamless background, even soft lighting, whole body visible head to feet, no accessories, photorealistic"
}

func (f Facts) fitNote() string {
	fit := strings.ToLower(f.Fit)
	switch {
	case fit == "":
		return ""
	case strings.Contains(fit, "baggy"), strings.Contains(fit, "loose"), strings.Contains(fit, "relaxed"):
		return "baggy/loose fit: wide leg, roomy silhouette, no taper"
	case strings.Contains(fit, "slim"), strings.Contains(fit, "skinny"):
		return "slim fit"
	}
	return ""
}

func (f Facts) lengthNote() string {
	text := strings.ToLower(f.Description)
	if text == "" {
		text = strings.ToLower(f.Name)
	}
	switch {
	case strings.Contains(text, "midi"):
		return "midi length dress"
	case strings.Contains(text, "maxi"):
		return "maxi length dress"
	case strings.Contains(text, "mini"):
		return "mini length dress"
	default:
		return "knee-length dress"
	}
}

func orDefault(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func joinNonEmpty(parts []string, sep string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
