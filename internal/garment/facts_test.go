package garment

import (
	"strings"
	"testing"

	"tryon/internal/domain"
)

func TestGarmentDescriptionRelaxedJeans(t *testing.T) {
	f := FactsFrom(&domain.Garment{
		Name:     "Relaxed Fit Jeans",
		Colour:   "indigo",
		Fit:      "Relaxed",
		Material: "denim",
	})
	got := f.GarmentDescription(domain.RegionLower)
	want := "Relaxed Fit Jeans, color indigo, baggy/loose fit: wide leg, roomy silhouette, no taper, material denim, " + vitonConstraints
	if got != want {
		t.Fatalf("GarmentDescription()\n got: %s\nwant: %s", got, want)
	}
}

func TestGarmentDescriptionLengthNoteOnlyForFullBody(t *testing.T) {
	f := FactsFrom(&domain.Garment{Name: "Satin Dress", Description: "A maxi silhouette"})
	if got := f.GarmentDescription(domain.RegionFull); !strings.Contains(got, "maxi length dress") {
		t.Fatalf("expected maxi length note, got %s", got)
	}
	if got := f.GarmentDescription(domain.RegionUpper); strings.Contains(got, "length dress") {
		t.Fatalf("unexpected length note for upper body: %s", got)
	}
	plain := FactsFrom(&domain.Garment{Name: "Wrap Dress"})
	if got := plain.GarmentDescription(domain.RegionFull); !strings.Contains(got, "knee-length dress") {
		t.Fatalf("expected knee-length default, got %s", got)
	}
}

func TestGarmentDescriptionFitFallback(t *testing.T) {
	slim := FactsFrom(&domain.Garment{Name: "Chinos", Fit: "Skinny"})
	if got := slim.GarmentDescription(domain.RegionLower); !strings.Contains(got, "slim fit") {
		t.Fatalf("expected slim fit note: %s", got)
	}
	regular := FactsFrom(&domain.Garment{Name: "Chinos", Fit: "Regular"})
	if got := regular.GarmentDescription(domain.RegionLower); !strings.Contains(got, "fit Regular") {
		t.Fatalf("expected raw fit: %s", got)
	}
}

func TestTextToImagePromptDefaults(t *testing.T) {
	got := FactsFrom(&domain.Garment{Name: "Basic Tee"}).TextToImagePrompt()
	for _, want := range []string{`- Name: "Basic Tee"`, "- Brand: Unbranded", "- Category: Apparel", "- Colour: unspecified", "standard sample size", "Hard constraints:"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q: %s", want, got)
		}
	}
	if strings.Contains(got, "Fit / cut") {
		t.Fatalf("fit line should be omitted: %s", got)
	}
}

func TestTextToImagePromptIncludesFacts(t *testing.T) {
	got := FactsFrom(&domain.Garment{
		Name: "Relaxed Fit Jeans", Brand: "Uniqlo", Category: "Men", Subcategory: "Bottoms",
		Colour: "indigo", Size: "32", Fit: "Relaxed", Material: "denim", Description: "five pocket",
	}).TextToImagePrompt()
	for _, want := range []string{"- Category: Men / Bottoms", "- Fit / cut: Relaxed", "- Material: denim.", "- Description notes: five pocket"} {
		if !strings.Contains(got, want) {
			t.Fatalf("prompt missing %q: %s", want, got)
		}
	}
}

func TestInpaintPromptBelt(t *testing.T) {
	got := FactsFrom(&domain.Garment{Name: "Leather Belt", Colour: "tan"}).InpaintPrompt(domain.RegionBelt)
	if !strings.Contains(got, "waist") || !strings.Contains(got, "exact colour tan") {
		t.Fatalf("unexpected belt prompt: %s", got)
	}
}

func TestBaseModelPromptGender(t *testing.T) {
	if !strings.Contains(BaseModelPrompt(domain.GenderFemale), "female") {
		t.Fatalf("female prompt missing gender")
	}
	if !strings.Contains(BaseModelPrompt(domain.GenderMale), "male fashion model") {
		t.Fatalf("male prompt missing gender")
	}
}
