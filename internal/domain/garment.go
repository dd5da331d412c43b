package domain

// Region names the body area a garment covers.
type Region string

const (
	RegionUpper Region = "upper"
	RegionLower Region = "lower"
	RegionFull  Region = "full"
	RegionBelt  Region = "belt"
)

// Valid reports whether r is one of the known regions.
func (r Region) Valid() bool {
	switch r {
	case RegionUpper, RegionLower, RegionFull, RegionBelt:
		return true
	}
	return false
}

// Gender tags garments and base-model images.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderUnisex      Gender = "unisex"
	GenderUnspecified Gender = "unspecified"
)

// Opposite returns the gender used for fallback base images. Anything that
// is not male falls back to male, except male itself.
func (g Gender) Opposite() Gender {
	if g == GenderMale {
		return GenderFemale
	}
	return GenderMale
}

// Garment is the product view consumed by the pipeline. Optional attributes are empty strings.
type Garment struct {
	ID          string
	Name        string
	Brand       string
	Category    string
	Subcategory string
	Colour      string
	Size        string
	Fit         string
	Material    string
	Description string
	Photos      []string
}

// PrimaryPhoto returns the first non-empty reference photo.
func (g *Garment) PrimaryPhoto() (string, bool) {
	if g == nil {
		return "", false
	}
	for _, p := range g.Photos {
		if p != "" {
			return p, true
		}
	}
	return "", false
}
