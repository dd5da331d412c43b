// Package mask renders inpainting masks: white marks pixels to replace, black pixels to keep.
package mask

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"

	"tryon/internal/domain"
)

// MaxDimension bounds the canvas a mask can be built for.
const MaxDimension = 4096

// template holds the replaceable rectangle as fractions of the canvas. No
// template reaches into the top 15% so faces stay untouched.
type template struct {
	x, y, w, h float64
}

var templates = map[domain.Region]template{
	domain.RegionUpper: {x: 0.20, y: 0.18, w: 0.60, h: 0.37},
	domain.RegionLower: {x: 0.18, y: 0.43, w: 0.64, h: 0.55},
	domain.RegionFull:  {x: 0.15, y: 0.16, w: 0.70, h: 0.80},
	domain.RegionBelt:  {x: 0.25, y: 0.42, w: 0.50, h: 0.12},
}

// Rect returns the white rectangle for region on a width x height canvas.
// The rectangle always leaves at least a one pixel black border.
func Rect(region domain.Region, width, height int) (image.Rectangle, error) {
	if width < 3 || height < 3 || width > MaxDimension || height > MaxDimension {
		return image.Rectangle{}, fmt.Errorf("invalid mask size %dx%d", width, height)
	}
	t, ok := templates[region]
	if !ok {
		return image.Rectangle{}, fmt.Errorf("unknown mask region %q", region)
	}

	x0 := clamp(frac(t.x, width), 1, width-2)
	y0 := clamp(frac(t.y, height), 1, height-2)
	x1 := clamp(frac(t.x+t.w, width), x0+1, width-1)
	y1 := clamp(frac(t.y+t.h, height), y0+1, height-1)
	return image.Rect(x0, y0, x1, y1), nil
}

// Build renders the mask for region as PNG bytes. Output is deterministic for equal inputs.
func Build(region domain.Region, width, height int) ([]byte, error) {
	rect, err := Rect(region, width, height)
	if err != nil {
		return nil, err
	}

	canvas := imaging.New(width, height, color.Black)
	white := imaging.New(rect.Dx(), rect.Dy(), color.White)
	canvas = imaging.Paste(canvas, white, rect.Min)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, canvas, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode mask: %w", err)
	}
	return buf.Bytes(), nil
}

func frac(f float64, n int) int {
	return int(math.Round(f * float64(n)))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
