package transform

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

// FitMode controls how a source image is mapped onto the target size.
type FitMode string

const (
	// FitCover crops to fill the target exactly.
	FitCover FitMode = "cover"
	// FitContain letterboxes onto a background of the target size.
	FitContain FitMode = "contain"
	// FitFill stretches to the target, ignoring aspect ratio.
	FitFill FitMode = "fill"
	// FitInside scales to fit within the target; output keeps the scaled size.
	FitInside FitMode = "inside"
	// FitOutside scales to cover the target; output keeps the scaled size.
	FitOutside FitMode = "outside"
)

// Decode limits for untrusted source images. The header is checked before any
// pixel buffer is allocated.
const (
	MaxSourceDimension = 8192
	MaxSourcePixels    = 40_000_000
)

// ErrImageTooLarge is returned for sources beyond MaxSourceDimension or
// MaxSourcePixels.
var ErrImageTooLarge = errors.New("image dimensions exceed limit")

// ToCanvas decodes data (png, jpeg, gif or webp), fits it to width x height
// and returns PNG bytes.
func ToCanvas(data []byte, width, height int, mode FitMode, background color.Color) ([]byte, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid canvas size %dx%d", width, height)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width > MaxSourceDimension || cfg.Height > MaxSourceDimension ||
		int64(cfg.Width)*int64(cfg.Height) > MaxSourcePixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrImageTooLarge, cfg.Width, cfg.Height)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if background == nil {
		background = color.White
	}

	var out image.Image
	switch mode {
	case FitCover:
		out = imaging.Fill(src, width, height, imaging.Center, imaging.Lanczos)
	case FitContain:
		w, h := scaled(src.Bounds(), width, height, math.Min)
		resized := imaging.Resize(src, w, h, imaging.Lanczos)
		out = imaging.PasteCenter(imaging.New(width, height, background), resized)
	case FitFill:
		out = imaging.Resize(src, width, height, imaging.Lanczos)
	case FitInside:
		w, h := scaled(src.Bounds(), width, height, math.Min)
		out = imaging.Resize(src, w, h, imaging.Lanczos)
	case FitOutside:
		w, h := scaled(src.Bounds(), width, height, math.Max)
		out = imaging.Resize(src, w, h, imaging.Lanczos)
	default:
		return nil, fmt.Errorf("unknown fit mode %q", mode)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func scaled(b image.Rectangle, width, height int, pick func(float64, float64) float64) (int, int) {
	sx := float64(width) / float64(b.Dx())
	sy := float64(height) / float64(b.Dy())
	s := pick(sx, sy)
	w := int(math.Round(float64(b.Dx()) * s))
	h := int(math.Round(float64(b.Dy()) * s))
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}
