package tryon

import (
	"context"
	"fmt"
	"image/color"
	"strings"

	"tryon/internal/domain"
	"tryon/internal/mask"
	"tryon/internal/providers/image"
	"tryon/internal/storage"
	"tryon/internal/transform"
)

var canvasBackground = color.White

// prepareSource passes remote URLs through untouched and normalizes anything
// else (data URLs, bare bytes behind other schemes) onto the portrait canvas.
func (o *Orchestrator) prepareSource(ctx context.Context, ref string) (*image.SourceImage, error) {
	ref = strings.TrimSpace(ref)
	if isRemote(ref) {
		return &image.SourceImage{URL: ref}, nil
	}
	return o.canvas(ctx, ref)
}

// canvas fetches ref and pads it onto a CanvasWidth x CanvasHeight PNG.
func (o *Orchestrator) canvas(ctx context.Context, ref string) (*image.SourceImage, error) {
	data, _, err := o.fetcher.FetchAsBytes(ctx, ref)
	if err != nil {
		return nil, err
	}
	png, err := transform.ToCanvas(data, CanvasWidth, CanvasHeight, transform.FitContain, canvasBackground)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", describeRef(ref), err)
	}
	return &image.SourceImage{Data: png, MIME: "image/png"}, nil
}

func buildMask(region domain.Region) ([]byte, error) {
	png, err := mask.Build(region, CanvasWidth, CanvasHeight)
	if err != nil {
		return nil, fmt.Errorf("build %s mask: %w", region, err)
	}
	return png, nil
}

// storeOutput resolves the provider output to bytes and stores them. Without
// a store a remote provider URL is returned as is.
func (o *Orchestrator) storeOutput(ctx context.Context, out *image.Output, key func(string) string, vis storage.Visibility) (string, error) {
	if out == nil {
		return "", &domain.PersistenceError{Stage: "resolve", Err: fmt.Errorf("provider returned no output")}
	}
	if o.store == nil {
		if out.Inline() || out.URL == "" || transform.IsDataURL(out.URL) {
			return "", &domain.PersistenceError{Stage: "store", Err: fmt.Errorf("inline output requires a storage backend")}
		}
		return out.URL, nil
	}

	data, contentType := out.Data, out.ContentType
	if !out.Inline() {
		var err error
		data, contentType, err = o.fetcher.FetchAsBytes(ctx, out.URL)
		if err != nil {
			return "", &domain.PersistenceError{Stage: "resolve", GeneratedURL: generatedRef(out), Err: err}
		}
	}
	if contentType == "" {
		contentType = "image/png"
	}

	url, err := o.store.Put(ctx, key(contentType), data, contentType, vis)
	if err != nil {
		return "", &domain.PersistenceError{Stage: "store", GeneratedURL: generatedRef(out), Err: err}
	}
	return url, nil
}

func generatedRef(out *image.Output) string {
	if out.URL != "" && !transform.IsDataURL(out.URL) {
		return out.URL
	}
	return ""
}

func isRemote(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func describeRef(ref string) string {
	if transform.IsDataURL(ref) {
		return "inline image"
	}
	return ref
}
