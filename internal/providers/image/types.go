package image

import (
	"context"
	"errors"
	"strings"

	"tryon/internal/transform"
)

// ErrUnsupportedOperation is returned by a generator asked for an operation it does not implement.
var ErrUnsupportedOperation = errors.New("image: unsupported operation")

// Operation enumerates the generation modes a provider may implement.
type Operation string

const (
	OperationTextToImage  Operation = "text-to-image"
	OperationImageToImage Operation = "image-to-image"
	OperationInpaint      Operation = "inpaint"
	OperationTryOn        Operation = "tryon"
)

// SourceImage is a conditioning input given either by URL or inline bytes.
type SourceImage struct {
	URL  string
	Data []byte
	MIME string
}

// Reference returns a URL the provider can dereference: the remote URL when
// set, else the inline bytes as a data URL.
func (s *SourceImage) Reference() string {
	if s == nil {
		return ""
	}
	if u := strings.TrimSpace(s.URL); u != "" {
		return u
	}
	if len(s.Data) == 0 {
		return ""
	}
	return transform.DataURL(s.Data, s.MIME)
}

// Blob wraps the inline bytes for a multipart upload.
func (s *SourceImage) Blob() transform.Blob {
	return transform.WrapAsBlob(s.Data, s.MIME)
}

// Request describes a normalized request passed to any image provider.
// Providers read only the fields their operation needs.
type Request struct {
	Operation      Operation
	Prompt         string
	NegativePrompt string
	Base           *SourceImage
	Garment        *SourceImage
	Mask           []byte
	Strength       float64
	Size           string

	// Try-on only.
	Category           string
	GarmentDescription string

	RequestID string
}

// Output is a single generated image. Exactly one of URL or Data is set.
type Output struct {
	URL         string
	Data        []byte
	ContentType string
	Provider    string
}

// Inline reports whether the output carries bytes rather than a remote URL.
func (o *Output) Inline() bool {
	return o != nil && len(o.Data) > 0
}

// Generator is the contract implemented by all image providers. Calls are
// synchronous from the caller's perspective even when the upstream API is not.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Output, error)
}
