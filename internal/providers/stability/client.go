// Package stability implements Stability AI image edits: inpaint, image-to-image and text-to-image.
package stability

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tryon/internal/domain"
	"tryon/internal/providers/image"
	"tryon/internal/transform"
)

// ProviderName tags outputs and errors from this client.
const ProviderName = "stability"

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("stability: api key is required")

const (
	defaultBaseURL = "https://api.stability.ai"

	// DefaultInpaintStrength keeps most of the base photo intact.
	DefaultInpaintStrength = 0.35
	// DefaultImageToImageStrength lets the model repaint the garment photo onto a person.
	DefaultImageToImageStrength = 0.70

	inpaintPath      = "/v2beta/stable-image/edit/inpaint"
	imageToImagePath = "/v2beta/stable-image/generate/sd3"
	textToImagePath  = "/v2beta/stable-image/generate/core"
)

// Options configures the Stability client.
type Options struct {
	APIKey         string
	BaseURL        string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs one multipart request per call. It implements image.Generator.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{apiKey: apiKey, baseURL: baseURL, httpClient: httpClient}, nil
}

// Generate dispatches on req.Operation. Source images must carry inline bytes.
func (c *Client) Generate(ctx context.Context, req image.Request) (*image.Output, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, errors.New("stability: prompt is required")
	}
	var (
		path   string
		fields = map[string]string{
			"prompt":        req.Prompt,
			"output_format": "png",
		}
		files = map[string]transform.Blob{}
	)
	if req.NegativePrompt != "" {
		fields["negative_prompt"] = req.NegativePrompt
	}

	switch req.Operation {
	case image.OperationInpaint:
		if req.Base == nil || len(req.Base.Data) == 0 {
			return nil, errors.New("stability: inpaint requires base image bytes")
		}
		if len(req.Mask) == 0 {
			return nil, errors.New("stability: inpaint requires a mask")
		}
		path = inpaintPath
		files["image"] = req.Base.Blob()
		files["mask"] = transform.WrapAsBlob(req.Mask, "image/png")
		fields["strength"] = formatStrength(req.Strength, DefaultInpaintStrength)
	case image.OperationImageToImage:
		src := req.Garment
		if src == nil || len(src.Data) == 0 {
			src = req.Base
		}
		if src == nil || len(src.Data) == 0 {
			return nil, errors.New("stability: image-to-image requires source image bytes")
		}
		path = imageToImagePath
		files["image"] = src.Blob()
		fields["mode"] = "image-to-image"
		fields["strength"] = formatStrength(req.Strength, DefaultImageToImageStrength)
	case image.OperationTextToImage:
		path = textToImagePath
		fields["aspect_ratio"] = "3:4"
	default:
		return nil, fmt.Errorf("stability: %w: %s", image.ErrUnsupportedOperation, req.Operation)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, name := range []string{"image", "mask"} {
		if blob, ok := files[name]; ok {
			if err := blob.WriteField(mw, name); err != nil {
				return nil, fmt.Errorf("stability: %w", err)
			}
		}
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("stability: write field %s: %w", name, err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("stability: close multipart: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &body)
	if err != nil {
		return nil, fmt.Errorf("stability: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Accept", "image/*")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &domain.ProviderError{Provider: ProviderName, Reason: "http request", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.ProviderError{Provider: ProviderName, Reason: "read response", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.ProviderError{Provider: ProviderName, Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}
	if len(raw) == 0 {
		return nil, &domain.ProviderError{Provider: ProviderName, Reason: "empty image body"}
	}
	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	return &image.Output{Data: raw, ContentType: contentType, Provider: ProviderName}, nil
}

func formatStrength(v, fallback float64) string {
	if v <= 0 || v > 1 {
		v = fallback
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

var _ image.Generator = (*Client)(nil)
