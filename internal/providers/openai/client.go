// Package openai implements text-to-image generation against the OpenAI Images API.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tryon/internal/domain"
	"tryon/internal/providers/image"
)

// ProviderName tags outputs and errors from this client.
const ProviderName = "openai"

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("openai: api key is required")

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-image-1"
	defaultSize    = "1024x1024"
)

// Options configures the OpenAI images client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Organization   string
	HTTPClient     *http.Client
	RequestTimeout time.Duration
}

// Client performs text-to-image calls. It implements image.Generator.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	organization string
	httpClient   *http.Client
}

type generationRequest struct {
	Model   string `json:"model"`
	Prompt  string `json:"prompt"`
	Size    string `json:"size"`
	Quality string `json:"quality"`
	N       int    `json:"n"`
}

type generationResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
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
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:       apiKey,
		baseURL:      baseURL,
		model:        model,
		organization: strings.TrimSpace(opts.Organization),
		httpClient:   httpClient,
	}, nil
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate renders one image for req.Prompt. The result is a remote URL or
// decoded PNG bytes, whichever the API returned.
func (c *Client) Generate(ctx context.Context, req image.Request) (*image.Output, error) {
	if req.Operation != image.OperationTextToImage {
		return nil, fmt.Errorf("openai: %w: %s", image.ErrUnsupportedOperation, req.Operation)
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		return nil, errors.New("openai: prompt is required")
	}
	size := req.Size
	if size == "" {
		size = defaultSize
	}
	body, err := json.Marshal(generationRequest{
		Model:   c.model,
		Prompt:  prompt,
		Size:    size,
		Quality: "high",
		N:       1,
	})
	if err != nil {
		return nil, fmt.Errorf("openai: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/images/generations", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.organization != "" {
		httpReq.Header.Set("OpenAI-Organization", c.organization)
	}

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

	var decoded generationResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &domain.ProviderError{Provider: ProviderName, Reason: "decode response", Err: err}
	}
	if len(decoded.Data) > 0 {
		first := decoded.Data[0]
		if u := strings.TrimSpace(first.URL); u != "" {
			return &image.Output{URL: u, Provider: ProviderName}, nil
		}
		if first.B64JSON != "" {
			data, err := base64.StdEncoding.DecodeString(first.B64JSON)
			if err != nil {
				return nil, &domain.ProviderError{Provider: ProviderName, Reason: "decode b64_json", Err: err}
			}
			return &image.Output{Data: data, ContentType: "image/png", Provider: ProviderName}, nil
		}
	}
	return nil, &domain.ProviderError{Provider: ProviderName, Reason: "no image returned", Body: string(raw)}
}

var _ image.Generator = (*Client)(nil)
