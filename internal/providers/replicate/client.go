// Package replicate runs the IDM-VTON virtual try-on model through Replicate's
// asynchronous predictions API.
package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/providers/image"
)

// ProviderName tags outputs and errors from this client.
const ProviderName = "replicate"

// ErrMissingAPIToken indicates that the client was configured without credentials.
var ErrMissingAPIToken = errors.New("replicate: api token is required")

const (
	defaultBaseURL = "https://api.replicate.com/v1"
	vitonSeed      = 42
)

// Options configures the Replicate client.
type Options struct {
	APIToken       string
	BaseURL        string
	Version        string
	Poll           PollPolicy
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client submits a prediction and polls it to completion. It implements image.Generator.
type Client struct {
	token      string
	baseURL    string
	version    string
	poll       PollPolicy
	httpClient *http.Client
	logger     infra.Logger
}

type predictionRequest struct {
	Version string          `json:"version"`
	Input   predictionInput `json:"input"`
}

type predictionInput struct {
	HumanImg   string `json:"human_img"`
	GarmImg    string `json:"garm_img"`
	Category   string `json:"category"`
	GarmentDes string `json:"garment_des"`
	Seed       int    `json:"seed"`
	NSamples   int    `json:"n_samples"`
	ForceDC    bool   `json:"force_dc"`
	Crop       bool   `json:"crop"`
}

type prediction struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  any             `json:"error"`
	URLs   struct {
		Get string `json:"get"`
	} `json:"urls"`
}

// NewClient constructs a client with defaults applied.
func NewClient(opts Options) (*Client, error) {
	token := strings.TrimSpace(opts.APIToken)
	if token == "" {
		return nil, ErrMissingAPIToken
	}
	version := strings.TrimSpace(opts.Version)
	if version == "" {
		version = infra.DefaultVitonVersion
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	logger := infra.NopLogger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		version:    version,
		poll:       opts.Poll.withDefaults(),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Generate submits a try-on prediction and blocks until it settles or the
// poll budget runs out.
func (c *Client) Generate(ctx context.Context, req image.Request) (*image.Output, error) {
	if req.Operation != image.OperationTryOn {
		return nil, fmt.Errorf("replicate: %w: %s", image.ErrUnsupportedOperation, req.Operation)
	}
	human := req.Base.Reference()
	garment := req.Garment.Reference()
	if human == "" || garment == "" {
		return nil, errors.New("replicate: human and garment images are required")
	}
	category := req.Category
	if category == "" {
		category = "upper_body"
	}
	dresses := category == "dresses"

	pred, err := c.submit(ctx, predictionRequest{
		Version: c.version,
		Input: predictionInput{
			HumanImg:   human,
			GarmImg:    garment,
			Category:   category,
			GarmentDes: req.GarmentDescription,
			Seed:       vitonSeed,
			NSamples:   1,
			ForceDC:    dresses,
			Crop:       !dresses,
		},
	})
	if err != nil {
		return nil, err
	}
	if pred.URLs.Get == "" {
		return nil, &domain.ProviderError{Provider: ProviderName, Reason: "missing prediction url"}
	}
	c.logger.Debug().Str("prediction_id", pred.ID).Str("category", category).Msg("replicate: prediction submitted")

	url, err := c.await(ctx, pred.URLs.Get)
	if err != nil {
		return nil, err
	}
	return &image.Output{URL: url, Provider: ProviderName}, nil
}

func (c *Client) submit(ctx context.Context, payload predictionRequest) (*prediction, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("replicate: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predictions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("replicate: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	return c.do(httpReq)
}

func (c *Client) await(ctx context.Context, url string) (string, error) {
	start := time.Now()
	if err := c.poll.Sleep(ctx, c.poll.InitialDelay); err != nil {
		return "", &domain.ProviderError{Provider: ProviderName, Reason: "poll interrupted", Err: err}
	}
	for attempt := 1; attempt <= c.poll.MaxAttempts; attempt++ {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", fmt.Errorf("replicate: build poll request: %w", err)
		}
		pred, err := c.do(httpReq)
		if err != nil {
			return "", err
		}
		switch pred.Status {
		case "succeeded":
			out := firstOutput(pred.Output)
			if out == "" {
				return "", &domain.ProviderError{Provider: ProviderName, Reason: "prediction returned no output image"}
			}
			c.logger.Debug().Str("prediction_id", pred.ID).Int("attempt", attempt).Dur("elapsed", time.Since(start)).Msg("replicate: prediction succeeded")
			return out, nil
		case "failed", "canceled":
			reason := pred.Status
			if msg := errorText(pred.Error); msg != "" {
				reason = msg
			}
			return "", &domain.ProviderError{Provider: ProviderName, Reason: "prediction " + pred.Status + ": " + reason}
		}
		if time.Since(start) >= c.poll.MaxElapsed {
			break
		}
		if attempt < c.poll.MaxAttempts {
			if err := c.poll.Sleep(ctx, c.poll.Interval); err != nil {
				return "", &domain.ProviderError{Provider: ProviderName, Reason: "poll interrupted", Err: err}
			}
		}
	}
	return "", &domain.ProviderError{Provider: ProviderName, Reason: "poll budget exhausted"}
}

func (c *Client) do(httpReq *http.Request) (*prediction, error) {
	httpReq.Header.Set("Authorization", "Token "+c.token)
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
	var pred prediction
	if err := json.Unmarshal(raw, &pred); err != nil {
		return nil, &domain.ProviderError{Provider: ProviderName, Reason: "decode response", Err: err}
	}
	return &pred, nil
}

// firstOutput accepts both a single URL and an array of URLs.
func firstOutput(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return strings.TrimSpace(single)
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		for _, u := range many {
			if u = strings.TrimSpace(u); u != "" {
				return u
			}
		}
	}
	return ""
}

func errorText(v any) string {
	switch e := v.(type) {
	case nil:
		return ""
	case string:
		return e
	default:
		b, _ := json.Marshal(e)
		return string(b)
	}
}

var _ image.Generator = (*Client)(nil)
