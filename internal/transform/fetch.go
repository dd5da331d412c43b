// Package transform fetches, normalizes and packages source images for providers.
package transform

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"tryon/internal/domain"
)

// MaxFetchBytes caps a single downloaded image.
const MaxFetchBytes = 25 << 20

type cachedImage struct {
	data        []byte
	contentType string
}

// Fetcher downloads images over HTTP and keeps recent results in a bounded cache.
type Fetcher struct {
	client *http.Client
	cache  *lru.Cache[string, cachedImage]
}

// NewFetcher builds a fetcher. cacheSize <= 0 disables caching; a nil client
// gets a 60s timeout default.
func NewFetcher(client *http.Client, cacheSize int) *Fetcher {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	f := &Fetcher{client: client}
	if cacheSize > 0 {
		cache, err := lru.New[string, cachedImage](cacheSize)
		if err == nil {
			f.cache = cache
		}
	}
	return f
}

// FetchAsBytes returns the image bytes and content type behind url. Data URLs
// are decoded inline. Non-2xx responses fail with *domain.FetchError.
func (f *Fetcher) FetchAsBytes(ctx context.Context, url string) ([]byte, string, error) {
	if IsDataURL(url) {
		data, contentType, err := ParseDataURL(url)
		if err != nil {
			return nil, "", &domain.FetchError{URL: "data:", Err: err}
		}
		return data, contentType, nil
	}
	if f.cache != nil {
		if hit, ok := f.cache.Get(url); ok {
			return hit.data, hit.contentType, nil
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", &domain.FetchError{URL: url, Err: err}
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", &domain.FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, "", &domain.FetchError{URL: url, Status: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxFetchBytes+1))
	if err != nil {
		return nil, "", &domain.FetchError{URL: url, Err: fmt.Errorf("read body: %w", err)}
	}
	if len(data) > MaxFetchBytes {
		return nil, "", &domain.FetchError{URL: url, Err: fmt.Errorf("image exceeds %d bytes", MaxFetchBytes)}
	}

	contentType := strings.TrimSpace(strings.Split(resp.Header.Get("Content-Type"), ";")[0])
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	if f.cache != nil {
		f.cache.Add(url, cachedImage{data: data, contentType: contentType})
	}
	return data, contentType, nil
}
