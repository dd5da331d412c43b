package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrFeatureDisabled     = errors.New("ai image generation disabled")
	ErrQuotaExceeded       = errors.New("daily generation quota exceeded")
	ErrMissingGarmentImage = errors.New("garment has no reference photo")
	ErrNoBaseModel         = errors.New("no base model image available")
	ErrProductNotFound     = errors.New("product not found")

	// Matched by errors.Is against the typed errors below.
	ErrProvider    = errors.New("provider failure")
	ErrFetch       = errors.New("image fetch failure")
	ErrPersistence = errors.New("persistence failure")
)

// ProviderError reports a failed call to an upstream image provider.
type ProviderError struct {
	Provider string
	Status   int
	Body     string
	Reason   string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": "
	switch {
	case e.Reason != "":
		msg += e.Reason
	case e.Status != 0:
		msg += fmt.Sprintf("status %d", e.Status)
	default:
		msg += "request failed"
	}
	if e.Body != "" {
		msg += ": " + truncate(e.Body, 300)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error { return e.Err }

func (e *ProviderError) Is(target error) bool { return target == ErrProvider }

// FetchError reports a failed download of a source image.
type FetchError struct {
	URL    string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("fetch %s: status %d", e.URL, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
	}
	return "fetch " + e.URL + ": failed"
}

func (e *FetchError) Unwrap() error { return e.Err }

func (e *FetchError) Is(target error) bool { return target == ErrFetch }

// PersistenceError reports a storage or catalog failure after a provider
// already produced an image. GeneratedURL is the provider output so callers
// can still surface it.
type PersistenceError struct {
	Stage        string
	GeneratedURL string
	Err          error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Stage, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
