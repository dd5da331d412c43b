package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("connection reset")
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"provider", &ProviderError{Provider: "replicate", Reason: "failed", Err: cause}, ErrProvider},
		{"fetch", &FetchError{URL: "https://cdn/x.jpg", Err: cause}, ErrFetch},
		{"persistence", &PersistenceError{Stage: "store", GeneratedURL: "https://out", Err: cause}, ErrPersistence},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wrapped := fmt.Errorf("dispatch: %w", tc.err)
			if !errors.Is(wrapped, tc.sentinel) {
				t.Fatalf("errors.Is(%v, sentinel) = false", wrapped)
			}
			if !errors.Is(wrapped, cause) {
				t.Fatalf("cause not reachable through %v", wrapped)
			}
		})
	}
}

func TestPersistenceErrorCarriesGeneratedURL(t *testing.T) {
	err := fmt.Errorf("dress: %w", &PersistenceError{Stage: "catalog", GeneratedURL: "https://replicate.delivery/out.png", Err: errors.New("db down")})
	var pe *PersistenceError
	if !errors.As(err, &pe) {
		t.Fatalf("expected PersistenceError")
	}
	if pe.GeneratedURL != "https://replicate.delivery/out.png" {
		t.Fatalf("GeneratedURL = %q", pe.GeneratedURL)
	}
}

func TestProviderErrorMessage(t *testing.T) {
	err := &ProviderError{Provider: "openai", Status: 500, Body: "upstream"}
	if got := err.Error(); got != "openai: status 500: upstream" {
		t.Fatalf("Error() = %q", got)
	}
}
