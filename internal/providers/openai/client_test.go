package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"tryon/internal/domain"
	"tryon/internal/providers/image"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(Options{APIKey: "sk-test", BaseURL: srv.URL, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func TestGenerateReturnsURL(t *testing.T) {
	var got generationRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/images/generations" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"data":[{"url":"https://img.example.com/out.png"}]}`))
	})

	out, err := c.Generate(context.Background(), image.Request{Operation: image.OperationTextToImage, Prompt: "studio photo"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out.URL != "https://img.example.com/out.png" || out.Provider != ProviderName {
		t.Fatalf("unexpected output %+v", out)
	}
	if got.Model != "gpt-image-1" || got.Size != "1024x1024" || got.Quality != "high" || got.N != 1 || got.Prompt != "studio photo" {
		t.Fatalf("unexpected request body %+v", got)
	}
}

func TestGenerateDecodesInlineImage(t *testing.T) {
	payload := []byte("png-bytes")
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]string{{"b64_json": base64.StdEncoding.EncodeToString(payload)}},
		})
	})
	out, err := c.Generate(context.Background(), image.Request{Operation: image.OperationTextToImage, Prompt: "p"})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if !out.Inline() || string(out.Data) != "png-bytes" || out.ContentType != "image/png" {
		t.Fatalf("unexpected output %+v", out)
	}
}

func TestGenerateNon2xxIsProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"safety system"}}`))
	})
	_, err := c.Generate(context.Background(), image.Request{Operation: image.OperationTextToImage, Prompt: "p"})
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if pe.Status != http.StatusBadRequest || pe.Body != `{"error":{"message":"safety system"}}` {
		t.Fatalf("unexpected provider error %+v", pe)
	}
}

func TestGenerateEmptyDataIsProviderError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[]}`))
	})
	_, err := c.Generate(context.Background(), image.Request{Operation: image.OperationTextToImage, Prompt: "p"})
	if !errors.Is(err, domain.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestGenerateRejectsOtherOperations(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("unexpected request")
	})
	if _, err := c.Generate(context.Background(), image.Request{Operation: image.OperationInpaint, Prompt: "p"}); !errors.Is(err, image.ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(Options{}); !errors.Is(err, ErrMissingAPIKey) {
		t.Fatalf("expected ErrMissingAPIKey, got %v", err)
	}
}
