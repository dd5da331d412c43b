package replicate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"tryon/internal/domain"
	"tryon/internal/providers/image"
)

type fakeReplicate struct {
	t        *testing.T
	mu       sync.Mutex
	statuses []string
	output   string
	errText  string
	polls    int
	submit   predictionRequest
	auth     string
	srv      *httptest.Server
}

func newFakeReplicate(t *testing.T, statuses ...string) *fakeReplicate {
	f := &fakeReplicate{t: t, statuses: statuses, output: `["https://replicate.delivery/out.png"]`}
	f.srv = httptest.NewServer(http.HandlerFunc(f.handle))
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeReplicate) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auth = r.Header.Get("Authorization")
	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/predictions":
		if err := json.NewDecoder(r.Body).Decode(&f.submit); err != nil {
			f.t.Errorf("decode submit: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"p1","status":"starting","urls":{"get":"` + f.srv.URL + `/predictions/p1"}}`))
	case r.Method == http.MethodGet && r.URL.Path == "/predictions/p1":
		status := f.statuses[len(f.statuses)-1]
		if f.polls < len(f.statuses) {
			status = f.statuses[f.polls]
		}
		f.polls++
		resp := map[string]any{"id": "p1", "status": status}
		if status == "succeeded" {
			resp["output"] = json.RawMessage(f.output)
		}
		if f.errText != "" {
			resp["error"] = f.errText
		}
		_ = json.NewEncoder(w).Encode(resp)
	default:
		http.NotFound(w, r)
	}
}

func (f *fakeReplicate) client(t *testing.T, policy PollPolicy) *Client {
	t.Helper()
	c, err := NewClient(Options{APIToken: "r8_test", BaseURL: f.srv.URL, Poll: policy, HTTPClient: f.srv.Client()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	return c
}

func instantPolicy(maxAttempts int) (PollPolicy, *[]time.Duration) {
	var sleeps []time.Duration
	return PollPolicy{
		InitialDelay: 1200 * time.Millisecond,
		Interval:     1500 * time.Millisecond,
		MaxAttempts:  maxAttempts,
		MaxElapsed:   time.Hour,
		Sleep: func(ctx context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	}, &sleeps
}

func tryOnRequest(category string) image.Request {
	return image.Request{
		Operation:          image.OperationTryOn,
		Base:               &image.SourceImage{URL: "https://cdn.example.com/model.png"},
		Garment:            &image.SourceImage{URL: "https://cdn.example.com/jeans.jpg"},
		Category:           category,
		GarmentDescription: "Relaxed Fit Jeans, color indigo",
	}
}

func TestGenerateSucceedsAfterPolling(t *testing.T) {
	fake := newFakeReplicate(t, "starting", "processing", "succeeded")
	policy, sleeps := instantPolicy(10)
	c := fake.client(t, policy)

	out, err := c.Generate(context.Background(), tryOnRequest("lower_body"))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out.URL != "https://replicate.delivery/out.png" || out.Provider != ProviderName {
		t.Fatalf("unexpected output %+v", out)
	}
	if fake.polls != 3 {
		t.Fatalf("polls = %d, want 3", fake.polls)
	}
	if fake.auth != "Token r8_test" {
		t.Fatalf("authorization = %q", fake.auth)
	}
	in := fake.submit.Input
	if in.Category != "lower_body" || in.Seed != 42 || in.ForceDC || !in.Crop || in.HumanImg != "https://cdn.example.com/model.png" || in.GarmImg != "https://cdn.example.com/jeans.jpg" {
		t.Fatalf("unexpected input %+v", in)
	}
	if !strings.HasPrefix(fake.submit.Version, "cuuupid/idm-vton:") {
		t.Fatalf("version = %q", fake.submit.Version)
	}
	want := []time.Duration{1200 * time.Millisecond, 1500 * time.Millisecond, 1500 * time.Millisecond}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Fatalf("sleeps = %v, want %v", *sleeps, want)
		}
	}
}

func TestGenerateDressesForceDC(t *testing.T) {
	fake := newFakeReplicate(t, "succeeded")
	fake.output = `"https://replicate.delivery/dress.png"`
	policy, _ := instantPolicy(3)
	out, err := fake.client(t, policy).Generate(context.Background(), tryOnRequest("dresses"))
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if out.URL != "https://replicate.delivery/dress.png" {
		t.Fatalf("single string output not handled: %+v", out)
	}
	if !fake.submit.Input.ForceDC || fake.submit.Input.Crop {
		t.Fatalf("dresses should force_dc without crop: %+v", fake.submit.Input)
	}
}

func TestGenerateFailedPrediction(t *testing.T) {
	fake := newFakeReplicate(t, "processing", "failed")
	fake.errText = "CUDA out of memory"
	policy, _ := instantPolicy(10)
	_, err := fake.client(t, policy).Generate(context.Background(), tryOnRequest("upper_body"))
	var pe *domain.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
	if !strings.Contains(pe.Reason, "CUDA out of memory") {
		t.Fatalf("reason = %q", pe.Reason)
	}
}

func TestGeneratePollBudgetExhausted(t *testing.T) {
	fake := newFakeReplicate(t, "processing")
	policy, _ := instantPolicy(4)
	_, err := fake.client(t, policy).Generate(context.Background(), tryOnRequest("upper_body"))
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Reason != "poll budget exhausted" {
		t.Fatalf("expected budget exhausted, got %v", err)
	}
	if fake.polls != 4 {
		t.Fatalf("polls = %d, want 4", fake.polls)
	}
}

func TestGenerateSubmitErrorKeepsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":"invalid version"}`))
	}))
	defer srv.Close()
	policy, _ := instantPolicy(1)
	c, err := NewClient(Options{APIToken: "t", BaseURL: srv.URL, Poll: policy, HTTPClient: srv.Client()})
	if err != nil {
		t.Fatalf("NewClient error: %v", err)
	}
	_, err = c.Generate(context.Background(), tryOnRequest("upper_body"))
	var pe *domain.ProviderError
	if !errors.As(err, &pe) || pe.Status != http.StatusUnprocessableEntity || pe.Body != `{"detail":"invalid version"}` {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestPollPolicyDefaults(t *testing.T) {
	p := PollPolicy{}.withDefaults()
	if p.Interval != 1500*time.Millisecond || p.MaxAttempts <= 0 || p.MaxElapsed <= 0 || p.Sleep == nil {
		t.Fatalf("unexpected defaults %+v", p)
	}
}
