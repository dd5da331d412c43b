package image

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tryon/internal/infra"
)

func TestSourceImageReference(t *testing.T) {
	remote := &SourceImage{URL: " https://cdn.example.com/model.png ", Data: []byte{1}}
	if got := remote.Reference(); got != "https://cdn.example.com/model.png" {
		t.Fatalf("Reference() = %q", got)
	}
	inline := &SourceImage{Data: []byte("abc"), MIME: "image/jpeg"}
	if got := inline.Reference(); !strings.HasPrefix(got, "data:image/jpeg;base64,") {
		t.Fatalf("Reference() = %q", got)
	}
	var missing *SourceImage
	if missing.Reference() != "" {
		t.Fatalf("nil source should have empty reference")
	}
}

type stubGenerator struct {
	out   *Output
	err   error
	calls int
}

func (s *stubGenerator) Generate(ctx context.Context, req Request) (*Output, error) {
	s.calls++
	return s.out, s.err
}

func TestInstrumentPassesThrough(t *testing.T) {
	stub := &stubGenerator{out: &Output{URL: "https://out", Provider: "openai"}}
	g := Instrument("openai", stub, nil, infra.NopLogger())
	out, err := g.Generate(context.Background(), Request{Operation: OperationTextToImage})
	if err != nil || out.URL != "https://out" {
		t.Fatalf("unexpected result %v %v", out, err)
	}

	stub.err = errors.New("boom")
	if _, err := g.Generate(context.Background(), Request{}); err == nil {
		t.Fatalf("expected error")
	}
	if stub.calls != 2 {
		t.Fatalf("calls = %d", stub.calls)
	}
	if Instrument("x", nil, nil, infra.NopLogger()) != nil {
		t.Fatalf("nil generator should stay nil")
	}
}
