package tryon

import (
	"bytes"
	"context"
	"fmt"
	stdimage "image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"tryon/internal/adapter/memory"
	"tryon/internal/basemodel"
	"tryon/internal/domain"
	"tryon/internal/governor"
	"tryon/internal/infra"
	"tryon/internal/providers/image"
	"tryon/internal/storage"
	"tryon/internal/transform"
)

const (
	adminToken = "secret"
	femaleBase = "https://models.test/female.png"
	maleBase   = "https://models.test/male.png"
)

var (
	jeans = domain.Garment{
		ID:       "p-jeans",
		Name:     "Relaxed Fit Jeans",
		Category: "Women",
		Colour:   "light blue",
		Fit:      "baggy",
		Material: "denim",
		Photos:   []string{"https://cdn.test/jeans.jpg"},
	}
	jacket = domain.Garment{
		ID:       "p-jacket",
		Name:     "Denim Jacket",
		Category: "Men",
		Photos:   []string{"https://cdn.test/jacket.jpg"},
	}
	belt = domain.Garment{
		ID:          "p-belt",
		Name:        "Leather Belt",
		Category:    "Men",
		Subcategory: "Accessories",
		Photos:      []string{"https://cdn.test/belt.jpg"},
	}
	bare = domain.Garment{
		ID:       "p-bare",
		Name:     "Cotton Tee",
		Category: "Men",
	}
)

// stubGenerator returns inline bytes naming the base image it was given.
type stubGenerator struct {
	mu    sync.Mutex
	name  string
	calls []image.Request
	fail  func(call int, req image.Request) error
}

func (s *stubGenerator) Generate(_ context.Context, req image.Request) (*image.Output, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req)
	n := len(s.calls)
	s.mu.Unlock()
	if s.fail != nil {
		if err := s.fail(n, req); err != nil {
			return nil, err
		}
	}
	base := "none"
	if req.Base != nil {
		base = req.Base.URL
		if base == "" {
			base = "inline"
		}
	}
	return &image.Output{
		Data:        []byte(fmt.Sprintf("%s#%d base=%s", s.name, n, base)),
		ContentType: "image/png",
		Provider:    s.name,
	}, nil
}

func (s *stubGenerator) Calls() []image.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]image.Request(nil), s.calls...)
}

type storedObject struct {
	data []byte
	vis  storage.Visibility
}

type memStore struct {
	mu      sync.Mutex
	objects map[string]storedObject
	err     error
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]storedObject{}}
}

func (m *memStore) Put(_ context.Context, key string, data []byte, _ string, vis storage.Visibility) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = storedObject{data: append([]byte(nil), data...), vis: vis}
	return "https://store.test/" + key, nil
}

func (m *memStore) Get(url string) (storedObject, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[strings.TrimPrefix(url, "https://store.test/")]
	return obj, ok
}

func tickingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

type fixtureConfig struct {
	disabled bool
	dailyCap int
	noBases  bool
	noStore  bool
}

type fixture struct {
	orch    *Orchestrator
	catalog *memory.Catalog
	photos  *memory.Photos
	bases   *memory.BaseModels
	counter *governor.MemoryCounter
	store   *memStore
	tryOn   *stubGenerator
	inpaint *stubGenerator
	text    *stubGenerator
}

func newFixture(t *testing.T, cfg fixtureConfig, products ...domain.Garment) *fixture {
	t.Helper()
	if cfg.dailyCap == 0 {
		cfg.dailyCap = 100
	}
	clock := tickingClock()

	f := &fixture{
		photos:  memory.NewPhotos(),
		counter: governor.NewMemoryCounter(),
		store:   newMemStore(),
		tryOn:   &stubGenerator{name: "replicate"},
		inpaint: &stubGenerator{name: "stability"},
		text:    &stubGenerator{name: "openai"},
	}
	f.photos.SetClock(clock)
	f.catalog = memory.NewCatalog(f.photos, products...)
	if cfg.noBases {
		f.bases = memory.NewBaseModels()
	} else {
		f.bases = memory.NewBaseModels(
			domain.BaseModelImage{URL: femaleBase, Gender: domain.GenderFemale},
			domain.BaseModelImage{URL: maleBase, Gender: domain.GenderMale},
		)
	}

	gov := governor.New(governor.Options{
		Enabled:    !cfg.disabled,
		AdminToken: adminToken,
		DailyCap:   cfg.dailyCap,
		Counter:    f.counter,
		Now:        clock,
	})
	fetcher := transform.NewFetcher(nil, 0)
	logger := infra.NopLogger()

	var store storage.Store = f.store
	if cfg.noStore {
		store = nil
	}

	orch, err := New(Options{
		Governor:     gov,
		Registry:     basemodel.NewRegistry(f.bases),
		Bootstrapper: basemodel.NewBootstrapper(f.inpaint, fetcher, store, f.bases, logger),
		Fetcher:      fetcher,
		TextToImage:  f.text,
		Inpainter:    f.inpaint,
		TryOn:        f.tryOn,
		Store:        store,
		Products:     f.catalog,
		Photos:       f.photos,
		Logger:       logger,
		Now:          clock,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.orch = orch
	return f
}

func (f *fixture) used(t *testing.T) int {
	t.Helper()
	n, err := f.counter.Count(context.Background(), time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	return n
}

func (f *fixture) catalogPhotos(productID string) []domain.GeneratedPhoto {
	var out []domain.GeneratedPhoto
	for _, p := range f.photos.All() {
		if p.CustomerID == nil && p.ProductID != nil && *p.ProductID == productID {
			out = append(out, p)
		}
	}
	return out
}

// pngDataURL renders a solid grey PNG of the given size as a data URL.
func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := stdimage.NewRGBA(stdimage.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 120, G: 120, B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return transform.DataURL(buf.Bytes(), "image/png")
}

func decodeSize(t *testing.T, data []byte) (int, int) {
	t.Helper()
	cfg, _, err := stdimage.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode config: %v", err)
	}
	return cfg.Width, cfg.Height
}
