// Package memory provides in-process repositories for tests and dry runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"tryon/internal/domain"
)

// Catalog implements domain.ProductRepository over a fixed product list. It
// consults Photos to decide which products still lack a catalog image.
type Catalog struct {
	mu       sync.RWMutex
	products []domain.Garment
	Photos   *Photos
}

func NewCatalog(photos *Photos, products ...domain.Garment) *Catalog {
	return &Catalog{products: products, Photos: photos}
}

// Add appends a product.
func (c *Catalog) Add(g domain.Garment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.products = append(c.products, g)
}

func (c *Catalog) FetchProductByID(ctx context.Context, id string) (*domain.Garment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.ID == id {
			g := p
			return &g, nil
		}
	}
	return nil, nil
}

func (c *Catalog) ListMissingAI(ctx context.Context, limit int) ([]domain.Garment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []domain.Garment
	for _, p := range c.products {
		if len(out) >= limit {
			break
		}
		if c.Photos != nil && c.Photos.HasCatalog(p.ID) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Catalog) ListAny(ctx context.Context, limit int) ([]domain.Garment, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if limit > len(c.products) {
		limit = len(c.products)
	}
	if limit < 0 {
		limit = 0
	}
	return append([]domain.Garment(nil), c.products[:limit]...), nil
}

// Photos implements domain.PhotoRepository.
type Photos struct {
	mu     sync.Mutex
	rows   []domain.GeneratedPhoto
	now    func() time.Time
	FailOn string
}

func NewPhotos() *Photos {
	return &Photos{now: time.Now}
}

// SetClock replaces the clock used to stamp new rows.
func (p *Photos) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// All returns a snapshot of every stored row.
func (p *Photos) All() []domain.GeneratedPhoto {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.GeneratedPhoto(nil), p.rows...)
}

// HasCatalog reports whether productID has a catalog (customer-less) photo.
func (p *Photos) HasCatalog(productID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, r := range p.rows {
		if r.CustomerID == nil && r.ProductID != nil && *r.ProductID == productID {
			return true
		}
	}
	return false
}

func (p *Photos) CountCreatedOn(ctx context.Context, day time.Time) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	y, m, d := day.UTC().Date()
	n := 0
	for _, r := range p.rows {
		ry, rm, rd := r.CreatedAt.UTC().Date()
		if ry == y && rm == m && rd == d {
			n++
		}
	}
	return n, nil
}

func (p *Photos) UpsertCatalogPhoto(ctx context.Context, productID, url, tag string) (*domain.GeneratedPhoto, error) {
	if p.FailOn == "upsert" {
		return nil, errFailure
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	kept := p.rows[:0]
	for _, r := range p.rows {
		if r.CustomerID == nil && r.ProductID != nil && *r.ProductID == productID {
			continue
		}
		kept = append(kept, r)
	}
	p.rows = kept
	row := p.newRow(nil, productID, url, tag)
	p.rows = append(p.rows, row)
	return &row, nil
}

func (p *Photos) InsertUserPhoto(ctx context.Context, productID, customerID, url, tag string) (*domain.GeneratedPhoto, error) {
	if p.FailOn == "insert" {
		return nil, errFailure
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	row := p.newRow(&customerID, productID, url, tag)
	p.rows = append(p.rows, row)
	return &row, nil
}

func (p *Photos) DeleteUserPhoto(ctx context.Context, photoID, customerID string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i, r := range p.rows {
		if r.ID == photoID && r.CustomerID != nil && *r.CustomerID == customerID {
			p.rows = append(p.rows[:i], p.rows[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (p *Photos) ListUserPhotos(ctx context.Context, customerID string) ([]domain.GeneratedPhoto, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []domain.GeneratedPhoto
	for _, r := range p.rows {
		if r.CustomerID != nil && *r.CustomerID == customerID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (p *Photos) newRow(customerID *string, productID, url, tag string) domain.GeneratedPhoto {
	pid := productID
	return domain.GeneratedPhoto{
		ID:          uuid.NewString(),
		CustomerID:  customerID,
		ProductID:   &pid,
		ImageURL:    url,
		ProviderTag: tag,
		CreatedAt:   p.now(),
	}
}

// BaseModels implements domain.BaseModelRepository. Rows are kept in insertion order.
type BaseModels struct {
	mu   sync.Mutex
	rows []domain.BaseModelImage
	seq  int
}

func NewBaseModels(seed ...domain.BaseModelImage) *BaseModels {
	b := &BaseModels{}
	for _, img := range seed {
		_, _ = b.Insert(context.Background(), img)
	}
	return b
}

func (b *BaseModels) Latest(ctx context.Context, gender domain.Gender) (*domain.BaseModelImage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := len(b.rows) - 1; i >= 0; i-- {
		if gender == "" || b.rows[i].Gender == gender {
			img := b.rows[i]
			return &img, nil
		}
	}
	return nil, nil
}

func (b *BaseModels) Insert(ctx context.Context, img domain.BaseModelImage) (*domain.BaseModelImage, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	if img.ID == "" {
		img.ID = uuid.NewString()
	}
	if img.Gender == "" {
		img.Gender = domain.GenderUnspecified
	}
	if img.CreatedAt.IsZero() {
		img.CreatedAt = time.Unix(int64(b.seq), 0).UTC()
	}
	b.rows = append(b.rows, img)
	return &img, nil
}

// Len reports how many images are stored.
func (b *BaseModels) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

type failure string

func (f failure) Error() string { return string(f) }

const errFailure = failure("memory: injected failure")

var (
	_ domain.ProductRepository   = (*Catalog)(nil)
	_ domain.PhotoRepository     = (*Photos)(nil)
	_ domain.BaseModelRepository = (*BaseModels)(nil)
)
