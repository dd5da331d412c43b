package repo

import (
	"context"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// ProductRepositoryPG implements domain.ProductRepository using PostgreSQL.
type ProductRepositoryPG struct {
	db infra.SQLExecutor
}

// NewProductRepository constructs a new product repository instance.
func NewProductRepository(db infra.SQLExecutor) *ProductRepositoryPG {
	return &ProductRepositoryPG{db: db}
}

// FetchProductByID returns the product with its brand and category names resolved.
func (r *ProductRepositoryPG) FetchProductByID(ctx context.Context, id string) (*domain.Garment, error) {
	var g domain.Garment
	row := r.db.QueryRow(ctx, sqlinline.QSelectProductByID, id)
	if err := row.Scan(garmentDest(&g)...); err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// ListMissingAI returns products that have no catalog photo yet.
func (r *ProductRepositoryPG) ListMissingAI(ctx context.Context, limit int) ([]domain.Garment, error) {
	return r.list(ctx, sqlinline.QListProductsMissingAI, limit)
}

// ListAny returns products regardless of existing photos.
func (r *ProductRepositoryPG) ListAny(ctx context.Context, limit int) ([]domain.Garment, error) {
	return r.list(ctx, sqlinline.QListProducts, limit)
}

func (r *ProductRepositoryPG) list(ctx context.Context, query string, limit int) ([]domain.Garment, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Garment
	for rows.Next() {
		var g domain.Garment
		if err := rows.Scan(garmentDest(&g)...); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func garmentDest(g *domain.Garment) []any {
	return []any{
		&g.ID, &g.Name, &g.Brand, &g.Category, &g.Subcategory,
		&g.Colour, &g.Size, &g.Fit, &g.Material, &g.Description, &g.Photos,
	}
}

var _ domain.ProductRepository = (*ProductRepositoryPG)(nil)
