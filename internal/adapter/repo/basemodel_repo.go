package repo

import (
	"context"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// BaseModelRepositoryPG implements domain.BaseModelRepository using PostgreSQL.
type BaseModelRepositoryPG struct {
	db infra.SQLExecutor
}

func NewBaseModelRepository(db infra.SQLExecutor) *BaseModelRepositoryPG {
	return &BaseModelRepositoryPG{db: db}
}

func (r *BaseModelRepositoryPG) Latest(ctx context.Context, gender domain.Gender) (*domain.BaseModelImage, error) {
	var (
		img    domain.BaseModelImage
		tagged string
	)
	row := r.db.QueryRow(ctx, sqlinline.QLatestBaseModel, string(gender))
	if err := row.Scan(&img.ID, &img.URL, &tagged, &img.CreatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	img.Gender = domain.Gender(tagged)
	return &img, nil
}

func (r *BaseModelRepositoryPG) Insert(ctx context.Context, img domain.BaseModelImage) (*domain.BaseModelImage, error) {
	gender := img.Gender
	if gender == "" {
		gender = domain.GenderUnspecified
	}
	var (
		out    domain.BaseModelImage
		tagged string
	)
	row := r.db.QueryRow(ctx, sqlinline.QInsertBaseModel, img.URL, string(gender))
	if err := row.Scan(&out.ID, &out.URL, &tagged, &out.CreatedAt); err != nil {
		return nil, err
	}
	out.Gender = domain.Gender(tagged)
	return &out, nil
}

var _ domain.BaseModelRepository = (*BaseModelRepositoryPG)(nil)
