package repo

import (
	"context"
	"time"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/sqlinline"
)

// galleryLimit caps how many try-on photos a customer listing returns.
const galleryLimit = 100

// PhotoRepositoryPG implements domain.PhotoRepository using PostgreSQL.
type PhotoRepositoryPG struct {
	db infra.SQLExecutor
}

// NewPhotoRepository constructs a new generated-photo repository instance.
func NewPhotoRepository(db infra.SQLExecutor) *PhotoRepositoryPG {
	return &PhotoRepositoryPG{db: db}
}

func (r *PhotoRepositoryPG) CountCreatedOn(ctx context.Context, day time.Time) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, sqlinline.QCountPhotosCreatedOn, dayString(day)).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// UpsertCatalogPhoto replaces every catalog photo of the product with a single new row.
func (r *PhotoRepositoryPG) UpsertCatalogPhoto(ctx context.Context, productID, url, tag string) (*domain.GeneratedPhoto, error) {
	photo := domain.GeneratedPhoto{ProductID: &productID}
	row := r.db.QueryRow(ctx, sqlinline.QReplaceCatalogPhoto, productID, url, tag)
	if err := row.Scan(&photo.ID, &photo.ImageURL, &photo.ProviderTag, &photo.CreatedAt); err != nil {
		return nil, err
	}
	return &photo, nil
}

// InsertUserPhoto appends a try-on result owned by customerID.
func (r *PhotoRepositoryPG) InsertUserPhoto(ctx context.Context, productID, customerID, url, tag string) (*domain.GeneratedPhoto, error) {
	photo := domain.GeneratedPhoto{ProductID: &productID, CustomerID: &customerID}
	row := r.db.QueryRow(ctx, sqlinline.QInsertUserPhoto, productID, customerID, url, tag)
	if err := row.Scan(&photo.ID, &photo.ImageURL, &photo.ProviderTag, &photo.CreatedAt); err != nil {
		return nil, err
	}
	return &photo, nil
}

// DeleteUserPhoto removes the photo only when customerID owns it.
func (r *PhotoRepositoryPG) DeleteUserPhoto(ctx context.Context, photoID, customerID string) (bool, error) {
	var deleted string
	err := r.db.QueryRow(ctx, sqlinline.QDeleteUserPhoto, photoID, customerID).Scan(&deleted)
	if infra.IsNoRows(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *PhotoRepositoryPG) ListUserPhotos(ctx context.Context, customerID string) ([]domain.GeneratedPhoto, error) {
	rows, err := r.db.Query(ctx, sqlinline.QListUserPhotos, customerID, galleryLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GeneratedPhoto
	for rows.Next() {
		var (
			photo     domain.GeneratedPhoto
			productID string
		)
		if err := rows.Scan(&photo.ID, &productID, &photo.ImageURL, &photo.ProviderTag, &photo.CreatedAt); err != nil {
			return nil, err
		}
		owner := customerID
		photo.CustomerID = &owner
		photo.ProductID = &productID
		out = append(out, photo)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func dayString(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

var _ domain.PhotoRepository = (*PhotoRepositoryPG)(nil)
