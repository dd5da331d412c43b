package domain

import (
	"context"
	"time"
)

// ProductRepository reads the storefront catalog.
type ProductRepository interface {
	// FetchProductByID returns nil without error when the product does not exist.
	FetchProductByID(ctx context.Context, id string) (*Garment, error)
	ListMissingAI(ctx context.Context, limit int) ([]Garment, error)
	ListAny(ctx context.Context, limit int) ([]Garment, error)
}

// PhotoRepository persists generated photos.
type PhotoRepository interface {
	CountCreatedOn(ctx context.Context, day time.Time) (int, error)
	UpsertCatalogPhoto(ctx context.Context, productID, url, tag string) (*GeneratedPhoto, error)
	InsertUserPhoto(ctx context.Context, productID, customerID, url, tag string) (*GeneratedPhoto, error)
	DeleteUserPhoto(ctx context.Context, photoID, customerID string) (bool, error)
	ListUserPhotos(ctx context.Context, customerID string) ([]GeneratedPhoto, error)
}

// BaseModelRepository stores base-model images. Rows are never updated or deleted.
type BaseModelRepository interface {
	// Latest returns the newest image tagged gender, or the newest overall when
	// gender is empty. It returns nil without error when nothing matches.
	Latest(ctx context.Context, gender Gender) (*BaseModelImage, error)
	Insert(ctx context.Context, img BaseModelImage) (*BaseModelImage, error)
}

// UsageCounter tracks generation attempts per UTC day.
type UsageCounter interface {
	// Consume increments the day's counter when it is below ceiling and
	// reports whether a unit was taken.
	Consume(ctx context.Context, day time.Time, ceiling int) (bool, error)
	Count(ctx context.Context, day time.Time) (int, error)
}
