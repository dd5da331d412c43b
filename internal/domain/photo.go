package domain

import "time"

// GeneratedPhoto is a persisted generation result. CustomerID is nil for
// catalog photos, which are replace-latest per product.
type GeneratedPhoto struct {
	ID          string
	CustomerID  *string
	ProductID   *string
	ImageURL    string
	ProviderTag string
	CreatedAt   time.Time
}

// BaseModelImage is a stock body photo used as the human input for try-on.
type BaseModelImage struct {
	ID        string
	URL       string
	Gender    Gender
	CreatedAt time.Time
}
