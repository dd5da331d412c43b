// Package storage persists generated images and returns URLs clients can load.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tryon/internal/transform"
)

// Visibility controls whether a stored object gets a permanent public URL or
// a time-limited signed URL.
type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Store is the storage collaborator used by the pipeline.
type Store interface {
	Put(ctx context.Context, key string, data []byte, contentType string, vis Visibility) (string, error)
}

// ProductKey builds the object key for a catalog image.
func ProductKey(productID string, now time.Time, contentType string) string {
	return fmt.Sprintf("products/%s-%d%s", productID, now.UnixMilli(), transform.ExtensionForMIME(contentType))
}

// UserTryOnKey builds the object key for a customer's try-on result.
func UserTryOnKey(customerID, productID string, now time.Time, contentType string) string {
	if customerID == "" {
		customerID = "anon"
	}
	return fmt.Sprintf("user-tryon/%s-%s-%d%s", customerID, productID, now.UnixMilli(), transform.ExtensionForMIME(contentType))
}

// UserUploadKey builds the object key for a customer's uploaded body photo.
func UserUploadKey(customerID string, contentType string) string {
	return fmt.Sprintf("user-uploads/%s/%s%s", customerID, uuid.NewString(), transform.ExtensionForMIME(contentType))
}

// BaseModelKey builds the object key for a generated base model.
func BaseModelKey(gender string, now time.Time, contentType string) string {
	return fmt.Sprintf("base-models/%s-%d-%s%s", gender, now.UnixMilli(), uuid.NewString()[:8], transform.ExtensionForMIME(contentType))
}
