package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

type supabaseBucket interface {
	UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error)
	CreateSignedUrl(bucketId string, filePath string, expiresIn int) (storage_go.SignedUrlResponse, error)
	GetPublicUrl(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse
}

// SupabaseOptions configures a SupabaseStore.
type SupabaseOptions struct {
	URL          string
	ServiceKey   string
	Bucket       string
	SignedURLTTL time.Duration
}

// SupabaseStore uploads objects to Supabase Storage with upsert semantics.
type SupabaseStore struct {
	client supabaseBucket
	bucket string
	ttl    time.Duration
}

// NewSupabaseStore connects with a service-role key.
func NewSupabaseStore(opts SupabaseOptions) (*SupabaseStore, error) {
	if opts.URL == "" || opts.ServiceKey == "" {
		return nil, errors.New("storage: supabase url and key are required")
	}
	client, err := supabase.NewClient(opts.URL, opts.ServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("storage: supabase client: %w", err)
	}
	return newSupabaseStore(client.Storage, opts), nil
}

func newSupabaseStore(client supabaseBucket, opts SupabaseOptions) *SupabaseStore {
	bucket := strings.TrimSpace(opts.Bucket)
	if bucket == "" {
		bucket = "ai-images"
	}
	ttl := opts.SignedURLTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SupabaseStore{client: client, bucket: bucket, ttl: ttl}
}

// Put uploads data (overwriting any object at key) and returns its URL.
// The storage client has no context support; ctx is only checked up front.
func (s *SupabaseStore) Put(ctx context.Context, key string, data []byte, contentType string, vis Visibility) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	upsert := true
	if _, err := s.client.UploadFile(s.bucket, cleanKey, bytes.NewReader(data), storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("storage: supabase upload %s: %w", cleanKey, err)
	}
	if vis == Public {
		return s.client.GetPublicUrl(s.bucket, cleanKey).SignedURL, nil
	}
	signed, err := s.client.CreateSignedUrl(s.bucket, cleanKey, int(s.ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("storage: supabase sign %s: %w", cleanKey, err)
	}
	return signed.SignedURL, nil
}

var _ Store = (*SupabaseStore)(nil)
