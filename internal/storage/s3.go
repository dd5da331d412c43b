package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type s3Putter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Options configures an S3Store.
type S3Options struct {
	Bucket        string
	Region        string
	PublicBaseURL string
	SignedURLTTL  time.Duration
}

// S3Store uploads objects to an S3 bucket. Private objects are returned as
// presigned GET URLs.
type S3Store struct {
	client    s3Putter
	presigner s3Presigner
	bucket    string
	publicURL string
	ttl       time.Duration
}

// NewS3Store loads the default AWS credential chain for opts.Region.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if strings.TrimSpace(opts.Bucket) == "" {
		return nil, errors.New("storage: s3 bucket is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg)
	return newS3Store(client, s3.NewPresignClient(client), opts), nil
}

func newS3Store(client s3Putter, presigner s3Presigner, opts S3Options) *S3Store {
	publicURL := strings.TrimRight(strings.TrimSpace(opts.PublicBaseURL), "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
	ttl := opts.SignedURLTTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &S3Store{client: client, presigner: presigner, bucket: opts.Bucket, publicURL: publicURL, ttl: ttl}
}

// Put uploads data and returns a public or presigned URL depending on vis.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType string, vis Visibility) (string, error) {
	cleanKey, err := sanitizeKey(key)
	if err != nil {
		return "", err
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(cleanKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", cleanKey, err)
	}
	if vis == Public {
		return s.publicURL + "/" + cleanKey, nil
	}
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey),
	}, s3.WithPresignExpires(s.ttl))
	if err != nil {
		return "", fmt.Errorf("storage: s3 presign %s: %w", cleanKey, err)
	}
	return req.URL, nil
}

var _ Store = (*S3Store)(nil)
