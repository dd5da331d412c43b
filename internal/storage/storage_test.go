package storage

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	storage_go "github.com/supabase-community/storage-go"
)

func TestFileStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir, "http://localhost:8080/static/")
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	url, err := store.Put(context.Background(), "/products/p1-1.png", []byte("png"), "image/png", Public)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if url != "http://localhost:8080/static/products/p1-1.png" {
		t.Fatalf("url = %q", url)
	}
	data, err := os.ReadFile(filepath.Join(dir, "products", "p1-1.png"))
	if err != nil || string(data) != "png" {
		t.Fatalf("file not written: %v %q", err, data)
	}
}

func TestFileStoreRejectsTraversal(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), "http://x")
	if err != nil {
		t.Fatalf("NewFileStore error: %v", err)
	}
	for _, key := range []string{"../escape.png", "a/../../escape.png", "  ", "."} {
		if _, err := store.Put(context.Background(), key, []byte("x"), "image/png", Public); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestKeys(t *testing.T) {
	now := time.UnixMilli(1700000000000)
	if got := ProductKey("p1", now, "image/jpeg"); got != "products/p1-1700000000000.jpg" {
		t.Fatalf("ProductKey = %q", got)
	}
	if got := UserTryOnKey("", "p1", now, "image/png"); got != "user-tryon/anon-p1-1700000000000.png" {
		t.Fatalf("UserTryOnKey = %q", got)
	}
	if got := UserUploadKey("c1", "image/webp"); !strings.HasPrefix(got, "user-uploads/c1/") || !strings.HasSuffix(got, ".webp") {
		t.Fatalf("UserUploadKey = %q", got)
	}
}

type stubS3 struct {
	put       *s3.PutObjectInput
	body      string
	presigned *s3.GetObjectInput
	err       error
}

func (s *stubS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.put = params
	b, _ := io.ReadAll(params.Body)
	s.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func (s *stubS3) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	s.presigned = params
	return &v4.PresignedHTTPRequest{URL: "https://looks.s3.amazonaws.com/" + aws.ToString(params.Key) + "?X-Amz-Signature=abc"}, nil
}

func TestS3StorePublicAndPrivate(t *testing.T) {
	stub := &stubS3{}
	store := newS3Store(stub, stub, S3Options{Bucket: "looks", Region: "eu-west-1"})

	url, err := store.Put(context.Background(), "products/p1.png", []byte("img"), "image/png", Public)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if url != "https://looks.s3.eu-west-1.amazonaws.com/products/p1.png" {
		t.Fatalf("public url = %q", url)
	}
	if aws.ToString(stub.put.Bucket) != "looks" || aws.ToString(stub.put.ContentType) != "image/png" || stub.body != "img" {
		t.Fatalf("unexpected put %+v body=%q", stub.put, stub.body)
	}
	if stub.presigned != nil {
		t.Fatalf("public object should not be presigned")
	}

	url, err = store.Put(context.Background(), "user-tryon/c1-p1.png", []byte("img"), "image/png", Private)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if !strings.Contains(url, "X-Amz-Signature") || aws.ToString(stub.presigned.Key) != "user-tryon/c1-p1.png" {
		t.Fatalf("private url = %q", url)
	}
}

func TestS3StorePutError(t *testing.T) {
	stub := &stubS3{err: errors.New("access denied")}
	store := newS3Store(stub, stub, S3Options{Bucket: "looks", Region: "us-east-1", PublicBaseURL: "https://cdn.example.com/"})
	if _, err := store.Put(context.Background(), "k.png", nil, "image/png", Public); err == nil {
		t.Fatalf("expected error")
	}
}

type stubSupabase struct {
	uploaded  string
	upsert    bool
	signedTTL int
}

func (s *stubSupabase) UploadFile(bucketId string, relativePath string, data io.Reader, fileOptions ...storage_go.FileOptions) (storage_go.FileUploadResponse, error) {
	s.uploaded = bucketId + "/" + relativePath
	if len(fileOptions) > 0 && fileOptions[0].Upsert != nil {
		s.upsert = *fileOptions[0].Upsert
	}
	return storage_go.FileUploadResponse{}, nil
}

func (s *stubSupabase) CreateSignedUrl(bucketId string, filePath string, expiresIn int) (storage_go.SignedUrlResponse, error) {
	s.signedTTL = expiresIn
	return storage_go.SignedUrlResponse{SignedURL: "https://x.supabase.co/storage/v1/object/sign/" + bucketId + "/" + filePath + "?token=t"}, nil
}

func (s *stubSupabase) GetPublicUrl(bucketId string, filePath string, urlOptions ...storage_go.UrlOptions) storage_go.SignedUrlResponse {
	return storage_go.SignedUrlResponse{SignedURL: "https://x.supabase.co/storage/v1/object/public/" + bucketId + "/" + filePath}
}

func TestSupabaseStore(t *testing.T) {
	stub := &stubSupabase{}
	store := newSupabaseStore(stub, SupabaseOptions{})

	url, err := store.Put(context.Background(), "products/p1.png", []byte("img"), "image/png", Public)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if url != "https://x.supabase.co/storage/v1/object/public/ai-images/products/p1.png" || !stub.upsert {
		t.Fatalf("unexpected public put url=%q upsert=%v", url, stub.upsert)
	}

	url, err = store.Put(context.Background(), "user-tryon/c1.png", []byte("img"), "image/png", Private)
	if err != nil {
		t.Fatalf("Put error: %v", err)
	}
	if !strings.Contains(url, "/object/sign/ai-images/user-tryon/c1.png") {
		t.Fatalf("private url = %q", url)
	}
	if stub.signedTTL != 7*24*60*60 {
		t.Fatalf("signed ttl = %d", stub.signedTTL)
	}
}
