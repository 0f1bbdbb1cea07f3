// Package assets offloads large inline image payloads to S3-compatible
// object storage. Small payloads and ordinary URLs pass through untouched, so
// the element table never carries multi-megabyte data URLs.
package assets

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Payloads below this size stay inline.
const defaultThreshold = 64 * 1024

type Store struct {
	client     *minio.Client
	bucket     string
	threshold  int
	presignTTL time.Duration
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New connects to object storage and ensures the bucket exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", cfg.Bucket, err)
		}
	}

	return &Store{
		client:     client,
		bucket:     cfg.Bucket,
		threshold:  defaultThreshold,
		presignTTL: 7 * 24 * time.Hour,
	}, nil
}

// Put uploads a blob under the given key.
func (s *Store) Put(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Get fetches a blob. A missing key returns an error.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	object, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", key, err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

// Presign returns a time-limited GET URL for a stored blob.
func (s *Store) Presign(ctx context.Context, key string) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, s.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", key, err)
	}
	return url.String(), nil
}

// StoreImagePayload uploads a base64 data URL to the bucket and returns a
// presigned URL in its place. Non-data URLs and payloads under the threshold
// come back unchanged.
func (s *Store) StoreImagePayload(ctx context.Context, src string) (string, error) {
	mediaType, encoded, ok := parseDataURL(src)
	if !ok || len(encoded) < s.threshold {
		return src, nil
	}

	payload, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	sum := sha256.Sum256(payload)
	object := "img/" + hex.EncodeToString(sum[:8]) + extensionFor(mediaType)

	_, err = s.client.PutObject(ctx, s.bucket, object, bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: mediaType})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", object, err)
	}

	url, err := s.client.PresignedGetObject(ctx, s.bucket, object, s.presignTTL, nil)
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", object, err)
	}
	return url.String(), nil
}

// parseDataURL splits "data:<mediatype>;base64,<payload>". Only base64 data
// URLs qualify for offload.
func parseDataURL(src string) (mediaType, payload string, ok bool) {
	if !strings.HasPrefix(src, "data:") {
		return "", "", false
	}
	rest := src[len("data:"):]
	marker := strings.Index(rest, ";base64,")
	if marker < 0 {
		return "", "", false
	}
	return rest[:marker], rest[marker+len(";base64,"):], true
}

func extensionFor(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/svg+xml":
		return ".svg"
	default:
		return ".bin"
	}
}
