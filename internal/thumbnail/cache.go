package thumbnail

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"slidecanvas/api/internal/document"
)

// BlobStore persists rendered thumbnails. Implemented by the assets package.
type BlobStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte, contentType string) error
}

type slideRenderer interface {
	Render(ctx context.Context, slide document.Slide) ([]byte, error)
}

// CachedRenderer wraps a renderer with a content-addressed blob cache: the
// key is derived from the rendered HTML, so any change to the slide produces
// a new key and stale entries are never served.
type CachedRenderer struct {
	inner slideRenderer
	blobs BlobStore
}

func NewCached(inner slideRenderer, blobs BlobStore) *CachedRenderer {
	return &CachedRenderer{inner: inner, blobs: blobs}
}

func (c *CachedRenderer) Render(ctx context.Context, slide document.Slide) ([]byte, error) {
	html, err := RenderHTML(slide)
	if err != nil {
		return nil, err
	}
	key := cacheKey(html)

	if data, err := c.blobs.Get(ctx, key); err == nil && len(data) > 0 {
		return data, nil
	}

	png, err := c.inner.Render(ctx, slide)
	if err != nil {
		return nil, err
	}
	if err := c.blobs.Put(ctx, key, png, "image/png"); err != nil {
		log.Printf("thumbnail: cache write %s: %v", key, err)
	}
	return png, nil
}

func cacheKey(html string) string {
	sum := sha256.Sum256([]byte(html))
	return "thumb/" + hex.EncodeToString(sum[:8]) + ".png"
}
