package thumbnail

import (
	"context"
	"errors"
	"testing"

	"slidecanvas/api/internal/document"
)

type fakeRenderer struct {
	calls int
	png   []byte
}

func (f *fakeRenderer) Render(ctx context.Context, slide document.Slide) ([]byte, error) {
	f.calls++
	return f.png, nil
}

type fakeBlobs struct {
	store map[string][]byte
	puts  int
}

func (f *fakeBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := f.store[key]; ok {
		return data, nil
	}
	return nil, errors.New("missing")
}

func (f *fakeBlobs) Put(ctx context.Context, key string, data []byte, contentType string) error {
	f.store[key] = data
	f.puts++
	return nil
}

func TestCachedRendererRendersOnce(t *testing.T) {
	inner := &fakeRenderer{png: []byte("png-bytes")}
	blobs := &fakeBlobs{store: map[string][]byte{}}
	cached := NewCached(inner, blobs)

	slide := document.Slide{Style: document.StyleMap{"backgroundColor": "#ffffff"}}

	for range 3 {
		png, err := cached.Render(context.Background(), slide)
		if err != nil {
			t.Fatalf("render: %v", err)
		}
		if string(png) != "png-bytes" {
			t.Errorf("unexpected png %q", png)
		}
	}
	if inner.calls != 1 {
		t.Errorf("expected one chrome render, got %d", inner.calls)
	}
	if blobs.puts != 1 {
		t.Errorf("expected one cache write, got %d", blobs.puts)
	}
}

func TestCachedRendererKeyFollowsContent(t *testing.T) {
	inner := &fakeRenderer{png: []byte("png-bytes")}
	blobs := &fakeBlobs{store: map[string][]byte{}}
	cached := NewCached(inner, blobs)

	a := document.Slide{Style: document.StyleMap{"backgroundColor": "#ffffff"}}
	b := document.Slide{Style: document.StyleMap{"backgroundColor": "#222222"}}

	if _, err := cached.Render(context.Background(), a); err != nil {
		t.Fatalf("render a: %v", err)
	}
	if _, err := cached.Render(context.Background(), b); err != nil {
		t.Fatalf("render b: %v", err)
	}
	if inner.calls != 2 {
		t.Errorf("different slides must render separately, got %d calls", inner.calls)
	}
	if len(blobs.store) != 2 {
		t.Errorf("expected two distinct cache keys, got %d", len(blobs.store))
	}
}
