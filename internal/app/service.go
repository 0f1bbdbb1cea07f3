package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"slidecanvas/api/internal/document"
	"slidecanvas/api/internal/genai"
	"slidecanvas/api/internal/search"
)

// Store is the persistence surface the service depends on.
type Store interface {
	Ping(ctx context.Context) error

	ListPresentations(ctx context.Context) ([]document.Presentation, error)
	GetPresentation(ctx context.Context, id int64) (document.Presentation, error)
	CreatePresentation(ctx context.Context, title string) (document.Presentation, error)
	UpdatePresentation(ctx context.Context, id int64, title string) (document.Presentation, error)
	DeletePresentation(ctx context.Context, id int64) error

	GetSlides(ctx context.Context, presentationID int64) ([]document.Slide, error)
	GetFirstSlide(ctx context.Context, presentationID int64) (document.Slide, error)
	AddSlide(ctx context.Context, presentationID int64, in document.SlideInput) (document.Slide, error)
	UpdateSlideByOrder(ctx context.Context, presentationID int64, order int, styles document.StyleMap) (document.Slide, error)
	DeleteSlideByOrder(ctx context.Context, presentationID int64, order int) error

	AddElement(ctx context.Context, slideID int64, in document.ElementInput) (document.Element, error)
	UpdateElement(ctx context.Context, elementID int64, in document.ElementUpdate) (document.Element, error)
	DeleteElement(ctx context.Context, elementID int64) error
}

// SearchIndex is the slice of the search service the app uses.
type SearchIndex interface {
	Search(q search.Query) search.Response
	IndexPresentation(p search.PresentationRecord)
	DeletePresentation(id int64)
}

// AssetStore offloads large inline image payloads to object storage,
// returning a fetchable URL in their place.
type AssetStore interface {
	StoreImagePayload(ctx context.Context, src string) (string, error)
}

// Thumbnailer rasterizes a slide to a PNG.
type Thumbnailer interface {
	Render(ctx context.Context, slide document.Slide) ([]byte, error)
}

type Service struct {
	store     Store
	search    SearchIndex
	assets    AssetStore
	thumbs    Thumbnailer
	generator genai.Generator
	pipeline  *genai.Pipeline
}

// Options carries the optional collaborators; any field may be nil and the
// matching feature degrades gracefully.
type Options struct {
	Search    SearchIndex
	Assets    AssetStore
	Thumbs    Thumbnailer
	Generator genai.Generator
}

func NewService(store Store, opts Options) *Service {
	s := &Service{
		store:     store,
		search:    opts.Search,
		assets:    opts.Assets,
		thumbs:    opts.Thumbs,
		generator: opts.Generator,
	}
	if s.generator != nil {
		s.pipeline = genai.NewPipeline(s.generator, s)
	}
	return s
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// Presentations

func (s *Service) ListPresentations(ctx context.Context) ([]document.Presentation, error) {
	return s.store.ListPresentations(ctx)
}

func (s *Service) GetPresentation(ctx context.Context, id int64) (document.Presentation, error) {
	return s.store.GetPresentation(ctx, id)
}

func (s *Service) CreatePresentation(ctx context.Context, title string) (document.Presentation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return document.Presentation{}, domainError(http.StatusBadRequest, "TITLE_REQUIRED", "Title is required", nil)
	}
	p, err := s.store.CreatePresentation(ctx, title)
	if err != nil {
		return document.Presentation{}, err
	}
	if s.search != nil {
		s.search.IndexPresentation(search.PresentationRecord{ID: p.ID, Title: p.Title})
	}
	return p, nil
}

func (s *Service) UpdatePresentation(ctx context.Context, id int64, title string) (document.Presentation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return document.Presentation{}, domainError(http.StatusBadRequest, "TITLE_REQUIRED", "Title is required", nil)
	}
	p, err := s.store.UpdatePresentation(ctx, id, title)
	if err != nil {
		return document.Presentation{}, err
	}
	if s.search != nil {
		s.search.IndexPresentation(search.PresentationRecord{ID: p.ID, Title: p.Title})
	}
	return p, nil
}

func (s *Service) DeletePresentation(ctx context.Context, id int64) error {
	if err := s.store.DeletePresentation(ctx, id); err != nil {
		return err
	}
	if s.search != nil {
		s.search.DeletePresentation(id)
	}
	return nil
}

func (s *Service) SearchPresentations(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// Slides

func (s *Service) GetSlides(ctx context.Context, presentationID int64) ([]document.Slide, error) {
	return s.store.GetSlides(ctx, presentationID)
}

func (s *Service) GetFirstSlide(ctx context.Context, presentationID int64) (document.Slide, error) {
	return s.store.GetFirstSlide(ctx, presentationID)
}

func (s *Service) AddSlide(ctx context.Context, presentationID int64, in document.SlideInput) (document.Slide, error) {
	if in.Order < 0 {
		return document.Slide{}, domainError(http.StatusBadRequest, "INVALID_ORDER", "Order must be non-negative", nil)
	}
	existing, err := s.store.GetSlides(ctx, presentationID)
	if err != nil {
		return document.Slide{}, err
	}
	for _, slide := range existing {
		if slide.Order == in.Order {
			return document.Slide{}, domainError(http.StatusConflict, "DUPLICATE_ORDER", "A slide with this order already exists", map[string]any{"order": in.Order})
		}
	}
	return s.store.AddSlide(ctx, presentationID, in)
}

func (s *Service) UpdateSlideByOrder(ctx context.Context, presentationID int64, order int, styles document.StyleMap) (document.Slide, error) {
	return s.store.UpdateSlideByOrder(ctx, presentationID, order, styles)
}

func (s *Service) DeleteSlideByOrder(ctx context.Context, presentationID int64, order int) error {
	return s.store.DeleteSlideByOrder(ctx, presentationID, order)
}

// Elements

func (s *Service) AddElement(ctx context.Context, slideID int64, in document.ElementInput) (document.Element, error) {
	if in.Type != document.TypeText && in.Type != document.TypeImage {
		return document.Element{}, domainError(http.StatusBadRequest, "INVALID_TYPE", "Element type must be text or image", map[string]any{"type": in.Type})
	}
	if in.Order < 0 {
		return document.Element{}, domainError(http.StatusBadRequest, "INVALID_ORDER", "Order must be non-negative", nil)
	}
	if s.assets != nil && in.Type == document.TypeImage && in.Src != "" {
		stored, err := s.assets.StoreImagePayload(ctx, in.Src)
		if err != nil {
			log.Printf("app: store image payload: %v", err)
		} else {
			in.Src = stored
		}
	}
	return s.store.AddElement(ctx, slideID, in)
}

func (s *Service) UpdateElement(ctx context.Context, elementID int64, in document.ElementUpdate) (document.Element, error) {
	if in.Order != nil && *in.Order < 0 {
		return document.Element{}, domainError(http.StatusBadRequest, "INVALID_ORDER", "Order must be non-negative", nil)
	}
	if s.assets != nil && in.Src != nil && *in.Src != "" {
		stored, err := s.assets.StoreImagePayload(ctx, *in.Src)
		if err != nil {
			log.Printf("app: store image payload: %v", err)
		} else {
			in.Src = &stored
		}
	}
	return s.store.UpdateElement(ctx, elementID, in)
}

func (s *Service) DeleteElement(ctx context.Context, elementID int64) error {
	return s.store.DeleteElement(ctx, elementID)
}

// Generation

// Generate runs one prompt through the ingestion pipeline against the given
// presentation and returns the refreshed deck.
func (s *Service) Generate(ctx context.Context, presentationID int64, prompt string) (*genai.Result, error) {
	if s.pipeline == nil {
		return nil, domainError(http.StatusServiceUnavailable, "GENAI_UNAVAILABLE", "Generation is not configured", nil)
	}
	if _, err := s.store.GetPresentation(ctx, presentationID); err != nil {
		return nil, err
	}
	result, err := s.pipeline.Run(ctx, presentationID, prompt)
	if err != nil {
		switch {
		case errors.Is(err, genai.ErrEmptyPrompt):
			return nil, domainError(http.StatusBadRequest, "EMPTY_PROMPT", "Prompt must not be empty", nil)
		case errors.Is(err, genai.ErrInvalidJSON):
			return nil, domainError(http.StatusBadGateway, "INVALID_MODEL_OUTPUT", "Model returned unusable output", nil)
		}
		return nil, err
	}
	return result, nil
}

// Thumbnail renders the first slide of a presentation as a PNG.
func (s *Service) Thumbnail(ctx context.Context, presentationID int64) ([]byte, error) {
	if s.thumbs == nil {
		return nil, domainError(http.StatusServiceUnavailable, "THUMBNAIL_UNAVAILABLE", "Thumbnail rendering is not configured", nil)
	}
	slide, err := s.store.GetFirstSlide(ctx, presentationID)
	if err != nil {
		return nil, err
	}
	return s.thumbs.Render(ctx, slide)
}
