package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"slidecanvas/api/internal/document"
)

var (
	ErrEmptyPrompt = errors.New("genai: prompt is empty")
	ErrInvalidJSON = errors.New("genai: model did not return valid JSON")
)

// Persister is the slice of the persistence backend the pipeline needs.
type Persister interface {
	AddSlide(ctx context.Context, presentationID int64, in document.SlideInput) (document.Slide, error)
	AddElement(ctx context.Context, slideID int64, in document.ElementInput) (document.Element, error)
	GetSlides(ctx context.Context, presentationID int64) ([]document.Slide, error)
}

// Pipeline states, observable by the UI while a request is in flight.
const (
	StateIdle = iota
	StateRequesting
	StateNormalizing
	StatePersisting
	StateRefreshing
)

// Deck is the model's reply shape. Orders arrive as whatever JSON kind the
// model chose, so they stay loosely typed until normalization.
type Deck struct {
	Slides   []DeckSlide   `json:"slides"`
	Elements []DeckElement `json:"elements"`
}

type DeckSlide struct {
	Order any               `json:"order"`
	Style document.StyleMap `json:"style"`
}

type DeckElement struct {
	SlideOrder any                `json:"slideOrder"`
	SlideID    any                `json:"slideId"`
	Type       string             `json:"type"`
	Content    string             `json:"content"`
	Src        string             `json:"src"`
	Width      *float64           `json:"width"`
	Height     *float64           `json:"height"`
	Style      document.StyleMap  `json:"style"`
	Position   *document.Position `json:"position"`
	Order      any                `json:"order"`
}

// SkippedElement records an element whose owning slide could not be resolved
// during persistence. These are reported to the caller, not dropped silently.
type SkippedElement struct {
	Index      int    `json:"index"`
	SlideOrder string `json:"slideOrder"`
}

// Result summarizes a completed ingestion run.
type Result struct {
	Slides       []document.Slide `json:"slides"`
	SlideCount   int              `json:"slideCount"`
	ElementCount int              `json:"elementCount"`
	Skipped      []SkippedElement `json:"skipped,omitempty"`
}

// Pipeline drives one prompt through generate → parse → normalize → persist →
// refresh. Nothing is applied locally until the backend refresh, so a failure
// anywhere before persistence leaves no partial state.
type Pipeline struct {
	gen     Generator
	backend Persister
	state   atomic.Int32
}

func NewPipeline(gen Generator, backend Persister) *Pipeline {
	return &Pipeline{gen: gen, backend: backend}
}

// State returns the pipeline phase for UI loading indicators.
func (p *Pipeline) State() int {
	return int(p.state.Load())
}

// Run executes the full ingestion for one presentation. Generated slides are
// appended after the presentation's existing slides, so their normalized
// orders are offset past the current maximum. Slide creation is strictly
// sequential so the order→id map is complete before any element insert
// begins; element creation is likewise sequential. A slide creation failure
// aborts the run; an element with an unresolvable slide mapping is skipped
// and reported.
func (p *Pipeline) Run(ctx context.Context, presentationID int64, prompt string) (*Result, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrEmptyPrompt
	}

	p.state.Store(StateRequesting)
	defer p.state.Store(StateIdle)

	raw, err := p.gen.Generate(ctx, BuildPrompt(prompt))
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}

	p.state.Store(StateNormalizing)
	deck, err := ParseDeck(raw)
	if err != nil {
		return nil, err
	}
	Normalize(deck)

	p.state.Store(StatePersisting)
	existing, err := p.backend.GetSlides(ctx, presentationID)
	if err != nil {
		return nil, fmt.Errorf("load existing slides: %w", err)
	}
	base := 0
	for _, slide := range existing {
		if slide.Order >= base {
			base = slide.Order + 1
		}
	}
	// The map is keyed by the normalized order so element slideOrder lookups
	// resolve regardless of the offset.
	orderToID := make(map[int]int64, len(deck.Slides))
	for _, slide := range deck.Slides {
		order := toInt(slide.Order)
		created, err := p.backend.AddSlide(ctx, presentationID, document.SlideInput{
			Style: slide.Style,
			Order: base + order,
		})
		if err != nil {
			return nil, fmt.Errorf("create slide order %d: %w", base+order, err)
		}
		orderToID[order] = created.ID
	}

	result := &Result{SlideCount: len(deck.Slides)}
	for i, el := range deck.Elements {
		slideID, ok := resolveSlide(orderToID, el)
		if !ok {
			log.Printf("genai: element %d references unknown slide order %v, skipped", i, el.SlideOrder)
			result.Skipped = append(result.Skipped, SkippedElement{
				Index:      i,
				SlideOrder: fmt.Sprint(el.SlideOrder),
			})
			continue
		}

		position := document.Position{}
		if el.Position != nil {
			position = *el.Position
		}
		if _, err := p.backend.AddElement(ctx, slideID, document.ElementInput{
			Type:     el.Type,
			Content:  el.Content,
			Src:      el.Src,
			Width:    el.Width,
			Height:   el.Height,
			Position: position,
			Style:    el.Style,
			Order:    toInt(el.Order),
		}); err != nil {
			return nil, fmt.Errorf("create element %d: %w", i, err)
		}
		result.ElementCount++
	}

	p.state.Store(StateRefreshing)
	slides, err := p.backend.GetSlides(ctx, presentationID)
	if err != nil {
		return nil, fmt.Errorf("refresh slides: %w", err)
	}
	result.Slides = slides
	return result, nil
}

// ParseDeck strips an optional ```json fence and decodes the reply. A decode
// failure aborts the whole pipeline before any persistence call.
func ParseDeck(raw string) (*Deck, error) {
	text := stripFence(raw)
	if text == "" {
		return nil, ErrInvalidJSON
	}
	var deck Deck
	if err := json.Unmarshal([]byte(text), &deck); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJSON, err)
	}
	if len(deck.Slides) == 0 {
		return nil, fmt.Errorf("%w: no slides", ErrInvalidJSON)
	}
	return &deck, nil
}

func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}
	return strings.TrimSpace(text)
}

// Normalize rewrites the deck in place: slide orders are shifted so the
// minimum becomes zero (element slideOrder values shift identically, so
// lookups still resolve), element order/style/position get defaults, and
// image payloads move from the content field (the only one the model is asked
// to fill) to src. Image elements never keep text content.
func Normalize(deck *Deck) {
	minOrder := 0
	for i, slide := range deck.Slides {
		order := toInt(slide.Order)
		if i == 0 || order < minOrder {
			minOrder = order
		}
	}
	for i := range deck.Slides {
		deck.Slides[i].Order = toInt(deck.Slides[i].Order) - minOrder
		if deck.Slides[i].Style == nil {
			deck.Slides[i].Style = document.StyleMap{}
		}
	}
	for i := range deck.Elements {
		el := &deck.Elements[i]
		el.Order = toInt(el.Order)
		if el.SlideOrder != nil {
			el.SlideOrder = toInt(el.SlideOrder) - minOrder
		}
		if el.Style == nil {
			el.Style = document.StyleMap{}
		}
		if el.Position == nil {
			el.Position = &document.Position{}
		}
		if el.Type == document.TypeImage {
			if el.Src == "" {
				el.Src = el.Content
			}
			el.Content = ""
		}
	}
}

func resolveSlide(orderToID map[int]int64, el DeckElement) (int64, bool) {
	if el.SlideOrder != nil {
		id, ok := orderToID[toInt(el.SlideOrder)]
		return id, ok
	}
	if el.SlideID != nil {
		id, ok := orderToID[toInt(el.SlideID)]
		return id, ok
	}
	return 0, false
}

// toInt coerces the JSON kinds the model may emit for an order; anything
// non-numeric defaults to 0.
func toInt(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	case string:
		var parsed float64
		if _, err := fmt.Sscanf(strings.TrimSpace(n), "%g", &parsed); err == nil {
			return int(parsed)
		}
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	return 0
}
