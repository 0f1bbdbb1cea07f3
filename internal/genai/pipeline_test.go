package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"slidecanvas/api/internal/document"
)

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	f.calls++
	return f.reply, f.err
}

type fakePersister struct {
	existing     []document.Slide
	slides       []document.SlideInput
	created      []document.Slide
	elements     []document.ElementInput
	elementOwner []int64
	addSlideErr  error
	nextID       int64
}

func (f *fakePersister) AddSlide(_ context.Context, _ int64, in document.SlideInput) (document.Slide, error) {
	if f.addSlideErr != nil {
		return document.Slide{}, f.addSlideErr
	}
	f.slides = append(f.slides, in)
	f.nextID++
	slide := document.Slide{ID: f.nextID, Order: in.Order, Style: in.Style}
	f.created = append(f.created, slide)
	return slide, nil
}

func (f *fakePersister) AddElement(_ context.Context, slideID int64, in document.ElementInput) (document.Element, error) {
	f.elements = append(f.elements, in)
	f.elementOwner = append(f.elementOwner, slideID)
	f.nextID++
	return document.Element{ID: f.nextID, SlideID: slideID}, nil
}

func (f *fakePersister) GetSlides(context.Context, int64) ([]document.Slide, error) {
	out := append([]document.Slide(nil), f.existing...)
	return append(out, f.created...), nil
}

const sampleReply = `{
  "slides": [
    { "order": 5, "style": { "backgroundColor": "#fff" } },
    { "order": 7, "style": { "backgroundColor": "#eee" } }
  ],
  "elements": [
    { "slideOrder": 5, "type": "text", "content": "Heading", "style": { "fontSize": "36px" }, "position": { "x": 40, "y": 40 }, "order": 0 },
    { "slideOrder": 7, "type": "text", "content": "Body", "order": 1 },
    { "slideOrder": 7, "type": "image", "content": "data:image/png;base64,abc", "order": 2 }
  ]
}`

func TestNormalizeRebasesOrders(t *testing.T) {
	deck, err := ParseDeck(sampleReply)
	if err != nil {
		t.Fatalf("ParseDeck: %v", err)
	}
	Normalize(deck)

	if got := []any{deck.Slides[0].Order, deck.Slides[1].Order}; got[0] != 0 || got[1] != 2 {
		t.Fatalf("slide orders = %v, want [0 2]", got)
	}
	// slideOrder 7 must resolve to the rebased 2.
	if deck.Elements[1].SlideOrder != 2 {
		t.Fatalf("element slideOrder = %v, want 2", deck.Elements[1].SlideOrder)
	}
}

func TestNormalizeDefaultsAndImageRelocation(t *testing.T) {
	deck, err := ParseDeck(`{
		"slides": [{ "order": 0 }],
		"elements": [{ "slideOrder": 0, "type": "image", "content": "data:image/png;base64,abc", "order": "not-a-number" }]
	}`)
	if err != nil {
		t.Fatalf("ParseDeck: %v", err)
	}
	Normalize(deck)

	el := deck.Elements[0]
	if el.Src != "data:image/png;base64,abc" {
		t.Fatalf("src = %q", el.Src)
	}
	if el.Content != "" {
		t.Fatalf("content = %q, want cleared", el.Content)
	}
	if el.Order != 0 {
		t.Fatalf("order = %v, want defaulted 0", el.Order)
	}
	if el.Style == nil || el.Position == nil {
		t.Fatal("style/position not defaulted")
	}
	if deck.Slides[0].Style == nil {
		t.Fatal("slide style not defaulted")
	}
}

func TestNormalizeClearsImageContentWhenSrcSet(t *testing.T) {
	deck, err := ParseDeck(`{
		"slides": [{ "order": 0 }],
		"elements": [{ "slideOrder": 0, "type": "image", "src": "https://cdn.example/x.png", "content": "leftover caption", "order": 0 }]
	}`)
	if err != nil {
		t.Fatalf("ParseDeck: %v", err)
	}
	Normalize(deck)

	el := deck.Elements[0]
	if el.Src != "https://cdn.example/x.png" {
		t.Fatalf("src = %q, want original kept", el.Src)
	}
	if el.Content != "" {
		t.Fatalf("content = %q, want cleared for image", el.Content)
	}
}

func TestParseDeckStripsFence(t *testing.T) {
	fenced := "```json\n" + sampleReply + "\n```"
	deck, err := ParseDeck(fenced)
	if err != nil {
		t.Fatalf("ParseDeck(fenced): %v", err)
	}
	plain, err := ParseDeck(sampleReply)
	if err != nil {
		t.Fatalf("ParseDeck(plain): %v", err)
	}
	if len(deck.Slides) != len(plain.Slides) || len(deck.Elements) != len(plain.Elements) {
		t.Fatal("fenced and unfenced replies parsed differently")
	}
}

func TestParseDeckRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json at all", "```json\ngarbage\n```", `{"slides": []}`} {
		if _, err := ParseDeck(raw); !errors.Is(err, ErrInvalidJSON) {
			t.Errorf("ParseDeck(%q) err = %v, want ErrInvalidJSON", raw, err)
		}
	}
}

func TestRunPersistsSlidesThenElements(t *testing.T) {
	fp := &fakePersister{}
	p := NewPipeline(&fakeGenerator{reply: sampleReply}, fp)

	result, err := p.Run(context.Background(), 1, "make me a deck")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(fp.slides) != 2 {
		t.Fatalf("created %d slides", len(fp.slides))
	}
	if fp.slides[0].Order != 0 || fp.slides[1].Order != 2 {
		t.Fatalf("slide orders = %d, %d", fp.slides[0].Order, fp.slides[1].Order)
	}
	if len(fp.elements) != 3 {
		t.Fatalf("created %d elements", len(fp.elements))
	}
	// Elements on slideOrder 7 (rebased 2) belong to the second created slide.
	if fp.elementOwner[1] != 2 || fp.elementOwner[2] != 2 {
		t.Fatalf("element owners = %v", fp.elementOwner)
	}
	if fp.elements[2].Src == "" || fp.elements[2].Content != "" {
		t.Fatalf("image element not relocated: %+v", fp.elements[2])
	}
	if result.SlideCount != 2 || result.ElementCount != 3 || len(result.Skipped) != 0 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Slides) != 2 {
		t.Fatalf("refreshed slides = %d", len(result.Slides))
	}
}

func TestRunAppendsAfterExistingSlides(t *testing.T) {
	fp := &fakePersister{existing: []document.Slide{
		{ID: 40, Order: 0},
		{ID: 41, Order: 3},
	}}
	p := NewPipeline(&fakeGenerator{reply: sampleReply}, fp)

	result, err := p.Run(context.Background(), 1, "more slides")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// Normalized orders 0 and 2 land past the existing maximum of 3.
	if fp.slides[0].Order != 4 || fp.slides[1].Order != 6 {
		t.Fatalf("slide orders = %d, %d, want 4, 6", fp.slides[0].Order, fp.slides[1].Order)
	}
	// Element slideOrder lookups still resolve to the created slides.
	if fp.elementOwner[0] != fp.created[0].ID {
		t.Fatalf("element 0 owner = %d, want %d", fp.elementOwner[0], fp.created[0].ID)
	}
	if fp.elementOwner[1] != fp.created[1].ID || fp.elementOwner[2] != fp.created[1].ID {
		t.Fatalf("element owners = %v", fp.elementOwner)
	}
	if len(result.Slides) != 4 {
		t.Fatalf("refreshed slides = %d, want 4", len(result.Slides))
	}
	if result.SlideCount != 2 || result.ElementCount != 3 {
		t.Fatalf("result = %+v", result)
	}
}

func TestRunRejectsEmptyPrompt(t *testing.T) {
	gen := &fakeGenerator{reply: sampleReply}
	p := NewPipeline(gen, &fakePersister{})

	if _, err := p.Run(context.Background(), 1, "   \n\t"); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("err = %v, want ErrEmptyPrompt", err)
	}
	if gen.calls != 0 {
		t.Fatal("generator called for empty prompt")
	}
}

func TestRunInvalidJSONMakesNoPersistenceCalls(t *testing.T) {
	fp := &fakePersister{}
	p := NewPipeline(&fakeGenerator{reply: "I cannot help with that."}, fp)

	if _, err := p.Run(context.Background(), 1, "deck please"); !errors.Is(err, ErrInvalidJSON) {
		t.Fatalf("err = %v, want ErrInvalidJSON", err)
	}
	if len(fp.slides) != 0 || len(fp.elements) != 0 {
		t.Fatal("persistence called despite parse failure")
	}
}

func TestRunSlideFailureAbortsBeforeElements(t *testing.T) {
	fp := &fakePersister{addSlideErr: errors.New("db down")}
	p := NewPipeline(&fakeGenerator{reply: sampleReply}, fp)

	if _, err := p.Run(context.Background(), 1, "deck"); err == nil {
		t.Fatal("expected error")
	}
	if len(fp.elements) != 0 {
		t.Fatal("elements attempted after slide failure")
	}
}

func TestRunSkipsUnresolvableElements(t *testing.T) {
	reply := `{
		"slides": [{ "order": 0, "style": {} }],
		"elements": [
			{ "slideOrder": 0, "type": "text", "content": "ok", "order": 0 },
			{ "slideOrder": 9, "type": "text", "content": "orphan", "order": 1 }
		]
	}`
	fp := &fakePersister{}
	p := NewPipeline(&fakeGenerator{reply: reply}, fp)

	result, err := p.Run(context.Background(), 1, "deck")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.ElementCount != 1 {
		t.Fatalf("ElementCount = %d", result.ElementCount)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Index != 1 {
		t.Fatalf("Skipped = %+v", result.Skipped)
	}
}

func TestBuildPromptEmbedsUserTextAndContract(t *testing.T) {
	prompt := BuildPrompt("A deck about whales")
	if !strings.HasPrefix(prompt, "A deck about whales") {
		t.Fatal("user prompt not leading")
	}
	for _, needle := range []string{`"slides"`, `"elements"`, "slideOrder", "do not overlap"} {
		if !strings.Contains(prompt, needle) {
			t.Errorf("prompt missing %q", needle)
		}
	}
}
