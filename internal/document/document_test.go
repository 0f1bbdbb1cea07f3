package document

import "testing"

func sampleDoc() Document {
	return New(1, []Slide{
		{ID: 10, PresentationID: 1, Order: 0, Style: StyleMap{"backgroundColor": "#ffffff"}, Elements: []Element{
			{ID: 100, SlideID: 10, Type: TypeText, Content: "Title", Order: 0},
			{ID: 101, SlideID: 10, Type: TypeText, Content: "Body", Order: 1},
		}},
		{ID: 11, PresentationID: 1, Order: 1, Style: StyleMap{}, Elements: []Element{
			{ID: 102, SlideID: 11, Type: TypeImage, Src: "data:image/png;base64,xx", Order: 0},
		}},
	})
}

func TestNewSortsByOrder(t *testing.T) {
	doc := New(1, []Slide{
		{ID: 2, Order: 2},
		{ID: 0, Order: 0, Elements: []Element{{ID: 5, Order: 2}, {ID: 4, Order: 0}}},
		{ID: 1, Order: 1},
	})
	for i, s := range doc.Slides {
		if s.Order != i {
			t.Fatalf("slide %d has order %d", i, s.Order)
		}
	}
	els := doc.Slides[0].Elements
	if els[0].ID != 4 || els[1].ID != 5 {
		t.Fatalf("elements not sorted by order: %+v", els)
	}
}

func TestWithElementSharesUntouchedSlides(t *testing.T) {
	doc := sampleDoc()
	el, ok := doc.FindElement(100)
	if !ok {
		t.Fatal("element 100 not found")
	}
	el.Content = "Changed"
	next := doc.WithElement(el)

	if got, _ := next.FindElement(100); got.Content != "Changed" {
		t.Fatalf("content = %q", got.Content)
	}
	if got, _ := doc.FindElement(100); got.Content != "Title" {
		t.Fatalf("original mutated: %q", got.Content)
	}
	// Untouched slide shares its element backing array.
	if &doc.Slides[1].Elements[0] != &next.Slides[1].Elements[0] {
		t.Fatal("untouched slide was copied")
	}
	// Touched slide must not share.
	if &doc.Slides[0].Elements[0] == &next.Slides[0].Elements[0] {
		t.Fatal("touched slide elements shared with original")
	}
}

func TestWithSlideStyle(t *testing.T) {
	doc := sampleDoc()
	next := doc.WithSlideStyle(1, StyleMap{"backgroundColor": "#000000"})
	if next.Slides[1].Style["backgroundColor"] != "#000000" {
		t.Fatalf("style not applied: %v", next.Slides[1].Style)
	}
	if len(doc.Slides[1].Style) != 0 {
		t.Fatalf("original slide style mutated: %v", doc.Slides[1].Style)
	}
	if same := doc.WithSlideStyle(9, nil); len(same.Slides) != len(doc.Slides) {
		t.Fatal("out-of-range index should be a no-op")
	}
}

func TestWithElementRemoved(t *testing.T) {
	doc := sampleDoc()
	next := doc.WithElementRemoved(100)
	if _, ok := next.FindElement(100); ok {
		t.Fatal("element still present")
	}
	if len(next.Slides[0].Elements) != 1 {
		t.Fatalf("expected 1 element, got %d", len(next.Slides[0].Elements))
	}
	if _, ok := doc.FindElement(100); !ok {
		t.Fatal("original lost the element")
	}
}

func TestWithElementContentUnknownIDIsNoop(t *testing.T) {
	doc := sampleDoc()
	next := doc.WithElementContent(999, "x")
	if len(next.Slides) != len(doc.Slides) {
		t.Fatal("unexpected structural change")
	}
}

func TestAppendSlideKeepsOrdering(t *testing.T) {
	doc := sampleDoc()
	next := doc.AppendSlide(Slide{ID: 9, Order: -1})
	if next.Slides[0].ID != 9 {
		t.Fatalf("expected prepended slide first, got %d", next.Slides[0].ID)
	}
	if len(doc.Slides) != 2 {
		t.Fatal("original grew")
	}
}

func TestSlideOf(t *testing.T) {
	doc := sampleDoc()
	if idx := doc.SlideOf(102); idx != 1 {
		t.Fatalf("SlideOf(102) = %d", idx)
	}
	if idx := doc.SlideOf(999); idx != -1 {
		t.Fatalf("SlideOf(999) = %d", idx)
	}
}
