// Package document holds the in-memory representation of a presentation:
// ordered slides, each with ordered elements. It is a pure data container;
// all mutation is copy-on-write at the slide/element level so consumers can
// diff by reference.
package document

import "sort"

const (
	TypeText  = "text"
	TypeImage = "image"
)

// StyleMap is a flat mapping of visual properties (fontWeight, color,
// backgroundColor, opacity, transform, ...). Values are kept as produced by
// JSON decoding, so numbers arrive as float64.
type StyleMap map[string]any

// Clone returns a shallow copy of the map. A nil receiver yields an empty map.
func (m StyleMap) Clone() StyleMap {
	out := make(StyleMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Element struct {
	ID       int64    `json:"id"`
	SlideID  int64    `json:"slide_id"`
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Src      string   `json:"src,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Position Position `json:"position"`
	Style    StyleMap `json:"style"`
	Order    int      `json:"order"`
}

type Slide struct {
	ID             int64     `json:"id"`
	PresentationID int64     `json:"presentation_id"`
	Order          int       `json:"order"`
	Style          StyleMap  `json:"style"`
	Elements       []Element `json:"elements"`
}

type Presentation struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Document is the shared editing state: one presentation's slides in display
// order. Mutating methods return a new Document; untouched slides are shared
// between old and new values.
type Document struct {
	PresentationID int64
	Slides         []Slide
}

func New(presentationID int64, slides []Slide) Document {
	doc := Document{PresentationID: presentationID, Slides: slides}
	doc.sort()
	return doc
}

func (d *Document) sort() {
	sort.SliceStable(d.Slides, func(i, j int) bool {
		return d.Slides[i].Order < d.Slides[j].Order
	})
	for i := range d.Slides {
		els := d.Slides[i].Elements
		sort.SliceStable(els, func(a, b int) bool { return els[a].Order < els[b].Order })
	}
}

// SlideAt returns the slide at display index i, or false when out of range.
func (d Document) SlideAt(i int) (Slide, bool) {
	if i < 0 || i >= len(d.Slides) {
		return Slide{}, false
	}
	return d.Slides[i], true
}

// FindElement locates an element by id across all slides.
func (d Document) FindElement(elementID int64) (Element, bool) {
	for _, slide := range d.Slides {
		for _, el := range slide.Elements {
			if el.ID == elementID {
				return el, true
			}
		}
	}
	return Element{}, false
}

// SlideOf returns the display index of the slide owning the element, or -1.
func (d Document) SlideOf(elementID int64) int {
	for i, slide := range d.Slides {
		for _, el := range slide.Elements {
			if el.ID == elementID {
				return i
			}
		}
	}
	return -1
}

// WithSlideStyle returns a copy with the style of the slide at index i
// replaced. Out-of-range indexes return the document unchanged.
func (d Document) WithSlideStyle(i int, style StyleMap) Document {
	if i < 0 || i >= len(d.Slides) {
		return d
	}
	slides := make([]Slide, len(d.Slides))
	copy(slides, d.Slides)
	slides[i].Style = style
	return Document{PresentationID: d.PresentationID, Slides: slides}
}

// WithElement returns a copy with the element (matched by id) replaced.
// Only the owning slide's element sequence is copied.
func (d Document) WithElement(el Element) Document {
	idx := d.SlideOf(el.ID)
	if idx < 0 {
		return d
	}
	slides := make([]Slide, len(d.Slides))
	copy(slides, d.Slides)
	els := make([]Element, len(slides[idx].Elements))
	copy(els, slides[idx].Elements)
	for i := range els {
		if els[i].ID == el.ID {
			els[i] = el
			break
		}
	}
	slides[idx].Elements = els
	return Document{PresentationID: d.PresentationID, Slides: slides}
}

// WithElementContent returns a copy with one element's text content replaced.
func (d Document) WithElementContent(elementID int64, content string) Document {
	el, ok := d.FindElement(elementID)
	if !ok {
		return d
	}
	el.Content = content
	return d.WithElement(el)
}

// WithElementRemoved returns a copy without the element.
func (d Document) WithElementRemoved(elementID int64) Document {
	idx := d.SlideOf(elementID)
	if idx < 0 {
		return d
	}
	slides := make([]Slide, len(d.Slides))
	copy(slides, d.Slides)
	els := make([]Element, 0, len(slides[idx].Elements)-1)
	for _, el := range slides[idx].Elements {
		if el.ID != elementID {
			els = append(els, el)
		}
	}
	slides[idx].Elements = els
	return Document{PresentationID: d.PresentationID, Slides: slides}
}

// AppendElement returns a copy with the element appended to the slide at
// display index i.
func (d Document) AppendElement(i int, el Element) Document {
	if i < 0 || i >= len(d.Slides) {
		return d
	}
	slides := make([]Slide, len(d.Slides))
	copy(slides, d.Slides)
	els := make([]Element, len(slides[i].Elements), len(slides[i].Elements)+1)
	copy(els, slides[i].Elements)
	slides[i].Elements = append(els, el)
	return Document{PresentationID: d.PresentationID, Slides: slides}
}

// AppendSlide returns a copy with the slide appended in display order.
func (d Document) AppendSlide(s Slide) Document {
	slides := make([]Slide, len(d.Slides), len(d.Slides)+1)
	copy(slides, d.Slides)
	doc := Document{PresentationID: d.PresentationID, Slides: append(slides, s)}
	doc.sort()
	return doc
}
