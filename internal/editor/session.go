// Package editor implements the direct-manipulation editing engine for one
// open presentation: selection, gesture commits, text editing, keyboard
// navigation, viewport tracking and the debounced style-write pipeline.
package editor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log"
	"sync"
	"time"

	"slidecanvas/api/internal/debounce"
	"slidecanvas/api/internal/document"
	"slidecanvas/api/internal/style"
)

// Backend is the persistence surface the editor talks to. Implemented by the
// in-process service and by the HTTP client.
type Backend interface {
	GetSlides(ctx context.Context, presentationID int64) ([]document.Slide, error)
	UpdatePresentation(ctx context.Context, id int64, title string) (document.Presentation, error)
	AddSlide(ctx context.Context, presentationID int64, in document.SlideInput) (document.Slide, error)
	UpdateSlideByOrder(ctx context.Context, presentationID int64, order int, styles document.StyleMap) (document.Slide, error)
	DeleteSlideByOrder(ctx context.Context, presentationID int64, order int) error
	AddElement(ctx context.Context, slideID int64, in document.ElementInput) (document.Element, error)
	UpdateElement(ctx context.Context, elementID int64, in document.ElementUpdate) (document.Element, error)
	DeleteElement(ctx context.Context, elementID int64) error
}

// Keyboard keys the session reacts to.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyEscape     = "Escape"
	KeyDelete     = "Delete"
)

const defaultDebounce = 300 * time.Millisecond

// Session is one open editor on one presentation. All entry points are safe
// to call from the UI event goroutine; debounce timers re-enter through the
// same mutex.
type Session struct {
	ID string

	mu          sync.Mutex
	backend     Backend
	doc         document.Document
	toolbar     style.Toolbar
	selected    int64
	lastApplied int64
	current     int
	presenting  bool
	closed      bool

	slideWrite   *debounce.Debouncer
	contentWrite *debounce.Debouncer
	styleWrite   *debounce.Value[document.StyleMap]

	// scrollTo receives explicit navigation requests (keyboard / sidebar);
	// the UI is expected to scroll the slide into view.
	scrollTo func(index int)
}

type Option func(*Session)

// WithDebounce overrides the coalescing delay, used by tests.
func WithDebounce(d time.Duration) Option {
	return func(s *Session) { s.initDebouncers(d) }
}

// WithScrollSink registers the navigation callback.
func WithScrollSink(fn func(index int)) Option {
	return func(s *Session) { s.scrollTo = fn }
}

// NewSession opens an editor on the presentation's current slides.
func NewSession(backend Backend, doc document.Document, opts ...Option) *Session {
	s := &Session{
		ID:      newSessionID(),
		backend: backend,
		doc:     doc,
		toolbar: style.DefaultToolbar(),
	}
	s.initDebouncers(defaultDebounce)
	for _, opt := range opts {
		opt(s)
	}
	s.syncBackgroundFromSlide()
	return s
}

// Session ids are opaque handles for the UI layer; persistent entities get
// their ids from the database.
func newSessionID() string {
	buf := make([]byte, 12)
	_, _ = rand.Read(buf)
	return "sess_" + hex.EncodeToString(buf)
}

func (s *Session) initDebouncers(d time.Duration) {
	if s.slideWrite != nil {
		s.slideWrite.Stop()
		s.contentWrite.Stop()
		s.styleWrite.Stop()
	}
	s.slideWrite = debounce.New(d, s.commitSlideStyle)
	s.contentWrite = debounce.New(d, s.commitContent)
	s.styleWrite = debounce.NewValue(d, s.commitElementStyle)
}

// Document returns the current document snapshot.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Toolbar returns the current toolbar state.
func (s *Session) Toolbar() style.Toolbar {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.toolbar
}

// CurrentIndex returns the current slide pointer.
func (s *Session) CurrentIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// SelectedElement returns the selected element id, 0 when nothing is selected.
func (s *Session) SelectedElement() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// Close tears the session down: pending debounced writes are flushed so the
// last settled edits are not lost, then timers stop scheduling.
func (s *Session) Close() {
	s.styleWrite.Flush()
	s.contentWrite.Flush()
	s.slideWrite.Flush()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Refresh re-fetches the document from the backend. Used after structural
// changes where backend-assigned ids are needed for subsequent edits.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	presentationID := s.doc.PresentationID
	s.mu.Unlock()

	slides, err := s.backend.GetSlides(ctx, presentationID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = document.New(presentationID, slides)
	if s.current > len(s.doc.Slides)-1 {
		s.current = max(len(s.doc.Slides)-1, 0)
	}
	if _, ok := s.doc.FindElement(s.selected); !ok {
		s.selected = 0
	}
	return nil
}

// SelectElement transitions selection to the element. Entering a newly
// selected id overwrites the toolbar from the element's stored style exactly
// once per distinct id.
func (s *Session) SelectElement(elementID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	el, ok := s.doc.FindElement(elementID)
	if !ok {
		return
	}
	s.selected = elementID
	if s.lastApplied == elementID {
		return
	}
	background := s.toolbar.BackgroundColor
	s.toolbar = style.Apply(el.Style)
	s.toolbar.BackgroundColor = background
	s.lastApplied = elementID
}

// Deselect clears the selection (click on empty slide canvas).
func (s *Session) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = 0
}

// Toolbar edits. Each mutation re-resolves the toolbar and feeds the settled
// style through the value debounce; the commit fires once per settled value.

func (s *Session) ToggleBold() { s.editToolbar(func(tb *style.Toolbar) { tb.Bold = !tb.Bold }) }

func (s *Session) ToggleItalic() { s.editToolbar(func(tb *style.Toolbar) { tb.Italic = !tb.Italic }) }

func (s *Session) ToggleUnderline() {
	s.editToolbar(func(tb *style.Toolbar) { tb.Underline = !tb.Underline })
}

func (s *Session) ToggleStrikethrough() {
	s.editToolbar(func(tb *style.Toolbar) { tb.Strikethrough = !tb.Strikethrough })
}

func (s *Session) SetAlignment(align string) {
	s.editToolbar(func(tb *style.Toolbar) { tb.Align = align })
}

func (s *Session) SetTextColor(color string) {
	s.editToolbar(func(tb *style.Toolbar) { tb.TextColor = color })
}

func (s *Session) SetTextBackground(color string) {
	s.editToolbar(func(tb *style.Toolbar) { tb.TextBackground = color })
}

func (s *Session) SetFontSize(size string) {
	s.editToolbar(func(tb *style.Toolbar) { tb.FontSize = size })
}

func (s *Session) SetOpacity(opacity string) {
	s.editToolbar(func(tb *style.Toolbar) { tb.Opacity = opacity })
}

func (s *Session) SetFontFamily(family string) {
	s.editToolbar(func(tb *style.Toolbar) { tb.FontFamily = family })
}

func (s *Session) editToolbar(edit func(*style.Toolbar)) {
	s.mu.Lock()
	edit(&s.toolbar)
	resolved := style.Resolve(s.toolbar)
	s.mu.Unlock()
	s.styleWrite.Set(resolved)
}

// commitElementStyle is the settled-value sink of the style debounce: one
// persistence update and one document mutation for the selected element, and
// only when the merged style structurally differs from the stored one.
func (s *Session) commitElementStyle(resolved document.StyleMap) {
	s.mu.Lock()
	if s.closed || s.selected == 0 {
		s.mu.Unlock()
		return
	}
	el, ok := s.doc.FindElement(s.selected)
	if !ok {
		s.mu.Unlock()
		return
	}
	merged := style.Merge(el.Style, resolved)
	if style.Equal(el.Style, merged) {
		s.mu.Unlock()
		return
	}
	el.Style = merged
	s.doc = s.doc.WithElement(el)
	s.mu.Unlock()

	if _, err := s.backend.UpdateElement(context.Background(), el.ID, document.ElementUpdate{Style: merged}); err != nil {
		log.Printf("editor: style autosave element %d: %v", el.ID, err)
	}
}

// SetElementText handles input/blur of an editable text element: the visible
// text is pushed through the content debounce, so rapid keystrokes produce a
// single write.
func (s *Session) SetElementText(elementID int64, text string) {
	s.contentWrite.Schedule(elementID, text)
}

func (s *Session) commitContent(args ...any) {
	if len(args) != 2 {
		return
	}
	elementID, _ := args[0].(int64)
	text, _ := args[1].(string)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if _, ok := s.doc.FindElement(elementID); !ok {
		s.mu.Unlock()
		return
	}
	s.doc = s.doc.WithElementContent(elementID, text)
	s.mu.Unlock()

	if _, err := s.backend.UpdateElement(context.Background(), elementID, document.ElementUpdate{Content: &text}); err != nil {
		log.Printf("editor: content autosave element %d: %v", elementID, err)
	}
}

// EndGesture commits a finished drag/resize/rotate: the read-back geometry is
// merged into the element's style, translation is recovered from the
// transform matrix, and exactly one update call plus one document mutation
// are issued. During the gesture itself nothing is written.
func (s *Session) EndGesture(ctx context.Context, elementID int64, g Geometry) error {
	s.mu.Lock()
	el, ok := s.doc.FindElement(elementID)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	x, y := DecomposeTransform(g.Transform)
	el.Style = style.Merge(el.Style, g.styleOverlay())
	el.Position = document.Position{X: x, Y: y}
	s.doc = s.doc.WithElement(el)
	s.mu.Unlock()

	_, err := s.backend.UpdateElement(ctx, elementID, document.ElementUpdate{
		Style:    el.Style,
		Position: &el.Position,
	})
	return err
}

// HandleKey processes a keyboard event. Arrow up/down navigate in edit mode,
// left/right in presentation mode, Escape exits presenting, Delete removes
// the selected element and refreshes from source.
func (s *Session) HandleKey(ctx context.Context, key string) {
	s.mu.Lock()
	presenting := s.presenting
	s.mu.Unlock()

	switch key {
	case KeyArrowDown:
		if !presenting {
			s.navigate(1, true)
		}
	case KeyArrowUp:
		if !presenting {
			s.navigate(-1, true)
		}
	case KeyArrowRight:
		if presenting {
			s.navigate(1, false)
		}
	case KeyArrowLeft:
		if presenting {
			s.navigate(-1, false)
		}
	case KeyEscape:
		if presenting {
			s.SetPresenting(false)
		}
	case KeyDelete:
		s.deleteSelected(ctx)
	}
}

func (s *Session) navigate(delta int, scroll bool) {
	s.mu.Lock()
	next := s.current + delta
	if next < 0 || next > len(s.doc.Slides)-1 {
		s.mu.Unlock()
		return
	}
	s.current = next
	sink := s.scrollTo
	s.mu.Unlock()

	s.syncBackgroundFromSlide()
	if scroll && sink != nil {
		sink(next)
	}
}

func (s *Session) deleteSelected(ctx context.Context) {
	s.mu.Lock()
	elementID := s.selected
	s.mu.Unlock()
	if elementID == 0 {
		return
	}
	if err := s.backend.DeleteElement(ctx, elementID); err != nil {
		log.Printf("editor: delete element %d: %v", elementID, err)
		return
	}
	s.mu.Lock()
	s.doc = s.doc.WithElementRemoved(elementID)
	s.selected = 0
	s.mu.Unlock()
	if err := s.Refresh(ctx); err != nil {
		log.Printf("editor: refresh after delete: %v", err)
	}
}

// SetPresenting toggles presentation mode.
func (s *Session) SetPresenting(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presenting = on
}

// Presenting reports whether presentation mode is active.
func (s *Session) Presenting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.presenting
}

// TrackScroll recomputes the current slide from the slides' viewport boxes:
// the slide with the greatest visible height wins. This is the source of
// truth for "current slide" outside explicit navigation.
func (s *Session) TrackScroll(views []SlideViewport, viewportHeight float64) {
	index := mostVisible(views, viewportHeight)
	s.mu.Lock()
	changed := index != s.current
	s.current = index
	s.mu.Unlock()
	if changed {
		s.syncBackgroundFromSlide()
	}
}

// ScrollToSlide is explicit navigation (sidebar click): clamps, moves the
// pointer and raises the scroll request.
func (s *Session) ScrollToSlide(index int) {
	s.mu.Lock()
	if index < 0 || index > len(s.doc.Slides)-1 {
		s.mu.Unlock()
		return
	}
	s.current = index
	sink := s.scrollTo
	s.mu.Unlock()

	s.syncBackgroundFromSlide()
	if sink != nil {
		sink(index)
	}
}

// syncBackgroundFromSlide reloads the toolbar's background field from the
// current slide so the previous slide's color does not leak.
func (s *Session) syncBackgroundFromSlide() {
	s.mu.Lock()
	defer s.mu.Unlock()
	slide, ok := s.doc.SlideAt(s.current)
	if !ok {
		return
	}
	if bg, isStr := slide.Style["backgroundColor"].(string); isStr && bg != "" {
		s.toolbar.BackgroundColor = bg
	}
}

// SetBackgroundColor is the toolbar's background field changing: the local
// slide style write is debounced, and a persistence update addressed by
// (presentation id, slide order) goes out for the settled value.
func (s *Session) SetBackgroundColor(color string) {
	s.mu.Lock()
	s.toolbar.BackgroundColor = color
	s.mu.Unlock()
	s.slideWrite.Schedule(color)
}

func (s *Session) commitSlideStyle(args ...any) {
	if len(args) != 1 {
		return
	}
	color, _ := args[0].(string)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	slide, ok := s.doc.SlideAt(s.current)
	if !ok {
		s.mu.Unlock()
		return
	}
	updated := slide.Style.Clone()
	updated["backgroundColor"] = color
	s.doc = s.doc.WithSlideStyle(s.current, updated)
	presentationID := s.doc.PresentationID
	order := slide.Order
	s.mu.Unlock()

	if _, err := s.backend.UpdateSlideByOrder(context.Background(), presentationID, order, updated); err != nil {
		log.Printf("editor: background autosave slide order %d: %v", order, err)
	}
}

// RenameTitle persists a presentation title edit (sidebar blur).
func (s *Session) RenameTitle(ctx context.Context, title string) error {
	s.mu.Lock()
	presentationID := s.doc.PresentationID
	s.mu.Unlock()
	if title == "" {
		return nil
	}
	_, err := s.backend.UpdatePresentation(ctx, presentationID, title)
	return err
}

// AddTextElement creates a default heading on the current slide and appends
// it locally with the backend-assigned id.
func (s *Session) AddTextElement(ctx context.Context) (document.Element, error) {
	s.mu.Lock()
	slide, ok := s.doc.SlideAt(s.current)
	index := s.current
	s.mu.Unlock()
	if !ok {
		return document.Element{}, nil
	}

	el, err := s.backend.AddElement(ctx, slide.ID, document.ElementInput{
		Type:    document.TypeText,
		Content: "New Text",
		Style:   document.StyleMap{},
		Order:   len(slide.Elements),
	})
	if err != nil {
		return document.Element{}, err
	}

	s.mu.Lock()
	s.doc = s.doc.AppendElement(index, el)
	s.mu.Unlock()
	return el, nil
}

// AddImageElement creates an image element from a data-URI or URL payload
// with the default 200x150 box.
func (s *Session) AddImageElement(ctx context.Context, src string) (document.Element, error) {
	s.mu.Lock()
	slide, ok := s.doc.SlideAt(s.current)
	index := s.current
	s.mu.Unlock()
	if !ok {
		return document.Element{}, nil
	}

	width, height := 200.0, 150.0
	el, err := s.backend.AddElement(ctx, slide.ID, document.ElementInput{
		Type:   document.TypeImage,
		Src:    src,
		Width:  &width,
		Height: &height,
		Style:  document.StyleMap{"backgroundSize": "cover"},
		Order:  len(slide.Elements),
	})
	if err != nil {
		return document.Element{}, err
	}

	s.mu.Lock()
	s.doc = s.doc.AppendElement(index, el)
	s.mu.Unlock()
	return el, nil
}

// AddSlide appends a blank white slide after the last one.
func (s *Session) AddSlide(ctx context.Context) (document.Slide, error) {
	s.mu.Lock()
	presentationID := s.doc.PresentationID
	// Deletes leave gaps in the order sequence, so the next free order is
	// past the maximum, not the slide count.
	order := 0
	for _, slide := range s.doc.Slides {
		if slide.Order >= order {
			order = slide.Order + 1
		}
	}
	s.mu.Unlock()

	slide, err := s.backend.AddSlide(ctx, presentationID, document.SlideInput{
		Style: document.StyleMap{"backgroundColor": "#ffffff"},
		Order: order,
	})
	if err != nil {
		return document.Slide{}, err
	}

	s.mu.Lock()
	s.doc = s.doc.AppendSlide(slide)
	s.mu.Unlock()
	return slide, nil
}

// DeleteSlide removes the slide addressed by its order and refreshes. Order
// addressing can legitimately miss after concurrent structural edits; the
// NotFound surfaces to the caller as a signal to refetch.
func (s *Session) DeleteSlide(ctx context.Context, order int) error {
	s.mu.Lock()
	presentationID := s.doc.PresentationID
	s.mu.Unlock()

	if err := s.backend.DeleteSlideByOrder(ctx, presentationID, order); err != nil {
		return err
	}
	return s.Refresh(ctx)
}
