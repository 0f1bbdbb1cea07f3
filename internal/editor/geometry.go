package editor

import (
	"fmt"
	"strconv"
	"strings"

	"slidecanvas/api/internal/document"
)

// Geometry is the final box of an element read back when a drag, resize or
// rotate gesture ends. Transform carries the composed 2D affine matrix in its
// serialized form; translation is recovered from it at commit time.
type Geometry struct {
	Width        float64
	Height       float64
	Transform    string
	BorderRadius string
}

// DecomposeTransform extracts the translation from a serialized 2D affine
// transform of the form "matrix(a, b, c, d, tx, ty)". An absent or
// unparseable matrix yields (0, 0).
func DecomposeTransform(transform string) (x, y float64) {
	s := strings.TrimSpace(transform)
	if !strings.HasPrefix(s, "matrix(") || !strings.HasSuffix(s, ")") {
		return 0, 0
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "matrix("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != 6 {
		return 0, 0
	}
	tx, errX := strconv.ParseFloat(strings.TrimSpace(parts[4]), 64)
	ty, errY := strconv.ParseFloat(strings.TrimSpace(parts[5]), 64)
	if errX != nil || errY != nil {
		return 0, 0
	}
	return tx, ty
}

// styleOverlay returns the geometry fields as style entries, the shape they
// are stored in on the element.
func (g Geometry) styleOverlay() document.StyleMap {
	overlay := document.StyleMap{
		"width":  pixels(g.Width),
		"height": pixels(g.Height),
	}
	if g.Transform != "" {
		overlay["transform"] = g.Transform
	}
	if g.BorderRadius != "" {
		overlay["borderRadius"] = g.BorderRadius
	}
	return overlay
}

func pixels(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "px"
}

// SlideViewport is one slide's bounding box relative to the scroll viewport.
type SlideViewport struct {
	Top    float64
	Bottom float64
}

// mostVisible returns the index of the slide with the greatest visible height
// within a viewport of the given height. Ties keep the earliest slide, and an
// empty list maps to index 0, matching scroll-tracking behavior in the editor.
func mostVisible(views []SlideViewport, viewportHeight float64) int {
	best, bestHeight := 0, 0.0
	for i, v := range views {
		visible := min(v.Bottom, viewportHeight) - max(v.Top, 0)
		if visible > bestHeight {
			best, bestHeight = i, visible
		}
	}
	return best
}

func (g Geometry) String() string {
	return fmt.Sprintf("%gx%g %s", g.Width, g.Height, g.Transform)
}
