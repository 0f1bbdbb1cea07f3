// Package style converts between toolbar selection state and the flat CSS-like
// style mapping stored on elements. Resolve and Apply are inverses for any
// style that Resolve produced.
package style

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"slidecanvas/api/internal/document"
)

// Toolbar is the currently chosen formatting for one editor session. It is
// decoupled from any element until one is selected, at which point Apply
// overwrites it wholesale from the element's stored style.
type Toolbar struct {
	Bold           bool
	Italic         bool
	Underline      bool
	Strikethrough  bool
	Align          string
	TextColor      string
	TextBackground string
	FontSize       string
	Opacity        string
	FontFamily     string

	// BackgroundColor is the current slide's background, not an element
	// property. It is synced one-directionally from the slide on navigation.
	BackgroundColor string
}

// DefaultToolbar returns the state an editor session starts from.
func DefaultToolbar() Toolbar {
	return Toolbar{
		TextColor:       "#000000",
		TextBackground:  "transparent",
		BackgroundColor: "#ffffff",
		FontSize:        "16",
		Opacity:         "100",
		FontFamily:      "sans-serif",
	}
}

// Resolve computes the effective element style for a toolbar state.
func Resolve(tb Toolbar) document.StyleMap {
	decoration := ""
	if tb.Underline {
		decoration += "underline "
	}
	if tb.Strikethrough {
		decoration += "line-through"
	}

	align := tb.Align
	if align == "" {
		align = "left"
	}

	fontWeight := "normal"
	if tb.Bold {
		fontWeight = "bold"
	}
	fontStyle := "normal"
	if tb.Italic {
		fontStyle = "italic"
	}

	opacity, err := strconv.ParseFloat(tb.Opacity, 64)
	if err != nil {
		opacity = 100
	}

	return document.StyleMap{
		"fontWeight":      fontWeight,
		"fontStyle":       fontStyle,
		"textDecoration":  decoration,
		"textAlign":       align,
		"color":           tb.TextColor,
		"backgroundColor": tb.TextBackground,
		"fontSize":        tb.FontSize + "px",
		"opacity":         opacity / 100,
		"fontFamily":      tb.FontFamily,
	}
}

// Apply parses a stored element style back into toolbar fields. Styles that
// came out of Resolve round-trip exactly; anything missing falls back to the
// session defaults.
func Apply(style document.StyleMap) Toolbar {
	tb := DefaultToolbar()
	if style == nil {
		return tb
	}

	tb.Bold = str(style["fontWeight"]) == "bold"
	tb.Italic = str(style["fontStyle"]) == "italic"
	decoration := str(style["textDecoration"])
	tb.Underline = strings.Contains(decoration, "underline")
	tb.Strikethrough = strings.Contains(decoration, "line-through")
	tb.Align = str(style["textAlign"])

	if c := str(style["color"]); c != "" {
		tb.TextColor = c
	}
	if c := str(style["backgroundColor"]); c != "" {
		tb.TextBackground = c
	}
	if size := str(style["fontSize"]); size != "" {
		tb.FontSize = strings.TrimSuffix(size, "px")
	}
	if opacity, ok := num(style["opacity"]); ok {
		tb.Opacity = strconv.Itoa(int(math.Round(opacity * 100)))
	}
	if family := str(style["fontFamily"]); family != "" {
		tb.FontFamily = family
	}
	return tb
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func num(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

// Merge overlays resolved toolbar styles onto an element's existing style,
// keeping geometry fields (width, transform, ...) the toolbar does not own.
func Merge(existing, resolved document.StyleMap) document.StyleMap {
	out := existing.Clone()
	for k, v := range resolved {
		out[k] = v
	}
	return out
}

// Equal reports structural equality of two style maps. Numeric values are
// compared as float64 so JSON round-trips do not register as edits.
func Equal(a, b document.StyleMap) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}
		an, aIsNum := num(av)
		bn, bIsNum := num(bv)
		if aIsNum && bIsNum {
			if an != bn {
				return false
			}
			continue
		}
		if fmt.Sprint(av) != fmt.Sprint(bv) {
			return false
		}
	}
	return true
}
