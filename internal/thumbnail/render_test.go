package thumbnail

import (
	"strings"
	"testing"

	"slidecanvas/api/internal/document"
)

func floatPtr(v float64) *float64 { return &v }

func TestRenderHTMLPositionsElements(t *testing.T) {
	slide := document.Slide{
		Style: document.StyleMap{"backgroundColor": "#222222"},
		Elements: []document.Element{
			{
				Type:     document.TypeText,
				Content:  "Hello World",
				Position: document.Position{X: 40, Y: 80},
				Width:    floatPtr(200),
				Style:    document.StyleMap{"fontSize": "24px", "color": "#ffffff"},
				Order:    0,
			},
		},
	}

	html, err := RenderHTML(slide)
	if err != nil {
		t.Fatalf("render: %v", err)
	}

	for _, want := range []string{
		"background-color:#222222",
		"left:40px;top:80px;",
		"width:200px;",
		"color:#ffffff",
		"font-size:24px",
		"Hello World",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected %q in rendered html", want)
		}
	}
}

func TestRenderHTMLImageElement(t *testing.T) {
	slide := document.Slide{
		Elements: []document.Element{
			{
				Type:     document.TypeImage,
				Src:      "https://cdn.local/cat.png",
				Position: document.Position{X: 0, Y: 0},
				Width:    floatPtr(200),
				Height:   floatPtr(150),
			},
		},
	}

	html, err := RenderHTML(slide)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(html, `<img src="https://cdn.local/cat.png"`) {
		t.Errorf("expected img tag, got %s", html)
	}
}

func TestRenderHTMLOrdersByZIndex(t *testing.T) {
	slide := document.Slide{
		Elements: []document.Element{
			{Type: document.TypeText, Content: "second", Order: 1},
			{Type: document.TypeText, Content: "first", Order: 0},
		},
	}

	html, err := RenderHTML(slide)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Index(html, "first") > strings.Index(html, "second") {
		t.Error("elements should render in ascending order")
	}
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	slide := document.Slide{
		Elements: []document.Element{
			{Type: document.TypeText, Content: `<script>alert("x")</script>`},
		},
	}

	html, err := RenderHTML(slide)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Error("content must be escaped")
	}
}

func TestCamelToKebab(t *testing.T) {
	cases := map[string]string{
		"backgroundColor": "background-color",
		"fontSize":        "font-size",
		"color":           "color",
		"textAlign":       "text-align",
	}
	for in, want := range cases {
		if got := camelToKebab(in); got != want {
			t.Errorf("camelToKebab(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	if got := percentEncodeForDataURL("a b"); got != "a%20b" {
		t.Errorf("space encoding: got %q", got)
	}
	if got := percentEncodeForDataURL("<div>"); got != "%3Cdiv%3E" {
		t.Errorf("angle bracket encoding: got %q", got)
	}
}
