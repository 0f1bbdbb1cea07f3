// Package thumbnail rasterizes slides to PNG previews with headless Chrome.
// A slide is rendered to a standalone HTML page at 16:9 and screenshotted.
package thumbnail

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"

	"slidecanvas/api/internal/document"
)

const (
	// Canvas size of a rendered slide in CSS pixels.
	SlideWidth  = 640
	SlideHeight = 360
)

var slideTemplate = template.Must(template.New("slide").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><style>
html, body { margin: 0; padding: 0; }
.slide { position: relative; width: {{.Width}}px; height: {{.Height}}px; overflow: hidden; {{.SlideCSS}} }
.element { position: absolute; }
</style></head>
<body>
<div class="slide">
{{- range .Elements }}
<div class="element" style="{{.CSS}}">{{- if .ImageSrc }}<img src="{{.ImageSrc}}" style="width:100%;height:100%;object-fit:cover">{{- else }}{{.Content}}{{- end }}</div>
{{- end }}
</div>
</body>
</html>`))

type templateElement struct {
	CSS      template.CSS
	Content  string
	ImageSrc string
}

type templateData struct {
	Width    int
	Height   int
	SlideCSS template.CSS
	Elements []templateElement
}

// RenderHTML builds the standalone page for one slide. Element style maps are
// inlined as CSS, positions become left/top offsets.
func RenderHTML(slide document.Slide) (string, error) {
	data := templateData{
		Width:    SlideWidth,
		Height:   SlideHeight,
		SlideCSS: template.CSS(styleToCSS(slide.Style)),
	}

	elements := append([]document.Element(nil), slide.Elements...)
	sort.SliceStable(elements, func(i, j int) bool { return elements[i].Order < elements[j].Order })

	for _, el := range elements {
		css := fmt.Sprintf("left:%gpx;top:%gpx;", el.Position.X, el.Position.Y)
		if el.Width != nil {
			css += fmt.Sprintf("width:%gpx;", *el.Width)
		}
		if el.Height != nil {
			css += fmt.Sprintf("height:%gpx;", *el.Height)
		}
		css += styleToCSS(el.Style)

		item := templateElement{CSS: template.CSS(css)}
		if el.Type == document.TypeImage {
			item.ImageSrc = el.Src
		} else {
			item.Content = el.Content
		}
		data.Elements = append(data.Elements, item)
	}

	var buf bytes.Buffer
	if err := slideTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render slide template: %w", err)
	}
	return buf.String(), nil
}

// styleToCSS flattens a style map into inline CSS, converting camelCase
// property names to kebab-case.
func styleToCSS(style document.StyleMap) string {
	if len(style) == 0 {
		return ""
	}
	keys := make([]string, 0, len(style))
	for key := range style {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var out strings.Builder
	for _, key := range keys {
		value := style[key]
		if value == nil {
			continue
		}
		out.WriteString(camelToKebab(key))
		out.WriteByte(':')
		out.WriteString(fmt.Sprint(value))
		out.WriteByte(';')
	}
	return out.String()
}

func camelToKebab(s string) string {
	var out strings.Builder
	for _, r := range s {
		if r >= 'A' && r <= 'Z' {
			out.WriteByte('-')
			out.WriteRune(r + ('a' - 'A'))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

// percentEncodeForDataURL encodes HTML for a data URL. url.QueryEscape is
// unsuitable here because it encodes spaces as +.
func percentEncodeForDataURL(s string) string {
	var result strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z',
			r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9',
			r == '-', r == '_', r == '.', r == '~':
			result.WriteRune(r)
		case r == ' ':
			result.WriteString("%20")
		default:
			for _, b := range []byte(string(r)) {
				result.WriteString(fmt.Sprintf("%%%02X", b))
			}
		}
	}
	return result.String()
}
