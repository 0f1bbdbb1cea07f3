package document

// Input payloads for the persistence boundary. The backend assigns ids;
// callers address slides by (presentation id, order) for mutation.

type SlideInput struct {
	Style StyleMap `json:"style"`
	Order int      `json:"order"`
}

type ElementInput struct {
	Type     string   `json:"type"`
	Content  string   `json:"content"`
	Src      string   `json:"src,omitempty"`
	Width    *float64 `json:"width,omitempty"`
	Height   *float64 `json:"height,omitempty"`
	Position Position `json:"position"`
	Style    StyleMap `json:"style"`
	Order    int      `json:"order"`
}

// ElementUpdate carries only the fields being changed; nil means untouched.
type ElementUpdate struct {
	Content  *string   `json:"content,omitempty"`
	Src      *string   `json:"src,omitempty"`
	Width    *float64  `json:"width,omitempty"`
	Height   *float64  `json:"height,omitempty"`
	Position *Position `json:"position,omitempty"`
	Style    StyleMap  `json:"style,omitempty"`
	Order    *int      `json:"order,omitempty"`
}
