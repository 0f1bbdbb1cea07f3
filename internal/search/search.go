// Package search finds presentations by title. Meilisearch serves queries
// when reachable; PostgreSQL full-text search covers for it otherwise.
package search

// Result is a single search hit returned to the caller.
type Result struct {
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
}

// Query describes a search request.
type Query struct {
	Text   string
	Limit  int
	Offset int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a title search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push presentations into a search index.
type Indexer interface {
	IndexPresentation(p PresentationRecord) error
	DeletePresentation(id int64) error
}

// PresentationRecord is the data we index for a presentation.
type PresentationRecord struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}
