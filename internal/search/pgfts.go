package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true. If Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

// Search matches presentation titles with plainto_tsquery, ranked by ts_rank,
// with ts_headline snippets. A trailing ILIKE clause catches short prefixes
// the tsquery parser drops.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := p.db.Query(`
		SELECT id, title,
			ts_headline('english', title, plainto_tsquery('english', $1), 'MaxFragments=1,MaxWords=30') AS snippet,
			ts_rank(fts, plainto_tsquery('english', $1)) AS rank
		FROM presentations
		WHERE fts @@ plainto_tsquery('english', $1) OR title ILIKE '%' || $1 || '%'
		ORDER BY rank DESC, id
		LIMIT $2 OFFSET $3
	`, q.Text, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts search: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var rank float64
		if err := rows.Scan(&r.ID, &r.Title, &r.Snippet, &rank); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	err = p.db.QueryRow(`
		SELECT count(*) FROM presentations
		WHERE fts @@ plainto_tsquery('english', $1) OR title ILIKE '%' || $1 || '%'
	`, q.Text).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	return results, total, nil
}

// LoadAllRecords reads every presentation for bulk reindexing into
// Meilisearch.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]PresentationRecord, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, title FROM presentations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("pgfts load records: %w", err)
	}
	defer rows.Close()

	var records []PresentationRecord
	for rows.Next() {
		var record PresentationRecord
		if err := rows.Scan(&record.ID, &record.Title); err != nil {
			return nil, fmt.Errorf("pgfts scan record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
