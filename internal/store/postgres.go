// Package store persists presentations, slides and elements in Postgres.
// Slides are mutated and removed by (presentation_id, sort_order), mirroring
// the client's order-addressed contract; deletes do not renumber survivors.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"slidecanvas/api/internal/document"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *PostgresStore) ListPresentations(ctx context.Context) ([]document.Presentation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title FROM presentations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	defer rows.Close()

	var out []document.Presentation
	for rows.Next() {
		var p document.Presentation
		if err := rows.Scan(&p.ID, &p.Title); err != nil {
			return nil, fmt.Errorf("scan presentation: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetPresentation(ctx context.Context, id int64) (document.Presentation, error) {
	var p document.Presentation
	err := s.db.QueryRowContext(ctx, `SELECT id, title FROM presentations WHERE id=$1`, id).Scan(&p.ID, &p.Title)
	if err != nil {
		return document.Presentation{}, err
	}
	return p, nil
}

func (s *PostgresStore) CreatePresentation(ctx context.Context, title string) (document.Presentation, error) {
	var p document.Presentation
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO presentations (title) VALUES ($1) RETURNING id, title
	`, title).Scan(&p.ID, &p.Title)
	if err != nil {
		return document.Presentation{}, fmt.Errorf("insert presentation: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) UpdatePresentation(ctx context.Context, id int64, title string) (document.Presentation, error) {
	var p document.Presentation
	err := s.db.QueryRowContext(ctx, `
		UPDATE presentations SET title=$2, updated_at=NOW() WHERE id=$1 RETURNING id, title
	`, id, title).Scan(&p.ID, &p.Title)
	if err != nil {
		return document.Presentation{}, err
	}
	return p, nil
}

// DeletePresentation cascades: elements first, then slides, then the
// presentation, all in one transaction.
func (s *PostgresStore) DeletePresentation(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete presentation: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM elements WHERE slide_id IN (SELECT id FROM slides WHERE presentation_id=$1)
	`, id); err != nil {
		return fmt.Errorf("delete elements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE presentation_id=$1`, id); err != nil {
		return fmt.Errorf("delete slides: %w", err)
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM presentations WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete presentation: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return tx.Commit()
}

// GetSlides returns a presentation's slides with their elements, both ordered
// ascending.
func (s *PostgresStore) GetSlides(ctx context.Context, presentationID int64) ([]document.Slide, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, presentation_id, sort_order, style
		FROM slides WHERE presentation_id=$1 ORDER BY sort_order
	`, presentationID)
	if err != nil {
		return nil, fmt.Errorf("list slides: %w", err)
	}
	defer rows.Close()

	var slides []document.Slide
	for rows.Next() {
		slide, err := scanSlide(rows)
		if err != nil {
			return nil, err
		}
		slides = append(slides, slide)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range slides {
		elements, err := s.elementsForSlide(ctx, slides[i].ID)
		if err != nil {
			return nil, err
		}
		slides[i].Elements = elements
	}
	return slides, nil
}

func (s *PostgresStore) GetFirstSlide(ctx context.Context, presentationID int64) (document.Slide, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, presentation_id, sort_order, style
		FROM slides WHERE presentation_id=$1 ORDER BY sort_order LIMIT 1
	`, presentationID)
	slide, err := scanSlide(row)
	if err != nil {
		return document.Slide{}, err
	}
	slide.Elements, err = s.elementsForSlide(ctx, slide.ID)
	if err != nil {
		return document.Slide{}, err
	}
	return slide, nil
}

func (s *PostgresStore) AddSlide(ctx context.Context, presentationID int64, in document.SlideInput) (document.Slide, error) {
	styleJSON, err := marshalMap(in.Style)
	if err != nil {
		return document.Slide{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO slides (presentation_id, sort_order, style)
		VALUES ($1, $2, $3::jsonb)
		RETURNING id, presentation_id, sort_order, style
	`, presentationID, in.Order, styleJSON)
	return scanSlide(row)
}

func (s *PostgresStore) UpdateSlideByOrder(ctx context.Context, presentationID int64, order int, styles document.StyleMap) (document.Slide, error) {
	styleJSON, err := marshalMap(styles)
	if err != nil {
		return document.Slide{}, err
	}
	row := s.db.QueryRowContext(ctx, `
		UPDATE slides SET style=$3::jsonb, updated_at=NOW()
		WHERE presentation_id=$1 AND sort_order=$2
		RETURNING id, presentation_id, sort_order, style
	`, presentationID, order, styleJSON)
	return scanSlide(row)
}

// DeleteSlideByOrder removes a slide and its elements. Surviving slides keep
// their sort_order; order-addressed lookups for the removed order then miss
// with ErrNoRows.
func (s *PostgresStore) DeleteSlideByOrder(ctx context.Context, presentationID int64, order int) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete slide: %w", err)
	}
	defer tx.Rollback()

	var slideID int64
	err = tx.QueryRowContext(ctx, `
		SELECT id FROM slides WHERE presentation_id=$1 AND sort_order=$2
	`, presentationID, order).Scan(&slideID)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM elements WHERE slide_id=$1`, slideID); err != nil {
		return fmt.Errorf("delete slide elements: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM slides WHERE id=$1`, slideID); err != nil {
		return fmt.Errorf("delete slide: %w", err)
	}
	return tx.Commit()
}

func (s *PostgresStore) AddElement(ctx context.Context, slideID int64, in document.ElementInput) (document.Element, error) {
	styleJSON, err := marshalMap(in.Style)
	if err != nil {
		return document.Element{}, err
	}
	positionRaw, err := json.Marshal(in.Position)
	if err != nil {
		return document.Element{}, fmt.Errorf("marshal position: %w", err)
	}
	positionJSON := string(positionRaw)
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO elements (slide_id, type, content, src, width, height, position, style, sort_order)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7::jsonb, $8::jsonb, $9)
		RETURNING id, slide_id, type, content, COALESCE(src, ''), width, height, position, style, sort_order
	`, slideID, in.Type, in.Content, in.Src, in.Width, in.Height, positionJSON, styleJSON, in.Order)
	return scanElement(row)
}

// UpdateElement applies a partial update; nil fields keep their stored value.
func (s *PostgresStore) UpdateElement(ctx context.Context, elementID int64, in document.ElementUpdate) (document.Element, error) {
	var styleJSON, positionJSON any
	if in.Style != nil {
		encoded, err := marshalMap(in.Style)
		if err != nil {
			return document.Element{}, err
		}
		styleJSON = encoded
	}
	if in.Position != nil {
		encoded, err := json.Marshal(in.Position)
		if err != nil {
			return document.Element{}, fmt.Errorf("marshal position: %w", err)
		}
		positionJSON = string(encoded)
	}

	row := s.db.QueryRowContext(ctx, `
		UPDATE elements SET
			content    = COALESCE($2, content),
			src        = COALESCE($3, src),
			width      = COALESCE($4, width),
			height     = COALESCE($5, height),
			position   = COALESCE($6::jsonb, position),
			style      = COALESCE($7::jsonb, style),
			sort_order = COALESCE($8, sort_order),
			updated_at = NOW()
		WHERE id=$1
		RETURNING id, slide_id, type, content, COALESCE(src, ''), width, height, position, style, sort_order
	`, elementID, in.Content, in.Src, in.Width, in.Height, positionJSON, styleJSON, in.Order)
	return scanElement(row)
}

func (s *PostgresStore) DeleteElement(ctx context.Context, elementID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM elements WHERE id=$1`, elementID)
	if err != nil {
		return fmt.Errorf("delete element: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *PostgresStore) elementsForSlide(ctx context.Context, slideID int64) ([]document.Element, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slide_id, type, content, COALESCE(src, ''), width, height, position, style, sort_order
		FROM elements WHERE slide_id=$1 ORDER BY sort_order
	`, slideID)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	var out []document.Element
	for rows.Next() {
		el, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, el)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSlide(row scanner) (document.Slide, error) {
	var slide document.Slide
	var styleJSON []byte
	if err := row.Scan(&slide.ID, &slide.PresentationID, &slide.Order, &styleJSON); err != nil {
		return document.Slide{}, err
	}
	if err := unmarshalMap(styleJSON, &slide.Style); err != nil {
		return document.Slide{}, err
	}
	return slide, nil
}

func scanElement(row scanner) (document.Element, error) {
	var el document.Element
	var positionJSON, styleJSON []byte
	err := row.Scan(&el.ID, &el.SlideID, &el.Type, &el.Content, &el.Src,
		&el.Width, &el.Height, &positionJSON, &styleJSON, &el.Order)
	if err != nil {
		return document.Element{}, err
	}
	if len(positionJSON) > 0 {
		if err := json.Unmarshal(positionJSON, &el.Position); err != nil {
			return document.Element{}, fmt.Errorf("decode position: %w", err)
		}
	}
	if err := unmarshalMap(styleJSON, &el.Style); err != nil {
		return document.Element{}, err
	}
	return el, nil
}

func marshalMap(m document.StyleMap) (string, error) {
	if m == nil {
		m = document.StyleMap{}
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return "", fmt.Errorf("marshal style: %w", err)
	}
	return string(encoded), nil
}

func unmarshalMap(data []byte, target *document.StyleMap) error {
	*target = document.StyleMap{}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode style: %w", err)
	}
	return nil
}

// IsNotFound reports whether an error is the store's row-missing signal.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
