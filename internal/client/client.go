// Package client is the HTTP implementation of the editor backend. It speaks
// the same routes the server exposes and decodes error envelopes into typed
// errors, so the editing session can treat remote and in-process backends
// alike.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"slidecanvas/api/internal/document"
	"slidecanvas/api/internal/genai"
)

// ErrNotFound signals a 404 from the server, typically a stale order address.
var ErrNotFound = errors.New("not found")

// APIError carries the server's error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// NewWithHTTPClient allows injecting a custom http.Client, mainly for tests.
func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) ListPresentations(ctx context.Context) ([]document.Presentation, error) {
	var out []document.Presentation
	err := c.do(ctx, http.MethodGet, "/api/presentations", nil, &out)
	return out, err
}

func (c *Client) CreatePresentation(ctx context.Context, title string) (document.Presentation, error) {
	var out document.Presentation
	err := c.do(ctx, http.MethodPost, "/api/presentations", map[string]any{"title": title}, &out)
	return out, err
}

func (c *Client) UpdatePresentation(ctx context.Context, id int64, title string) (document.Presentation, error) {
	var out document.Presentation
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/presentations/%d", id), map[string]any{"title": title}, &out)
	return out, err
}

func (c *Client) DeletePresentation(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/presentations/%d", id), nil, nil)
}

func (c *Client) GetSlides(ctx context.Context, presentationID int64) ([]document.Slide, error) {
	var out []document.Slide
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/presentations/%d/slides", presentationID), nil, &out)
	return out, err
}

func (c *Client) GetFirstSlide(ctx context.Context, presentationID int64) (document.Slide, error) {
	var out document.Slide
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/presentations/%d/slides/first", presentationID), nil, &out)
	return out, err
}

func (c *Client) AddSlide(ctx context.Context, presentationID int64, in document.SlideInput) (document.Slide, error) {
	var out document.Slide
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/presentations/%d/slides", presentationID), in, &out)
	return out, err
}

func (c *Client) UpdateSlideByOrder(ctx context.Context, presentationID int64, order int, styles document.StyleMap) (document.Slide, error) {
	var out document.Slide
	path := fmt.Sprintf("/api/slides/presentation/%d/order/%d", presentationID, order)
	err := c.do(ctx, http.MethodPatch, path, map[string]any{"styles": styles}, &out)
	return out, err
}

func (c *Client) DeleteSlideByOrder(ctx context.Context, presentationID int64, order int) error {
	path := fmt.Sprintf("/api/slides/presentation/%d/order/%d", presentationID, order)
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

func (c *Client) AddElement(ctx context.Context, slideID int64, in document.ElementInput) (document.Element, error) {
	var out document.Element
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/slides/%d/elements", slideID), in, &out)
	return out, err
}

func (c *Client) UpdateElement(ctx context.Context, elementID int64, in document.ElementUpdate) (document.Element, error) {
	var out document.Element
	err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/api/elements/%d", elementID), in, &out)
	return out, err
}

func (c *Client) DeleteElement(ctx context.Context, elementID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/elements/%d", elementID), nil, nil)
}

// Generate asks the server to run the ingestion pipeline for a presentation.
func (c *Client) Generate(ctx context.Context, presentationID int64, prompt string) (*genai.Result, error) {
	var out genai.Result
	err := c.do(ctx, http.MethodPost, "/api/generate", map[string]any{
		"presentationId": presentationID,
		"prompt":         prompt,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, target any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if target == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var envelope struct {
		Code  string `json:"code"`
		Error string `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&envelope)

	apiErr := &APIError{
		Status:  resp.StatusCode,
		Code:    envelope.Code,
		Message: envelope.Error,
	}
	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, apiErr.Message)
	}
	return apiErr
}
