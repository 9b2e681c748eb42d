// Package extract turns uploaded payloads into page-keyed text chunks
// ready for embedding. PDF text extraction and OCR are delegated to an
// external sidecar service over HTTP; classification (typed vs scanned)
// and chunking happen here.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Page is one page's extracted text. Numbers are 1-based.
type Page struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// Sidecar is the extraction backend: plain text layers for typed PDFs,
// OCR for scanned pages and images.
type Sidecar interface {
	PDFPages(ctx context.Context, data []byte) ([]Page, error)
	OCRPDF(ctx context.Context, data []byte) ([]Page, error)
	OCRImage(ctx context.Context, data []byte) (string, error)
}

// HTTPSidecar calls the extraction service over HTTP.
type HTTPSidecar struct {
	baseURL string
	client  *http.Client
}

// NewHTTPSidecar creates a sidecar client.
func NewHTTPSidecar(baseURL string) *HTTPSidecar {
	if baseURL == "" {
		baseURL = "http://localhost:8081"
	}
	return &HTTPSidecar{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type pagesResponse struct {
	Pages []Page `json:"pages"`
	Error string `json:"error,omitempty"`
}

type textResponse struct {
	Text  string `json:"text"`
	Error string `json:"error,omitempty"`
}

// PDFPages extracts the text layer of each page.
func (s *HTTPSidecar) PDFPages(ctx context.Context, data []byte) ([]Page, error) {
	return s.pages(ctx, "/parse/pdf", data)
}

// OCRPDF rasterizes and OCRs each page.
func (s *HTTPSidecar) OCRPDF(ctx context.Context, data []byte) ([]Page, error) {
	return s.pages(ctx, "/ocr/pdf", data)
}

// OCRImage OCRs a single image.
func (s *HTTPSidecar) OCRImage(ctx context.Context, data []byte) (string, error) {
	body, err := s.post(ctx, "/ocr/image", data)
	if err != nil {
		return "", err
	}

	var result textResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("OCR error: %s", result.Error)
	}
	return result.Text, nil
}

func (s *HTTPSidecar) pages(ctx context.Context, path string, data []byte) ([]Page, error) {
	body, err := s.post(ctx, path, data)
	if err != nil {
		return nil, err
	}

	var result pagesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("extraction error: %s", result.Error)
	}
	return result.Pages, nil
}

func (s *HTTPSidecar) post(ctx context.Context, path string, data []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling extraction service: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("extraction service returned %d", resp.StatusCode)
	}
	return body, nil
}
