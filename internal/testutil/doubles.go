// doubles.go - Test doubles for the session edges and service collaborators
package testutil

import (
	"context"
	"sync"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/client"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/extract"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// FakeUploader records Submit calls. It implements session.Uploader.
type FakeUploader struct {
	mu       sync.Mutex
	calls    int
	parts    [][]client.Part
	freeText []string

	// Message and Err control the next result.
	Message string
	Err     error
}

func NewFakeUploader() *FakeUploader {
	return &FakeUploader{Message: "ok"}
}

func (f *FakeUploader) Submit(_ context.Context, parts []client.Part, freeText string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.parts = append(f.parts, parts)
	f.freeText = append(f.freeText, freeText)
	if f.Err != nil {
		return "", f.Err
	}
	return f.Message, nil
}

// Calls reports how many times Submit ran.
func (f *FakeUploader) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// LastParts returns the parts of the most recent Submit, nil when none.
func (f *FakeUploader) LastParts() []client.Part {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.parts) == 0 {
		return nil
	}
	return f.parts[len(f.parts)-1]
}

// LastFreeText returns the free text of the most recent Submit.
func (f *FakeUploader) LastFreeText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.freeText) == 0 {
		return ""
	}
	return f.freeText[len(f.freeText)-1]
}

// FakeAsker records questions. It implements session.Asker.
type FakeAsker struct {
	mu        sync.Mutex
	Questions []string
	Err       error
}

func (f *FakeAsker) Ask(question string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Err != nil {
		return f.Err
	}
	f.Questions = append(f.Questions, question)
	return nil
}

// FakeSidecar implements extract.Sidecar with canned page content.
type FakeSidecar struct {
	// Pages is returned from PDFPages. A page with empty Text simulates
	// a page without a text layer.
	Pages []extract.Page
	// OCRText is returned from both OCR methods.
	OCRText string
	Err     error
}

func (f *FakeSidecar) PDFPages(_ context.Context, _ []byte) ([]extract.Page, error) {
	return f.Pages, f.Err
}

func (f *FakeSidecar) OCRPDF(_ context.Context, _ []byte) ([]extract.Page, error) {
	if f.Err != nil {
		return nil, f.Err
	}
	pages := make([]extract.Page, len(f.Pages))
	for i, p := range f.Pages {
		pages[i] = extract.Page{Number: p.Number, Text: f.OCRText}
	}
	return pages, nil
}

func (f *FakeSidecar) OCRImage(_ context.Context, _ []byte) (string, error) {
	return f.OCRText, f.Err
}

// CannedGenerator returns a fixed answer. It implements llm.Generator.
type CannedGenerator struct {
	Answer string
	Err    error

	mu      sync.Mutex
	Queries []string
}

func (g *CannedGenerator) Generate(_ context.Context, _ []string, _ []models.ChatTurn, query string) (string, error) {
	g.mu.Lock()
	g.Queries = append(g.Queries, query)
	g.mu.Unlock()
	if g.Err != nil {
		return "", g.Err
	}
	return g.Answer, nil
}
