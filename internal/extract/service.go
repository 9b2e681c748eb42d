package extract

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Service classifies and chunks uploaded payloads. The resulting chunks
// carry the citation metadata (source, type, page) a later answer will
// echo back.
type Service struct {
	sidecar      Sidecar
	chunkSize    int
	chunkOverlap int
	log          *zap.Logger
}

// NewService creates an extraction service.
func NewService(sidecar Sidecar, chunkSize, chunkOverlap int, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		sidecar:      sidecar,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		log:          log,
	}
}

// ProcessPDF extracts a PDF, deciding typed vs scanned by whether any
// page has an extractable text layer. Scanned PDFs go through OCR.
// Chunks keep their 1-based page number.
func (s *Service) ProcessPDF(ctx context.Context, artifactID, name string, data []byte) ([]models.Chunk, error) {
	pages, err := s.sidecar.PDFPages(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("extracting pdf %s: %w", name, err)
	}

	ctype := models.CitationPDFTyped
	if isScanned(pages) {
		s.log.Info("processing as scanned PDF (OCR)", zap.String("name", name))
		ctype = models.CitationPDFScanned
		pages, err = s.sidecar.OCRPDF(ctx, data)
		if err != nil {
			return nil, fmt.Errorf("OCR of pdf %s: %w", name, err)
		}
	} else {
		s.log.Info("processing as typed PDF", zap.String("name", name))
	}

	var chunks []models.Chunk
	for _, page := range pages {
		for _, content := range SplitText(page.Text, s.chunkSize, s.chunkOverlap) {
			chunks = append(chunks, models.Chunk{
				ArtifactID: artifactID,
				Source:     name,
				Type:       ctype,
				Page:       page.Number,
				Content:    content,
			})
		}
	}
	return chunks, nil
}

// ProcessImage OCRs an image into chunks. Images have no pages.
func (s *Service) ProcessImage(ctx context.Context, artifactID, name string, data []byte) ([]models.Chunk, error) {
	text, err := s.sidecar.OCRImage(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("OCR of image %s: %w", name, err)
	}

	var chunks []models.Chunk
	for _, content := range SplitText(text, s.chunkSize, s.chunkOverlap) {
		chunks = append(chunks, models.Chunk{
			ArtifactID: artifactID,
			Source:     name,
			Type:       models.CitationImage,
			Content:    content,
		})
	}
	return chunks, nil
}

// ProcessText chunks the user's free-typed text. Its citations carry the
// free-text sentinel source, not a file name.
func (s *Service) ProcessText(artifactID, text string) []models.Chunk {
	var chunks []models.Chunk
	for _, content := range SplitText(text, s.chunkSize, s.chunkOverlap) {
		chunks = append(chunks, models.Chunk{
			ArtifactID: artifactID,
			Source:     models.FreeTextSource,
			Type:       models.CitationText,
			Content:    content,
		})
	}
	return chunks
}

// isScanned reports whether no page has an extractable text layer.
func isScanned(pages []Page) bool {
	for _, p := range pages {
		if strings.TrimSpace(p.Text) != "" {
			return false
		}
	}
	return true
}
