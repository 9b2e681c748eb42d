// Package client implements the engine's two outward edges: the upload
// coordinator (multipart HTTP) and the query channel (websocket).
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Part pairs an artifact with its payload bytes for submission.
type Part struct {
	Artifact models.Artifact
	Data     []byte
}

// Uploader assembles a multipart payload from the selected artifacts
// plus free text and submits it to the upload endpoint.
//
// Concurrency policy: overlapping Submit calls are allowed and not
// serialized; each call is independent, matching the reference behavior.
type Uploader struct {
	endpoint string
	client   *http.Client
	log      *zap.Logger
}

// NewUploader creates an uploader for the given endpoint URL
// (e.g. "http://127.0.0.1:5000/upload").
func NewUploader(endpoint string, log *zap.Logger) *Uploader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Uploader{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 120 * time.Second},
		log:      log,
	}
}

// Submit sends the selected artifacts and free text. Text-kind artifacts
// are folded into the text field alongside the free text, since the wire
// format carries a single text part.
//
// Precondition: at least one part or non-blank free text; otherwise
// ErrInvalidRequest is returned before any network activity. On success
// the server's acknowledgment message is returned. Failures do not roll
// anything back: the artifacts remain locally available for retry.
func (u *Uploader) Submit(ctx context.Context, parts []Part, freeText string) (string, error) {
	if len(parts) == 0 && strings.TrimSpace(freeText) == "" {
		return "", ErrInvalidRequest
	}

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)

	texts := make([]string, 0, 1)
	if strings.TrimSpace(freeText) != "" {
		texts = append(texts, freeText)
	}

	for _, p := range parts {
		var field string
		switch p.Artifact.Kind {
		case models.KindPDF:
			field = "pdf"
		case models.KindImage:
			field = "image"
		case models.KindText:
			texts = append(texts, string(p.Data))
			continue
		default:
			continue
		}

		fw, err := w.CreateFormFile(field, p.Artifact.DisplayName)
		if err != nil {
			return "", fmt.Errorf("%w: building form: %v", ErrUploadFailed, err)
		}
		if _, err := fw.Write(p.Data); err != nil {
			return "", fmt.Errorf("%w: writing part: %v", ErrUploadFailed, err)
		}
	}

	if len(texts) > 0 {
		if err := w.WriteField("text", strings.Join(texts, "\n\n")); err != nil {
			return "", fmt.Errorf("%w: writing text field: %v", ErrUploadFailed, err)
		}
	}

	if err := w.Close(); err != nil {
		return "", fmt.Errorf("%w: closing form: %v", ErrUploadFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.endpoint, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	u.log.Debug("submitting upload",
		zap.Int("parts", len(parts)),
		zap.Bool("hasText", len(texts) > 0))

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading response: %v", ErrUploadFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: server returned %d", ErrUploadFailed, resp.StatusCode)
	}

	var ack struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &ack); err != nil {
		return "", fmt.Errorf("%w: decoding acknowledgment: %v", ErrUploadFailed, err)
	}

	return ack.Message, nil
}
