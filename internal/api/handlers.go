// Package api exposes the document chat service: the multipart upload
// endpoint and the websocket chat channel the client engine talks to.
package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/chunkstore"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/embedding"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/extract"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/llm"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/retrieval"
)

// Handler handles API requests.
type Handler struct {
	chunks    *chunkstore.Store
	extractor *extract.Service
	embedder  embedding.Service
	engine    *retrieval.Engine
	generator llm.Generator
	log       *zap.Logger

	mu          sync.Mutex
	history     []models.ChatTurn
	lastContext []string
	lastSources []models.Citation
}

// NewHandler creates a new API handler.
func NewHandler(
	chunks *chunkstore.Store,
	extractor *extract.Service,
	embedder embedding.Service,
	engine *retrieval.Engine,
	generator llm.Generator,
	log *zap.Logger,
) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		chunks:    chunks,
		extractor: extractor,
		embedder:  embedder,
		engine:    engine,
		generator: generator,
		log:       log,
	}
}

// HandleHealth returns server health status.
func (h *Handler) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// HandleUpload accepts a multipart payload of zero-or-more PDF parts,
// zero-or-more image parts, and an optional text part, and rebuilds the
// retrieval corpus from them. Matching the reference, each upload
// replaces the previous corpus wholesale.
func (h *Handler) HandleUpload(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("invalid multipart form", err)
	}

	pdfs := form.File["pdf"]
	images := form.File["image"]
	text := c.FormValue("text")

	if len(pdfs) == 0 && len(images) == 0 && strings.TrimSpace(text) == "" {
		return NewBadRequestError("No PDF(s), image(s), or text uploaded", nil)
	}

	ctx := c.Request().Context()
	if err := h.chunks.Clear(ctx); err != nil {
		return NewInternalError("failed to reset corpus", err)
	}

	for _, fh := range pdfs {
		data, err := readPart(fh)
		if err != nil {
			return NewInternalError("failed to read pdf part", err)
		}
		chunks, err := h.extractor.ProcessPDF(ctx, uuid.New().String(), fh.Filename, data)
		if err != nil {
			return NewInternalError("failed to process pdf", err)
		}
		if err := h.indexChunks(ctx, chunks); err != nil {
			return NewInternalError("failed to index pdf", err)
		}
	}

	if strings.TrimSpace(text) != "" {
		chunks := h.extractor.ProcessText(uuid.New().String(), text)
		if err := h.indexChunks(ctx, chunks); err != nil {
			return NewInternalError("failed to index text", err)
		}
	}

	for _, fh := range images {
		data, err := readPart(fh)
		if err != nil {
			return NewInternalError("failed to read image part", err)
		}
		chunks, err := h.extractor.ProcessImage(ctx, uuid.New().String(), fh.Filename, data)
		if err != nil {
			return NewInternalError("failed to process image", err)
		}
		if err := h.indexChunks(ctx, chunks); err != nil {
			return NewInternalError("failed to index image", err)
		}
	}

	h.log.Info("upload processed",
		zap.Int("pdfs", len(pdfs)),
		zap.Int("images", len(images)),
		zap.Bool("hasText", strings.TrimSpace(text) != ""))

	return c.JSON(http.StatusOK, map[string]string{
		"message": fmt.Sprintf("%d PDF(s), %d image(s), and text processed successfully.", len(pdfs), len(images)),
	})
}

// HandleClearDB drops the retrieval corpus.
func (h *Handler) HandleClearDB(c echo.Context) error {
	if err := h.chunks.Clear(c.Request().Context()); err != nil {
		return NewInternalError("failed to clear corpus", err)
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "db cleared"})
}

// HandleChatHistory returns the conversation so far.
func (h *Handler) HandleChatHistory(c echo.Context) error {
	h.mu.Lock()
	history := append([]models.ChatTurn(nil), h.history...)
	h.mu.Unlock()

	return c.JSON(http.StatusOK, history)
}

// HandleContextMsgpack returns the last answer's context and sources in
// MessagePack format for bulk consumers.
func (h *Handler) HandleContextMsgpack(c echo.Context) error {
	h.mu.Lock()
	if h.lastContext == nil && h.lastSources == nil {
		h.mu.Unlock()
		return NewNotFoundError("retrieval context", "latest")
	}
	payload := struct {
		Context []string          `msgpack:"context"`
		Sources []models.Citation `msgpack:"sources"`
	}{
		Context: h.lastContext,
		Sources: h.lastSources,
	}
	h.mu.Unlock()

	data, err := msgpack.Marshal(payload)
	if err != nil {
		return NewInternalError("failed to encode context", err)
	}
	return c.Blob(http.StatusOK, "application/x-msgpack", data)
}

// answer runs retrieval + generation for one question and records the
// turn. Called from the websocket handler.
func (h *Handler) answer(ctx context.Context, query string) (*models.ChatResponsePayload, error) {
	result, err := h.engine.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}

	h.mu.Lock()
	history := append([]models.ChatTurn(nil), h.history...)
	h.mu.Unlock()

	if len(result.Context) == 0 {
		return &models.ChatResponsePayload{
			Response:    "No relevant context found.",
			ChatHistory: history,
		}, nil
	}

	text, err := h.generator.Generate(ctx, result.Context, history, query)
	if err != nil {
		return nil, fmt.Errorf("generation: %w", err)
	}

	h.mu.Lock()
	h.history = append(h.history, models.ChatTurn{Query: query, Response: text})
	h.lastContext = result.Context
	h.lastSources = result.Citations
	history = append([]models.ChatTurn(nil), h.history...)
	h.mu.Unlock()

	return &models.ChatResponsePayload{
		Response:    text,
		Sources:     result.Citations,
		Context:     result.Context,
		ChatHistory: history,
	}, nil
}

// indexChunks embeds and stores a batch.
func (h *Handler) indexChunks(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Content
	}

	embs, err := h.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}
	for i := range chunks {
		chunks[i].Embedding = embs[i]
	}

	return h.chunks.Insert(ctx, chunks)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
