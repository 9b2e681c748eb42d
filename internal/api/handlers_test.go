package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/chunkstore"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/embedding"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/extract"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/retrieval"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/testutil"
)

func newTestHandler(t *testing.T, gen *testutil.CannedGenerator) (*Handler, *chunkstore.Store) {
	t.Helper()

	chunks, err := chunkstore.New()
	require.NoError(t, err)
	t.Cleanup(func() { chunks.Close() })

	sidecar := &testutil.FakeSidecar{
		Pages:   []extract.Page{{Number: 1, Text: "typed page content"}},
		OCRText: "ocr content",
	}
	extractor := extract.NewService(sidecar, 800, 300, nil)
	embedder := embedding.NewLocal()
	engine := retrieval.NewEngine(chunks, embedder, nil, nil)

	if gen == nil {
		gen = &testutil.CannedGenerator{Answer: "generated answer"}
	}
	return NewHandler(chunks, extractor, embedder, engine, gen, nil), chunks
}

func multipartRequest(t *testing.T, files map[string][]string, text string) *http.Request {
	t.Helper()

	body := new(bytes.Buffer)
	w := multipart.NewWriter(body)
	for field, names := range files {
		for _, name := range names {
			fw, err := w.CreateFormFile(field, name)
			require.NoError(t, err)
			fw.Write([]byte("file content for " + name))
		}
	}
	if text != "" {
		require.NoError(t, w.WriteField("text", text))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestHandleUploadEmpty(t *testing.T) {
	h, _ := newTestHandler(t, nil)

	e := echo.New()
	req := multipartRequest(t, nil, "")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := h.HandleUpload(c)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok, "expected APIError, got %T", err)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "No PDF(s), image(s), or text uploaded", apiErr.Message)
}

func TestHandleUploadIndexesEverything(t *testing.T) {
	h, chunks := newTestHandler(t, nil)

	e := echo.New()
	req := multipartRequest(t, map[string][]string{
		"pdf":   {"a.pdf", "b.pdf"},
		"image": {"pic.png"},
	}, "typed text")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	require.NoError(t, h.HandleUpload(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "2 PDF(s), 1 image(s), and text processed successfully.", resp["message"])

	ids, err := chunks.ArtifactIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 4, "one index per pdf, per image, plus the text")
}

func TestHandleUploadReplacesCorpus(t *testing.T) {
	h, chunks := newTestHandler(t, nil)
	e := echo.New()

	first := multipartRequest(t, map[string][]string{"pdf": {"old.pdf"}}, "")
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleUpload(e.NewContext(first, rec)))

	second := multipartRequest(t, nil, "just text")
	rec = httptest.NewRecorder()
	require.NoError(t, h.HandleUpload(e.NewContext(second, rec)))

	ids, err := chunks.ArtifactIDs(context.Background())
	require.NoError(t, err)
	assert.Len(t, ids, 1, "each upload rebuilds the corpus from scratch")
}

func TestHandleClearDB(t *testing.T) {
	h, chunks := newTestHandler(t, nil)
	e := echo.New()

	up := multipartRequest(t, map[string][]string{"pdf": {"a.pdf"}}, "")
	require.NoError(t, h.HandleUpload(e.NewContext(up, httptest.NewRecorder())))

	req := httptest.NewRequest(http.MethodGet, "/clear_db", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleClearDB(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "db cleared")

	n, err := chunks.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestHandleHealth(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleHealth(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestAnswerFlow(t *testing.T) {
	gen := &testutil.CannedGenerator{Answer: "the facts say yes"}
	h, _ := newTestHandler(t, gen)
	e := echo.New()

	up := multipartRequest(t, nil, "the quarterly report shows growth")
	require.NoError(t, h.HandleUpload(e.NewContext(up, httptest.NewRecorder())))

	resp, err := h.answer(context.Background(), "quarterly report growth")
	require.NoError(t, err)

	assert.Equal(t, "the facts say yes", resp.Response)
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, models.CitationText, resp.Sources[0].Type)
	assert.Equal(t, models.FreeTextSource, resp.Sources[0].Source)
	require.Len(t, resp.ChatHistory, 1)
	assert.Equal(t, "quarterly report growth", resp.ChatHistory[0].Query)

	// History endpoint reflects the recorded turn.
	req := httptest.NewRequest(http.MethodGet, "/api/chat/history", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleChatHistory(e.NewContext(req, rec)))
	assert.Contains(t, rec.Body.String(), "quarterly report growth")
}

func TestAnswerNoContext(t *testing.T) {
	gen := &testutil.CannedGenerator{Answer: "should not be called"}
	h, _ := newTestHandler(t, gen)

	resp, err := h.answer(context.Background(), "anything at all")
	require.NoError(t, err)

	assert.Equal(t, "No relevant context found.", resp.Response)
	assert.Empty(t, resp.Sources)
	assert.Empty(t, gen.Queries, "the model is skipped when retrieval finds nothing")
}

func TestHandleContextMsgpackBeforeAnyAnswer(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/api/chat/context/msgpack", nil)
	err := h.HandleContextMsgpack(e.NewContext(req, httptest.NewRecorder()))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestHandleContextMsgpack(t *testing.T) {
	h, _ := newTestHandler(t, nil)
	e := echo.New()

	up := multipartRequest(t, nil, "msgpack endpoint content")
	require.NoError(t, h.HandleUpload(e.NewContext(up, httptest.NewRecorder())))

	_, err := h.answer(context.Background(), "msgpack endpoint content")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/chat/context/msgpack", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.HandleContextMsgpack(e.NewContext(req, rec)))

	assert.Equal(t, "application/x-msgpack", rec.Header().Get(echo.HeaderContentType))

	var decoded struct {
		Context []string          `msgpack:"context"`
		Sources []models.Citation `msgpack:"sources"`
	}
	require.NoError(t, msgpack.Unmarshal(rec.Body.Bytes(), &decoded))
	require.Len(t, decoded.Context, 1)
	assert.Contains(t, decoded.Context[0], "msgpack endpoint content")
}

func TestChatSocket(t *testing.T) {
	gen := &testutil.CannedGenerator{Answer: "socket answer"}
	h, _ := newTestHandler(t, gen)
	e := echo.New()

	up := multipartRequest(t, nil, "socket corpus text")
	require.NoError(t, h.HandleUpload(e.NewContext(up, httptest.NewRecorder())))

	wsh := NewChatSocketHandler(h, nil)
	e.GET("/ws/chat", wsh.HandleChatSocket)
	srv := httptest.NewServer(e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	ws, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer ws.Close()

	// The server greets first.
	var greeting models.WSMessage
	require.NoError(t, ws.ReadJSON(&greeting))
	assert.Equal(t, models.MsgTypeConnected, greeting.Type)

	// Empty query is rejected.
	require.NoError(t, ws.WriteJSON(chatMessage("q1", "   ")))
	var errMsg models.WSMessage
	require.NoError(t, ws.ReadJSON(&errMsg))
	assert.Equal(t, models.MsgTypeError, errMsg.Type)
	assert.Contains(t, string(errMsg.Payload), "Query required")

	// A real question gets an answer echoing the request id.
	require.NoError(t, ws.WriteJSON(chatMessage("q2", "socket corpus text")))
	var answer models.WSMessage
	require.NoError(t, ws.ReadJSON(&answer))
	assert.Equal(t, models.MsgTypeChatResponse, answer.Type)
	assert.Equal(t, "q2", answer.ID)

	var payload models.ChatResponsePayload
	require.NoError(t, json.Unmarshal(answer.Payload, &payload))
	assert.Equal(t, "socket answer", payload.Response)
	require.Len(t, payload.Sources, 1)
	assert.Len(t, payload.ChatHistory, 1)

	// Ping keeps the connection alive.
	require.NoError(t, ws.WriteJSON(models.WSMessage{Type: models.MsgTypePing}))
	var pong models.WSMessage
	require.NoError(t, ws.ReadJSON(&pong))
	assert.Equal(t, models.MsgTypePong, pong.Type)
}

func chatMessage(id, query string) models.WSMessage {
	payload, _ := json.Marshal(models.ChatQueryPayload{Query: query})
	return models.WSMessage{Type: models.MsgTypeChatMessage, ID: id, Payload: payload}
}
