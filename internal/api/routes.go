// routes.go - Route registration helpers
package api

import (
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/chunkstore"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/embedding"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/extract"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/llm"
	"github.com/jenilparmar/chatbot-theme-identifier/internal/retrieval"
)

// Dependencies holds all handler dependencies.
type Dependencies struct {
	Chunks    *chunkstore.Store
	Extractor *extract.Service
	Embedder  embedding.Service
	Engine    *retrieval.Engine
	Generator llm.Generator
	Logger    *zap.Logger
}

// Handlers holds all handler instances.
type Handlers struct {
	API  *Handler
	Chat *ChatSocketHandler
}

// NewHandlers creates all handler instances.
func NewHandlers(deps *Dependencies) *Handlers {
	h := NewHandler(deps.Chunks, deps.Extractor, deps.Embedder, deps.Engine, deps.Generator, deps.Logger)
	return &Handlers{
		API:  h,
		Chat: NewChatSocketHandler(h, deps.Logger),
	}
}

// RegisterRoutes registers all routes with the Echo instance.
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Reference-compatible endpoints
	e.POST("/upload", handlers.API.HandleUpload)
	e.GET("/clear_db", handlers.API.HandleClearDB)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.API.HandleHealth)
	apiGroup.GET("/chat/history", handlers.API.HandleChatHistory)
	apiGroup.GET("/chat/context/msgpack", handlers.API.HandleContextMsgpack)

	// Chat websocket
	e.GET("/ws/chat", handlers.Chat.HandleChatSocket)
}
