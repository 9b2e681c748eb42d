package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// ChatSocketHandler manages WebSocket connections for the chat protocol.
type ChatSocketHandler struct {
	handler  *Handler
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewChatSocketHandler creates a new chat websocket handler.
func NewChatSocketHandler(h *Handler, log *zap.Logger) *ChatSocketHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ChatSocketHandler{
		handler: h,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
		},
		log: log,
	}
}

// HandleChatSocket upgrades the HTTP connection and serves the chat
// protocol: chat_message in, chat_response out, with the request id
// echoed back so clients can discard stale answers.
func (csh *ChatSocketHandler) HandleChatSocket(c echo.Context) error {
	ws, err := csh.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	csh.log.Info("chat client connected", zap.String("remote", ws.RemoteAddr().String()))

	csh.sendMessage(ws, models.WSMessage{
		Type:      models.MsgTypeConnected,
		Timestamp: time.Now().UnixMilli(),
	})

	for {
		var msg models.WSMessage
		if err := ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				csh.log.Warn("chat connection error", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case models.MsgTypePing:
			csh.sendMessage(ws, models.WSMessage{Type: models.MsgTypePong, Timestamp: time.Now().UnixMilli()})
		case models.MsgTypeChatMessage:
			csh.handleChatMessage(c, ws, msg)
		default:
			csh.sendError(ws, "Unknown message type: "+msg.Type, "INVALID_TYPE")
		}
	}

	csh.log.Info("chat client disconnected")
	return nil
}

func (csh *ChatSocketHandler) handleChatMessage(c echo.Context, ws *websocket.Conn, msg models.WSMessage) {
	var payload models.ChatQueryPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		csh.sendError(ws, "Invalid chat payload: "+err.Error(), "INVALID_PAYLOAD")
		return
	}
	if strings.TrimSpace(payload.Query) == "" {
		csh.sendError(ws, "Query required", "QUERY_REQUIRED")
		return
	}

	resp, err := csh.handler.answer(c.Request().Context(), payload.Query)
	if err != nil {
		csh.log.Error("chat answer failed", zap.Error(err))
		csh.sendError(ws, "Failed to answer query: "+err.Error(), "ANSWER_FAILED")
		return
	}

	csh.sendMessage(ws, models.WSMessage{
		Type:      models.MsgTypeChatResponse,
		ID:        msg.ID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   mustJSON(resp),
	})
}

func (csh *ChatSocketHandler) sendMessage(ws *websocket.Conn, msg models.WSMessage) {
	if err := ws.WriteJSON(msg); err != nil {
		csh.log.Warn("failed to send message", zap.Error(err))
	}
}

func (csh *ChatSocketHandler) sendError(ws *websocket.Conn, message, code string) {
	csh.sendMessage(ws, models.WSMessage{
		Type:      models.MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(models.WSErrorPayload{
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return data
}
