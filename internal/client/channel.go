package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/jenilparmar/chatbot-theme-identifier/internal/models"
)

// Channel is the persistent duplex connection questions travel out on
// and answers arrive back over. It is established once per session and
// carries one logical question at a time from the caller's perspective;
// Ask does not block on the previous answer's arrival.
//
// Each outbound question carries a generated request id. Answers echoing
// a different id than the latest outstanding question are dropped as
// stale; answers without an id fall back to most-recent matching, which
// is all the reference protocol supports.
type Channel struct {
	log    *zap.Logger
	events chan models.AnswerEvent

	mu      sync.Mutex
	conn    *websocket.Conn
	pending string // request id of the most recent Ask
	closed  bool
}

// Dial connects the channel to a chat websocket endpoint
// (e.g. "ws://127.0.0.1:5000/ws/chat") and starts the read loop.
func Dial(ctx context.Context, url string, log *zap.Logger) (*Channel, error) {
	if log == nil {
		log = zap.NewNop()
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	c := &Channel{
		log:    log,
		conn:   conn,
		events: make(chan models.AnswerEvent, 8),
	}
	go c.readLoop()
	return c, nil
}

// Events delivers answer events in the order the connection delivers
// them. The channel is closed when the connection drops or Close is
// called.
func (c *Channel) Events() <-chan models.AnswerEvent {
	return c.events
}

// Ask submits a question. Returns ErrChannelUnavailable when the
// connection is down rather than silently dropping the question.
func (c *Channel) Ask(question string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.conn == nil {
		return ErrChannelUnavailable
	}

	id := uuid.New().String()
	payload, err := json.Marshal(models.ChatQueryPayload{Query: question})
	if err != nil {
		return fmt.Errorf("encoding question: %w", err)
	}

	msg := models.WSMessage{
		Type:      models.MsgTypeChatMessage,
		ID:        id,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
	if err := c.conn.WriteJSON(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrChannelUnavailable, err)
	}

	// A newer question supersedes any outstanding one; its late answer
	// will be discarded on arrival.
	c.pending = id
	return nil
}

// Close tears down the connection and the events channel.
func (c *Channel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

func (c *Channel) readLoop() {
	defer close(c.events)

	for {
		var msg models.WSMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.mu.Lock()
			wasClosed := c.closed
			c.closed = true
			c.mu.Unlock()
			if !wasClosed {
				c.log.Warn("chat channel read failed", zap.Error(err))
			}
			return
		}

		switch msg.Type {
		case models.MsgTypeChatResponse:
			c.handleResponse(msg)
		case models.MsgTypeError:
			var p models.WSErrorPayload
			if err := json.Unmarshal(msg.Payload, &p); err == nil {
				c.log.Warn("chat channel error event",
					zap.String("code", p.Code),
					zap.String("message", p.Message))
			}
		case models.MsgTypeConnected, models.MsgTypePong:
			// Keepalive traffic, nothing to deliver.
		}
	}
}

func (c *Channel) handleResponse(msg models.WSMessage) {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if msg.ID != "" && msg.ID != pending {
		c.log.Debug("dropping stale answer", zap.String("id", msg.ID))
		return
	}

	var p models.ChatResponsePayload
	if err := json.Unmarshal(msg.Payload, &p); err != nil {
		c.log.Warn("undecodable chat_response payload", zap.Error(err))
		return
	}

	ev := models.AnswerEvent{
		ResponseText: p.Response,
		Citations:    p.Sources,
		Context:      p.Context,
	}
	if ev.Citations == nil {
		ev.Citations = []models.Citation{}
	}
	if ev.Context == nil {
		ev.Context = []string{}
	}

	c.events <- ev
}
