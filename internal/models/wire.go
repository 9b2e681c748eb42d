package models

import "encoding/json"

// Chat channel message types. Every frame is one envelope: a type tag,
// an optional correlation id, and a raw payload.
const (
	MsgTypeConnected    = "connected"
	MsgTypeChatMessage  = "chat_message"
	MsgTypeChatResponse = "chat_response"
	MsgTypeError        = "error"
	MsgTypePing         = "ping"
	MsgTypePong         = "pong"
)

// WSMessage is the websocket envelope for both directions.
//
// ID is a client-generated request id echoed back on the matching
// chat_response. Servers that omit the id are tolerated, in which case
// answers are matched to the most recent outstanding question by
// arrival order.
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// ChatQueryPayload is the outbound chat_message payload.
type ChatQueryPayload struct {
	Query string `json:"query"`
}

// ChatResponsePayload is the inbound chat_response payload. Sources and
// Context may be absent; consumers treat them as empty, never as errors.
type ChatResponsePayload struct {
	Response    string     `json:"response"`
	Sources     []Citation `json:"sources,omitempty"`
	Context     []string   `json:"context,omitempty"`
	ChatHistory []ChatTurn `json:"chat_history,omitempty"`
}

// WSErrorPayload is the inbound error payload.
type WSErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}
