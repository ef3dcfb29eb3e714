package proto

import "encoding/json"

// Inbound is the envelope for messages coming from the client.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	InboundTypeJoin       = "join"
	InboundTypeLeave      = "leave"
	InboundTypeMsg        = "msg"
	InboundTypeTyping     = "typing"
	InboundTypeSignal     = "signal"
	InboundTypePresence   = "presence"
	InboundTypeCallCreate = "call_create"
	InboundTypeCallStatus = "call_status"
	InboundTypeCallEnd    = "call_end"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Outbound event names.
const (
	EventPresenceChanged   = "presence_changed"
	EventUserJoined        = "user_joined"
	EventUserLeft          = "user_left"
	EventMessage           = "message"
	EventHistory           = "history"
	EventTypingIndicator   = "typing_indicator"
	EventSignal            = "signal"
	EventIncomingCall      = "incoming_call"
	EventCallStatusChanged = "call_status_changed"
	EventCallEnded         = "call_ended"
)

// JoinData requests to join or leave a specific room.
type JoinData struct {
	Room string `json:"room"`
}

// MsgData is a chat message from the client.
type MsgData struct {
	Room        string   `json:"room"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

// TypingData reports a typing-state change scoped to one room.
type TypingData struct {
	Room     string `json:"room"`
	IsTyping bool   `json:"is_typing"`
}

// SignalData carries an opaque signaling payload to another user.
type SignalData struct {
	ToUserID string          `json:"to_user_id"`
	Payload  json.RawMessage `json:"payload"`
}

// PresenceData sets an explicit presence override (online or away).
type PresenceData struct {
	Status string `json:"status"`
}

// CallCreateData initiates a call session with another user.
type CallCreateData struct {
	ReceiverID string `json:"receiver_id"`
}

// CallStatusData requests a call session status transition.
type CallStatusData struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
}

// CallEndData ends a call session.
type CallEndData struct {
	SessionID string `json:"session_id"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

// PresenceEvent notifies about a presence transition.
type PresenceEvent struct {
	UserID string `json:"user_id"`
	Status string `json:"status"`
	Since  int64  `json:"since"`
}

// RoomEvent notifies about room membership changes.
type RoomEvent struct {
	Room        string `json:"room"`
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
}

// MessageEvent carries a persisted chat message.
type MessageEvent struct {
	ID          string   `json:"id"`
	Room        string   `json:"room"`
	SenderID    string   `json:"sender_id"`
	SenderName  string   `json:"sender_name,omitempty"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
	TS          int64    `json:"ts"`
}

// TypingEvent notifies a room about a typing-state change.
type TypingEvent struct {
	Room     string `json:"room"`
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

// SignalEvent delivers a relayed signaling payload.
type SignalEvent struct {
	FromUserID string          `json:"from_user_id"`
	Payload    json.RawMessage `json:"payload"`
}

// CallEvent describes a call session to a participant.
type CallEvent struct {
	SessionID  string `json:"session_id"`
	CallerID   string `json:"caller_id"`
	ReceiverID string `json:"receiver_id"`
	Status     string `json:"status"`
	Room       string `json:"room"`
	CreatedAt  int64  `json:"created_at"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
