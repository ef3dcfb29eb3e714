package core

import (
	"encoding/json"
	"time"
)

// EventKind is a notification the core emits to connections.
type EventKind int

const (
	// EventPresenceChanged notifies all connections about a user's presence
	// transition.
	EventPresenceChanged EventKind = iota
	// EventUserJoined notifies a room about a user joining it.
	EventUserJoined
	// EventUserLeft notifies a room about a user leaving it.
	EventUserLeft
	// EventMessage notifies a room about a persisted chat message.
	EventMessage
	// EventHistory delivers recent messages to a connection upon joining a room.
	EventHistory
	// EventTypingIndicator notifies a room about a typing-state change.
	EventTypingIndicator
	// EventSignal delivers an opaque signaling payload to a user's connections.
	EventSignal
	// EventIncomingCall notifies the receiver's connections of a new call.
	EventIncomingCall
	// EventCallStatusChanged notifies the other participant of a status change.
	EventCallStatusChanged
	// EventCallEnded notifies the other participant that the call has ended.
	EventCallEnded
	// EventError notifies a connection about a domain error.
	EventError
)

// Event is sent to connections to describe what happened in the system.
// Exactly one payload field is set, matching Kind.
type Event struct {
	Kind     EventKind
	Presence *PresenceEvent
	Room     *RoomEvent
	Message  *MessageEvent
	Messages []MessageEvent // for EventHistory
	Typing   *TypingEvent
	Signal   *SignalEvent
	Call     *CallEvent
	Error    *Error
}

// PresenceEvent describes a user's presence transition.
type PresenceEvent struct {
	UserID string
	Status Status
	Since  time.Time
}

// RoomEvent describes room membership changes.
type RoomEvent struct {
	Room        string
	UserID      string
	DisplayName string
}

// MessageEvent carries a persisted chat message.
type MessageEvent struct {
	ID          string
	Room        string
	SenderID    string
	SenderName  string
	Content     string
	Attachments []string
	CreatedAt   time.Time
}

// TypingEvent describes a typing-state change scoped to one room.
type TypingEvent struct {
	Room     string
	UserID   string
	IsTyping bool
}

// SignalEvent carries an opaque signaling payload between users. The payload
// is relayed, never interpreted.
type SignalEvent struct {
	FromUserID string
	Payload    json.RawMessage
}

// CallEvent describes a call session to a participant.
type CallEvent struct {
	SessionID  string
	CallerID   string
	ReceiverID string
	Status     string
	Room       string
	CreatedAt  time.Time
}
