package core

import "encoding/json"

// SignalRelay forwards opaque signaling payloads (offer/answer/candidate
// equivalents) between users. Payloads are never persisted or interpreted;
// targets with several devices each receive a copy and the application layer
// de-duplicates.
type SignalRelay struct {
	hub *Hub
}

// NewSignalRelay constructs a relay over the hub.
func NewSignalRelay(hub *Hub) *SignalRelay {
	return &SignalRelay{hub: hub}
}

// Relay forwards the payload to all live connections of the target user with
// the sender attached. A target with no connections is a silent no-op: there
// is no delivery confirmation.
func (r *SignalRelay) Relay(from *Client, toUserID string, payload json.RawMessage) {
	r.hub.UnicastToUser(toUserID, &Event{
		Kind:   EventSignal,
		Signal: &SignalEvent{FromUserID: from.Identity.UserID, Payload: payload},
	})
}
