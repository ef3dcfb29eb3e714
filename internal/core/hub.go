package core

import (
	"sync"

	"github.com/rs/zerolog"
)

type typingKey struct {
	userID string
	room   string
}

// Hub routes events between live connections. It owns room membership and
// typing state, and drives presence transitions from registry edges.
// Registry and tracker are constructor-injected so tests and future
// deployments can supply their own instances.
type Hub struct {
	registry *Registry
	presence *PresenceTracker
	log      *zerolog.Logger

	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	typing map[typingKey]bool

	// lifecycle serializes connection admit/remove with the presence
	// derivation they trigger, so racing connect/disconnect for the same
	// user cannot flap broadcasts.
	lifecycle sync.Mutex
}

// NewHub constructs a hub over the given registry and presence tracker.
func NewHub(registry *Registry, presence *PresenceTracker, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		presence: presence,
		log:      logger,
		rooms:    make(map[string]map[*Client]struct{}),
		typing:   make(map[typingKey]bool),
	}
}

// Registry exposes the connection registry for read-side addressing.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Presence exposes the presence tracker for read access.
func (h *Hub) Presence() *PresenceTracker {
	return h.presence
}

// RegisterClient admits an authenticated connection. Broadcasts an online
// transition only on the user's zero-to-nonzero edge; additional devices
// connecting produce no fan-out.
func (h *Hub) RegisterClient(c *Client) {
	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	first := h.registry.Admit(c)
	h.log.Debug().
		Str("conn_id", c.ID).
		Str("user_id", c.Identity.UserID).
		Bool("first", first).
		Msg("connection admitted")

	if first {
		rec := h.presence.MarkOnline(c.Identity.UserID)
		h.BroadcastAll(presenceEvent(c.Identity.UserID, rec))
	}
}

// UnregisterClient removes a closed connection: leaves all joined rooms,
// clears orphaned typing state, and broadcasts an offline transition if this
// was the user's last connection. Idempotent.
func (h *Hub) UnregisterClient(c *Client) {
	for _, room := range h.clientRooms(c) {
		h.Leave(c, room)
	}

	h.lifecycle.Lock()
	defer h.lifecycle.Unlock()

	empty := h.registry.Remove(c)
	h.log.Debug().
		Str("conn_id", c.ID).
		Str("user_id", c.Identity.UserID).
		Bool("last", empty).
		Msg("connection removed")

	if empty {
		rec := h.presence.MarkOffline(c.Identity.UserID)
		h.BroadcastAll(presenceEvent(c.Identity.UserID, rec))
	}
}

// SetPresence applies an explicit presence override for a connected user.
// It overrides the derived state until the next connection-count transition.
func (h *Hub) SetPresence(c *Client, status Status) error {
	if status != StatusOnline && status != StatusAway {
		return NewError(ErrCodeBadRequest, "presence must be online or away")
	}
	if h.registry.ConnectionCount(c.Identity.UserID) == 0 {
		return NewError(ErrCodeForbidden, "no live connection for user")
	}

	rec := h.presence.SetExplicit(c.Identity.UserID, status)
	h.BroadcastAll(presenceEvent(c.Identity.UserID, rec))
	return nil
}

// Join adds the connection to a room and notifies the room. Idempotent.
func (h *Hub) Join(c *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	if _, exists := members[c]; exists {
		h.mu.Unlock()
		return
	}
	members[c] = struct{}{}
	c.rooms[room] = struct{}{}
	h.mu.Unlock()

	h.BroadcastToRoom(room, &Event{
		Kind: EventUserJoined,
		Room: &RoomEvent{Room: room, UserID: c.Identity.UserID, DisplayName: c.Identity.DisplayName},
	})
}

// Leave removes the connection from a room and notifies the room. Typing
// state for the (user, room) pair is cleared if no other connection of the
// user remains in the room. Idempotent.
func (h *Hub) Leave(c *Client, room string) {
	h.mu.Lock()
	members, ok := h.rooms[room]
	if !ok {
		h.mu.Unlock()
		return
	}
	if _, exists := members[c]; !exists {
		h.mu.Unlock()
		return
	}
	delete(members, c)
	delete(c.rooms, room)
	if len(members) == 0 {
		delete(h.rooms, room)
	}

	key := typingKey{userID: c.Identity.UserID, room: room}
	clearTyping := h.typing[key] && !h.userInRoomLocked(c.Identity.UserID, room)
	if clearTyping {
		delete(h.typing, key)
	}
	h.mu.Unlock()

	if clearTyping {
		h.BroadcastToRoom(room, &Event{
			Kind:   EventTypingIndicator,
			Typing: &TypingEvent{Room: room, UserID: c.Identity.UserID, IsTyping: false},
		})
	}
	h.BroadcastToRoom(room, &Event{
		Kind: EventUserLeft,
		Room: &RoomEvent{Room: room, UserID: c.Identity.UserID, DisplayName: c.Identity.DisplayName},
	})
}

// InRoom reports whether the connection has joined the room.
func (h *Hub) InRoom(c *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := c.rooms[room]
	return ok
}

// SetTyping updates typing state for the (user, room) pair and notifies the
// room only. State is per room: a user may type in several rooms at once.
func (h *Hub) SetTyping(c *Client, room string, isTyping bool) error {
	if !h.InRoom(c, room) {
		return NewError(ErrCodeForbidden, "not a member of room "+room)
	}

	h.mu.Lock()
	key := typingKey{userID: c.Identity.UserID, room: room}
	if isTyping {
		h.typing[key] = true
	} else {
		delete(h.typing, key)
	}
	h.mu.Unlock()

	h.BroadcastToRoom(room, &Event{
		Kind:   EventTypingIndicator,
		Typing: &TypingEvent{Room: room, UserID: c.Identity.UserID, IsTyping: isTyping},
	})
	return nil
}

// IsTyping reports the typing state for the (user, room) pair.
func (h *Hub) IsTyping(userID, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.typing[typingKey{userID: userID, room: room}]
}

// BroadcastToRoom delivers the event to every connection in the room except
// those explicitly excluded.
func (h *Hub) BroadcastToRoom(room string, ev *Event, exclude ...*Client) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for c := range h.rooms[room] {
		members = append(members, c)
	}
	h.mu.RUnlock()

	for _, c := range members {
		if excluded(c, exclude) {
			continue
		}
		c.Deliver(ev)
	}
}

// UnicastToUser delivers the event to every live connection of the user so
// multiple devices stay in sync. A user with zero connections is a silent
// no-op.
func (h *Hub) UnicastToUser(userID string, ev *Event) {
	for _, c := range h.registry.ConnectionsFor(userID) {
		c.Deliver(ev)
	}
}

// BroadcastAll delivers the event to every live connection.
func (h *Hub) BroadcastAll(ev *Event) {
	for _, c := range h.registry.All() {
		c.Deliver(ev)
	}
}

func (h *Hub) clientRooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]string, 0, len(c.rooms))
	for room := range c.rooms {
		out = append(out, room)
	}
	return out
}

// userInRoomLocked reports whether any connection of the user remains in the
// room. Callers hold h.mu.
func (h *Hub) userInRoomLocked(userID, room string) bool {
	for c := range h.rooms[room] {
		if c.Identity.UserID == userID {
			return true
		}
	}
	return false
}

func presenceEvent(userID string, rec PresenceRecord) *Event {
	return &Event{
		Kind:     EventPresenceChanged,
		Presence: &PresenceEvent{UserID: userID, Status: rec.Status, Since: rec.Since},
	}
}

func excluded(c *Client, exclude []*Client) bool {
	for _, e := range exclude {
		if c == e {
			return true
		}
	}
	return false
}
