package core

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

// MessageRelay accepts inbound chat messages, persists them, and broadcasts
// the persisted form to the owning room. The store is the system of record;
// nothing is visible to the room until persistence succeeds.
type MessageRelay struct {
	store store.MessageStore
	hub   *Hub
	log   *zerolog.Logger
}

// NewMessageRelay constructs a relay over the given store and hub.
func NewMessageRelay(st store.MessageStore, hub *Hub, logger *zerolog.Logger) *MessageRelay {
	return &MessageRelay{store: st, hub: hub, log: logger}
}

// Send validates, persists, and broadcasts a chat message. The server stamps
// the timestamp at persistence time; client clocks are not trusted. On store
// failure the error surfaces to the sender only and no broadcast occurs.
func (r *MessageRelay) Send(ctx context.Context, sender *Client, room, content string, attachments []string) (*store.ChatMessage, error) {
	if strings.TrimSpace(content) == "" {
		return nil, NewError(ErrCodeEmptyContent, "message content is empty")
	}
	if !r.hub.InRoom(sender, room) {
		return nil, NewError(ErrCodeForbidden, "not a member of room "+room)
	}

	msg := &store.ChatMessage{
		RoomID:      room,
		SenderID:    sender.Identity.UserID,
		Content:     content,
		Attachments: attachments,
	}
	if err := r.store.CreateMessage(ctx, msg); err != nil {
		r.log.Error().Err(err).
			Str("room", room).
			Str("user_id", sender.Identity.UserID).
			Msg("persist message")
		return nil, NewError(ErrCodeStoreUnavailable, "message could not be stored")
	}

	r.hub.BroadcastToRoom(room, &Event{
		Kind:    EventMessage,
		Message: messageEvent(msg, sender.Identity.DisplayName),
	})
	return msg, nil
}

// History returns the most recent messages of a room, oldest first, for
// delivery to a connection that just joined.
func (r *MessageRelay) History(ctx context.Context, room string, limit int) ([]MessageEvent, error) {
	msgs, err := r.store.ListMessages(ctx, room, limit, "")
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		r.log.Error().Err(err).Str("room", room).Msg("load history")
		return nil, NewError(ErrCodeStoreUnavailable, "history could not be loaded")
	}

	// ListMessages returns newest first; history reads oldest first.
	out := make([]MessageEvent, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		out = append(out, *messageEvent(msgs[i], ""))
	}
	return out, nil
}

func messageEvent(msg *store.ChatMessage, senderName string) *MessageEvent {
	return &MessageEvent{
		ID:          msg.ID,
		Room:        msg.RoomID,
		SenderID:    msg.SenderID,
		SenderName:  senderName,
		Content:     msg.Content,
		Attachments: msg.Attachments,
		CreatedAt:   msg.CreatedAt,
	}
}
