package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/Mutua-sr/apptwo-sub001/internal/calls"
	"github.com/Mutua-sr/apptwo-sub001/internal/core"
	"github.com/Mutua-sr/apptwo-sub001/internal/proto"
	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

const historyLimit = 50

// dispatch routes one inbound frame to the core. A non-nil return is a
// protocol-level error to report to this connection only.
func (h *WSHandler) dispatch(ctx context.Context, client *core.Client, inbound proto.Inbound) *proto.Error {
	switch inbound.Type {
	case proto.InboundTypeJoin:
		var data proto.JoinData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.Room == "" {
			return badRequest("join requires a room")
		}
		h.deps.Hub.Join(client, data.Room)

		history, err := h.deps.Messages.History(ctx, data.Room, historyLimit)
		if err != nil {
			return mapError(err)
		}
		if len(history) > 0 {
			client.Deliver(&core.Event{Kind: core.EventHistory, Messages: history})
		}
		return nil

	case proto.InboundTypeLeave:
		var data proto.JoinData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.Room == "" {
			return badRequest("leave requires a room")
		}
		h.deps.Hub.Leave(client, data.Room)
		return nil

	case proto.InboundTypeMsg:
		var data proto.MsgData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.Room == "" {
			return badRequest("msg requires a room")
		}
		if _, err := h.deps.Messages.Send(ctx, client, data.Room, data.Content, data.Attachments); err != nil {
			return mapError(err)
		}
		return nil

	case proto.InboundTypeTyping:
		var data proto.TypingData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.Room == "" {
			return badRequest("typing requires a room")
		}
		if err := h.deps.Hub.SetTyping(client, data.Room, data.IsTyping); err != nil {
			return mapError(err)
		}
		return nil

	case proto.InboundTypeSignal:
		var data proto.SignalData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.ToUserID == "" {
			return badRequest("signal requires a target user")
		}
		h.deps.Signals.Relay(client, data.ToUserID, data.Payload)
		return nil

	case proto.InboundTypePresence:
		var data proto.PresenceData
		if err := unmarshalData(inbound.Data, &data); err != nil {
			return badRequest("presence requires a status")
		}
		if err := h.deps.Hub.SetPresence(client, core.Status(data.Status)); err != nil {
			return mapError(err)
		}
		return nil

	case proto.InboundTypeCallCreate:
		var data proto.CallCreateData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.ReceiverID == "" {
			return badRequest("call_create requires a receiver")
		}
		session, err := h.deps.Calls.CreateSession(ctx, client.Identity.UserID, data.ReceiverID)
		if err != nil {
			return mapError(err)
		}
		// Acknowledge the pending session to the originating connection so
		// the caller learns the session ID.
		client.Deliver(&core.Event{
			Kind: core.EventCallStatusChanged,
			Call: &core.CallEvent{
				SessionID:  session.ID,
				CallerID:   session.CallerID,
				ReceiverID: session.ReceiverID,
				Status:     string(session.Status),
				Room:       session.RoomID,
				CreatedAt:  session.CreatedAt,
			},
		})
		return nil

	case proto.InboundTypeCallStatus:
		var data proto.CallStatusData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.SessionID == "" {
			return badRequest("call_status requires a session")
		}
		if _, err := h.deps.Calls.UpdateStatus(ctx, data.SessionID, store.SessionStatus(data.Status), client.Identity.UserID); err != nil {
			return mapError(err)
		}
		return nil

	case proto.InboundTypeCallEnd:
		var data proto.CallEndData
		if err := unmarshalData(inbound.Data, &data); err != nil || data.SessionID == "" {
			return badRequest("call_end requires a session")
		}
		if err := h.deps.Calls.EndSession(ctx, data.SessionID, client.Identity.UserID); err != nil {
			return mapError(err)
		}
		return nil

	default:
		return badRequest("unknown inbound type: " + inbound.Type)
	}
}

func unmarshalData(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return errors.New("missing data")
	}
	return json.Unmarshal(raw, v)
}

func badRequest(msg string) *proto.Error {
	return &proto.Error{Code: core.ErrCodeBadRequest, Msg: msg}
}

// mapError converts domain errors into the wire taxonomy.
func mapError(err error) *proto.Error {
	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		return &proto.Error{Code: coreErr.Code, Msg: coreErr.Message}
	}

	switch {
	case errors.Is(err, calls.ErrUnauthorized):
		return &proto.Error{Code: core.ErrCodeUnauthorized, Msg: err.Error()}
	case errors.Is(err, calls.ErrSessionNotFound):
		return &proto.Error{Code: core.ErrCodeNotFound, Msg: err.Error()}
	case errors.Is(err, calls.ErrNotParticipant):
		return &proto.Error{Code: core.ErrCodeForbidden, Msg: err.Error()}
	case errors.Is(err, calls.ErrBadStatus):
		return &proto.Error{Code: core.ErrCodeBadRequest, Msg: err.Error()}
	case errors.Is(err, store.ErrConflict):
		return &proto.Error{Code: core.ErrCodeStoreConflict, Msg: "concurrent update, retry"}
	case errors.Is(err, store.ErrNotFound):
		return &proto.Error{Code: core.ErrCodeNotFound, Msg: err.Error()}
	default:
		return &proto.Error{Code: core.ErrCodeStoreUnavailable, Msg: "operation failed"}
	}
}

// outboundFromEvent converts a core event into its wire form.
func outboundFromEvent(ev *core.Event) proto.Outbound {
	switch ev.Kind {
	case core.EventPresenceChanged:
		return eventOutbound(proto.EventPresenceChanged, proto.PresenceEvent{
			UserID: ev.Presence.UserID,
			Status: string(ev.Presence.Status),
			Since:  ev.Presence.Since.Unix(),
		})
	case core.EventUserJoined:
		return eventOutbound(proto.EventUserJoined, roomEvent(ev.Room))
	case core.EventUserLeft:
		return eventOutbound(proto.EventUserLeft, roomEvent(ev.Room))
	case core.EventMessage:
		return eventOutbound(proto.EventMessage, messageEvent(ev.Message))
	case core.EventHistory:
		msgs := make([]proto.MessageEvent, 0, len(ev.Messages))
		for i := range ev.Messages {
			msgs = append(msgs, messageEvent(&ev.Messages[i]))
		}
		return eventOutbound(proto.EventHistory, msgs)
	case core.EventTypingIndicator:
		return eventOutbound(proto.EventTypingIndicator, proto.TypingEvent{
			Room:     ev.Typing.Room,
			UserID:   ev.Typing.UserID,
			IsTyping: ev.Typing.IsTyping,
		})
	case core.EventSignal:
		return eventOutbound(proto.EventSignal, proto.SignalEvent{
			FromUserID: ev.Signal.FromUserID,
			Payload:    ev.Signal.Payload,
		})
	case core.EventIncomingCall:
		return eventOutbound(proto.EventIncomingCall, callEvent(ev.Call))
	case core.EventCallStatusChanged:
		return eventOutbound(proto.EventCallStatusChanged, callEvent(ev.Call))
	case core.EventCallEnded:
		return eventOutbound(proto.EventCallEnded, callEvent(ev.Call))
	case core.EventError:
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: ev.Error.Code, Msg: ev.Error.Message},
		}
	default:
		return proto.Outbound{Type: proto.OutboundTypeEvent}
	}
}

func eventOutbound(name string, data any) proto.Outbound {
	return proto.Outbound{Type: proto.OutboundTypeEvent, Event: name, Data: data}
}

func roomEvent(ev *core.RoomEvent) proto.RoomEvent {
	return proto.RoomEvent{Room: ev.Room, UserID: ev.UserID, DisplayName: ev.DisplayName}
}

func messageEvent(ev *core.MessageEvent) proto.MessageEvent {
	return proto.MessageEvent{
		ID:          ev.ID,
		Room:        ev.Room,
		SenderID:    ev.SenderID,
		SenderName:  ev.SenderName,
		Content:     ev.Content,
		Attachments: ev.Attachments,
		TS:          ev.CreatedAt.Unix(),
	}
}

func callEvent(ev *core.CallEvent) proto.CallEvent {
	return proto.CallEvent{
		SessionID:  ev.SessionID,
		CallerID:   ev.CallerID,
		ReceiverID: ev.ReceiverID,
		Status:     ev.Status,
		Room:       ev.Room,
		CreatedAt:  ev.CreatedAt.Unix(),
	}
}
