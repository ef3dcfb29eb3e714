package http

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/Mutua-sr/apptwo-sub001/internal/proto"
)

type wsEnvelope struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *proto.Error    `json:"error"`
}

func wsURL(srv *testServer, token string) string {
	return "ws" + strings.TrimPrefix(srv.ts.URL, "http") + "/ws?token=" + token
}

func dialWS(t *testing.T, ctx context.Context, srv *testServer, token string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.Dial(ctx, wsURL(srv, token), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

// readEvent reads frames until one with the given event name arrives.
func readEvent(t *testing.T, ctx context.Context, conn *websocket.Conn, event string) json.RawMessage {
	t.Helper()
	for {
		var env wsEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("waiting for %q event: %v", event, err)
		}
		if env.Type == proto.OutboundTypeEvent && env.Event == event {
			return env.Data
		}
	}
}

// readError reads frames until an error envelope arrives.
func readError(t *testing.T, ctx context.Context, conn *websocket.Conn) *proto.Error {
	t.Helper()
	for {
		var env wsEnvelope
		if err := wsjson.Read(ctx, conn, &env); err != nil {
			t.Fatalf("waiting for error envelope: %v", err)
		}
		if env.Type == proto.OutboundTypeError {
			return env.Error
		}
	}
}

func send(t *testing.T, ctx context.Context, conn *websocket.Conn, msgType string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal %s data: %v", msgType, err)
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

func registerUser(t *testing.T, srv *testServer, username string) string {
	t.Helper()
	token, err := srv.auth.Register(context.Background(), username, "password123", username)
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

func TestWSRejectsBadToken(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv, "not-a-token"), nil)
	if err != nil {
		t.Fatalf("ws dial: %v", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "")

	// The handshake succeeds but the server closes before admission.
	_, _, err = conn.Read(ctx)
	if err == nil {
		t.Fatal("expected the server to close the connection")
	}
	if status := websocket.CloseStatus(err); status != websocket.StatusPolicyViolation {
		t.Fatalf("expected policy violation close, got %v (%v)", status, err)
	}
}

func TestWSMessageRoundTrip(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokenA := registerUser(t, srv, "alice")
	tokenB := registerUser(t, srv, "bob")
	idB := userIDFromToken(t, srv, tokenB)

	connA := dialWS(t, ctx, srv, tokenA)
	connB := dialWS(t, ctx, srv, tokenB)

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "lobby"})
	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "lobby"})

	// B's join is broadcast to the room, so A sees it once both are in.
	for {
		data := readEvent(t, ctx, connA, proto.EventUserJoined)
		var joined proto.RoomEvent
		if err := json.Unmarshal(data, &joined); err != nil {
			t.Fatalf("decode join event: %v", err)
		}
		if joined.UserID == idB {
			break
		}
	}

	send(t, ctx, connA, proto.InboundTypeMsg, proto.MsgData{Room: "lobby", Content: "hello"})

	for _, conn := range []*websocket.Conn{connA, connB} {
		data := readEvent(t, ctx, conn, proto.EventMessage)
		var msg proto.MessageEvent
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("decode message event: %v", err)
		}
		if msg.Content != "hello" || msg.Room != "lobby" {
			t.Fatalf("unexpected message event: %+v", msg)
		}
		if msg.ID == "" {
			t.Fatal("message event missing persisted id")
		}
	}
}

func TestWSHistoryOnJoin(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokenA := registerUser(t, srv, "alice")
	connA := dialWS(t, ctx, srv, tokenA)

	send(t, ctx, connA, proto.InboundTypeJoin, proto.JoinData{Room: "lobby"})
	for i := 0; i < 3; i++ {
		send(t, ctx, connA, proto.InboundTypeMsg, proto.MsgData{
			Room: "lobby", Content: fmt.Sprintf("msg %d", i),
		})
		readEvent(t, ctx, connA, proto.EventMessage)
	}

	tokenB := registerUser(t, srv, "bob")
	connB := dialWS(t, ctx, srv, tokenB)
	send(t, ctx, connB, proto.InboundTypeJoin, proto.JoinData{Room: "lobby"})

	data := readEvent(t, ctx, connB, proto.EventHistory)
	var history []proto.MessageEvent
	if err := json.Unmarshal(data, &history); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history messages, got %d", len(history))
	}
	if history[0].Content != "msg 0" || history[2].Content != "msg 2" {
		t.Fatalf("history not oldest first: %+v", history)
	}
}

func TestWSSendWithoutJoinRejected(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	token := registerUser(t, srv, "alice")
	conn := dialWS(t, ctx, srv, token)

	send(t, ctx, conn, proto.InboundTypeMsg, proto.MsgData{Room: "lobby", Content: "hello"})

	protoErr := readError(t, ctx, conn)
	if protoErr.Code != "forbidden" {
		t.Fatalf("expected forbidden, got %q", protoErr.Code)
	}

	// The error did not tear down the connection.
	send(t, ctx, conn, proto.InboundTypeJoin, proto.JoinData{Room: "lobby"})
	readEvent(t, ctx, conn, proto.EventUserJoined)
}

func TestWSSignalRelay(t *testing.T) {
	srv := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tokenA := registerUser(t, srv, "alice")
	tokenB := registerUser(t, srv, "bob")

	idA := userIDFromToken(t, srv, tokenA)
	idB := userIDFromToken(t, srv, tokenB)

	connA := dialWS(t, ctx, srv, tokenA)
	connB := dialWS(t, ctx, srv, tokenB)

	// Make sure B is admitted before A targets it.
	for {
		data := readEvent(t, ctx, connA, proto.EventPresenceChanged)
		var presence proto.PresenceEvent
		if err := json.Unmarshal(data, &presence); err != nil {
			t.Fatalf("decode presence event: %v", err)
		}
		if presence.UserID == idB {
			break
		}
	}

	payload := json.RawMessage(`{"sdp":"offer"}`)
	send(t, ctx, connA, proto.InboundTypeSignal, proto.SignalData{ToUserID: idB, Payload: payload})

	data := readEvent(t, ctx, connB, proto.EventSignal)
	var sig proto.SignalEvent
	if err := json.Unmarshal(data, &sig); err != nil {
		t.Fatalf("decode signal event: %v", err)
	}
	if sig.FromUserID != idA {
		t.Fatalf("expected sender %s, got %s", idA, sig.FromUserID)
	}
	if string(sig.Payload) != `{"sdp":"offer"}` {
		t.Fatalf("payload not relayed verbatim: %s", sig.Payload)
	}
}

func userIDFromToken(t *testing.T, srv *testServer, token string) string {
	t.Helper()
	identity, err := srv.auth.Resolve(context.Background(), token)
	if err != nil {
		t.Fatalf("resolve token: %v", err)
	}
	return identity.UserID
}
