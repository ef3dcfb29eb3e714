package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

func newTestHub() *Hub {
	logger := zerolog.New(nil)
	return NewHub(NewRegistry(), NewPresenceTracker(), &logger)
}

func newTestClient(connID, userID string) *Client {
	return NewClient(connID, Identity{UserID: userID, DisplayName: userID})
}

func mustEvent(t *testing.T, ch <-chan *Event, kind EventKind) *Event {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-ch:
			if ev == nil {
				continue
			}
			if ev.Kind == kind {
				return ev
			}
		default:
			time.Sleep(10 * time.Millisecond)
		}
	}
	t.Fatalf("expected event kind %v not received", kind)
	return nil
}

// drainEvents empties the channel and returns how many events of the given
// kind were queued.
func drainEvents(ch <-chan *Event, kind EventKind) int {
	count := 0
	for {
		select {
		case ev := <-ch:
			if ev != nil && ev.Kind == kind {
				count++
			}
		default:
			return count
		}
	}
}

// fakeMessageStore implements store.MessageStore in memory.
type fakeMessageStore struct {
	mu      sync.Mutex
	nextID  int
	msgs    []*store.ChatMessage
	failing bool
}

func (f *fakeMessageStore) CreateMessage(_ context.Context, msg *store.ChatMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return errors.New("store down")
	}
	f.nextID++
	msg.ID = fmt.Sprintf("m%d", f.nextID)
	msg.Rev = fmt.Sprintf("r%d", f.nextID)
	msg.CreatedAt = time.Now().UTC()
	stored := *msg
	f.msgs = append(f.msgs, &stored)
	return nil
}

func (f *fakeMessageStore) GetMessage(_ context.Context, id string) (*store.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, m := range f.msgs {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeMessageStore) ListMessages(_ context.Context, roomID string, limit int, _ string) ([]*store.ChatMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.failing {
		return nil, errors.New("store down")
	}
	var out []*store.ChatMessage
	for i := len(f.msgs) - 1; i >= 0 && len(out) < limit; i-- {
		if f.msgs[i].RoomID == roomID {
			out = append(out, f.msgs[i])
		}
	}
	return out, nil
}

func (f *fakeMessageStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}
