package core

// Identity is a resolved user identity, bound to a connection exactly once
// at setup time.
type Identity struct {
	UserID      string
	DisplayName string
	Avatar      string
}

// Client is one live transport connection as seen by the core layer.
// Its identity is immutable for the connection's lifetime; the joined-rooms
// set is mutated only by the Hub under its lock.
type Client struct {
	ID       string
	Identity Identity
	Events   chan *Event

	rooms map[string]struct{}
}

// NewClient constructs a client with an initialized event channel.
func NewClient(connID string, identity Identity) *Client {
	return &Client{
		ID:       connID,
		Identity: identity,
		Events:   make(chan *Event, 16),
		rooms:    make(map[string]struct{}),
	}
}

// Deliver queues an event for this connection without blocking. Slow
// consumers drop events rather than stall the sender.
func (c *Client) Deliver(ev *Event) {
	select {
	case c.Events <- ev:
	default:
	}
}
