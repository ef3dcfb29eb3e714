package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a document with the given ID does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrConflict is returned when an update carries a stale revision token.
	// Callers may re-read and retry.
	ErrConflict = errors.New("revision conflict")
)

// User represents a platform account.
type User struct {
	ID           string
	Rev          string
	Username     string
	DisplayName  string
	Avatar       string
	PasswordHash string
	CreatedAt    time.Time
}

// ChatMessage is a persisted room message. The store assigns ID, Rev and
// CreatedAt; client-supplied timestamps are never trusted.
type ChatMessage struct {
	ID          string
	Rev         string
	RoomID      string
	SenderID    string
	Content     string
	Attachments []string
	CreatedAt   time.Time
}

// SessionStatus defines the lifecycle state of a call session.
type SessionStatus string

const (
	SessionStatusPending SessionStatus = "pending"
	SessionStatusActive  SessionStatus = "active"
	SessionStatusEnded   SessionStatus = "ended"
)

// CallSession is the durable record of a peer-to-peer call.
type CallSession struct {
	ID         string
	Rev        string
	CallerID   string
	ReceiverID string
	Status     SessionStatus
	RoomID     string
	CreatedAt  time.Time
}

// Participant reports whether userID is the caller or receiver of the session.
func (s *CallSession) Participant(userID string) bool {
	return userID == s.CallerID || userID == s.ReceiverID
}

// Other returns the participant that is not userID. Callers must check
// Participant first.
func (s *CallSession) Other(userID string) string {
	if userID == s.CallerID {
		return s.ReceiverID
	}
	return s.CallerID
}

// UserStore handles account persistence.
type UserStore interface {
	// CreateUser persists a new user, assigning ID and Rev.
	CreateUser(ctx context.Context, user *User) error

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id string) (*User, error)

	// GetUserByUsername retrieves a user by username.
	GetUserByUsername(ctx context.Context, username string) (*User, error)
}

// MessageStore handles chat message persistence.
type MessageStore interface {
	// CreateMessage persists a message, assigning ID, Rev and the server
	// timestamp.
	CreateMessage(ctx context.Context, msg *ChatMessage) error

	// GetMessage retrieves a message by ID.
	GetMessage(ctx context.Context, id string) (*ChatMessage, error)

	// ListMessages retrieves messages from a room, newest first.
	// If beforeID is non-empty, returns messages created before that message.
	ListMessages(ctx context.Context, roomID string, limit int, beforeID string) ([]*ChatMessage, error)
}

// SessionStore handles call session persistence.
type SessionStore interface {
	// CreateSession persists a new call session, assigning Rev.
	CreateSession(ctx context.Context, session *CallSession) error

	// GetSession retrieves a session by ID.
	GetSession(ctx context.Context, id string) (*CallSession, error)

	// UpdateSession writes the session back. The session's Rev must match
	// the stored revision; a stale Rev fails with ErrConflict. On success
	// the session carries the freshly assigned Rev.
	UpdateSession(ctx context.Context, session *CallSession) error

	// DeleteSession removes a session. Unknown IDs are a no-op.
	DeleteSession(ctx context.Context, id string) error

	// FindStaleSessions returns sessions that have ended or were created
	// before the cutoff.
	FindStaleSessions(ctx context.Context, cutoff time.Time) ([]*CallSession, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	UserStore
	MessageStore
	SessionStore

	// Close closes the underlying database connection.
	Close() error
}
