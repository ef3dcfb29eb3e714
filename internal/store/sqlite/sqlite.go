package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	rev           TEXT NOT NULL,
	username      TEXT NOT NULL UNIQUE,
	display_name  TEXT NOT NULL DEFAULT '',
	avatar        TEXT NOT NULL DEFAULT '',
	password_hash TEXT NOT NULL,
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id          TEXT PRIMARY KEY,
	rev         TEXT NOT NULL,
	room_id     TEXT NOT NULL,
	sender_id   TEXT NOT NULL,
	content     TEXT NOT NULL,
	attachments TEXT NOT NULL DEFAULT '',
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_room ON messages(room_id, created_at);

CREATE TABLE IF NOT EXISTS call_sessions (
	id          TEXT PRIMARY KEY,
	rev         TEXT NOT NULL,
	caller_id   TEXT NOT NULL,
	receiver_id TEXT NOT NULL,
	status      TEXT NOT NULL,
	room_id     TEXT NOT NULL,
	created_at  DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_call_sessions_status ON call_sessions(status, created_at);
`

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func newRev() string {
	return uuid.New().String()
}

// CreateUser persists a new user, assigning ID and Rev.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *store.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.Rev = newRev()
	user.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, rev, username, display_name, avatar, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Rev, user.Username, user.DisplayName, user.Avatar, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*store.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

// GetUserByUsername retrieves a user by username.
func (s *SQLiteStore) GetUserByUsername(ctx context.Context, username string) (*store.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *SQLiteStore) getUser(ctx context.Context, where string, arg any) (*store.User, error) {
	var u store.User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, rev, username, display_name, avatar, password_hash, created_at
		 FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Rev, &u.Username, &u.DisplayName, &u.Avatar, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select user: %w", err)
	}
	return &u, nil
}

// CreateMessage persists a message, assigning ID, Rev and the server timestamp.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.ChatMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	msg.Rev = newRev()
	msg.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, rev, room_id, sender_id, content, attachments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Rev, msg.RoomID, msg.SenderID, msg.Content,
		strings.Join(msg.Attachments, "\n"), msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*store.ChatMessage, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, rev, room_id, sender_id, content, attachments, created_at
		 FROM messages WHERE id = ?`, id)
	msg, err := scanMessage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select message: %w", err)
	}
	return msg, nil
}

// ListMessages retrieves messages from a room, newest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, roomID string, limit int, beforeID string) ([]*store.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, rev, room_id, sender_id, content, attachments, created_at
		 FROM messages WHERE room_id = ?`
	args := []any{roomID}

	if beforeID != "" {
		query += ` AND created_at < (SELECT created_at FROM messages WHERE id = ?)`
		args = append(args, beforeID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select messages: %w", err)
	}
	defer rows.Close()

	var msgs []*store.ChatMessage
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMessage(row scanner) (*store.ChatMessage, error) {
	var m store.ChatMessage
	var attachments string
	err := row.Scan(&m.ID, &m.Rev, &m.RoomID, &m.SenderID, &m.Content, &attachments, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	if attachments != "" {
		m.Attachments = strings.Split(attachments, "\n")
	}
	return &m, nil
}

// CreateSession persists a new call session, assigning Rev.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *store.CallSession) error {
	session.Rev = newRev()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO call_sessions (id, rev, caller_id, receiver_id, status, room_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		session.ID, session.Rev, session.CallerID, session.ReceiverID,
		session.Status, session.RoomID, session.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert call session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*store.CallSession, error) {
	var cs store.CallSession
	err := s.db.QueryRowContext(ctx,
		`SELECT id, rev, caller_id, receiver_id, status, room_id, created_at
		 FROM call_sessions WHERE id = ?`, id).
		Scan(&cs.ID, &cs.Rev, &cs.CallerID, &cs.ReceiverID, &cs.Status, &cs.RoomID, &cs.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select call session: %w", err)
	}
	return &cs, nil
}

// UpdateSession writes the session back, enforcing the revision check.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *store.CallSession) error {
	rev := newRev()
	res, err := s.db.ExecContext(ctx,
		`UPDATE call_sessions SET rev = ?, status = ? WHERE id = ? AND rev = ?`,
		rev, session.Status, session.ID, session.Rev)
	if err != nil {
		return fmt.Errorf("update call session: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		// Either the session is gone or the caller's revision is stale.
		if _, getErr := s.GetSession(ctx, session.ID); getErr != nil {
			return getErr
		}
		return store.ErrConflict
	}

	session.Rev = rev
	return nil
}

// DeleteSession removes a session. Unknown IDs are a no-op.
func (s *SQLiteStore) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM call_sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete call session: %w", err)
	}
	return nil
}

// FindStaleSessions returns sessions that have ended or were created before
// the cutoff.
func (s *SQLiteStore) FindStaleSessions(ctx context.Context, cutoff time.Time) ([]*store.CallSession, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rev, caller_id, receiver_id, status, room_id, created_at
		 FROM call_sessions WHERE status = ? OR created_at < ?`,
		store.SessionStatusEnded, cutoff.UTC())
	if err != nil {
		return nil, fmt.Errorf("select stale sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*store.CallSession
	for rows.Next() {
		var cs store.CallSession
		if err := rows.Scan(&cs.ID, &cs.Rev, &cs.CallerID, &cs.ReceiverID,
			&cs.Status, &cs.RoomID, &cs.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan call session: %w", err)
		}
		sessions = append(sessions, &cs)
	}
	return sessions, rows.Err()
}
