package calls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/core"
	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

// Common errors for call session operations.
var (
	// ErrUnauthorized is returned when the caller is not a known identity.
	ErrUnauthorized = errors.New("caller is not an authenticated identity")
	// ErrSessionNotFound is returned when the session does not exist.
	ErrSessionNotFound = errors.New("call session not found")
	// ErrNotParticipant is returned when the acting user is neither caller
	// nor receiver of the session.
	ErrNotParticipant = errors.New("not a participant of this call session")
	// ErrBadStatus is returned for a status outside the known set.
	ErrBadStatus = errors.New("unknown call session status")
)

// Notifier delivers events to a user's live connections. Implemented by the
// core hub; a user with zero connections is a silent no-op.
type Notifier interface {
	UnicastToUser(userID string, ev *core.Event)
}

// IdentityChecker verifies that a user identity exists.
type IdentityChecker interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// Service owns the call-session state machine: it authorizes transitions,
// notifies the other participant, and sweeps stale sessions. The document
// store is the system of record and this service is its only writer.
type Service struct {
	store     store.SessionStore
	notifier  Notifier
	identity  IdentityChecker
	retention time.Duration
	log       *zerolog.Logger
}

// New constructs the call session service. retention bounds how long
// non-ended sessions may live before the cleanup sweep removes them.
func New(st store.SessionStore, notifier Notifier, identity IdentityChecker, retention time.Duration, logger *zerolog.Logger) *Service {
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	return &Service{
		store:     st,
		notifier:  notifier,
		identity:  identity,
		retention: retention,
		log:       logger,
	}
}

// CreateSession allocates a pending session with a fresh signaling room,
// persists it, and notifies the receiver's connections.
func (s *Service) CreateSession(ctx context.Context, callerID, receiverID string) (*store.CallSession, error) {
	ok, err := s.identity.Exists(ctx, callerID)
	if err != nil {
		return nil, fmt.Errorf("check caller identity: %w", err)
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	id := uuid.New().String()
	session := &store.CallSession{
		ID:         id,
		CallerID:   callerID,
		ReceiverID: receiverID,
		Status:     store.SessionStatusPending,
		RoomID:     "call:" + id,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("persist call session: %w", err)
	}

	s.log.Info().
		Str("session_id", session.ID).
		Str("caller_id", callerID).
		Str("receiver_id", receiverID).
		Msg("call session created")

	s.notifier.UnicastToUser(receiverID, &core.Event{
		Kind: core.EventIncomingCall,
		Call: callEvent(session),
	})
	return session, nil
}

// UpdateStatus persists a status transition requested by a participant and
// notifies the other participant only. Any participant may set any status;
// no transition graph is enforced. A revision conflict from the store is
// surfaced as-is and is retryable by the caller.
func (s *Service) UpdateStatus(ctx context.Context, sessionID string, status store.SessionStatus, actingUserID string) (*store.CallSession, error) {
	switch status {
	case store.SessionStatusPending, store.SessionStatusActive, store.SessionStatusEnded:
	default:
		return nil, ErrBadStatus
	}

	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load call session: %w", err)
	}
	if !session.Participant(actingUserID) {
		return nil, ErrNotParticipant
	}

	session.Status = status
	if err := s.store.UpdateSession(ctx, session); err != nil {
		// store.ErrConflict propagates untouched: the other participant
		// raced us and the caller may re-read and retry.
		return nil, err
	}

	s.log.Info().
		Str("session_id", session.ID).
		Str("status", string(status)).
		Str("by", actingUserID).
		Msg("call session status changed")

	s.notifier.UnicastToUser(session.Other(actingUserID), &core.Event{
		Kind: core.EventCallStatusChanged,
		Call: callEvent(session),
	})
	return session, nil
}

// EndSession marks the session ended and additionally notifies the other
// participant that the call is over.
func (s *Service) EndSession(ctx context.Context, sessionID, actingUserID string) error {
	session, err := s.UpdateStatus(ctx, sessionID, store.SessionStatusEnded, actingUserID)
	if err != nil {
		return err
	}

	s.notifier.UnicastToUser(session.Other(actingUserID), &core.Event{
		Kind: core.EventCallEnded,
		Call: callEvent(session),
	})
	return nil
}

// CleanupSessions deletes every session that has ended or outlived the
// retention window and reports the count removed. Scheduling is the caller's
// concern; running it again with no new sessions deletes nothing.
func (s *Service) CleanupSessions(ctx context.Context) (int, error) {
	cutoff := time.Now().UTC().Add(-s.retention)
	stale, err := s.store.FindStaleSessions(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find stale sessions: %w", err)
	}

	deleted := 0
	for _, session := range stale {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil {
			return deleted, fmt.Errorf("delete session %s: %w", session.ID, err)
		}
		deleted++
	}

	if deleted > 0 {
		s.log.Info().Int("deleted", deleted).Msg("stale call sessions removed")
	}
	return deleted, nil
}

func callEvent(session *store.CallSession) *core.CallEvent {
	return &core.CallEvent{
		SessionID:  session.ID,
		CallerID:   session.CallerID,
		ReceiverID: session.ReceiverID,
		Status:     string(session.Status),
		Room:       session.RoomID,
		CreatedAt:  session.CreatedAt,
	}
}
