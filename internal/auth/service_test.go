package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Mutua-sr/apptwo-sub001/internal/store/sqlite"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	cfg := &JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "apptwo",
		Audience: "apptwo-clients",
		TTL:      time.Hour,
	}
	return NewService(st, cfg)
}

func TestRegisterLoginResolve(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	token, err := svc.Register(ctx, "alice", "password123", "Alice")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	identity, err := svc.Resolve(ctx, token)
	if err != nil {
		t.Fatalf("resolve registered token: %v", err)
	}
	if identity.DisplayName != "Alice" || identity.UserID == "" {
		t.Fatalf("unexpected identity: %+v", identity)
	}

	loginToken, err := svc.Login(ctx, "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	loginIdentity, err := svc.Resolve(ctx, loginToken)
	if err != nil {
		t.Fatalf("resolve login token: %v", err)
	}
	if loginIdentity.UserID != identity.UserID {
		t.Fatalf("identity mismatch: %s != %s", loginIdentity.UserID, identity.UserID)
	}

	exists, err := svc.Exists(ctx, identity.UserID)
	if err != nil || !exists {
		t.Fatalf("expected identity to exist, got %v/%v", exists, err)
	}
	exists, err = svc.Exists(ctx, "ghost")
	if err != nil || exists {
		t.Fatalf("expected ghost to be unknown, got %v/%v", exists, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "ab", "password123", ""); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "short", ""); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "password123", ""); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := svc.Register(ctx, "alice", "password456", ""); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "password123", ""); err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestResolveRejectsBadTokens(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrAuthFailed) {
			t.Fatalf("token %q: expected ErrAuthFailed, got %v", token, err)
		}
	}

	// Token signed with a different secret.
	otherCfg := &JWTConfig{Secret: []byte("other"), Issuer: "apptwo", Audience: "apptwo-clients", TTL: time.Hour}
	token, err := GenerateToken(otherCfg, "u1", "Mallory", "")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := svc.Resolve(ctx, token); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed for foreign signature, got %v", err)
	}
}
