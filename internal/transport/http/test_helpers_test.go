package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mutua-sr/apptwo-sub001/internal/auth"
	"github.com/Mutua-sr/apptwo-sub001/internal/calls"
	"github.com/Mutua-sr/apptwo-sub001/internal/config"
	"github.com/Mutua-sr/apptwo-sub001/internal/core"
	"github.com/Mutua-sr/apptwo-sub001/internal/store/sqlite"
)

const testAdminToken = "admin-secret"

type testServer struct {
	ts    *httptest.Server
	auth  *auth.Service
	calls *calls.Service
	store *sqlite.SQLiteStore
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	logger := zerolog.New(nil)
	jwtConfig := &auth.JWTConfig{
		Secret:   []byte("test-secret"),
		Issuer:   "apptwo",
		Audience: "apptwo-clients",
		TTL:      time.Hour,
	}
	authService := auth.NewService(st, jwtConfig)

	hub := core.NewHub(core.NewRegistry(), core.NewPresenceTracker(), &logger)
	messages := core.NewMessageRelay(st, hub, &logger)
	signals := core.NewSignalRelay(hub)
	callService := calls.New(st, hub, authService, 24*time.Hour, &logger)

	cfg := config.Default()
	cfg.AdminToken = testAdminToken

	server := NewServer(Deps{
		Hub:      hub,
		Messages: messages,
		Signals:  signals,
		Calls:    callService,
		Auth:     authService,
		Resolver: authService,
	}, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return &testServer{ts: ts, auth: authService, calls: callService, store: st}
}
