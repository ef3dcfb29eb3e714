package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/Mutua-sr/apptwo-sub001/internal/store"
)

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	body := bytes.NewBufferString(`{"username":"alice","password":"password123","display_name":"Alice"}`)
	resp, err := http.Post(srv.ts.URL+"/api/register", "application/json", body)
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if authResp.Token == "" {
		t.Fatal("expected a token")
	}

	login, err := http.Post(srv.ts.URL+"/api/login", "application/json",
		bytes.NewBufferString(`{"username":"alice","password":"wrong"}`))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer login.Body.Close()
	if login.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", login.StatusCode)
	}
}

func TestPresenceEndpointRequiresAuth(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.ts.URL + "/api/presence/u1")
	if err != nil {
		t.Fatalf("presence request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	token, err := srv.auth.Register(context.Background(), "alice", "password123", "")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	req, _ := http.NewRequest(http.MethodGet, srv.ts.URL+"/api/presence/u1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	authResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized presence request: %v", err)
	}
	defer authResp.Body.Close()
	if authResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", authResp.StatusCode)
	}

	var presence PresenceResponse
	if err := json.NewDecoder(authResp.Body).Decode(&presence); err != nil {
		t.Fatalf("decode presence: %v", err)
	}
	if presence.Status != "offline" {
		t.Fatalf("expected offline for unknown user, got %s", presence.Status)
	}
}

func TestAdminCleanupEndpoint(t *testing.T) {
	srv := newTestServer(t)
	ctx := context.Background()

	// Unauthorized without the admin token.
	resp, err := http.Post(srv.ts.URL+"/api/admin/cleanup", "application/json", nil)
	if err != nil {
		t.Fatalf("cleanup request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 without admin token, got %d", resp.StatusCode)
	}

	// Seed one ended session.
	session := &store.CallSession{
		ID: "s1", CallerID: "a", ReceiverID: "b",
		Status: store.SessionStatusEnded, RoomID: "call:s1",
		CreatedAt: time.Now().UTC(),
	}
	if err := srv.store.CreateSession(ctx, session); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req, _ := http.NewRequest(http.MethodPost, srv.ts.URL+"/api/admin/cleanup", nil)
	req.Header.Set("Authorization", "Bearer "+testAdminToken)
	authResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("authorized cleanup request: %v", err)
	}
	defer authResp.Body.Close()
	if authResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", authResp.StatusCode)
	}

	var cleanup CleanupResponse
	if err := json.NewDecoder(authResp.Body).Decode(&cleanup); err != nil {
		t.Fatalf("decode cleanup: %v", err)
	}
	if cleanup.Deleted != 1 {
		t.Fatalf("expected 1 deleted session, got %d", cleanup.Deleted)
	}

	if _, err := srv.store.GetSession(ctx, "s1"); err == nil {
		t.Fatal("session survived the sweep")
	}
}
