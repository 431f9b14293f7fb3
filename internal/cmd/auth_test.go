package cmd

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	clierrors "github.com/salmonumbrella/petadm/internal/errors"
	"github.com/salmonumbrella/petadm/internal/petapi"
)

func TestAuthLogin_PasswordStdin(t *testing.T) {
	h := newHarness(t)
	h.server.HandleJSON(http.MethodPost, petapi.LoginPath, http.StatusOK, tokenResponse("A1", "R1"))
	h.stdin = "s3cret\n"

	if err := h.run("-o", "json", "auth", "login", "-u", "admin", "--password-stdin"); err != nil {
		t.Fatalf("login failed: %v\nstderr: %s", err, h.stderr.String())
	}

	req, ok := h.server.LastRequest()
	if !ok {
		t.Fatal("no request recorded")
	}
	if req.Authorization != "" {
		t.Errorf("login must not carry a bearer token, got %q", req.Authorization)
	}
	var body map[string]string
	if err := json.Unmarshal(req.Body, &body); err != nil {
		t.Fatalf("login body: %v", err)
	}
	if body["username"] != "admin" || body["password"] != "s3cret" {
		t.Errorf("unexpected login body %v", body)
	}

	if got := h.stored("access_token"); got != "A1" {
		t.Errorf("stored access token = %q, want A1", got)
	}
	if got := h.stored("refresh_token"); got != "R1" {
		t.Errorf("stored refresh token = %q, want R1", got)
	}

	out := h.decodeStdout(t)
	if out["authenticated"] != true || out["username"] != "admin" {
		t.Errorf("unexpected status output %v", out)
	}
	if !strings.Contains(h.stderr.String(), "Logged in as admin") {
		t.Errorf("expected success line on stderr, got %q", h.stderr.String())
	}
}

func TestAuthLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t)
	h.server.HandleError(http.MethodPost, petapi.LoginPath, http.StatusUnauthorized, "Bad credentials")
	h.stdin = "wrong"

	err := h.run("auth", "login", "-u", "admin", "--password-stdin")
	if err == nil {
		t.Fatal("expected login to fail")
	}
	if ExitCode(err) != ExitAuth {
		t.Errorf("ExitCode = %d, want %d", ExitCode(err), ExitAuth)
	}
	if h.store.Len() != 0 {
		t.Errorf("failed login must not store credentials, store has %d keys", h.store.Len())
	}
	if !strings.Contains(h.stderr.String(), "invalid username or password") {
		t.Errorf("unexpected stderr %q", h.stderr.String())
	}
}

func TestAuthLogin_RequiresUsernameWithoutTerminal(t *testing.T) {
	h := newHarness(t)
	h.stdin = "s3cret"

	err := h.run("auth", "login", "--password-stdin")
	if !clierrors.IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(h.server.Requests()) != 0 {
		t.Error("no request should be sent")
	}
}

func TestAuthLogin_NoTerminalNoPasswordStdin(t *testing.T) {
	h := newHarness(t)

	err := h.run("auth", "login", "-u", "admin")
	if !clierrors.IsUserError(err) {
		t.Fatalf("expected user error, got %v", err)
	}
	if !strings.Contains(h.stderr.String(), "--password-stdin") {
		t.Errorf("hint should mention --password-stdin, got %q", h.stderr.String())
	}
}

func TestAuthStatus(t *testing.T) {
	h := newHarness(t)

	if err := h.run("-o", "json", "auth", "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if out := h.decodeStdout(t); out["authenticated"] != false {
		t.Errorf("expected unauthenticated, got %v", out)
	}

	h.seedSession(t, "A1", "R1")
	if err := h.run("-o", "json", "auth", "status"); err != nil {
		t.Fatalf("status failed: %v", err)
	}
	out := h.decodeStdout(t)
	if out["authenticated"] != true || out["username"] != "admin" || out["refreshable"] != true {
		t.Errorf("unexpected status %v", out)
	}
	if strings.Contains(h.stdout.String(), "A1") || strings.Contains(h.stdout.String(), "R1") {
		t.Error("status must not print token values")
	}
}

func TestAuthLogout(t *testing.T) {
	h := newHarness(t)
	h.seedSession(t, "A1", "R1")

	if err := h.run("logout"); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if h.store.Len() != 0 {
		t.Errorf("logout should clear the store, %d keys left", h.store.Len())
	}
	if len(h.server.Requests()) != 0 {
		t.Error("logout should not call the API")
	}
}

func TestAuthRefresh(t *testing.T) {
	h := newHarness(t)
	h.seedSession(t, "A1", "R1")
	h.server.Handle(http.MethodPut, petapi.RefreshPath, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer R1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(tokenResponse("A2", "R2"))
	})

	if err := h.run("-o", "json", "auth", "refresh"); err != nil {
		t.Fatalf("refresh failed: %v\nstderr: %s", err, h.stderr.String())
	}
	if h.stored("access_token") != "A2" || h.stored("refresh_token") != "R2" {
		t.Errorf("store not updated: access=%q refresh=%q", h.stored("access_token"), h.stored("refresh_token"))
	}
	if out := h.decodeStdout(t); out["expires_in"] != float64(300) {
		t.Errorf("unexpected output %v", out)
	}
}

func TestAuthRefresh_Rejected(t *testing.T) {
	h := newHarness(t)
	h.seedSession(t, "A1", "R1")
	h.server.HandleError(http.MethodPut, petapi.RefreshPath, http.StatusUnauthorized, "Refresh token expired")

	err := h.run("auth", "refresh")
	if ExitCode(err) != ExitAuth {
		t.Fatalf("ExitCode = %d, want %d (err %v)", ExitCode(err), ExitAuth, err)
	}
	if h.store.Len() != 0 {
		t.Errorf("rejected refresh should end the session, %d keys left", h.store.Len())
	}
	if !strings.Contains(h.stderr.String(), "log in again") {
		t.Errorf("expected login hint, got %q", h.stderr.String())
	}
}

func TestAuthRefresh_NoRefreshToken(t *testing.T) {
	h := newHarness(t)
	if err := h.store.Set("access_token", "A1"); err != nil {
		t.Fatal(err)
	}

	err := h.run("auth", "refresh")
	if ExitCode(err) != ExitAuth {
		t.Fatalf("ExitCode = %d, want %d (err %v)", ExitCode(err), ExitAuth, err)
	}
	if len(h.server.Requests()) != 0 {
		t.Error("refresh without a refresh token must not reach the network")
	}
	if h.store.Len() != 0 {
		t.Errorf("session should be cleared, %d keys left", h.store.Len())
	}
	if !strings.Contains(h.stderr.String(), "Sua sessão expirou") {
		t.Errorf("expected the session-expired notice, got %q", h.stderr.String())
	}
}
