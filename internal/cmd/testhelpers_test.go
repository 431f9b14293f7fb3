package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/salmonumbrella/petadm/internal/config"
	"github.com/salmonumbrella/petadm/internal/credstore"
	"github.com/salmonumbrella/petadm/internal/testutil"
)

// cliHarness runs the CLI against a mock API with an in-memory store.
type cliHarness struct {
	server *testutil.MockServer
	store  *credstore.MemoryStore
	stdin  string
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness(t *testing.T) *cliHarness {
	t.Helper()

	dir := t.TempDir()
	orig := config.SetConfigPathFunc(func() (string, error) {
		return filepath.Join(dir, "config.yaml"), nil
	})
	t.Cleanup(func() { config.SetConfigPathFunc(orig) })
	t.Setenv(config.APIURLEnvVarName, "")
	t.Setenv("NO_COLOR", "1")

	server := testutil.NewMockServer()
	t.Cleanup(server.Close)

	return &cliHarness{
		server: server,
		store:  credstore.NewMemoryStore(),
	}
}

// run executes args with --api-url pointing at the mock server.
func (h *cliHarness) run(args ...string) error {
	h.stdout.Reset()
	h.stderr.Reset()

	app := NewApp()
	app.Stdout = &h.stdout
	app.Stderr = &h.stderr
	app.Stdin = strings.NewReader(h.stdin)
	app.Store = h.store

	return app.Execute(context.Background(), append([]string{"--api-url", h.server.URL()}, args...))
}

// seedSession stores a session as a previous login would have.
func (h *cliHarness) seedSession(t *testing.T, access, refresh string) {
	t.Helper()
	user, _ := json.Marshal(map[string]string{
		"username":     "admin",
		"accessToken":  access,
		"refreshToken": refresh,
	})
	for key, value := range map[string]string{
		credstore.KeyAccessToken:  access,
		credstore.KeyRefreshToken: refresh,
		credstore.KeyUser:         string(user),
	} {
		if err := h.store.Set(key, value); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}

func (h *cliHarness) stored(key string) string {
	v, _ := h.store.Get(key)
	return v
}

func (h *cliHarness) decodeStdout(t *testing.T) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(h.stdout.Bytes(), &out); err != nil {
		t.Fatalf("stdout is not a JSON object: %v\n%s", err, h.stdout.String())
	}
	return out
}

func tokenResponse(access, refresh string) map[string]interface{} {
	return map[string]interface{}{
		"access_token":       access,
		"refresh_token":      refresh,
		"expires_in":         300,
		"refresh_expires_in": 1800,
	}
}
