package testutil

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestMockServer_HandleJSON(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	response := map[string]interface{}{"id": 7, "nome": "Rex"}
	ms.HandleJSON("GET", "/v1/pets/7", http.StatusOK, response)

	resp, err := http.Get(ms.URL() + "/v1/pets/7")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	var result map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if result["nome"] != "Rex" {
		t.Errorf("expected nome Rex, got %v", result["nome"])
	}
}

func TestMockServer_HandleError(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleError("GET", "/v1/pets/99", http.StatusNotFound, "Pet não encontrado")

	resp, err := http.Get(ms.URL() + "/v1/pets/99")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Pet não encontrado") {
		t.Errorf("expected message in body: %s", body)
	}
}

func TestMockServer_HandleBearer(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleBearer("GET", "/v1/tutores", "A1", map[string]int{"total": 0})

	resp, err := http.Get(ms.URL() + "/v1/tutores")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", resp.StatusCode)
	}

	req, _ := http.NewRequest("GET", ms.URL()+"/v1/tutores", nil)
	req.Header.Set("Authorization", "Bearer A1")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", resp.StatusCode)
	}
}

func TestMockServer_RecordsRequests(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleJSON("POST", "/v1/pets", http.StatusCreated, nil)

	resp, err := http.Post(ms.URL()+"/v1/pets?x=1", "application/json", strings.NewReader(`{"nome":"Rex"}`))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	last, ok := ms.LastRequest()
	if !ok {
		t.Fatal("expected a recorded request")
	}
	if last.Method != "POST" || last.Path != "/v1/pets" || last.RawQuery != "x=1" {
		t.Errorf("unexpected request line: %+v", last)
	}
	if string(last.Body) != `{"nome":"Rex"}` {
		t.Errorf("unexpected body %q", last.Body)
	}
	if last.ContentType != "application/json" {
		t.Errorf("unexpected content type %q", last.ContentType)
	}
}

func TestMockServer_NotFound(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	resp, err := http.Get(ms.URL() + "/nonexistent")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
	if len(ms.Requests()) != 1 {
		t.Errorf("expected 1 recorded request, got %d", len(ms.Requests()))
	}
}

func TestMockServer_Reset(t *testing.T) {
	ms := NewMockServer()
	defer ms.Close()

	ms.HandleJSON("GET", "/v1/pets", http.StatusOK, map[string]string{})
	resp, err := http.Get(ms.URL() + "/v1/pets")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	ms.Reset()

	resp, err = http.Get(ms.URL() + "/v1/pets")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after reset, got %d", resp.StatusCode)
	}
	if len(ms.Requests()) != 1 {
		t.Errorf("expected only the post-reset request, got %d", len(ms.Requests()))
	}
}
