// Package testutil provides an HTTP test double for the Pet Manager API.
package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Request is a request received by MockServer.
type Request struct {
	Method        string
	Path          string
	RawQuery      string
	Authorization string
	ContentType   string
	Body          []byte
}

// MockServer provides a test HTTP server for API mocking. Handlers are keyed
// by "METHOD /path"; unmatched requests get 404.
type MockServer struct {
	server   *httptest.Server
	handlers map[string]http.HandlerFunc
	requests []Request
	mu       sync.RWMutex
}

// NewMockServer creates a new mock server.
func NewMockServer() *MockServer {
	ms := &MockServer{
		handlers: make(map[string]http.HandlerFunc),
	}

	ms.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path

		ms.mu.Lock()
		ms.requests = append(ms.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			RawQuery:      r.URL.RawQuery,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			Body:          body,
		})
		handler, ok := ms.handlers[key]
		ms.mu.Unlock()

		if ok {
			r.Body = io.NopCloser(bytes.NewReader(body))
			handler(w, r)
			return
		}

		http.NotFound(w, r)
	}))

	return ms
}

// URL returns the server's base URL.
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// Close shuts down the server.
func (ms *MockServer) Close() {
	ms.server.Close()
}

// Handle registers a custom handler for a method+path.
func (ms *MockServer) Handle(method, path string, handler http.HandlerFunc) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers[method+" "+path] = handler
}

// HandleJSON registers a handler that returns JSON with the given status.
func (ms *MockServer) HandleJSON(method, path string, status int, response interface{}) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if response != nil {
			_ = json.NewEncoder(w).Encode(response)
		}
	})
}

// HandleError registers a handler that returns an API error body.
func (ms *MockServer) HandleError(method, path string, status int, message string) {
	ms.HandleJSON(method, path, status, map[string]interface{}{
		"timestamp": "2026-01-01T00:00:00Z",
		"status":    status,
		"error":     http.StatusText(status),
		"message":   message,
		"path":      path,
	})
}

// HandleBearer registers a handler that answers 200 with response when the
// request carries "Bearer <token>" and 401 otherwise.
func (ms *MockServer) HandleBearer(method, path, token string, response interface{}) {
	ms.Handle(method, path, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response)
	})
}

// Requests returns the requests received so far, oldest first.
func (ms *MockServer) Requests() []Request {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return append([]Request(nil), ms.requests...)
}

// LastRequest returns the most recent request, or false if none arrived.
func (ms *MockServer) LastRequest() (Request, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	if len(ms.requests) == 0 {
		return Request{}, false
	}
	return ms.requests[len(ms.requests)-1], true
}

// Reset clears all registered handlers and recorded requests.
func (ms *MockServer) Reset() {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.handlers = make(map[string]http.HandlerFunc)
	ms.requests = nil
}
