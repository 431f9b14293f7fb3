// Package debug traces HTTP traffic for --debug.
package debug

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/salmonumbrella/petadm/internal/pipeline"
)

const (
	maxRequestBody  = 500
	maxResponseBody = 1000
	redacted        = "[redacted]"
)

type contextKey struct{}

// WithDebug injects the debug flag into the context
func WithDebug(ctx context.Context, debug bool) context.Context {
	return context.WithValue(ctx, contextKey{}, debug)
}

// IsDebug returns true if debug mode is enabled in the context
func IsDebug(ctx context.Context) bool {
	if v, ok := ctx.Value(contextKey{}).(bool); ok {
		return v
	}
	return false
}

// DebugTransport wraps http.RoundTripper to trace requests and responses.
// Bearer tokens are shortened to their last four characters. Bodies of
// login and refresh calls carry credentials and are never printed.
type DebugTransport struct {
	Transport http.RoundTripper
	Output    io.Writer
}

// NewDebugTransport creates a new DebugTransport with the given base transport
// If output is nil, it defaults to os.Stderr
func NewDebugTransport(base http.RoundTripper, output io.Writer) *DebugTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	if output == nil {
		output = os.Stderr
	}
	return &DebugTransport{
		Transport: base,
		Output:    output,
	}
}

// RoundTrip implements http.RoundTripper
func (t *DebugTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	sensitive := pipeline.IsAuthEndpoint(req.URL)

	_, _ = fmt.Fprintf(t.Output, "\n--> %s %s\n", req.Method, req.URL)
	t.writeHeaders(req.Header)

	if req.Body != nil && req.Body != http.NoBody {
		bodyBytes, err := io.ReadAll(req.Body)
		_ = req.Body.Close()
		if err != nil {
			_, _ = fmt.Fprintf(t.Output, "    [ERROR reading request body: %v]\n", err)
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		t.writeBody(bodyBytes, sensitive, maxRequestBody)
	}

	resp, err := t.Transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		_, _ = fmt.Fprintf(t.Output, "<-- ERROR: %v (%s)\n\n", err, duration)
		return resp, err
	}

	_, _ = fmt.Fprintf(t.Output, "<-- %s (%s)\n", resp.Status, duration)
	t.writeHeaders(resp.Header)

	if resp.Body != nil {
		bodyBytes, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if readErr != nil {
			_, _ = fmt.Fprintf(t.Output, "    [ERROR reading response body: %v]\n\n", readErr)
			return nil, readErr
		}
		resp.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		t.writeBody(bodyBytes, sensitive, maxResponseBody)
	}

	_, _ = fmt.Fprintln(t.Output)
	return resp, nil
}

func (t *DebugTransport) writeHeaders(h http.Header) {
	keys := make([]string, 0, len(h))
	for key := range h {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		val := strings.Join(h[key], ", ")
		if key == "Authorization" {
			val = redactAuthorization(val)
		}
		_, _ = fmt.Fprintf(t.Output, "    %s: %s\n", key, val)
	}
}

func (t *DebugTransport) writeBody(body []byte, sensitive bool, limit int) {
	if len(body) == 0 {
		return
	}
	if sensitive {
		_, _ = fmt.Fprintf(t.Output, "    Body: %s (%d bytes)\n", redacted, len(body))
		return
	}
	bodyStr := string(body)
	if len(bodyStr) > limit {
		bodyStr = bodyStr[:limit] + "... [truncated]"
	}
	_, _ = fmt.Fprintf(t.Output, "    Body: %s\n", bodyStr)
}

// redactAuthorization keeps the scheme and, for long tokens, the last four
// characters.
func redactAuthorization(val string) string {
	token, ok := strings.CutPrefix(val, "Bearer ")
	if !ok {
		return redacted
	}
	if len(token) > 10 {
		return "Bearer ..." + token[len(token)-4:]
	}
	return "Bearer " + redacted
}
