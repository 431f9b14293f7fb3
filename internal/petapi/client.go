// Package petapi is the HTTP client for the Pet Manager API.
//
// The client itself never attaches credentials: the login call carries the
// user's password, the refresh call carries the refresh token, and every other
// call is authorized by the pipeline transport installed in its http.Client.
package petapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	ctxerrors "github.com/salmonumbrella/petadm/internal/errors"
)

const (
	// DefaultBaseURL is the public Pet Manager API.
	DefaultBaseURL = "https://pet-manager-api.geia.vip"
	// RequestIDHeader correlates a CLI request with server-side logs.
	RequestIDHeader = "X-Request-Id"
	defaultTimeout = 30 * time.Second
)

// Client is the Pet Manager API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for baseURL. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// WithHTTPClient sets a custom HTTP client, typically one whose transport is
// the authorization pipeline.
func (c *Client) WithHTTPClient(client *http.Client) *Client {
	c.httpClient = client
	return c
}

// WithBaseURL sets a custom base URL (useful for testing)
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// doJSON sends body (if any) as JSON and decodes the response into result (if any).
func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, body, result interface{}) error {
	var reqBody io.Reader
	contentType := ""
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonData)
		contentType = "application/json"
	}

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	resp, err := c.do(ctx, method, requestURL, reqBody, contentType, nil)
	if err != nil {
		return wrapContext(method, requestURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := decodeBody(resp.Body, result); err != nil {
		return ctxerrors.WrapContext(method, requestURL, resp.StatusCode, err)
	}
	return nil
}

// doMultipart uploads file as the form field fieldName.
func (c *Client) doMultipart(ctx context.Context, path, fieldName string, file io.Reader, filename, contentType string, result interface{}) error {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// Create form part with correct content type (not application/octet-stream default)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, fieldName, filename))
	if contentType != "" {
		h.Set("Content-Type", contentType)
	} else {
		h.Set("Content-Type", "application/octet-stream")
	}
	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("failed to create form part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}

	requestURL := c.baseURL + path
	resp, err := c.do(ctx, http.MethodPost, requestURL, &buf, writer.FormDataContentType(), nil)
	if err != nil {
		return wrapContext(http.MethodPost, requestURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := decodeBody(resp.Body, result); err != nil {
		return ctxerrors.WrapContext(http.MethodPost, requestURL, resp.StatusCode, err)
	}
	return nil
}

// do performs a single request and turns error statuses into *APIError.
func (c *Client) do(ctx context.Context, method, requestURL string, body io.Reader, contentType string, extraHeaders map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for key, value := range extraHeaders {
		req.Header.Set(key, value)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	slog.Debug("api request", "method", method, "url", requestURL, "status", resp.StatusCode,
		"request_id", requestID, "duration", time.Since(start).String())

	if resp.StatusCode >= 400 {
		defer func() { _ = resp.Body.Close() }()
		return nil, newAPIError(resp)
	}

	return resp, nil
}

func decodeBody(r io.Reader, result interface{}) error {
	if result == nil {
		_, _ = io.Copy(io.Discard, r)
		return nil
	}
	if raw, ok := result.(*json.RawMessage); ok {
		data, err := io.ReadAll(r)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(r).Decode(result); err != nil {
		if errors.Is(err, io.EOF) {
			// 201/204 responses may have no body
			return nil
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// getStatusCode extracts the HTTP status code from an error if it's an APIError
func getStatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Raw sends an arbitrary request through the client's pipeline and returns the
// raw response body. body may be nil.
func (c *Client) Raw(ctx context.Context, method, path string, body []byte) (json.RawMessage, error) {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	var reqBody io.Reader
	contentType := ""
	if len(body) > 0 {
		reqBody = bytes.NewReader(body)
		contentType = "application/json"
	}

	requestURL := c.baseURL + path
	resp, err := c.do(ctx, strings.ToUpper(method), requestURL, reqBody, contentType, nil)
	if err != nil {
		return nil, wrapContext(method, requestURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var raw json.RawMessage
	if err := decodeBody(resp.Body, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

func wrapContext(method, requestURL string, err error) error {
	return ctxerrors.WrapContext(method, requestURL, getStatusCode(err), err)
}
