package petapi

import (
	"context"
	"net/http"

	"github.com/salmonumbrella/petadm/internal/session"
)

// Authentication endpoints. The pipeline never authorizes or retries these.
const (
	LoginPath   = "/autenticacao/login"
	RefreshPath = "/autenticacao/refresh"
)

var _ session.AuthAPI = (*Client)(nil)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges username and password for a token pair.
func (c *Client) Login(ctx context.Context, username, password string) (*session.Tokens, error) {
	var tokens session.Tokens
	err := c.doJSON(ctx, http.MethodPost, LoginPath, nil, loginRequest{Username: username, Password: password}, &tokens)
	if err != nil {
		return nil, err
	}
	return &tokens, nil
}

// Refresh exchanges refreshToken for a new token pair. The refresh token is
// sent as the bearer credential of this single call; the body is empty.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*session.Tokens, error) {
	requestURL := c.baseURL + RefreshPath
	resp, err := c.do(ctx, http.MethodPut, requestURL, nil, "", map[string]string{
		"Authorization": "Bearer " + refreshToken,
	})
	if err != nil {
		return nil, wrapContext(http.MethodPut, requestURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var tokens session.Tokens
	if err := decodeBody(resp.Body, &tokens); err != nil {
		return nil, wrapContext(http.MethodPut, requestURL, err)
	}
	return &tokens, nil
}
