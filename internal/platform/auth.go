package platform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/trainsphere/consolekit/internal/apperr"
)

// User is the platform's wire representation of an account.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// AuthResponse is the login/register response envelope.
type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, c.httpClient, http.MethodPost, "/api/auth/login",
		LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeRefreshNetwork, "login request failed", err, nil)
	}

	var authResp AuthResponse
	if err := parseResponse(resp, &authResp); err != nil {
		return nil, mapAuthError(err, "login rejected")
	}
	return &authResp, nil
}

// Register creates a new account. The platform logs the account in as
// part of registration, so the response carries a token as well.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	resp, err := c.doRequest(ctx, c.httpClient, http.MethodPost, "/api/auth/register", req)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeRefreshNetwork, "register request failed", err, nil)
	}

	var authResp AuthResponse
	if err := parseResponse(resp, &authResp); err != nil {
		return nil, mapAuthError(err, "registration rejected")
	}
	return &authResp, nil
}

// RefreshToken calls the refresh endpoint with credentials (cookie jar)
// and the workspace header when a workspace is known. The response body
// is the raw token string, not a JSON envelope.
func (c *Client) RefreshToken(ctx context.Context, workspaceID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.RefreshURL, nil)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeRefreshNetwork, "failed to create refresh request", err, nil)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())
	if workspaceID != "" {
		req.Header.Set("X-WORKSPACE-ID", workspaceID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeRefreshNetwork, "refresh request failed", err, nil)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", apperr.New(apperr.CodeRefreshNetwork, "refresh endpoint rejected the request",
			map[string]any{"status": resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeRefreshNetwork, "failed to read refresh response", err, nil)
	}

	token := strings.TrimSpace(string(body))
	if token == "" {
		return "", apperr.New(apperr.CodeRefreshNetwork, "refresh endpoint returned an empty token", nil)
	}
	return token, nil
}

// Me retrieves the authenticated account through the request pipeline.
func (c *Client) Me(ctx context.Context) (*User, error) {
	resp, err := c.doRequest(ctx, c.api(), http.MethodGet, "/api/users/me", nil)
	if err != nil {
		return nil, err
	}

	var user User
	if err := parseResponse(resp, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// mapAuthError converts a 401 status into an invalid-credentials error;
// everything else passes through.
func mapAuthError(err error, message string) error {
	var status *statusError
	if errors.As(err, &status) && status.Status == http.StatusUnauthorized {
		return apperr.Wrap(apperr.CodeInvalidCredentials, message, err, nil)
	}
	return err
}
