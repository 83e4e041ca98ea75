package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainsphere/consolekit/internal/apperr"
)

func newTestClient(server *httptest.Server) *Client {
	return NewClient(server.URL, WithLogger(discardLogger()))
}

func TestClient_Login(t *testing.T) {
	var gotBody LoginRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(AuthResponse{
			Token: "tok-1",
			User:  User{ID: "7", Name: "Pat Lee", Email: "pat@acme.io", Role: "Manager"},
		})
	}))
	defer server.Close()

	resp, err := newTestClient(server).Login(context.Background(), "pat@acme.io", "hunter2")
	require.NoError(t, err)

	assert.Equal(t, LoginRequest{Email: "pat@acme.io", Password: "hunter2"}, gotBody)
	assert.Equal(t, "tok-1", resp.Token)
	assert.Equal(t, "Pat Lee", resp.User.Name)
}

func TestClient_Login_InvalidCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(ErrorResponse{Error: "bad credentials"})
	}))
	defer server.Close()

	_, err := newTestClient(server).Login(context.Background(), "pat@acme.io", "wrong")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeInvalidCredentials), "got %v", err)
}

func TestClient_Register(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/register", r.URL.Path)

		var req RegisterRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "trainee", req.Role)

		json.NewEncoder(w).Encode(AuthResponse{Token: "tok-new", User: User{ID: "9", Name: req.Name}})
	}))
	defer server.Close()

	resp, err := newTestClient(server).Register(context.Background(), RegisterRequest{
		Name: "Sam Roe", Email: "sam@acme.io", Password: "hunter2", Role: "trainee",
	})
	require.NoError(t, err)
	assert.Equal(t, "tok-new", resp.Token)
}

func TestClient_RefreshToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/refresh", r.URL.Path)
		assert.Equal(t, "WS1", r.Header.Get("X-WORKSPACE-ID"))

		w.Write([]byte("raw-token-string\n"))
	}))
	defer server.Close()

	token, err := newTestClient(server).RefreshToken(context.Background(), "WS1")
	require.NoError(t, err)
	assert.Equal(t, "raw-token-string", token, "raw body, trimmed")
}

func TestClient_RefreshToken_NoWorkspaceOmitsHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Workspace-Id"]
		assert.False(t, present)
		w.Write([]byte("tok"))
	}))
	defer server.Close()

	_, err := newTestClient(server).RefreshToken(context.Background(), "")
	require.NoError(t, err)
}

func TestClient_RefreshToken_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "http error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
			},
		},
		{
			name: "empty body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("   \n"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			_, err := newTestClient(server).RefreshToken(context.Background(), "")
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, apperr.CodeRefreshNetwork), "got %v", err)
		})
	}
}

func TestClient_RefreshToken_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // shut down before the call

	_, err := newTestClient(server).RefreshToken(context.Background(), "")
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeRefreshNetwork))
}

func TestClient_Me_ThroughPipeline(t *testing.T) {
	var authHeaders []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/users/me", r.URL.Path)
		authHeaders = append(authHeaders, r.Header.Get("Authorization"))
		if len(authHeaders) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(User{ID: "7", Name: "Pat Lee"})
	}))
	defer server.Close()

	client := newTestClient(server)
	client.BindSession(&fakeSession{token: "stale", refreshed: "fresh"})

	user, err := client.Me(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Pat Lee", user.Name)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, authHeaders)
}
