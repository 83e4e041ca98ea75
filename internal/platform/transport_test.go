package platform

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainsphere/consolekit/internal/apperr"
	"github.com/trainsphere/consolekit/internal/log"
)

func discardLogger() *log.Logger {
	return log.New(log.Config{Level: log.LevelError, Format: log.FormatJSON, Output: io.Discard})
}

// fakeSession is a minimal Session for pipeline tests.
type fakeSession struct {
	mu           sync.Mutex
	token        string
	refreshed    string
	refreshErr   error
	refreshCalls int
	loggedOut    bool
}

func (f *fakeSession) Token() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.token
}

func (f *fakeSession) Refresh(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshCalls++
	if f.refreshErr != nil {
		return "", f.refreshErr
	}
	f.token = f.refreshed
	return f.refreshed, nil
}

func (f *fakeSession) Logout() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = true
	f.token = ""
}

func pipelineClient(server *httptest.Server, session Session) *http.Client {
	return &http.Client{Transport: NewTransport(nil, session, discardLogger())}
}

func TestTransport_AttachesBearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer server.Close()

	client := pipelineClient(server, &fakeSession{token: "tok-1"})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "Bearer tok-1", gotAuth)
}

func TestTransport_NoTokenProceedsUnauthenticated(t *testing.T) {
	var sawAuthHeader bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, sawAuthHeader = r.Header["Authorization"]
	}))
	defer server.Close()

	client := pipelineClient(server, &fakeSession{})
	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.False(t, sawAuthHeader)
}

func TestTransport_401RefreshAndRetryOnce(t *testing.T) {
	var requests []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests = append(requests, r.Header.Get("Authorization"))
		if len(requests) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	session := &fakeSession{token: "stale", refreshed: "fresh"}
	client := pipelineClient(server, session)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []string{"Bearer stale", "Bearer fresh"}, requests)
	assert.Equal(t, 1, session.refreshCalls)
	assert.False(t, session.loggedOut)
}

func TestTransport_SecondUnauthorizedSurfaces(t *testing.T) {
	var hits int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	session := &fakeSession{token: "stale", refreshed: "fresh"}
	client := pipelineClient(server, session)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, "second 401 is the caller's problem")
	assert.Equal(t, 2, hits, "retried exactly once, never loops")
	assert.Equal(t, 1, session.refreshCalls)
}

func TestTransport_RefreshFailureLogsOutAndErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	session := &fakeSession{
		token:      "stale",
		refreshErr: apperr.Wrap(apperr.CodeRefreshNetwork, "refresh request failed", errors.New("down"), nil),
	}
	client := pipelineClient(server, session)

	_, err := client.Get(server.URL)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeUnauthorizedRequest), "got %v", err)
	assert.True(t, session.loggedOut)
}

func TestTransport_RetryReplaysRequestBody(t *testing.T) {
	var bodies []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(body))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	session := &fakeSession{token: "stale", refreshed: "fresh"}
	client := pipelineClient(server, session)

	resp, err := client.Post(server.URL, "application/json", strings.NewReader(`{"name":"plan"}`))
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, []string{`{"name":"plan"}`, `{"name":"plan"}`}, bodies)
}

func TestTransport_DoesNotMutateCallerRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	req, err := http.NewRequest(http.MethodGet, server.URL, nil)
	require.NoError(t, err)

	client := pipelineClient(server, &fakeSession{token: "tok"})
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Empty(t, req.Header.Get("Authorization"))
}
