package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trainsphere/consolekit/internal/log"
)

const defaultTimeout = 30 * time.Second

// Client is the training platform API client.
//
// It carries two HTTP clients: a plain credentialed one for the auth
// endpoints (login, register, refresh — these must never recurse into
// the 401-retry pipeline) and, once BindSession is called, a
// pipeline-wrapped one for everything else.
type Client struct {
	// BaseURL is the platform API root, without trailing slash
	BaseURL string

	// RefreshURL is the token refresh endpoint; defaults to
	// BaseURL + "/api/auth/refresh"
	RefreshURL string

	httpClient *http.Client
	apiClient  *http.Client
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithRefreshURL overrides the refresh endpoint.
func WithRefreshURL(url string) Option {
	return func(c *Client) { c.RefreshURL = url }
}

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// NewClient creates a platform API client. The cookie jar is shared by
// all requests so the refresh endpoint sees its credential cookie.
func NewClient(baseURL string, opts ...Option) *Client {
	jar, _ := cookiejar.New(nil)

	c := &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout, Jar: jar},
		logger:     log.DefaultLogger(),
	}
	c.RefreshURL = c.BaseURL + "/api/auth/refresh"

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BindSession wires the 401-retry pipeline around API calls, backed by
// the given session. Auth endpoint calls are unaffected.
func (c *Client) BindSession(session Session) {
	c.apiClient = &http.Client{
		Timeout:   c.httpClient.Timeout,
		Jar:       c.httpClient.Jar,
		Transport: NewTransport(nil, session, c.logger),
	}
}

// api returns the pipeline-wrapped client when a session is bound,
// falling back to the plain client (requests then go out
// unauthenticated).
func (c *Client) api() *http.Client {
	if c.apiClient != nil {
		return c.apiClient
	}
	return c.httpClient
}

// doRequest performs an HTTP request with a JSON body against the
// given client.
func (c *Client) doRequest(ctx context.Context, client *http.Client, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	return resp, nil
}

// ErrorResponse represents an API error response body
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// statusError carries the HTTP status alongside the platform's error
// message so endpoint wrappers can map it to a coded error.
type statusError struct {
	Status  int
	Message string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("request failed with status %d: %s", e.Status, e.Message)
}

// parseResponse decodes the response body into target, converting
// non-2xx statuses into a statusError.
func parseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)

		message := strings.TrimSpace(string(body))
		var errResp ErrorResponse
		if err := json.Unmarshal(body, &errResp); err == nil {
			if errResp.Error != "" {
				message = errResp.Error
			} else if errResp.Message != "" {
				message = errResp.Message
			}
		}
		return &statusError{Status: resp.StatusCode, Message: message}
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}
