package platform

import (
	"context"
	"io"
	"net/http"

	"github.com/trainsphere/consolekit/internal/apperr"
	"github.com/trainsphere/consolekit/internal/log"
)

// Session is the slice of the session service the request pipeline
// needs. Declared here so the platform package does not depend on the
// session package (the session service depends on this package's
// refresh client, and the dependency must stay one-way).
type Session interface {
	// Token returns the current bearer token, or empty
	Token() string

	// Refresh obtains and installs a new token
	Refresh(ctx context.Context) (string, error)

	// Logout tears the session down
	Logout()
}

// Transport is an http.RoundTripper that attaches the session's bearer
// token to every request and, on a 401 response, refreshes the token
// once and resubmits the request. A second 401 is returned to the
// caller as-is; the pipeline never loops.
type Transport struct {
	base    http.RoundTripper
	session Session
	logger  *log.Logger
}

// NewTransport creates the pipeline transport. A nil base uses
// http.DefaultTransport.
func NewTransport(base http.RoundTripper, session Session, logger *log.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = log.DefaultLogger()
	}
	return &Transport{base: base, session: session, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := req.Clone(req.Context())
	if token := t.session.Token(); token != "" {
		attempt.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := t.base.RoundTrip(attempt)
	if err != nil || resp.StatusCode != http.StatusUnauthorized {
		return resp, err
	}

	// The body has been consumed by the first attempt; without GetBody
	// the request cannot be replayed, so the 401 stands.
	if req.Body != nil && req.GetBody == nil {
		t.logger.Debug("not retrying unauthorized request: body is not replayable",
			"url", req.URL.String())
		return resp, nil
	}

	drain(resp)

	token, refreshErr := t.session.Refresh(req.Context())
	if refreshErr != nil {
		t.session.Logout()
		return nil, apperr.Wrap(apperr.CodeUnauthorizedRequest,
			"request unauthorized and token refresh failed", refreshErr,
			map[string]any{"url": req.URL.String()})
	}

	retry := req.Clone(req.Context())
	if req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		retry.Body = body
	}
	retry.Header.Set("Authorization", "Bearer "+token)

	return t.base.RoundTrip(retry)
}

// drain discards the rest of a response body and closes it so the
// underlying connection can be reused.
func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body) //nolint:errcheck // best-effort drain
	resp.Body.Close()
}
