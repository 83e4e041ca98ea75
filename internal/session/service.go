package session

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/trainsphere/consolekit/internal/apperr"
	"github.com/trainsphere/consolekit/internal/clock"
	"github.com/trainsphere/consolekit/internal/log"
	"github.com/trainsphere/consolekit/internal/token"
)

// Bounded retry policy for interactive refresh: the original console
// retries twice, three seconds apart, before sending the user to the
// unauthorized view.
const (
	refreshRetryInterval = 3 * time.Second
	refreshMaxAttempts   = 3
)

// State is the session lifecycle state.
type State int

const (
	// StateUnauthenticated means no valid token is held
	StateUnauthenticated State = iota
	// StateRefreshing means a refresh call is in flight
	StateRefreshing
	// StateAuthenticated means a decoded token and user are installed
	StateAuthenticated
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateRefreshing:
		return "refreshing"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unauthenticated"
	}
}

// TokenRefresher calls the platform's refresh endpoint and returns the
// new bearer token. workspaceID is forwarded as the X-WORKSPACE-ID
// header when non-empty. Implemented by the platform client.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, workspaceID string) (string, error)
}

// Service is the session facade: it owns the token store, the refresh
// scheduler, and the state machine between them. All session mutation
// goes through this type.
type Service struct {
	refresher TokenRefresher
	store     *Store
	sched     *Scheduler
	clock     clock.Clock
	logger    *log.Logger
	timeZone  string

	mu                 sync.Mutex
	state              State
	epoch              uint64
	inflight           *refreshCall
	preferredWorkspace string
}

// refreshCall is the shared result of one in-flight refresh attempt.
// Concurrent Refresh callers wait on done and read the same outcome.
type refreshCall struct {
	done  chan struct{}
	token string
	err   error
}

// Options configures a Service. Zero values select production defaults.
type Options struct {
	// Clock drives expiry checks and the refresh timer; defaults to
	// the real clock
	Clock clock.Clock

	// Logger defaults to the process-wide default logger
	Logger *log.Logger

	// PreferredWorkspaceID pins workspace selection (the workspace_id
	// query parameter of the original console)
	PreferredWorkspaceID string

	// TimeZone is carried for display; it does not affect expiry math
	TimeZone string
}

// NewService creates a session service around the given refresher.
func NewService(refresher TokenRefresher, opts Options) *Service {
	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.DefaultLogger()
	}

	return &Service{
		refresher:          refresher,
		store:              NewStore(),
		sched:              NewScheduler(clk, logger),
		clock:              clk,
		logger:             logger,
		timeZone:           opts.TimeZone,
		preferredWorkspace: opts.PreferredWorkspaceID,
	}
}

// Refresh obtains a new token from the platform and installs it.
//
// A Refresh that starts while another is in flight joins the in-flight
// attempt and returns its result; no duplicate network call is made and
// at most one refresh timer exists after both settle. On failure the
// entire session state is cleared and the error is returned; the caller
// decides what view to show.
func (s *Service) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	if call := s.inflight; call != nil {
		s.mu.Unlock()
		select {
		case <-call.done:
			return call.token, call.err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	call := &refreshCall{done: make(chan struct{})}
	s.inflight = call
	epoch := s.epoch
	s.state = StateRefreshing
	workspaceID := s.workspaceHintLocked()
	s.mu.Unlock()

	raw, err := s.refresher.RefreshToken(ctx, workspaceID)
	if err == nil {
		err = s.install(raw, workspaceID, epoch)
	}

	s.mu.Lock()
	s.inflight = nil
	if err != nil && s.epoch == epoch {
		s.clearLocked()
	}
	s.mu.Unlock()

	if err != nil {
		call.err = err
		close(call.done)
		return "", err
	}
	call.token = raw
	close(call.done)
	return raw, nil
}

// RefreshWithRetry is Refresh with the interactive retry policy:
// network failures are retried on a constant three-second interval up
// to three attempts; token and workspace errors fail immediately since
// retrying cannot fix them.
func (s *Service) RefreshWithRetry(ctx context.Context) (string, error) {
	operation := func() (string, error) {
		raw, err := s.Refresh(ctx)
		if err != nil && !apperr.HasCode(err, apperr.CodeRefreshNetwork) {
			return "", backoff.Permanent(err)
		}
		return raw, err
	}

	return backoff.Retry(ctx, operation,
		backoff.WithBackOff(backoff.NewConstantBackOff(refreshRetryInterval)),
		backoff.WithMaxTries(refreshMaxAttempts))
}

// SetToken installs a token obtained out of band (interactive login).
// Never touches the network. workspaceID, when non-empty, becomes the
// preferred workspace for this and future refreshes. On decode or
// workspace failure the session is cleared and the error returned.
func (s *Service) SetToken(raw, workspaceID string) error {
	s.mu.Lock()
	if workspaceID != "" {
		s.preferredWorkspace = workspaceID
	}
	hint := s.preferredWorkspace
	epoch := s.epoch
	s.mu.Unlock()

	if err := s.install(raw, hint, epoch); err != nil {
		s.mu.Lock()
		if s.epoch == epoch {
			s.clearLocked()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// install decodes raw, selects the workspace, derives the user, and —
// provided the session epoch has not moved — swaps the whole snapshot
// in and re-arms the refresh timer as one step under the service lock.
func (s *Service) install(raw, workspaceHint string, epoch uint64) error {
	decoded, err := token.Decode(raw)
	if err != nil {
		return err
	}
	ws, err := token.SelectWorkspace(decoded, workspaceHint)
	if err != nil {
		return err
	}
	user := NewUser(decoded, ws)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.epoch != epoch {
		return apperr.New(apperr.CodeSessionExpired,
			"session ended while refresh was in flight", nil)
	}

	s.store.Replace(Snapshot{
		Token:       raw,
		User:        user,
		WorkspaceID: ws.ID,
		ExpiresAt:   decoded.ExpiresAt,
	})
	s.sched.Arm(raw, s.scheduledRefresh)
	s.state = StateAuthenticated
	return nil
}

// Logout clears the token, user, and workspace, cancels the refresh
// timer, and invalidates any refresh still in flight (its result is
// discarded when it lands). Idempotent.
func (s *Service) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.epoch++
	s.clearLocked()
}

func (s *Service) clearLocked() {
	s.store.Clear()
	s.sched.Stop()
	s.state = StateUnauthenticated
}

// scheduledRefresh is the timer callback. Failures are logged here; the
// refresh itself already clears session state, and the next user action
// (or 401) is the retry path.
func (s *Service) scheduledRefresh() {
	if _, err := s.Refresh(context.Background()); err != nil {
		s.logger.WithError(err).Warn("scheduled token refresh failed")
	}
}

func (s *Service) workspaceHintLocked() string {
	if s.preferredWorkspace != "" {
		return s.preferredWorkspace
	}
	return s.store.Snapshot().WorkspaceID
}

// CurrentUser returns the derived user, or nil when unauthenticated.
func (s *Service) CurrentUser() *User {
	return s.store.Snapshot().User
}

// Token returns the current bearer token, or empty.
func (s *Service) Token() string {
	return s.store.Token()
}

// WorkspaceID returns the selected workspace, or empty.
func (s *Service) WorkspaceID() string {
	return s.store.Snapshot().WorkspaceID
}

// TimeZone returns the display time zone this session was opened with.
func (s *Service) TimeZone() string {
	return s.timeZone
}

// IsAuthenticated reports whether a token is held and unexpired at this
// instant. Point-in-time check; there is no change notification.
func (s *Service) IsAuthenticated() bool {
	snap := s.store.Snapshot()
	return snap.Token != "" && s.clock.Now().Before(snap.ExpiresAt)
}

// State returns the lifecycle state.
func (s *Service) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
