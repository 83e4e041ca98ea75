package cmd

import (
	"time"

	"github.com/trainsphere/consolekit/internal/config"
	"github.com/trainsphere/consolekit/internal/credfile"
	"github.com/trainsphere/consolekit/internal/log"
	"github.com/trainsphere/consolekit/internal/platform"
	"github.com/trainsphere/consolekit/internal/session"
)

// appEnv bundles the wired-up pieces every command needs: resolved
// configuration, logger, the platform client, the session service, and
// the credentials store.
type appEnv struct {
	cfg     *config.Config
	logger  *log.Logger
	client  *platform.Client
	session *session.Service
	creds   *credfile.Store
}

// newEnv builds the command environment. The session service is bound
// into the client's request pipeline so authenticated API calls carry
// the bearer token and recover once from a 401.
func newEnv() (*appEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger(cfg)

	client := platform.NewClient(cfg.APIURL, platform.WithLogger(logger))
	svc := session.NewService(client, session.Options{
		Logger:               logger,
		PreferredWorkspaceID: cfg.WorkspaceID,
		TimeZone:             cfg.TimeZone,
	})
	client.BindSession(svc)

	creds, err := credfile.NewStore()
	if err != nil {
		return nil, err
	}

	return &appEnv{cfg: cfg, logger: logger, client: client, session: svc, creds: creds}, nil
}

// restoreSession loads stored credentials into the session service.
// Returns false when no credentials are stored.
func (e *appEnv) restoreSession() (bool, error) {
	stored, ok, err := e.creds.Load()
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	workspace := e.cfg.WorkspaceID
	if workspace == "" {
		workspace = stored.WorkspaceID
	}
	if err := e.session.SetToken(stored.Token, workspace); err != nil {
		return false, err
	}
	return true, nil
}

// persistSession writes the current session token back to disk.
func (e *appEnv) persistSession() error {
	token := e.session.Token()
	if token == "" {
		return e.creds.Clear()
	}
	return e.creds.Save(credfile.Credentials{
		Token:       token,
		WorkspaceID: e.session.WorkspaceID(),
		SavedAt:     time.Now().UTC(),
	})
}
