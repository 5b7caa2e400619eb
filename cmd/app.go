package cmd

import (
	"errors"
	"os"

	"repfit/internal/authclient"
	"repfit/internal/cli"
	"repfit/internal/config"
	"repfit/internal/demo"
	"repfit/internal/oauthflow"
	"repfit/internal/session"
	"repfit/internal/tokenstore"
	"repfit/pkg/logging"
)

// app bundles the wired-up subsystems a command needs. Construction
// loads config, initializes logging and resumes any persisted session.
type app struct {
	cfg      config.Config
	client   *authclient.Client
	store    *tokenstore.FileStore
	sessions *session.Manager
	oauth    *oauthflow.Coordinator
}

// newApp wires the full client stack from configuration. The caller
// must Close() it to stop the background refresh timer.
func newApp() (*app, error) {
	dir := configPath
	if dir == "" {
		dir = config.GetDefaultConfigPathOrPanic()
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, err
	}

	logging.Init(cfg.ParsedLogLevel(), os.Stderr)

	client := authclient.NewClient(cfg.API.BaseURL,
		authclient.WithTimeout(cfg.API.ParsedTimeout()),
		authclient.WithAccessTokenTTL(cfg.Session.ParsedAccessTokenTTL()),
	)

	store := tokenstore.NewFileStore(cfg.Storage)
	sessions := session.NewManager(session.Config{
		Client:        client,
		Store:         store,
		RefreshMargin: cfg.Session.ParsedRefreshMargin(),
	})
	sessions.Resume()

	flows := oauthflow.NewFlowStore(cfg.Storage)

	return &app{
		cfg:      cfg,
		client:   client,
		store:    store,
		sessions: sessions,
		oauth:    oauthflow.NewCoordinator(client, flows, sessions),
	}, nil
}

// Close releases the session manager's background resources.
func (a *app) Close() {
	a.sessions.Close()
}

// demoProvider returns the guest demo provider over the same storage
// directory the session uses.
func (a *app) demoProvider() *demo.Provider {
	return demo.NewProvider(a.cfg.Storage)
}

// translateSessionError maps session lifecycle errors to the typed CLI
// errors the root command converts into semantic exit codes.
func translateSessionError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		return &cli.AuthRequiredError{}
	}
	if session.IsExpired(err) {
		return &cli.AuthExpiredError{Reason: err}
	}
	return err
}
