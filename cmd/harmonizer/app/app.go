// Package app provides the application context and dependency management
// for the harmonizer CLI: configuration, logging, the shared client and
// its store.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/output"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/roster"
	"github.com/secopslab/harmonizer/pkg/sources"
	"github.com/secopslab/harmonizer/pkg/store"
	filestore "github.com/secopslab/harmonizer/pkg/store/file"
	"github.com/secopslab/harmonizer/pkg/store/memory"
)

var _ application.Application = (*App)(nil)

// App represents the harmonizer application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	config *Config
	logger *zerolog.Logger

	// Lazily created, shared by every command
	mu     sync.RWMutex
	client harmonizer.Client
	store  store.Store
	policy *policy.Policy
}

// New creates a new App instance with the given version information.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
	}

	config, err := LoadConfig("")
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string { return a.version }

// Commit returns the git commit hash.
func (a *App) Commit() string { return a.commit }

// Date returns the build date.
func (a *App) Date() string { return a.date }

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string { return a.builtBy }

// Config returns the application configuration.
func (a *App) Config() *Config { return a.config }

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger { return a.logger }

// OutputFormat returns the --format value, or table on a terminal and
// JSON when piped.
func (a *App) OutputFormat() string {
	return string(output.DetectFormat(a.config.Format))
}

// Policy returns the classification policy, loading policy_file once.
func (a *App) Policy() (*policy.Policy, error) {
	a.mu.RLock()
	p := a.policy
	a.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadPolicy()
}

func (a *App) loadPolicy() (*policy.Policy, error) {
	if a.policy != nil {
		return a.policy, nil
	}
	if a.config.PolicyFile == "" {
		a.policy = policy.Default()
		return a.policy, nil
	}
	p, err := policy.Load(a.config.PolicyFile)
	if err != nil {
		return nil, errors.WrapResource("load", "policy", a.config.PolicyFile, err)
	}
	a.logger.Debug().Str("file", a.config.PolicyFile).Str("policy", p.Name).Msg("Loaded policy")
	a.policy = p
	return p, nil
}

// Store returns the snapshot store: a file store under data_dir, or an
// in-memory store when data_dir is empty.
func (a *App) Store() (store.Store, error) {
	a.mu.RLock()
	s := a.store
	a.mu.RUnlock()
	if s != nil {
		return s, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openStore()
}

func (a *App) openStore() (store.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.config.DataDir == "" {
		s, err := memory.New()
		if err != nil {
			return nil, err
		}
		a.store = s
		return s, nil
	}
	s, err := filestore.New(a.config.DataDir)
	if err != nil {
		return nil, errors.WrapResource("open", "store", a.config.DataDir, err)
	}
	a.store = s
	return s, nil
}

// Harmonizer returns the shared client, creating it lazily if needed.
func (a *App) Harmonizer() (harmonizer.Client, error) {
	a.mu.RLock()
	if a.client != nil {
		c := a.client
		a.mu.RUnlock()
		return c, nil
	}
	a.mu.RUnlock()

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if a.client != nil {
		return a.client, nil
	}

	opts, err := a.buildOptions()
	if err != nil {
		return nil, err
	}
	c, err := harmonizer.New(opts...)
	if err != nil {
		return nil, errors.WrapResource("create", "harmonizer", "", err)
	}
	a.client = c
	return c, nil
}

// buildOptions constructs client options from the configuration. Called
// with a.mu held.
func (a *App) buildOptions() ([]harmonizer.Option, error) {
	srcs, err := sources.Build(a.config.Sources)
	if err != nil {
		return nil, errors.NewConfigError("sources", "invalid source configuration", err)
	}
	p, err := a.loadPolicy()
	if err != nil {
		return nil, err
	}
	s, err := a.openStore()
	if err != nil {
		return nil, err
	}

	opts := []harmonizer.Option{
		harmonizer.WithSources(srcs),
		harmonizer.WithPolicy(p),
		harmonizer.WithStore(s),
		harmonizer.WithProvenance(true),
	}

	switch {
	case a.config.RosterFile != "":
		opts = append(opts, harmonizer.WithRoster(roster.FileProvider{Path: a.config.RosterFile}))
	case a.config.Sources.Sample:
		opts = append(opts, harmonizer.WithRoster(roster.Static(roster.Sample())))
	}
	if a.config.FetchTimeout > 0 {
		opts = append(opts, harmonizer.WithFetchTimeout(a.config.FetchTimeout))
	}
	if a.config.AutoRunInterval > 0 {
		opts = append(opts, harmonizer.WithAutoRunInterval(a.config.AutoRunInterval))
	}
	return opts, nil
}

// Shutdown stops scheduled runs if any were started.
func (a *App) Shutdown(_ context.Context) error {
	a.mu.RLock()
	c := a.client
	a.mu.RUnlock()

	if c != nil {
		if err := c.AutoRunOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop scheduled runs during shutdown")
			return err
		}
	}
	return nil
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithHarmonizer sets a custom client (useful for testing).
func WithHarmonizer(c harmonizer.Client) Option {
	return func(a *App) error {
		a.client = c
		return nil
	}
}

// WithStore sets a custom store (useful for testing).
func WithStore(s store.Store) Option {
	return func(a *App) error {
		a.store = s
		return nil
	}
}
