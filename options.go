package harmonizer

import (
	"time"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/roster"
	"github.com/secopslab/harmonizer/pkg/sources"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Option is a function that configures a Client
type Option func(*options) error

// options holds the Client configuration.
type options struct {
	sources         *sources.Sources
	policy          *policy.Policy
	roster          roster.Provider
	store           store.Store
	fetchTimeout    time.Duration
	runTimeout      time.Duration
	autoRunEnabled  bool
	autoRunInterval time.Duration
	trackProvenance bool
	now             func() time.Time
}

// defaults returns the default configuration: sample sources, the default
// policy, an empty roster and no store.
func defaults() *options {
	return &options{
		sources:         sources.Sample(),
		policy:          policy.Default(),
		roster:          roster.Static(nil),
		fetchTimeout:    constants.SourceFetchTimeout,
		runTimeout:      constants.RunTimeout,
		autoRunInterval: constants.DefaultAutoRunInterval,
		now:             time.Now,
	}
}

// apply applies options in order, stopping at the first error.
func (o *options) apply(opts ...Option) (*options, error) {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// WithSources configures the per-category sources
func WithSources(srcs *sources.Sources) Option {
	return func(o *options) error {
		if srcs == nil {
			return errors.NewValidationError("sources", nil, "sources cannot be nil")
		}
		o.sources = srcs
		return nil
	}
}

// WithPolicy configures the classification policy
func WithPolicy(p *policy.Policy) Option {
	return func(o *options) error {
		if p == nil {
			return errors.NewValidationError("policy", nil, "policy cannot be nil")
		}
		if err := p.Validate(); err != nil {
			return err
		}
		o.policy = p
		return nil
	}
}

// WithRoster configures where the terminated-employee roster comes from
func WithRoster(p roster.Provider) Option {
	return func(o *options) error {
		if p == nil {
			return errors.NewValidationError("roster", nil, "roster provider cannot be nil")
		}
		o.roster = p
		return nil
	}
}

// WithStore configures where snapshots and sync logs are persisted.
// Without a store runs are kept in memory only.
func WithStore(s store.Store) Option {
	return func(o *options) error {
		o.store = s
		return nil
	}
}

// WithFetchTimeout configures the per-source fetch timeout
func WithFetchTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("fetchTimeout", d, "timeout must be positive")
		}
		o.fetchTimeout = d
		return nil
	}
}

// WithRunTimeout configures the overall run timeout
func WithRunTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d <= 0 {
			return errors.NewValidationError("runTimeout", d, "timeout must be positive")
		}
		o.runTimeout = d
		return nil
	}
}

// WithAutoRun configures whether scheduled runs start with the client
func WithAutoRun(enabled bool) Option {
	return func(o *options) error {
		o.autoRunEnabled = enabled
		return nil
	}
}

// WithAutoRunInterval configures how often scheduled runs happen
func WithAutoRunInterval(interval time.Duration) Option {
	return func(o *options) error {
		o.autoRunInterval = interval
		return nil
	}
}

// WithProvenance configures field-level provenance tracking
func WithProvenance(enabled bool) Option {
	return func(o *options) error {
		o.trackProvenance = enabled
		return nil
	}
}

// WithClock overrides the time source, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now != nil {
			o.now = now
		}
		return nil
	}
}
