// Package harmonizer reconciles endpoint inventories reported by several
// security tools into one device list, flags devices missing required
// coverage, correlates devices with terminated employees and raises
// alerts.
//
// A Client owns the sources, policy and roster, and produces a Report per
// run. Runs can be triggered manually or on a schedule, and every run is a
// full rebuild from freshly fetched lists.
//
// Example usage:
//
//	h, err := harmonizer.New(
//	    harmonizer.WithSources(srcs),
//	    harmonizer.WithRoster(roster.FileProvider{Path: "terminated.yaml"}),
//	    harmonizer.WithStore(fileStore),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.AutoRunOff()
//
//	h.OnAlert(func(a alerts.Alert) {
//	    log.Println(a)
//	})
//
//	report, err := h.Run(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(report.Result.Summary().NonCompliant)
package harmonizer

import (
	"context"
	"sync"
	"time"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/provenance"
	"github.com/secopslab/harmonizer/pkg/reconcile"
	"github.com/secopslab/harmonizer/pkg/sources"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Client runs reconciliations and keeps the latest report.
type Client interface {
	// Runner triggers reconciliation runs
	Runner

	// AutoRunner provides access to scheduled run controls
	AutoRunner

	// Hooks provides access to event callback registration
	Hooks

	// Last returns the most recent report, if any run completed
	Last() (*Report, bool)

	// Policy returns the classification policy in use
	Policy() *policy.Policy

	// Sources returns the configured sources
	Sources() *sources.Sources

	// Store returns the configured store, which may be nil
	Store() store.Store
}

// Runner triggers reconciliation runs.
type Runner interface {
	// Run fetches every source and reconciles them
	Run(ctx context.Context) (*Report, error)
}

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// client is the internal implementation of the Client interface.
type client struct {
	options    *options
	reconciler *reconcile.Reconciler
	tracker    provenance.Tracker

	// runMu serializes runs; the tracker is per-run state
	runMu sync.Mutex

	mu   sync.RWMutex
	last *Report

	// scheduled run state
	autoMu     sync.Mutex
	autoTicker *time.Ticker
	autoCancel context.CancelFunc
	autoDone   chan struct{}

	hooks *hooks
}

// New creates a new Client with the given options.
func New(opts ...Option) (Client, error) {
	o, err := defaults().apply(opts...)
	if err != nil {
		return nil, err
	}

	c := &client{
		options: o,
		tracker: provenance.NewTracker(o.trackProvenance),
		hooks:   newHooks(),
	}

	c.reconciler, err = reconcile.New(
		reconcile.WithPolicy(o.policy),
		reconcile.WithProvenance(c.tracker),
	)
	if err != nil {
		return nil, errors.WrapResource("create", "reconciler", "", err)
	}

	if o.autoRunEnabled {
		if err := c.AutoRunOn(); err != nil {
			return nil, errors.WrapResource("start", "auto-run", "", err)
		}
	}
	return c, nil
}

// Last returns the most recent report.
func (c *client) Last() (*Report, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last, c.last != nil
}

// Policy returns the classification policy.
func (c *client) Policy() *policy.Policy { return c.options.policy }

// Sources returns the configured sources.
func (c *client) Sources() *sources.Sources { return c.options.sources }

// Store returns the configured store.
func (c *client) Store() store.Store { return c.options.store }

// OnRunCompleted registers a callback for finished runs.
func (c *client) OnRunCompleted(fn RunCompletedHook) { c.hooks.OnRunCompleted(fn) }

// OnAlert registers a callback for generated alerts.
func (c *client) OnAlert(fn AlertHook) { c.hooks.OnAlert(fn) }
