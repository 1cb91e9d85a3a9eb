// Package reconcile is the reconciliation core: it merges per-source device
// records into hostname-keyed entities, classifies and scores them, and
// computes the comparison sets consumed by alerting, export and display.
//
// Everything here is synchronous and free of I/O. A run is rebuilt from
// scratch every time; nothing carries over from earlier runs except what
// the caller stores.
//
//	r, _ := reconcile.New(reconcile.WithPolicy(p))
//	result := r.Reconcile(reconcile.Input{Sources: lists, Terminated: roster})
package reconcile

import (
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/provenance"
	"github.com/secopslab/harmonizer/pkg/risk"
)

// Input is everything one reconciliation run consumes.
type Input struct {
	Sources    SourceLists
	Terminated []inventory.TerminatedEmployee
}

// Reconciler runs the merge, assessment and aggregation stages.
// A Reconciler holds no per-run state and is safe for concurrent use
// unless provenance tracking is enabled.
type Reconciler struct {
	policy  *policy.Policy
	tracker provenance.Tracker
}

// Option configures a Reconciler.
type Option func(*Reconciler) error

// WithPolicy sets the classification policy. The default is policy.Default().
func WithPolicy(p *policy.Policy) Option {
	return func(r *Reconciler) error {
		if p == nil {
			return errors.NewValidationError("policy", nil, "policy cannot be nil")
		}
		r.policy = p
		return nil
	}
}

// WithProvenance records field-level provenance into tracker. The tracker
// is cleared at the start of every run.
func WithProvenance(tracker provenance.Tracker) Option {
	return func(r *Reconciler) error {
		r.tracker = tracker
		return nil
	}
}

// New creates a Reconciler.
func New(opts ...Option) (*Reconciler, error) {
	r := &Reconciler{}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	if r.policy == nil {
		r.policy = policy.Default()
	}
	return r, nil
}

// Policy returns the policy in use.
func (r *Reconciler) Policy() *policy.Policy {
	return r.policy
}

// Reconcile runs one full pass over in. It never fails: empty or absent
// source lists simply contribute no devices.
func (r *Reconciler) Reconcile(in Input) *Result {
	if r.tracker != nil {
		r.tracker.Clear()
	}
	entities, stats := merge(in.Sources, r.tracker)
	classes, assessments := Assess(entities, r.policy, risk.NewEmailSet(in.Terminated))
	result := Aggregate(entities, classes, assessments, in.Terminated, in.Sources)
	result.Stats = stats
	return result
}

// Reconcile runs one pass with the default policy.
func Reconcile(lists SourceLists, terminated []inventory.TerminatedEmployee) *Result {
	r, _ := New()
	return r.Reconcile(Input{Sources: lists, Terminated: terminated})
}
