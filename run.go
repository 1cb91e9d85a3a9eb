package harmonizer

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"

	"github.com/secopslab/harmonizer/pkg/alerts"
	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/logging"
	"github.com/secopslab/harmonizer/pkg/provenance"
	"github.com/secopslab/harmonizer/pkg/reconcile"
	"github.com/secopslab/harmonizer/pkg/sources"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Report is the outcome of one run.
type Report struct {
	RunID      string            `json:"runId" yaml:"runId"`
	StartedAt  utc.Time          `json:"startedAt" yaml:"startedAt"`
	FinishedAt utc.Time          `json:"finishedAt" yaml:"finishedAt"`
	Sources    sources.Results   `json:"sources" yaml:"sources"`
	Terminated int               `json:"terminated" yaml:"terminated"`
	Result     *reconcile.Result `json:"result" yaml:"result"`
	Alerts     []alerts.Alert    `json:"alerts" yaml:"alerts"`
	SyncLog    store.SyncLog     `json:"syncLog" yaml:"syncLog"`
	Provenance provenance.Map    `json:"provenance,omitempty" yaml:"provenance,omitempty"`
}

// Snapshot returns the persistable form of the report.
func (r *Report) Snapshot() *store.Snapshot {
	return &store.Snapshot{
		RunID:     r.RunID,
		CreatedAt: r.FinishedAt,
		Result:    r.Result,
		Alerts:    r.Alerts,
	}
}

// Run fetches every source, reconciles the lists against the policy and
// roster, generates alerts, persists the snapshot and sync log, and fires
// hooks. Source and roster failures degrade the run to partial; only a
// persistence failure is returned as an error, alongside the report.
func (c *client) Run(ctx context.Context) (*Report, error) {
	report, err := c.run(ctx)
	c.hooks.trigger(report)
	return report, err
}

// run performs one reconciliation while holding runMu.
func (c *client) run(ctx context.Context) (*Report, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	started := c.options.now().UTC()
	runID := newRunID(started)

	ctx = logging.WithRunID(ctx, runID)
	ctx, cancel := context.WithTimeout(ctx, c.options.runTimeout)
	defer cancel()

	logger := logging.FromContext(ctx)
	logger.Info().Int("sources", c.options.sources.Len()).Msg("Starting reconciliation run")

	results := sources.FetchAll(ctx, c.options.sources, sources.WithTimeout(c.options.fetchTimeout))

	var details []string
	for _, err := range results.Errors() {
		details = append(details, err.Error())
	}

	terminated, err := c.options.roster.Terminated(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Roster unavailable, continuing without terminated-employee correlation")
		details = append(details, fmt.Sprintf("roster: %v", err))
		terminated = nil
	}

	result := c.reconciler.Reconcile(reconcile.Input{
		Sources:    results.Lists(),
		Terminated: terminated,
	})

	finished := c.options.now().UTC()
	report := &Report{
		RunID:      runID,
		StartedAt:  utc.New(started),
		FinishedAt: utc.New(finished),
		Sources:    results,
		Terminated: len(terminated),
		Result:     result,
		Alerts:     alerts.Generate(result, alerts.Run{ID: runID, Timestamp: utc.New(finished)}),
		Provenance: c.tracker.Map(),
	}
	report.SyncLog = syncLog(report, details, err != nil)

	logger.Info().
		Str("status", string(report.SyncLog.Status)).
		Int("endpoints", len(result.AllEndpoints)).
		Int("non_compliant", len(result.NonCompliant)).
		Int("terminated_active", len(result.TerminatedWithActiveEndpoints)).
		Int("alerts", len(report.Alerts)).
		Dur("duration", finished.Sub(started)).
		Msg("Reconciliation run completed")

	persistErr := c.persist(ctx, report)

	c.mu.Lock()
	c.last = report
	c.mu.Unlock()

	return report, persistErr
}

// persist saves the snapshot and sync log when a store is configured.
func (c *client) persist(ctx context.Context, report *Report) error {
	if c.options.store == nil {
		return nil
	}
	var errs []error
	if err := c.options.store.SaveSnapshot(ctx, report.Snapshot()); err != nil {
		errs = append(errs, errors.WrapResource("save", "snapshot", report.RunID, err))
	}
	if err := c.options.store.AppendSyncLog(ctx, report.SyncLog); err != nil {
		errs = append(errs, errors.WrapResource("append", "sync log", report.RunID, err))
	}
	if len(errs) > 0 {
		err := errors.Join(errs...)
		logging.FromContext(ctx).Error().Err(err).Msg("Failed to persist run")
		return err
	}
	return nil
}

// syncLog derives a run's status: error when every source failed, partial
// when some source or the roster failed, success otherwise.
func syncLog(report *Report, details []string, rosterFailed bool) store.SyncLog {
	failed := report.Sources.Failed()
	total := len(report.Sources)

	status := store.StatusSuccess
	switch {
	case total > 0 && failed == total:
		status = store.StatusError
	case failed > 0 || rosterFailed:
		status = store.StatusPartial
	}

	counts := make(map[inventory.SourceID]int, total)
	var origins []string
	for _, res := range report.Sources {
		counts[res.ID] = res.Count
		origins = append(origins, fmt.Sprintf("%s=%s", res.ID, res.Origin))
	}

	msg := fmt.Sprintf("Reconciled %d endpoint(s) from %d of %d source(s)",
		len(report.Result.AllEndpoints), total-failed, total)
	if len(origins) > 0 {
		msg += " (" + strings.Join(origins, ", ") + ")"
	}

	return store.SyncLog{
		ID:             report.RunID,
		Timestamp:      report.FinishedAt,
		Status:         status,
		Message:        msg,
		Details:        details,
		EndpointCounts: counts,
	}
}

// newRunID returns a sortable run identifier.
func newRunID(t time.Time) string {
	return fmt.Sprintf("%s-%06d", t.Format(constants.TimeFormatFilename), t.Nanosecond()/1000)
}
