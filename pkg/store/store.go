// Package store defines where reconciliation runs are kept: result
// snapshots with their alerts, and a capped sync log. Implementations live
// in the file and memory subpackages.
package store

import (
	"context"
	"sort"

	"github.com/agentstation/utc"

	"github.com/secopslab/harmonizer/pkg/alerts"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/reconcile"
)

// Store persists run snapshots and sync logs.
type Store interface {
	// SaveSnapshot stores a run's result and alerts
	SaveSnapshot(ctx context.Context, snap *Snapshot) error

	// Snapshot returns the snapshot for a run ID
	Snapshot(ctx context.Context, runID string) (*Snapshot, error)

	// LatestSnapshot returns the most recent snapshot
	LatestSnapshot(ctx context.Context) (*Snapshot, error)

	// ListSnapshots returns snapshot summaries, newest first
	ListSnapshots(ctx context.Context) ([]SnapshotInfo, error)

	// AppendSyncLog records a run outcome, evicting the oldest beyond the cap
	AppendSyncLog(ctx context.Context, log SyncLog) error

	// SyncLogs returns up to limit logs, newest first; limit <= 0 means all
	SyncLogs(ctx context.Context, limit int) ([]SyncLog, error)
}

// SyncStatus is the outcome of a run.
type SyncStatus string

const (
	// StatusSuccess means every source was fetched.
	StatusSuccess SyncStatus = "success"
	// StatusPartial means some sources failed and contributed empty lists.
	StatusPartial SyncStatus = "partial"
	// StatusError means every source failed or the run could not complete.
	StatusError SyncStatus = "error"
)

// SyncLog is one run's outcome.
type SyncLog struct {
	ID             string                     `json:"id" yaml:"id"`
	Timestamp      utc.Time                   `json:"timestamp" yaml:"timestamp"`
	Status         SyncStatus                 `json:"status" yaml:"status"`
	Message        string                     `json:"message" yaml:"message"`
	Details        []string                   `json:"details,omitempty" yaml:"details,omitempty"`
	EndpointCounts map[inventory.SourceID]int `json:"endpointCounts" yaml:"endpointCounts"`
}

// Snapshot is a persisted run.
type Snapshot struct {
	RunID     string            `json:"runId" yaml:"runId"`
	CreatedAt utc.Time          `json:"createdAt" yaml:"createdAt"`
	Result    *reconcile.Result `json:"result" yaml:"result"`
	Alerts    []alerts.Alert    `json:"alerts" yaml:"alerts"`
}

// SnapshotInfo summarizes a snapshot for listings.
type SnapshotInfo struct {
	RunID     string   `json:"runId" yaml:"runId"`
	CreatedAt utc.Time `json:"createdAt" yaml:"createdAt"`
	Endpoints int      `json:"endpoints" yaml:"endpoints"`
	Alerts    int      `json:"alerts" yaml:"alerts"`
}

// Info returns the snapshot's summary.
func (s *Snapshot) Info() SnapshotInfo {
	info := SnapshotInfo{RunID: s.RunID, CreatedAt: s.CreatedAt, Alerts: len(s.Alerts)}
	if s.Result != nil {
		info.Endpoints = len(s.Result.AllEndpoints)
	}
	return info
}

// SortNewestFirst orders snapshot infos by creation time, newest first,
// breaking ties by run ID.
func SortNewestFirst(infos []SnapshotInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].CreatedAt.Time.Equal(infos[j].CreatedAt.Time) {
			return infos[i].CreatedAt.Time.After(infos[j].CreatedAt.Time)
		}
		return infos[i].RunID > infos[j].RunID
	})
}

// Limit returns the newest limit logs from a slice kept oldest first.
func Limit(logs []SyncLog, limit int) []SyncLog {
	out := make([]SyncLog, 0, len(logs))
	for i := len(logs) - 1; i >= 0; i-- {
		out = append(out, logs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}
