// Package file stores run snapshots and sync logs as YAML files under a
// data directory:
//
//	<dir>/snapshots/<run-id>.yaml
//	<dir>/sync_logs.yaml
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/logging"
	"github.com/secopslab/harmonizer/pkg/store"
)

const (
	snapshotDir  = "snapshots"
	syncLogsFile = "sync_logs.yaml"
	snapshotExt  = ".yaml"
)

// Option is a function that configures a file Store
type Option func(*config) error

// WithReadOnly rejects writes with errors.ErrReadOnly
func WithReadOnly(readOnly bool) Option {
	return func(cfg *config) error {
		cfg.readOnly = readOnly
		return nil
	}
}

// WithMaxSnapshots sets how many snapshots are kept
func WithMaxSnapshots(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errors.NewValidationError("max_snapshots", n, "must be positive")
		}
		cfg.maxSnapshots = n
		return nil
	}
}

// WithMaxSyncLogs sets how many sync logs are kept
func WithMaxSyncLogs(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errors.NewValidationError("max_sync_logs", n, "must be positive")
		}
		cfg.maxSyncLogs = n
		return nil
	}
}

type config struct {
	readOnly     bool
	maxSnapshots int
	maxSyncLogs  int
}

// Store is a file-backed store.Store.
type Store struct {
	dir string
	cfg config
	mu  sync.Mutex
}

var _ store.Store = (*Store)(nil)

// New creates a file store rooted at dir, creating it unless read-only.
func New(dir string, opts ...Option) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("path is required for file store")
	}

	cfg := config{
		maxSnapshots: constants.MaxSnapshots,
		maxSyncLogs:  constants.MaxSyncLogs,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("applying file store option: %w", err)
		}
	}

	s := &Store{dir: dir, cfg: cfg}
	if !cfg.readOnly {
		if err := os.MkdirAll(s.snapshotPath(""), constants.DirPermissions); err != nil {
			return nil, errors.WrapIO("create", dir, err)
		}
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) snapshotPath(runID string) string {
	if runID == "" {
		return filepath.Join(s.dir, snapshotDir)
	}
	return filepath.Join(s.dir, snapshotDir, runID+snapshotExt)
}

// SaveSnapshot writes the snapshot and prunes the oldest beyond the cap.
func (s *Store) SaveSnapshot(ctx context.Context, snap *store.Snapshot) error {
	if s.cfg.readOnly {
		return errors.ErrReadOnly
	}
	if snap == nil || snap.RunID == "" {
		return errors.NewValidationError("runId", "", "snapshot run ID is required")
	}
	if strings.ContainsAny(snap.RunID, `/\`) {
		return errors.NewValidationError("runId", snap.RunID, "must not contain path separators")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeYAML(s.snapshotPath(snap.RunID), snap); err != nil {
		return err
	}
	logging.FromContext(ctx).Debug().
		Str("run_id", snap.RunID).
		Str("dir", s.dir).
		Msg("Saved snapshot")
	return s.prune(ctx)
}

// prune removes the oldest snapshot files beyond the cap. Run IDs start
// with a timestamp, so name order is age order.
func (s *Store) prune(ctx context.Context) error {
	ids, err := s.snapshotIDs()
	if err != nil {
		return err
	}
	for len(ids) > s.cfg.maxSnapshots {
		path := s.snapshotPath(ids[0])
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return errors.WrapIO("remove", path, err)
		}
		logging.FromContext(ctx).Debug().Str("run_id", ids[0]).Msg("Pruned snapshot")
		ids = ids[1:]
	}
	return nil
}

// snapshotIDs returns run IDs sorted oldest first.
func (s *Store) snapshotIDs() ([]string, error) {
	entries, err := os.ReadDir(s.snapshotPath(""))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", s.snapshotPath(""), err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != snapshotExt {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), snapshotExt))
	}
	sort.Strings(ids)
	return ids, nil
}

// Snapshot loads a snapshot by run ID.
func (s *Store) Snapshot(_ context.Context, runID string) (*store.Snapshot, error) {
	var snap store.Snapshot
	if err := readYAML(s.snapshotPath(runID), &snap); err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewNotFoundError("snapshot", runID)
		}
		return nil, err
	}
	return &snap, nil
}

// LatestSnapshot loads the newest snapshot.
func (s *Store) LatestSnapshot(ctx context.Context) (*store.Snapshot, error) {
	ids, err := s.snapshotIDs()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, errors.NewNotFoundError("snapshot", "latest")
	}
	return s.Snapshot(ctx, ids[len(ids)-1])
}

// ListSnapshots loads every snapshot's summary, newest first. Unreadable
// files are skipped with a warning.
func (s *Store) ListSnapshots(ctx context.Context) ([]store.SnapshotInfo, error) {
	ids, err := s.snapshotIDs()
	if err != nil {
		return nil, err
	}
	infos := make([]store.SnapshotInfo, 0, len(ids))
	for _, id := range ids {
		snap, err := s.Snapshot(ctx, id)
		if err != nil {
			logging.FromContext(ctx).Warn().Err(err).Str("run_id", id).Msg("Skipping unreadable snapshot")
			continue
		}
		infos = append(infos, snap.Info())
	}
	store.SortNewestFirst(infos)
	return infos, nil
}

// AppendSyncLog appends to the log file, keeping the newest entries.
func (s *Store) AppendSyncLog(_ context.Context, log store.SyncLog) error {
	if s.cfg.readOnly {
		return errors.ErrReadOnly
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.readSyncLogs()
	if err != nil {
		return err
	}
	logs = append(logs, log)
	if len(logs) > s.cfg.maxSyncLogs {
		logs = logs[len(logs)-s.cfg.maxSyncLogs:]
	}
	return writeYAML(filepath.Join(s.dir, syncLogsFile), logs)
}

// SyncLogs returns up to limit logs, newest first.
func (s *Store) SyncLogs(_ context.Context, limit int) ([]store.SyncLog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logs, err := s.readSyncLogs()
	if err != nil {
		return nil, err
	}
	return store.Limit(logs, limit), nil
}

// readSyncLogs returns stored logs oldest first.
func (s *Store) readSyncLogs() ([]store.SyncLog, error) {
	var logs []store.SyncLog
	if err := readYAML(filepath.Join(s.dir, syncLogsFile), &logs); err != nil {
		if errors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return logs, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path) //nolint:gosec // path is built from the store directory
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFoundError("file", path)
		}
		return errors.WrapIO("read", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	return nil
}

// writeYAML writes through a temp file and renames it into place.
func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return errors.WrapIO("create", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return errors.WrapIO("create", "temp file", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return errors.WrapIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("close", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return errors.WrapIO("move", path, err)
	}
	return nil
}
