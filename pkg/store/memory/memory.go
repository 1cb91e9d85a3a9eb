// Package memory keeps run snapshots in an expiring in-memory cache and
// sync logs in a capped slice. It suits tests and long-running processes
// that do not need history across restarts.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Option is a function that configures a memory Store
type Option func(*config) error

// WithTTL sets how long snapshots are kept
func WithTTL(ttl time.Duration) Option {
	return func(cfg *config) error {
		if ttl <= 0 {
			return errors.NewValidationError("ttl", ttl, "must be positive")
		}
		cfg.ttl = ttl
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
	ttl         time.Duration
	maxSyncLogs int
}

// Store is an in-memory store.Store.
type Store struct {
	snapshots *gocache.Cache

	mu    sync.RWMutex
	order []string // run IDs, oldest first
	logs  []store.SyncLog
	cfg   config
}

var _ store.Store = (*Store)(nil)

// New creates a memory store.
func New(opts ...Option) (*Store, error) {
	cfg := config{
		ttl:         constants.CacheTTL,
		maxSyncLogs: constants.MaxSyncLogs,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("applying memory store option: %w", err)
		}
	}
	return &Store{
		snapshots: gocache.New(cfg.ttl, constants.CacheCleanupInterval),
		cfg:       cfg,
	}, nil
}

// SaveSnapshot caches the snapshot with the default TTL.
func (s *Store) SaveSnapshot(_ context.Context, snap *store.Snapshot) error {
	if snap == nil || snap.RunID == "" {
		return errors.NewValidationError("runId", "", "snapshot run ID is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.snapshots.Get(snap.RunID); !exists {
		s.order = append(s.order, snap.RunID)
	}
	s.snapshots.Set(snap.RunID, snap, gocache.DefaultExpiration)
	s.compact()
	return nil
}

// compact drops expired run IDs from the order index. Callers hold mu.
func (s *Store) compact() {
	live := s.order[:0]
	for _, id := range s.order {
		if _, ok := s.snapshots.Get(id); ok {
			live = append(live, id)
		}
	}
	s.order = live
}

// Snapshot returns a cached snapshot.
func (s *Store) Snapshot(_ context.Context, runID string) (*store.Snapshot, error) {
	v, ok := s.snapshots.Get(runID)
	if !ok {
		return nil, errors.NewNotFoundError("snapshot", runID)
	}
	return v.(*store.Snapshot), nil
}

// LatestSnapshot returns the most recently saved live snapshot.
func (s *Store) LatestSnapshot(_ context.Context) (*store.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := len(s.order) - 1; i >= 0; i-- {
		if v, ok := s.snapshots.Get(s.order[i]); ok {
			return v.(*store.Snapshot), nil
		}
	}
	return nil, errors.NewNotFoundError("snapshot", "latest")
}

// ListSnapshots returns live snapshot summaries, newest first.
func (s *Store) ListSnapshots(_ context.Context) ([]store.SnapshotInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]store.SnapshotInfo, 0, len(s.order))
	for _, id := range s.order {
		if v, ok := s.snapshots.Get(id); ok {
			infos = append(infos, v.(*store.Snapshot).Info())
		}
	}
	store.SortNewestFirst(infos)
	return infos, nil
}

// AppendSyncLog appends a log, evicting the oldest beyond the cap.
func (s *Store) AppendSyncLog(_ context.Context, log store.SyncLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs = append(s.logs, log)
	if len(s.logs) > s.cfg.maxSyncLogs {
		s.logs = append([]store.SyncLog(nil), s.logs[len(s.logs)-s.cfg.maxSyncLogs:]...)
	}
	return nil
}

// SyncLogs returns up to limit logs, newest first.
func (s *Store) SyncLogs(_ context.Context, limit int) ([]store.SyncLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return store.Limit(s.logs, limit), nil
}

// Clear removes all snapshots and logs.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots.Flush()
	s.order = nil
	s.logs = nil
}

// ItemCount returns the number of live snapshots.
func (s *Store) ItemCount() int {
	return s.snapshots.ItemCount()
}
