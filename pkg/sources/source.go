// Package sources defines the adapters that produce per-category device
// lists and fetches them concurrently for a reconciliation run.
//
// Each category resolves to exactly one Source, chosen by precedence: a
// configured tool API, else an imported file, else sample data. A source
// that fails or times out contributes an empty list; its error is reported
// alongside the results and never aborts the run.
//
//	srcs := sources.NewSources()
//	srcs.Set(sources.NewFileSource(inventory.XDR, "xdr.csv"))
//	results := sources.FetchAll(ctx, srcs, sources.WithTimeout(time.Minute))
//	lists := results.Lists()
package sources

import (
	"context"
	"sync"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Source produces one category's device records.
type Source interface {
	// ID returns the category this source reports for
	ID() inventory.SourceID

	// Origin returns where the records come from
	Origin() inventory.Origin

	// Fetch retrieves the current device list
	Fetch(ctx context.Context) ([]inventory.Endpoint, error)
}

// Sources is a thread-safe container with at most one source per category.
type Sources struct {
	mu      sync.RWMutex
	sources map[inventory.SourceID]Source
}

// NewSources creates a new Sources instance.
func NewSources(srcs ...Source) *Sources {
	s := &Sources{sources: make(map[inventory.SourceID]Source)}
	for _, src := range srcs {
		s.Set(src)
	}
	return s
}

// Get returns the source for a category.
func (s *Sources) Get(id inventory.SourceID) (Source, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src, found := s.sources[id]
	return src, found
}

// Set registers src for its category, replacing any previous source.
func (s *Sources) Set(src Source) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sources[src.ID()] = src
}

// Delete removes the source for a category.
func (s *Sources) Delete(id inventory.SourceID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sources, id)
}

// Len returns the number of sources.
func (s *Sources) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sources)
}

// List returns the sources in declared category order.
func (s *Sources) List() []Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]Source, 0, len(s.sources))
	for _, id := range inventory.SourceIDs() {
		if src, ok := s.sources[id]; ok {
			list = append(list, src)
		}
	}
	return list
}

// IDs returns the registered categories in declared order.
func (s *Sources) IDs() []inventory.SourceID {
	list := s.List()
	ids := make([]inventory.SourceID, len(list))
	for i, src := range list {
		ids[i] = src.ID()
	}
	return ids
}

// Static is a Source over a fixed list, mostly useful in tests and for
// callers that already hold resolved records.
type Static struct {
	Category  inventory.SourceID
	From      inventory.Origin
	Endpoints []inventory.Endpoint
	Err       error
}

// ID implements Source.
func (s *Static) ID() inventory.SourceID { return s.Category }

// Origin implements Source.
func (s *Static) Origin() inventory.Origin { return s.From }

// Fetch implements Source.
func (s *Static) Fetch(ctx context.Context) ([]inventory.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Err != nil {
		return nil, s.Err
	}
	return stamp(append([]inventory.Endpoint(nil), s.Endpoints...), s.Category, s.From), nil
}

// stamp sets source and origin on every record.
func stamp(records []inventory.Endpoint, id inventory.SourceID, origin inventory.Origin) []inventory.Endpoint {
	for i := range records {
		records[i].Source = id
		records[i].Origin = origin
	}
	return records
}
