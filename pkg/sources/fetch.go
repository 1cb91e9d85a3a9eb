package sources

import (
	"context"
	"sync"
	"time"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/logging"
	"github.com/secopslab/harmonizer/pkg/reconcile"
)

// FetchOptions configures FetchAll.
type FetchOptions struct {
	// Timeout bounds each source's fetch; zero uses the default
	Timeout time.Duration
	// IDs restricts fetching to these categories when non-empty
	IDs []inventory.SourceID
}

// FetchOption configures a FetchAll call.
type FetchOption func(*FetchOptions)

// WithTimeout sets the per-source fetch timeout.
func WithTimeout(d time.Duration) FetchOption {
	return func(opts *FetchOptions) {
		opts.Timeout = d
	}
}

// WithIDs restricts fetching to the given categories.
func WithIDs(ids ...inventory.SourceID) FetchOption {
	return func(opts *FetchOptions) {
		opts.IDs = ids
	}
}

// Defaults returns fetch options with default values.
func Defaults() *FetchOptions {
	return &FetchOptions{Timeout: constants.SourceFetchTimeout}
}

// Result is one source's fetch outcome. Endpoints is empty when Err is set.
type Result struct {
	ID        inventory.SourceID   `json:"source" yaml:"source"`
	Origin    inventory.Origin     `json:"origin" yaml:"origin"`
	Endpoints []inventory.Endpoint `json:"-" yaml:"-"`
	Count     int                  `json:"count" yaml:"count"`
	Duration  time.Duration        `json:"duration" yaml:"duration"`
	Err       error                `json:"-" yaml:"-"`
	// Error is Err's message, kept for serialized reports
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Results holds every source's outcome in declared category order.
type Results []Result

// Lists returns the per-category device lists for reconciliation. Failed
// sources map to an empty list.
func (r Results) Lists() reconcile.SourceLists {
	lists := make(reconcile.SourceLists, len(r))
	for _, res := range r {
		lists[res.ID] = res.Endpoints
	}
	return lists
}

// Errors returns the errors of failed sources.
func (r Results) Errors() []error {
	var errs []error
	for _, res := range r {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errs
}

// Failed reports how many sources failed.
func (r Results) Failed() int {
	return len(r.Errors())
}

// Counts returns the number of records each source produced.
func (r Results) Counts() map[inventory.SourceID]int {
	counts := make(map[inventory.SourceID]int, len(r))
	for _, res := range r {
		counts[res.ID] = res.Count
	}
	return counts
}

// FetchAll fetches every registered source concurrently. A source that
// fails, times out or is canceled yields an empty list and a
// *errors.SourceError; the remaining sources are unaffected.
func FetchAll(ctx context.Context, srcs *Sources, opts ...FetchOption) Results {
	options := Defaults()
	for _, opt := range opts {
		opt(options)
	}
	if options.Timeout <= 0 {
		options.Timeout = constants.SourceFetchTimeout
	}

	list := srcs.List()
	if len(options.IDs) > 0 {
		filtered := list[:0:0]
		for _, src := range list {
			for _, id := range options.IDs {
				if src.ID() == id {
					filtered = append(filtered, src)
				}
			}
		}
		list = filtered
	}

	logger := logging.FromContext(ctx)
	logger.Info().
		Int("source_count", len(list)).
		Dur("timeout", options.Timeout).
		Msg("Fetching sources concurrently")

	var wg sync.WaitGroup
	resultChan := make(chan Result, len(list))

	for _, src := range list {
		wg.Add(1)
		go func(src Source) {
			defer wg.Done()

			srcCtx := logging.WithSource(ctx, string(src.ID()))
			logger := logging.FromContext(srcCtx)
			start := time.Now()

			endpoints, err := fetchWithTimeout(srcCtx, src, options.Timeout)
			result := Result{
				ID:       src.ID(),
				Origin:   src.Origin(),
				Duration: time.Since(start),
			}
			if err != nil {
				result.Err = errors.NewSourceError(string(src.ID()), string(src.Origin()), err)
				result.Error = result.Err.Error()
				logger.Warn().
					Err(err).
					Str("origin", string(src.Origin())).
					Msg("Source fetch failed, continuing with empty list")
			} else {
				result.Endpoints = endpoints
				result.Count = len(endpoints)
				logger.Debug().
					Str("origin", string(src.Origin())).
					Int("count", result.Count).
					Dur("duration", result.Duration).
					Msg("Fetched source")
			}
			resultChan <- result
		}(src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	byID := make(map[inventory.SourceID]Result, len(list))
	for res := range resultChan {
		byID[res.ID] = res
	}

	results := make(Results, 0, len(byID))
	for _, id := range inventory.SourceIDs() {
		if res, ok := byID[id]; ok {
			results = append(results, res)
		}
	}
	return results
}

// fetchWithTimeout runs src.Fetch and gives up when the deadline passes,
// even if the source ignores its context.
func fetchWithTimeout(ctx context.Context, src Source, timeout time.Duration) ([]inventory.Endpoint, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		endpoints []inventory.Endpoint
		err       error
	}
	done := make(chan outcome, 1)
	go func() {
		endpoints, err := src.Fetch(ctx)
		done <- outcome{endpoints, err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return nil, out.err
		}
		return stamp(out.endpoints, src.ID(), src.Origin()), nil
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.Join(errors.ErrTimeout, ctx.Err())
		}
		return nil, errors.Join(errors.ErrCanceled, ctx.Err())
	}
}
