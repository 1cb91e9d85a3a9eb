package harmonizer

import (
	"slices"
	"sync"

	"github.com/secopslab/harmonizer/pkg/alerts"
)

// Hook function types for run events
type (
	// RunCompletedHook is called once per run after persistence
	RunCompletedHook func(report *Report)

	// AlertHook is called for every alert a run generated
	AlertHook func(alert alerts.Alert)
)

// Hooks provides access to event callback registration. Hooks run
// synchronously after a run has finished. A hook must not call Run or
// AutoRunOff; start that work on another goroutine instead.
type Hooks interface {
	// OnRunCompleted registers a callback for finished runs
	OnRunCompleted(fn RunCompletedHook)

	// OnAlert registers a callback for generated alerts
	OnAlert(fn AlertHook)
}

// hooks manages event callbacks for runs
type hooks struct {
	mu             sync.RWMutex
	onRunCompleted []RunCompletedHook
	onAlert        []AlertHook
}

// newHooks creates a new hooks instance
func newHooks() *hooks {
	return &hooks{}
}

// OnRunCompleted registers a callback for finished runs
func (h *hooks) OnRunCompleted(fn RunCompletedHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onRunCompleted = append(h.onRunCompleted, fn)
}

// OnAlert registers a callback for generated alerts
func (h *hooks) OnAlert(fn AlertHook) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onAlert = append(h.onAlert, fn)
}

// trigger runs the alert hooks for each alert, then the completion hooks.
// Hooks are called without holding any lock, so they may register more
// hooks; those take effect from the next run.
func (h *hooks) trigger(report *Report) {
	h.mu.RLock()
	onAlert := slices.Clone(h.onAlert)
	onRunCompleted := slices.Clone(h.onRunCompleted)
	h.mu.RUnlock()

	for _, alert := range report.Alerts {
		for _, hook := range onAlert {
			hook(alert)
		}
	}
	for _, hook := range onRunCompleted {
		hook(report)
	}
}
