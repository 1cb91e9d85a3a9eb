package application

import (
	"github.com/rs/zerolog"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Mock provides a mock implementation of Application for testing.
// A nil function field returns a zero value.
type Mock struct {
	HarmonizerFunc   func() (harmonizer.Client, error)
	StoreFunc        func() (store.Store, error)
	PolicyFunc       func() (*policy.Policy, error)
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
}

var _ Application = (*Mock)(nil)

// Harmonizer returns a client using the mock function or nil.
func (m *Mock) Harmonizer() (harmonizer.Client, error) {
	if m.HarmonizerFunc != nil {
		return m.HarmonizerFunc()
	}
	return nil, nil
}

// Store returns a store using the mock function or nil.
func (m *Mock) Store() (store.Store, error) {
	if m.StoreFunc != nil {
		return m.StoreFunc()
	}
	return nil, nil
}

// Policy returns the mock policy or the default policy.
func (m *Mock) Policy() (*policy.Policy, error) {
	if m.PolicyFunc != nil {
		return m.PolicyFunc()
	}
	return policy.Default(), nil
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	logger := zerolog.Nop()
	return &logger
}

// OutputFormat returns output format using the mock function or "table".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "table"
}

// Version returns "dev".
func (m *Mock) Version() string { return "dev" }

// Commit returns "unknown".
func (m *Mock) Commit() string { return "unknown" }

// Date returns "unknown".
func (m *Mock) Date() string { return "unknown" }

// BuiltBy returns "test".
func (m *Mock) BuiltBy() string { return "test" }
