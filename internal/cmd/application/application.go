// Package application defines what commands need from the CLI app, so
// commands can be tested against a mock.
package application

import (
	"github.com/rs/zerolog"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Application is the dependency surface commands use.
type Application interface {
	// Harmonizer returns the shared client, creating it lazily
	Harmonizer() (harmonizer.Client, error)

	// Store returns the configured snapshot and sync log store
	Store() (store.Store, error)

	// Policy returns the classification policy in use
	Policy() (*policy.Policy, error)

	// Logger returns the configured logger
	Logger() *zerolog.Logger

	// OutputFormat returns the requested output format
	OutputFormat() string

	Version() string
	Commit() string
	Date() string
	BuiltBy() string
}
