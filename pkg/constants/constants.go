// Package constants provides shared constants used throughout the harmonizer codebase.
// This includes timeouts, limits, file permissions, and other configuration values
// that should be consistent across the application.
package constants

import "time"

// Timeout constants define various timeout durations used in the application
const (
	// DefaultHTTPTimeout is the standard timeout for HTTP requests to tool APIs
	DefaultHTTPTimeout = 30 * time.Second

	// SourceFetchTimeout is the timeout for fetching one source's device list
	SourceFetchTimeout = 2 * time.Minute

	// RunTimeout bounds a complete reconciliation run including all fetches
	RunTimeout = 10 * time.Minute

	// DefaultAutoRunInterval is the default interval between scheduled runs
	DefaultAutoRunInterval = 1 * time.Hour

	// ShutdownTimeout is how long the CLI waits for cleanup after an error
	ShutdownTimeout = 5 * time.Second
)

// File permission constants define standard Unix file permissions
const (
	// DirPermissions is the default permission for created directories (rwxr-xr-x)
	DirPermissions = 0755

	// FilePermissions is the default permission for created files (rw-r--r--)
	FilePermissions = 0644

	// SecureFilePermissions is for sensitive files like API tokens (rw-------)
	SecureFilePermissions = 0600
)

// Limit constants define various limits and capacities
const (
	// MaxSyncLogs is the number of sync log entries a store retains
	MaxSyncLogs = 100

	// MaxSnapshots is the number of run snapshots a store retains
	MaxSnapshots = 20

	// MaxResponseBytes caps the body size read from a tool API (32 MB)
	MaxResponseBytes = 32 << 20
)

// Cache constants
const (
	// CacheTTL is the default time-to-live for entries in the memory store
	CacheTTL = 24 * time.Hour

	// CacheCleanupInterval is how often to clean expired cache entries
	CacheCleanupInterval = 30 * time.Minute
)

// Path constants
const (
	// DefaultDataDir is the default directory for the file store
	DefaultDataDir = "~/.harmonizer"

	// DefaultConfigName is the config file base name searched in $HOME and cwd
	DefaultConfigName = ".harmonizer"
)

// Format constants
const (
	// TimeFormatISO8601 is the ISO 8601 time format
	TimeFormatISO8601 = time.RFC3339

	// TimeFormatFilename is the format used in generated filenames
	TimeFormatFilename = "20060102-150405"

	// TimeFormatDate is the format used for export file date suffixes
	TimeFormatDate = "2006-01-02"
)
