// Package alerts turns a reconciliation result into a flat list of summary
// alerts. Generation is a pure function of the result and the run identity.
package alerts

import (
	"fmt"
	"strings"

	"github.com/agentstation/utc"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Type is the severity of an alert.
type Type string

// Alert types.
const (
	TypeError   Type = "error"
	TypeWarning Type = "warning"
	TypeInfo    Type = "info"
)

// String returns the string representation of the alert type.
func (t Type) String() string {
	return string(t)
}

// Icon returns the icon used when printing an alert of this type.
func (t Type) Icon() string {
	switch t {
	case TypeError:
		return "❌"
	case TypeWarning:
		return "⚠️"
	default:
		return "ℹ️"
	}
}

// Severity orders types; errors are most severe.
func (t Type) Severity() int {
	switch t {
	case TypeError:
		return 2
	case TypeWarning:
		return 1
	}
	return 0
}

// ParseType parses an alert type name.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case TypeError, TypeWarning, TypeInfo:
		return t, nil
	}
	return "", fmt.Errorf("unknown alert type %q (want error, warning or info)", s)
}

// Kind identifies which result collection an alert summarizes.
type Kind string

// Alert kinds.
const (
	KindTerminatedActive    Kind = "terminated-active"
	KindTerminatedDirectory Kind = "terminated-in-directory"
	KindTerminatedPAM       Kind = "terminated-in-pam"
	KindNonCompliant        Kind = "non-compliant"
	KindMissingFromSource   Kind = "missing-from-source"
	KindNamingViolation     Kind = "naming-violation"
	KindOnlyInSource        Kind = "only-in-source"
	KindFullySynced         Kind = "fully-synced"
)

// Alert is a count-bearing summary of one non-empty result collection.
type Alert struct {
	ID        string             `json:"id" yaml:"id"`
	Type      Type               `json:"type" yaml:"type"`
	Kind      Kind               `json:"kind" yaml:"kind"`
	Title     string             `json:"title" yaml:"title"`
	Message   string             `json:"message" yaml:"message"`
	Count     int                `json:"count" yaml:"count"`
	Timestamp utc.Time           `json:"timestamp" yaml:"timestamp"`
	Source    inventory.SourceID `json:"source,omitempty" yaml:"source,omitempty"`
}

// String returns a one-line representation of the alert.
func (a Alert) String() string {
	return fmt.Sprintf("%s %s: %s", a.Type.Icon(), a.Title, a.Message)
}

// Run identifies the reconciliation run alerts belong to. Alert IDs are
// scoped to it.
type Run struct {
	ID        string
	Timestamp utc.Time
}

// Count returns how many alerts have the given type.
func Count(list []Alert, t Type) int {
	n := 0
	for _, a := range list {
		if a.Type == t {
			n++
		}
	}
	return n
}

// Highest returns the most severe type present, or TypeInfo for none.
func Highest(list []Alert) Type {
	highest := TypeInfo
	for _, a := range list {
		if a.Type.Severity() > highest.Severity() {
			highest = a.Type
		}
	}
	return highest
}
