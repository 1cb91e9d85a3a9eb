// Package risk assigns a risk level and reason to reconciled entities.
//
// Evaluation is a single priority chain:
//
//	high    the entity's user is on the terminated-employee roster
//	medium  the entity is absent from a source its policy requires
//	low     the hostname breaks the workstation naming convention
//	none    nothing outstanding
//
// A higher level is never downgraded by a lower one, and every applicable
// finding is kept in the reason text. Evaluate is pure: the same entity,
// classification and roster always produce the same assessment.
package risk

import (
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/policy"
)

// Reason fragments.
const (
	TerminatedReason      = "terminated employee with active endpoint access"
	MissingSourcesPrefix  = "missing required sources: "
	NamingViolationPrefix = "naming violation: "
	reasonSeparator       = "; "
)

// Assessment is the outcome of evaluating one entity.
type Assessment struct {
	Level           inventory.RiskLevel  `json:"level" yaml:"level"`
	Reason          string               `json:"reason,omitempty" yaml:"reason,omitempty"`
	Terminated      bool                 `json:"terminated" yaml:"terminated"`
	Missing         []inventory.SourceID `json:"missing,omitempty" yaml:"missing,omitempty"`
	NamingViolation bool                 `json:"namingViolation" yaml:"namingViolation"`
}

// Compliant reports whether no required source was missing.
func (a Assessment) Compliant() bool {
	return len(a.Missing) == 0
}

// Evaluate scores an entity given its policy classification and the
// terminated-employee e-mail set.
func Evaluate(e *inventory.NormalizedEndpoint, c policy.Classification, terminated EmailSet) Assessment {
	a := Assessment{
		Level:           inventory.RiskNone,
		Missing:         c.Missing(e.Sources),
		NamingViolation: c.NamingViolation,
	}

	var reasons []string
	if e.UserEmail != "" && terminated.Contains(e.UserEmail) {
		a.Terminated = true
		a.Level = inventory.RiskHigh
		reasons = append(reasons, TerminatedReason)
	}
	if len(a.Missing) > 0 {
		a.Level = a.Level.Max(inventory.RiskMedium)
		reasons = append(reasons, MissingReason(a.Missing))
	}
	if a.NamingViolation {
		a.Level = a.Level.Max(inventory.RiskLow)
		reason := c.Reason
		if reason == "" {
			reason = policy.DefaultNamingViolationReason
		}
		reasons = append(reasons, NamingViolationPrefix+reason)
	}

	a.Reason = strings.Join(reasons, reasonSeparator)
	return a
}

// Apply stores the assessment on the entity.
func Apply(e *inventory.NormalizedEndpoint, a Assessment) {
	e.RiskLevel = a.Level
	e.RiskReason = a.Reason
}

// MissingReason formats the missing-sources reason, keeping the given order.
func MissingReason(missing []inventory.SourceID) string {
	names := make([]string, len(missing))
	for i, id := range missing {
		names[i] = id.String()
	}
	return MissingSourcesPrefix + strings.Join(names, ", ")
}

// EmailSet is a set of normalized e-mail addresses.
type EmailSet map[string]struct{}

// NewEmailSet builds the set of terminated employees' addresses. Entries
// without an e-mail are skipped.
func NewEmailSet(employees []inventory.TerminatedEmployee) EmailSet {
	set := make(EmailSet, len(employees))
	for _, emp := range employees {
		set.Add(emp.Email)
	}
	return set
}

// Add inserts an address. Empty addresses are ignored.
func (s EmailSet) Add(email string) {
	if key := NormalizeEmail(email); key != "" {
		s[key] = struct{}{}
	}
}

// Contains reports whether email is in the set, case-insensitively.
func (s EmailSet) Contains(email string) bool {
	if len(s) == 0 {
		return false
	}
	key := NormalizeEmail(email)
	if key == "" {
		return false
	}
	_, ok := s[key]
	return ok
}

// Len returns the number of addresses.
func (s EmailSet) Len() int {
	return len(s)
}

// NormalizeEmail trims, NFC-normalizes and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(norm.NFC.String(strings.TrimSpace(email)))
}
