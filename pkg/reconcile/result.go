package reconcile

import (
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/risk"
)

// Result is the comparison of one reconciliation run. Every collection
// keeps the order entities were first merged; sets may overlap. A Result is
// read-only once built.
type Result struct {
	AllEndpoints []*inventory.NormalizedEndpoint `json:"allEndpoints" yaml:"allEndpoints"`

	// OnlyIn holds entities reported by exactly one source.
	OnlyIn map[inventory.SourceID][]*inventory.NormalizedEndpoint `json:"onlyIn" yaml:"onlyIn"`

	// MissingFrom holds entities absent from a source their policy requires.
	MissingFrom map[inventory.SourceID][]*inventory.NormalizedEndpoint `json:"missingFrom" yaml:"missingFrom"`

	// InAllSources holds entities present in their category's full
	// required set.
	InAllSources []*inventory.NormalizedEndpoint `json:"inAllSources" yaml:"inAllSources"`

	NonCompliant                  []*inventory.NormalizedEndpoint `json:"nonCompliant" yaml:"nonCompliant"`
	TerminatedWithActiveEndpoints []*inventory.NormalizedEndpoint `json:"terminatedWithActiveEndpoints" yaml:"terminatedWithActiveEndpoints"`

	// Roster entries whose e-mail appears in the raw records of the
	// directory-device and privileged-access sources.
	TerminatedInDirectory []inventory.TerminatedEmployee `json:"terminatedInDirectory" yaml:"terminatedInDirectory"`
	TerminatedInPAM       []inventory.TerminatedEmployee `json:"terminatedInPam" yaml:"terminatedInPam"`

	// Workstations and Servers partition AllEndpoints. NamingViolations is
	// the subset of Workstations that broke the naming convention.
	Workstations     []*inventory.NormalizedEndpoint `json:"workstations" yaml:"workstations"`
	Servers          []*inventory.NormalizedEndpoint `json:"servers" yaml:"servers"`
	NamingViolations []*inventory.NormalizedEndpoint `json:"namingViolations" yaml:"namingViolations"`

	// Per-entity detail keyed by hostname.
	Classifications map[string]policy.Classification `json:"classifications" yaml:"classifications"`
	Assessments     map[string]risk.Assessment       `json:"assessments" yaml:"assessments"`

	Stats MergeStats `json:"stats" yaml:"stats"`
}

// Summary is a count-only view of a Result.
type Summary struct {
	Total                 int                         `json:"total" yaml:"total"`
	Workstations          int                         `json:"workstations" yaml:"workstations"`
	Servers               int                         `json:"servers" yaml:"servers"`
	NamingViolations      int                         `json:"namingViolations" yaml:"namingViolations"`
	InAllSources          int                         `json:"inAllSources" yaml:"inAllSources"`
	NonCompliant          int                         `json:"nonCompliant" yaml:"nonCompliant"`
	TerminatedActive      int                         `json:"terminatedActive" yaml:"terminatedActive"`
	TerminatedInDirectory int                         `json:"terminatedInDirectory" yaml:"terminatedInDirectory"`
	TerminatedInPAM       int                         `json:"terminatedInPam" yaml:"terminatedInPam"`
	OnlyIn                map[inventory.SourceID]int  `json:"onlyIn" yaml:"onlyIn"`
	MissingFrom           map[inventory.SourceID]int  `json:"missingFrom" yaml:"missingFrom"`
	ByRisk                map[inventory.RiskLevel]int `json:"byRisk" yaml:"byRisk"`
}

// Summary counts every collection of the result.
func (r *Result) Summary() Summary {
	s := Summary{
		Total:                 len(r.AllEndpoints),
		Workstations:          len(r.Workstations),
		Servers:               len(r.Servers),
		NamingViolations:      len(r.NamingViolations),
		InAllSources:          len(r.InAllSources),
		NonCompliant:          len(r.NonCompliant),
		TerminatedActive:      len(r.TerminatedWithActiveEndpoints),
		TerminatedInDirectory: len(r.TerminatedInDirectory),
		TerminatedInPAM:       len(r.TerminatedInPAM),
		OnlyIn:                make(map[inventory.SourceID]int),
		MissingFrom:           make(map[inventory.SourceID]int),
		ByRisk:                make(map[inventory.RiskLevel]int),
	}
	for _, id := range inventory.SourceIDs() {
		s.OnlyIn[id] = len(r.OnlyIn[id])
		s.MissingFrom[id] = len(r.MissingFrom[id])
	}
	for _, e := range r.AllEndpoints {
		s.ByRisk[e.RiskLevel.Max(inventory.RiskNone)]++
	}
	return s
}

// Find returns the entity with the given hostname, matched by merge key.
func (r *Result) Find(hostname string) (*inventory.NormalizedEndpoint, bool) {
	key := HostnameKey(hostname)
	for _, e := range r.AllEndpoints {
		if e.Hostname == key {
			return e, true
		}
	}
	return nil, false
}
