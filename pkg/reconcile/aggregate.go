package reconcile

import (
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/risk"
)

// Assess classifies and scores every entity in place and returns the
// per-hostname detail.
func Assess(entities *EntityMap, p *policy.Policy, terminated risk.EmailSet) (map[string]policy.Classification, map[string]risk.Assessment) {
	classes := make(map[string]policy.Classification, entities.Len())
	assessments := make(map[string]risk.Assessment, entities.Len())
	for _, e := range entities.Entities() {
		c := p.Classify(e.Hostname)
		a := risk.Evaluate(e, c, terminated)
		risk.Apply(e, a)
		classes[e.Hostname] = c
		assessments[e.Hostname] = a
	}
	return classes, assessments
}

// Aggregate computes the comparison sets over merged, assessed entities.
// lists are the raw source records the entities were merged from; they
// drive the roster checks against the directory and PAM sources.
func Aggregate(entities *EntityMap, classes map[string]policy.Classification, assessments map[string]risk.Assessment, roster []inventory.TerminatedEmployee, lists SourceLists) *Result {
	r := &Result{
		AllEndpoints:    entities.Entities(),
		OnlyIn:          make(map[inventory.SourceID][]*inventory.NormalizedEndpoint),
		MissingFrom:     make(map[inventory.SourceID][]*inventory.NormalizedEndpoint),
		Classifications: classes,
		Assessments:     assessments,
	}

	for _, id := range inventory.SourceIDs() {
		r.OnlyIn[id] = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
			return e.OnlyIn(id)
		})
		r.MissingFrom[id] = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
			return classes[e.Hostname].Requires(id) && !e.HasSource(id)
		})
	}

	r.InAllSources = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
		return e.HasAllSources(classes[e.Hostname].Required)
	})
	r.NonCompliant = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
		return !e.HasAllSources(classes[e.Hostname].Required)
	})
	r.TerminatedWithActiveEndpoints = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
		return e.RiskLevel == inventory.RiskHigh && assessments[e.Hostname].Terminated
	})

	r.Workstations = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
		return classes[e.Hostname].Category.IsWorkstation()
	})
	r.Servers = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
		return !classes[e.Hostname].Category.IsWorkstation()
	})
	r.NamingViolations = entities.Filter(func(e *inventory.NormalizedEndpoint) bool {
		return classes[e.Hostname].NamingViolation
	})

	r.TerminatedInDirectory = terminatedIn(roster, lists[inventory.DirectoryDevice])
	r.TerminatedInPAM = terminatedIn(roster, lists[inventory.PrivilegedAccess])

	return r
}

// terminatedIn returns roster entries whose e-mail appears on any raw record
// of a source, whether or not the record has a hostname. Roster order is
// kept.
func terminatedIn(roster []inventory.TerminatedEmployee, records []inventory.Endpoint) []inventory.TerminatedEmployee {
	if len(roster) == 0 || len(records) == 0 {
		return nil
	}
	present := make(risk.EmailSet, len(records))
	for _, rec := range records {
		present.Add(rec.UserEmail)
	}

	var out []inventory.TerminatedEmployee
	for _, emp := range roster {
		if present.Contains(emp.Email) {
			out = append(out, emp)
		}
	}
	return out
}
