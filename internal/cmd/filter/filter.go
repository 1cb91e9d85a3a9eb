// Package filter selects endpoint sets from a reconciliation result for
// display and export.
package filter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/secopslab/harmonizer/internal/matcher"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/reconcile"
)

// Set names accepted by EndpointFilter.Set.
const (
	SetAll          = "all"
	SetNonCompliant = "non-compliant"
	SetCompliant    = "compliant"
	SetWorkstations = "workstations"
	SetServers      = "servers"
	SetNaming       = "naming-violations"
	SetTerminated   = "terminated"
	SetMissing      = "missing" // missing:<source>
	SetOnly         = "only"    // only:<source>
)

// Sets returns the accepted set names for help text.
func Sets() []string {
	return []string{
		SetAll, SetNonCompliant, SetCompliant, SetWorkstations, SetServers,
		SetNaming, SetTerminated, SetMissing + ":<source>", SetOnly + ":<source>",
	}
}

// EndpointFilter narrows a result to the endpoints a command shows.
type EndpointFilter struct {
	Set    string   // result collection; empty means all
	Risk   string   // minimum risk level
	Hosts  []string // hostname glob or regex patterns; any may match
	Search string   // substring of hostname, IP or user
	Sort   string   // hostname, risk or sources; empty keeps merge order
}

// Apply returns the filtered endpoints.
func (f *EndpointFilter) Apply(result *reconcile.Result) ([]*inventory.NormalizedEndpoint, error) {
	endpoints, err := selectSet(result, f.Set)
	if err != nil {
		return nil, err
	}

	var minRisk inventory.RiskLevel
	if f.Risk != "" {
		minRisk, err = inventory.ParseRiskLevel(f.Risk)
		if err != nil {
			return nil, err
		}
	}
	hosts, err := matcher.NewSet(f.Hosts)
	if err != nil {
		return nil, err
	}
	search := strings.ToLower(strings.TrimSpace(f.Search))

	filtered := make([]*inventory.NormalizedEndpoint, 0, len(endpoints))
	for _, e := range endpoints {
		if minRisk != "" && e.RiskLevel.Severity() < minRisk.Severity() {
			continue
		}
		if !hosts.Match(e.Hostname) {
			continue
		}
		if search != "" && !matchesSearch(e, search) {
			continue
		}
		filtered = append(filtered, e)
	}

	switch f.Sort {
	case "", "merge":
	case "hostname":
		sort.SliceStable(filtered, func(i, j int) bool { return filtered[i].Hostname < filtered[j].Hostname })
	case "risk":
		sort.SliceStable(filtered, func(i, j int) bool {
			return filtered[i].RiskLevel.Severity() > filtered[j].RiskLevel.Severity()
		})
	case "sources":
		sort.SliceStable(filtered, func(i, j int) bool { return len(filtered[i].Sources) < len(filtered[j].Sources) })
	default:
		return nil, fmt.Errorf("unknown sort %q (want hostname, risk or sources)", f.Sort)
	}
	return filtered, nil
}

func matchesSearch(e *inventory.NormalizedEndpoint, search string) bool {
	return strings.Contains(e.Hostname, search) ||
		strings.Contains(e.IP, search) ||
		strings.Contains(strings.ToLower(e.UserEmail), search)
}

func selectSet(r *reconcile.Result, set string) ([]*inventory.NormalizedEndpoint, error) {
	name, arg, _ := strings.Cut(strings.ToLower(strings.TrimSpace(set)), ":")
	switch name {
	case "", SetAll:
		return r.AllEndpoints, nil
	case SetNonCompliant, "noncompliant":
		return r.NonCompliant, nil
	case SetCompliant, "in-all-sources":
		return r.InAllSources, nil
	case SetWorkstations:
		return r.Workstations, nil
	case SetServers:
		return r.Servers, nil
	case SetNaming, "naming":
		return r.NamingViolations, nil
	case SetTerminated:
		return r.TerminatedWithActiveEndpoints, nil
	case SetMissing, SetOnly:
		id, err := inventory.ParseSourceID(arg)
		if err != nil {
			return nil, fmt.Errorf("set %q: %w", set, err)
		}
		if name == SetMissing {
			return r.MissingFrom[id], nil
		}
		return r.OnlyIn[id], nil
	}
	return nil, fmt.Errorf("unknown set %q (want one of %s)", set, strings.Join(Sets(), ", "))
}
