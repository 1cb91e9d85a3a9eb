package alerts

import (
	"fmt"

	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/reconcile"
)

// Generate maps a result to its summary alerts: errors first, then
// warnings, then informational alerts. Empty collections produce nothing,
// so every alert has a positive count. Call it once per run.
func Generate(result *reconcile.Result, run Run) []Alert {
	if result == nil {
		return nil
	}

	g := generator{run: run}

	g.add(TypeError, KindTerminatedActive, "",
		"Terminated employees with active endpoints",
		len(result.TerminatedWithActiveEndpoints), "%d endpoint(s) assigned to terminated employees")
	g.add(TypeError, KindTerminatedDirectory, inventory.DirectoryDevice,
		"Terminated employees in directory",
		len(result.TerminatedInDirectory), "%d terminated employee(s) still present in directory/device management")
	g.add(TypeError, KindTerminatedPAM, inventory.PrivilegedAccess,
		"Terminated employees in privileged access",
		len(result.TerminatedInPAM), "%d terminated employee(s) still present in privileged access management")
	g.add(TypeError, KindNonCompliant, "",
		"Non-compliant endpoints",
		len(result.NonCompliant), "%d endpoint(s) missing required sources")

	for _, id := range inventory.SourceIDs() {
		g.add(TypeWarning, KindMissingFromSource, id,
			"Endpoints missing from "+id.DisplayName(),
			len(result.MissingFrom[id]), "%d endpoint(s) not found in "+id.String())
	}
	g.add(TypeWarning, KindNamingViolation, "",
		"Hostname naming violations",
		len(result.NamingViolations), "%d workstation(s) do not follow the naming convention")

	for _, id := range inventory.SourceIDs() {
		g.add(TypeInfo, KindOnlyInSource, id,
			"Endpoints only in "+id.DisplayName(),
			len(result.OnlyIn[id]), "%d endpoint(s) exist only in "+id.String())
	}
	g.add(TypeInfo, KindFullySynced, "",
		"Synchronized endpoints",
		len(result.InAllSources), "%d endpoint(s) present in every required source")

	return g.alerts
}

type generator struct {
	run    Run
	alerts []Alert
}

func (g *generator) add(t Type, kind Kind, source inventory.SourceID, title string, count int, format string) {
	if count == 0 {
		return
	}
	id := string(kind)
	if source != "" {
		id += "-" + source.String()
	}
	if g.run.ID != "" {
		id = g.run.ID + "-" + id
	}
	g.alerts = append(g.alerts, Alert{
		ID:        id,
		Type:      t,
		Kind:      kind,
		Title:     title,
		Message:   fmt.Sprintf(format, count),
		Count:     count,
		Timestamp: g.run.Timestamp,
		Source:    source,
	})
}
