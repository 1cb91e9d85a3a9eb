// Package table converts reconciliation data into rows for CLI tables.
package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/secopslab/harmonizer/pkg/alerts"
	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/reconcile"
	"github.com/secopslab/harmonizer/pkg/sources"
	"github.com/secopslab/harmonizer/pkg/store"
)

// Align represents column alignment in tables.
type Align int

const (
	// AlignDefault uses the default alignment (skip).
	AlignDefault Align = iota
	// AlignLeft aligns content to the left.
	AlignLeft
	// AlignCenter centers content.
	AlignCenter
	// AlignRight aligns content to the right.
	AlignRight
)

// Data represents table formatting data to avoid import cycles.
type Data struct {
	Headers         []string
	Rows            [][]string
	ColumnAlignment []Align // Optional: column alignment
}

// dash replaces empty cells.
func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// joinSources renders source IDs with their short display form.
func joinSources(ids []inventory.SourceID) string {
	if len(ids) == 0 {
		return "-"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

// EndpointsToTableData converts endpoints to table format. Wide adds the
// uuid, OS, last-seen, user and reason columns.
func EndpointsToTableData(endpoints []*inventory.NormalizedEndpoint, wide bool) Data {
	headers := []string{"Hostname", "IP", "Sources", "Risk"}
	if wide {
		headers = append(headers, "UUID", "OS", "Last Seen", "User", "Reason")
	}

	rows := make([][]string, 0, len(endpoints))
	for _, e := range endpoints {
		row := []string{
			e.Hostname,
			dash(e.IP),
			joinSources(e.SortedSources()),
			e.RiskLevel.String(),
		}
		if wide {
			row = append(row, dash(e.UUID), dash(e.OS), dash(e.LastSeen), dash(e.UserEmail), dash(e.RiskReason))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// SummaryToTableData converts a result summary to a metric/count table.
func SummaryToTableData(s reconcile.Summary) Data {
	rows := [][]string{
		{"Total endpoints", strconv.Itoa(s.Total)},
		{"Workstations", strconv.Itoa(s.Workstations)},
		{"Servers", strconv.Itoa(s.Servers)},
		{"Naming violations", strconv.Itoa(s.NamingViolations)},
		{"In all required sources", strconv.Itoa(s.InAllSources)},
		{"Non-compliant", strconv.Itoa(s.NonCompliant)},
		{"Terminated with active endpoints", strconv.Itoa(s.TerminatedActive)},
		{"Terminated in directory", strconv.Itoa(s.TerminatedInDirectory)},
		{"Terminated in PAM", strconv.Itoa(s.TerminatedInPAM)},
	}
	for _, id := range inventory.SourceIDs() {
		rows = append(rows, []string{"Missing from " + id.DisplayName(), strconv.Itoa(s.MissingFrom[id])})
	}
	for _, level := range []inventory.RiskLevel{inventory.RiskHigh, inventory.RiskMedium, inventory.RiskLow, inventory.RiskNone} {
		rows = append(rows, []string{"Risk " + level.String(), strconv.Itoa(s.ByRisk[level])})
	}
	return Data{
		Headers:         []string{"Metric", "Count"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
}

// SourcesToTableData converts fetch results to table format.
func SourcesToTableData(results sources.Results) Data {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		} else if r.Error != "" {
			status = r.Error
		}
		rows = append(rows, []string{
			r.ID.DisplayName(),
			string(r.Origin),
			strconv.Itoa(r.Count),
			r.Duration.Round(1e6).String(),
			status,
		})
	}
	return Data{
		Headers:         []string{"Source", "Origin", "Records", "Duration", "Status"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignLeft},
	}
}

// AlertsToTableData converts alerts to table format.
func AlertsToTableData(list []alerts.Alert, wide bool) Data {
	headers := []string{"", "Type", "Title", "Count"}
	if wide {
		headers = append(headers, "Message", "ID")
	}
	rows := make([][]string, 0, len(list))
	for _, a := range list {
		row := []string{a.Type.Icon(), string(a.Type), a.Title, strconv.Itoa(a.Count)}
		if wide {
			row = append(row, a.Message, a.ID)
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// SyncLogsToTableData converts sync logs to table format.
func SyncLogsToTableData(logs []store.SyncLog, wide bool) Data {
	headers := []string{"Run", "Time", "Status", "Message"}
	if wide {
		headers = append(headers, "Details")
	}
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		row := []string{l.ID, l.Timestamp.Time.Format("2006-01-02 15:04:05"), string(l.Status), l.Message}
		if wide {
			row = append(row, dash(strings.Join(l.Details, "; ")))
		}
		rows = append(rows, row)
	}
	return Data{Headers: headers, Rows: rows}
}

// SnapshotsToTableData converts snapshot summaries to table format.
func SnapshotsToTableData(infos []store.SnapshotInfo) Data {
	rows := make([][]string, 0, len(infos))
	for _, s := range infos {
		rows = append(rows, []string{
			s.RunID,
			s.CreatedAt.Time.Format("2006-01-02 15:04:05"),
			strconv.Itoa(s.Endpoints),
			strconv.Itoa(s.Alerts),
		})
	}
	return Data{
		Headers:         []string{"Run", "Created", "Endpoints", "Alerts"},
		Rows:            rows,
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight},
	}
}

// RulesToTableData converts a policy's rules, fallback last, to table format.
func RulesToTableData(p *policy.Policy) Data {
	rules := append(append([]policy.Rule(nil), p.Rules...), p.Fallback)
	rows := make([][]string, 0, len(rules))
	for i, r := range rules {
		matcher := "(fallback)"
		if i < len(p.Rules) {
			var parts []string
			if r.Prefix != "" {
				parts = append(parts, "prefix "+r.Prefix)
			}
			if r.Pattern != "" {
				parts = append(parts, "pattern "+r.Pattern)
			}
			matcher = strings.Join(parts, ", ")
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			r.Name,
			string(r.Category),
			matcher,
			joinSources(r.Required),
			joinSources(r.Informational),
		})
	}
	return Data{
		Headers: []string{"#", "Rule", "Category", "Matcher", "Required", "Informational"},
		Rows:    rows,
	}
}

// ClassificationsToTableData converts classifications to table format.
func ClassificationsToTableData(classes []policy.Classification) Data {
	rows := make([][]string, 0, len(classes))
	for _, c := range classes {
		rows = append(rows, []string{
			dash(c.Hostname),
			string(c.Category),
			c.Rule,
			fmt.Sprintf("%t", c.NamingViolation),
			joinSources(c.Required),
		})
	}
	return Data{
		Headers: []string{"Hostname", "Category", "Rule", "Naming Violation", "Required"},
		Rows:    rows,
	}
}
