// Package provenance provides field-level tracking of which source supplied
// each value of a reconciled entity.
//
// The merge keeps the first non-empty value per field, in declared source
// order. Every observation is tracked, kept or not, so a report can show
// where the displayed IP or OS came from and what other sources claimed.
package provenance

import (
	"fmt"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/secopslab/harmonizer/pkg/constants"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

// Resolution describes what the merge did with an observed value.
type Resolution string

// Resolutions.
const (
	Kept     Resolution = "kept"     // first non-empty value for the field
	Ignored  Resolution = "ignored"  // field was already populated
	Identity Resolution = "identity" // the entity's key fields
)

// Provenance records one source's value for one field.
type Provenance struct {
	Source     inventory.SourceID `json:"source" yaml:"source"`
	Origin     inventory.Origin   `json:"origin,omitempty" yaml:"origin,omitempty"`
	Value      string             `json:"value" yaml:"value"`
	Resolution Resolution         `json:"resolution" yaml:"resolution"`
}

// Map tracks provenance for many entities.
type Map map[string][]Provenance // key is "hostname:field"

// Tracker manages provenance tracking during a merge.
type Tracker interface {
	// Track records provenance for a field
	Track(hostname, field string, p Provenance)

	// FindByField retrieves provenance for one field of one entity
	FindByField(hostname, field string) []Provenance

	// FindByHost retrieves all provenance for an entity, by field
	FindByHost(hostname string) map[string][]Provenance

	// Map returns a copy of the complete provenance map
	Map() Map

	// Clear removes all provenance data
	Clear()
}

type tracker struct {
	provenance Map
	enabled    bool
}

// NewTracker creates a new provenance tracker. A disabled tracker records
// nothing and returns nil from every lookup.
func NewTracker(enabled bool) Tracker {
	return &tracker{
		provenance: make(Map),
		enabled:    enabled,
	}
}

func (t *tracker) Track(hostname, field string, p Provenance) {
	if !t.enabled {
		return
	}
	key := makeKey(hostname, field)
	t.provenance[key] = append(t.provenance[key], p)
}

func (t *tracker) FindByField(hostname, field string) []Provenance {
	if !t.enabled {
		return nil
	}
	return t.provenance[makeKey(hostname, field)]
}

func (t *tracker) FindByHost(hostname string) map[string][]Provenance {
	if !t.enabled {
		return nil
	}
	result := make(map[string][]Provenance)
	for key, infos := range t.provenance {
		host, field, ok := splitKey(key)
		if ok && host == hostname {
			result[field] = infos
		}
	}
	return result
}

func (t *tracker) Map() Map {
	if !t.enabled {
		return nil
	}
	result := make(Map, len(t.provenance))
	for k, v := range t.provenance {
		result[k] = slices.Clone(v)
	}
	return result
}

func (t *tracker) Clear() {
	t.provenance = make(Map)
}

func makeKey(hostname, field string) string {
	return hostname + ":" + field
}

// splitKey splits on the last colon; field names never contain one.
func splitKey(key string) (hostname, field string, ok bool) {
	i := strings.LastIndex(key, ":")
	if i < 0 {
		return "", "", false
	}
	return key[:i], key[i+1:], true
}

// Report is a human-readable view of a provenance map.
type Report struct {
	Hosts map[string]HostProvenance `json:"hosts" yaml:"hosts"`
}

// HostProvenance contains provenance for a single entity.
type HostProvenance struct {
	Hostname string           `json:"hostname" yaml:"hostname"`
	Fields   map[string]Field `json:"fields" yaml:"fields"`
}

// Field contains the kept value of a field and what was discarded.
type Field struct {
	Current   Provenance     `json:"current" yaml:"current"`
	History   []Provenance   `json:"history" yaml:"history"`
	Conflicts []ConflictInfo `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`
}

// ConflictInfo describes sources that disagreed on a field.
type ConflictInfo struct {
	Sources        []inventory.SourceID `json:"sources" yaml:"sources"`
	Values         []string             `json:"values" yaml:"values"`
	SelectedSource inventory.SourceID   `json:"selected_source" yaml:"selected_source"`
	Resolution     string               `json:"resolution" yaml:"resolution"`
}

// HasConflicts reports whether any field of any host saw disagreement.
func (r *Report) HasConflicts() bool {
	for _, h := range r.Hosts {
		for _, f := range h.Fields {
			if len(f.Conflicts) > 0 {
				return true
			}
		}
	}
	return false
}

// GenerateReport creates a provenance report from a Map.
func GenerateReport(provenance Map) *Report {
	report := &Report{Hosts: make(map[string]HostProvenance)}

	for key, infos := range provenance {
		hostname, field, ok := splitKey(key)
		if !ok || len(infos) == 0 {
			continue
		}

		host, exists := report.Hosts[hostname]
		if !exists {
			host = HostProvenance{Hostname: hostname, Fields: make(map[string]Field)}
		}

		f := Field{History: slices.Clone(infos), Current: infos[0]}
		for _, info := range infos {
			if info.Resolution == Kept || info.Resolution == Identity {
				f.Current = info
				break
			}
		}
		if c, ok := detectConflict(f.Current, infos); ok {
			f.Conflicts = []ConflictInfo{c}
		}

		host.Fields[field] = f
		report.Hosts[hostname] = host
	}

	return report
}

// detectConflict reports ignored values that differ from the kept one.
func detectConflict(current Provenance, infos []Provenance) (ConflictInfo, bool) {
	conflict := ConflictInfo{
		Sources:        []inventory.SourceID{current.Source},
		Values:         []string{current.Value},
		SelectedSource: current.Source,
		Resolution:     "first non-empty value in source order",
	}
	for _, info := range infos {
		if info.Resolution != Ignored || info.Value == "" || info.Value == current.Value {
			continue
		}
		conflict.Sources = append(conflict.Sources, info.Source)
		conflict.Values = append(conflict.Values, info.Value)
	}
	return conflict, len(conflict.Sources) > 1
}

// String generates a string representation of the provenance report.
func (r *Report) String() string {
	var sb strings.Builder

	sb.WriteString("Provenance Report\n")
	sb.WriteString("=================\n\n")

	hosts := make([]string, 0, len(r.Hosts))
	for h := range r.Hosts {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, hostname := range hosts {
		host := r.Hosts[hostname]
		sb.WriteString(hostname + "\n")
		sb.WriteString(strings.Repeat("-", 40) + "\n")

		fields := make([]string, 0, len(host.Fields))
		for field := range host.Fields {
			fields = append(fields, field)
		}
		sort.Strings(fields)

		for _, field := range fields {
			f := host.Fields[field]
			fmt.Fprintf(&sb, "  %s: %q (from %s)\n", field, f.Current.Value, f.Current.Source)
			for _, c := range f.Conflicts {
				for i := 1; i < len(c.Sources); i++ {
					fmt.Fprintf(&sb, "    ignored %q from %s\n", c.Values[i], c.Sources[i])
				}
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

// File represents a provenance file stored on disk.
type File struct {
	RunID      string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Provenance Map    `json:"provenance" yaml:"provenance"`
}

// Load reads provenance data from a YAML file.
// Returns nil, nil if the file doesn't exist.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from configuration
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WrapIO("read", path, err)
	}

	var pf File
	if err := yaml.Unmarshal(data, &pf); err != nil {
		return nil, errors.WrapParse("yaml", path, err)
	}
	return &pf, nil
}

// Save writes the provenance file as YAML.
func (f *File) Save(path string) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return errors.WrapParse("yaml", path, err)
	}
	if err := os.WriteFile(path, data, constants.FilePermissions); err != nil {
		return errors.WrapIO("write", path, err)
	}
	return nil
}
