package inventory

import "slices"

// Endpoint is one device observation reported by a source adapter.
type Endpoint struct {
	Hostname  string   `json:"hostname" yaml:"hostname"`
	IP        string   `json:"ip" yaml:"ip"`
	UUID      string   `json:"uuid" yaml:"uuid"`
	OS        string   `json:"os,omitempty" yaml:"os,omitempty"`
	LastSeen  string   `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty"`
	Source    SourceID `json:"source" yaml:"source"`
	Origin    Origin   `json:"origin" yaml:"origin"`
	UserEmail string   `json:"userEmail,omitempty" yaml:"userEmail,omitempty"`
}

// NormalizedEndpoint is the canonical, hostname-keyed entity that folds
// every source's observation of one device.
type NormalizedEndpoint struct {
	Hostname      string              `json:"hostname" yaml:"hostname"` // lowercased, trimmed merge key
	IP            string              `json:"ip" yaml:"ip"`
	UUID          string              `json:"uuid" yaml:"uuid"`
	OS            string              `json:"os,omitempty" yaml:"os,omitempty"`
	LastSeen      string              `json:"lastSeen,omitempty" yaml:"lastSeen,omitempty"`
	Sources       []SourceID          `json:"sources" yaml:"sources"` // no duplicates, insertion order
	SourceOrigins map[SourceID]Origin `json:"sourceOrigins" yaml:"sourceOrigins"`
	UserEmail     string              `json:"userEmail,omitempty" yaml:"userEmail,omitempty"`
	RiskLevel     RiskLevel           `json:"riskLevel" yaml:"riskLevel"`
	RiskReason    string              `json:"riskReason,omitempty" yaml:"riskReason,omitempty"`
}

// HasSource reports whether the entity was observed by the given source.
func (e *NormalizedEndpoint) HasSource(id SourceID) bool {
	return slices.Contains(e.Sources, id)
}

// HasAllSources reports whether every id in ids observed the entity.
func (e *NormalizedEndpoint) HasAllSources(ids []SourceID) bool {
	for _, id := range ids {
		if !e.HasSource(id) {
			return false
		}
	}
	return true
}

// OnlyIn reports whether id is the sole source that observed the entity.
func (e *NormalizedEndpoint) OnlyIn(id SourceID) bool {
	return len(e.Sources) == 1 && e.Sources[0] == id
}

// AddSource records an observation by id. It returns false if the source
// was already present; its origin is updated either way.
func (e *NormalizedEndpoint) AddSource(id SourceID, origin Origin) bool {
	if e.SourceOrigins == nil {
		e.SourceOrigins = make(map[SourceID]Origin)
	}
	e.SourceOrigins[id] = origin
	if e.HasSource(id) {
		return false
	}
	e.Sources = append(e.Sources, id)
	return true
}

// Clone returns a deep copy of the entity.
func (e *NormalizedEndpoint) Clone() *NormalizedEndpoint {
	c := *e
	c.Sources = slices.Clone(e.Sources)
	if e.SourceOrigins != nil {
		c.SourceOrigins = make(map[SourceID]Origin, len(e.SourceOrigins))
		for k, v := range e.SourceOrigins {
			c.SourceOrigins[k] = v
		}
	}
	return &c
}

// SortedSources returns the entity's sources in declared category order.
func (e *NormalizedEndpoint) SortedSources() []SourceID {
	out := slices.Clone(e.Sources)
	slices.SortFunc(out, func(a, b SourceID) int {
		return a.Index() - b.Index()
	})
	return out
}

// TerminatedEmployee is a roster entry for an offboarded employee.
type TerminatedEmployee struct {
	ID              string `json:"id" yaml:"id"`
	Name            string `json:"name" yaml:"name"`
	Email           string `json:"email" yaml:"email"`
	TerminationDate string `json:"terminationDate" yaml:"terminationDate"`
	Notes           string `json:"notes,omitempty" yaml:"notes,omitempty"`
}
