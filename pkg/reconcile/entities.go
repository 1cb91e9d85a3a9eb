package reconcile

import "github.com/secopslab/harmonizer/pkg/inventory"

// EntityMap is a hostname-keyed map that remembers insertion order.
// Iteration always follows the order hostnames were first observed.
type EntityMap struct {
	keys  []string
	byKey map[string]*inventory.NormalizedEndpoint
}

// NewEntityMap creates an empty EntityMap.
func NewEntityMap() *EntityMap {
	return &EntityMap{byKey: make(map[string]*inventory.NormalizedEndpoint)}
}

// Get returns the entity for a hostname key.
func (m *EntityMap) Get(key string) (*inventory.NormalizedEndpoint, bool) {
	e, ok := m.byKey[key]
	return e, ok
}

// Put inserts an entity under its hostname. An existing key keeps its
// original position.
func (m *EntityMap) Put(e *inventory.NormalizedEndpoint) {
	if _, exists := m.byKey[e.Hostname]; !exists {
		m.keys = append(m.keys, e.Hostname)
	}
	m.byKey[e.Hostname] = e
}

// Len returns the number of entities.
func (m *EntityMap) Len() int {
	return len(m.keys)
}

// Keys returns the hostname keys in insertion order.
func (m *EntityMap) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Entities returns the entities in insertion order.
func (m *EntityMap) Entities() []*inventory.NormalizedEndpoint {
	out := make([]*inventory.NormalizedEndpoint, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.byKey[k]
	}
	return out
}

// Filter returns the entities matching fn, in insertion order.
func (m *EntityMap) Filter(fn func(*inventory.NormalizedEndpoint) bool) []*inventory.NormalizedEndpoint {
	var out []*inventory.NormalizedEndpoint
	for _, k := range m.keys {
		if e := m.byKey[k]; fn(e) {
			out = append(out, e)
		}
	}
	return out
}
