package reconcile

import (
	"strings"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

// HostnameKey returns the merge key for a hostname: trimmed and lowercased.
func HostnameKey(hostname string) string {
	return strings.ToLower(strings.TrimSpace(hostname))
}

// NormalizeEndpoint converts one source record into an entity fragment.
// The caller is expected to skip records with an empty hostname.
func NormalizeEndpoint(e inventory.Endpoint) *inventory.NormalizedEndpoint {
	n := &inventory.NormalizedEndpoint{
		Hostname:      HostnameKey(e.Hostname),
		IP:            strings.TrimSpace(e.IP),
		UUID:          strings.TrimSpace(e.UUID),
		OS:            strings.TrimSpace(e.OS),
		LastSeen:      strings.TrimSpace(e.LastSeen),
		UserEmail:     strings.TrimSpace(e.UserEmail),
		Sources:       []inventory.SourceID{e.Source},
		SourceOrigins: map[inventory.SourceID]inventory.Origin{e.Source: e.Origin},
		RiskLevel:     inventory.RiskNone,
	}
	return n
}
