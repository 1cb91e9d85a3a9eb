// Package inventory defines the device inventory data model shared by the
// source adapters, the reconciliation core and the presentation layers.
//
// Every type here is plain data. Records produced by adapters (Endpoint,
// TerminatedEmployee) are treated as immutable input; NormalizedEndpoint is
// the hostname-keyed entity rebuilt on every reconciliation run.
package inventory

import (
	"fmt"
	"slices"
	"strings"
)

// SourceID identifies one of the security tool categories whose device
// lists are reconciled. It names provenance, never ownership.
type SourceID string

// String returns the string representation of a source ID.
func (id SourceID) String() string {
	return string(id)
}

// Source categories, in declared order.
const (
	VulnerabilityMgmt SourceID = "vulnerability-mgmt"
	XDR               SourceID = "xdr"
	ZeroTrustNetwork  SourceID = "zero-trust-network"
	PrivilegedAccess  SourceID = "privileged-access"
	DirectoryDevice   SourceID = "directory-device"
)

// SourceIDs returns all source categories in declared order. Merging and
// per-source reporting always iterate in this order.
func SourceIDs() []SourceID {
	return []SourceID{
		VulnerabilityMgmt,
		XDR,
		ZeroTrustNetwork,
		PrivilegedAccess,
		DirectoryDevice,
	}
}

// IsValid returns true if the ID is one of the defined categories.
func (id SourceID) IsValid() bool {
	return slices.Contains(SourceIDs(), id)
}

// Index returns the position of id in declared order, or -1.
func (id SourceID) Index() int {
	return slices.Index(SourceIDs(), id)
}

// DisplayName returns a human-readable category name.
func (id SourceID) DisplayName() string {
	switch id {
	case VulnerabilityMgmt:
		return "Vulnerability Management"
	case XDR:
		return "XDR"
	case ZeroTrustNetwork:
		return "Zero Trust Network"
	case PrivilegedAccess:
		return "Privileged Access"
	case DirectoryDevice:
		return "Directory / Device Management"
	}
	return string(id)
}

// sourceAliases maps common tool names to their category.
var sourceAliases = map[string]SourceID{
	"vm":            VulnerabilityMgmt,
	"vulnerability": VulnerabilityMgmt,
	"vicarius":      VulnerabilityMgmt,
	"cortex":        XDR,
	"edr":           XDR,
	"ztna":          ZeroTrustNetwork,
	"zero-trust":    ZeroTrustNetwork,
	"warp":          ZeroTrustNetwork,
	"pam":           PrivilegedAccess,
	"directory":     DirectoryDevice,
	"jumpcloud":     DirectoryDevice,
	"mdm":           DirectoryDevice,
}

// ParseSourceID resolves a category ID or a known tool alias,
// case-insensitively.
func ParseSourceID(s string) (SourceID, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	key = strings.ReplaceAll(key, "_", "-")
	if id := SourceID(key); id.IsValid() {
		return id, nil
	}
	if id, ok := sourceAliases[key]; ok {
		return id, nil
	}
	return "", fmt.Errorf("unknown source %q", s)
}

// Origin records where a source's data for a run came from.
type Origin string

// String returns the string representation of an origin.
func (o Origin) String() string {
	return string(o)
}

// Origins, from most to least authoritative.
const (
	OriginAPI        Origin = "api"
	OriginFileImport Origin = "file-import"
	OriginSample     Origin = "sample"
)

// Origins returns the origins in precedence order.
func Origins() []Origin {
	return []Origin{OriginAPI, OriginFileImport, OriginSample}
}

// IsValid returns true if the origin is one of the defined constants.
func (o Origin) IsValid() bool {
	return slices.Contains(Origins(), o)
}
