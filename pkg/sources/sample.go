package sources

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/agentstation/utc"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

// sampleHost is one built-in device and the categories that report it.
type sampleHost struct {
	hostname string
	ip       string
	os       string
	email    string
	age      time.Duration
	in       []inventory.SourceID
}

var (
	vm   = inventory.VulnerabilityMgmt
	xdr  = inventory.XDR
	ztna = inventory.ZeroTrustNetwork
	pam  = inventory.PrivilegedAccess
	dir  = inventory.DirectoryDevice
)

// sampleHosts covers each finding type: fully synced servers, devices
// missing from a source, a naming violation, and a terminated user.
var sampleHosts = []sampleHost{
	{"srv-web-01", "10.0.1.10", "Ubuntu 22.04", "", 2 * time.Hour, []inventory.SourceID{vm, xdr, ztna}},
	{"srv-db-01", "10.0.1.20", "RHEL 9", "", 1 * time.Hour, []inventory.SourceID{vm, xdr, pam}},
	{"srv-app-01", "10.0.1.30", "Ubuntu 22.04", "", 3 * time.Hour, []inventory.SourceID{vm, xdr}},
	{"srv-mail-01", "10.0.1.40", "Windows Server 2022", "", 5 * time.Hour, []inventory.SourceID{vm, xdr}},
	{"srv-backup-01", "10.0.1.50", "Debian 12", "", 26 * time.Hour, []inventory.SourceID{vm}},
	{"srv-proxy-01", "10.0.1.60", "Ubuntu 20.04", "", 4 * time.Hour, []inventory.SourceID{vm}},
	{"srv-analytics-01", "10.0.2.10", "Ubuntu 22.04", "", 6 * time.Hour, []inventory.SourceID{xdr}},
	{"srv-cache-01", "10.0.2.20", "Alpine 3.19", "", 7 * time.Hour, []inventory.SourceID{xdr}},
	{"srv-vpn-01", "10.0.3.10", "Ubuntu 22.04", "", 30 * time.Minute, []inventory.SourceID{ztna}},
	{"srv-dns-01", "10.0.3.20", "Debian 12", "", 45 * time.Minute, []inventory.SourceID{ztna}},
	{"exa-arklx-01", "10.10.0.11", "Arch Linux", "priya.nair@example.com", 20 * time.Minute, []inventory.SourceID{vm, xdr, ztna, dir}},
	{"exa-fin-01", "10.10.0.21", "Windows 11", "alex.chen@example.com", 10 * time.Minute, []inventory.SourceID{vm, xdr, ztna, pam, dir}},
	{"exa-mkt02", "10.10.0.22", "macOS 14", "jordan.reyes@example.com", 3 * time.Hour, []inventory.SourceID{vm, xdr, ztna, dir}},
	{"exa-dev-07", "10.10.0.27", "Windows 11", "maria.lopez@example.com", 1 * time.Hour, []inventory.SourceID{vm, ztna, pam, dir}},
	{"exa-laptop-temp", "10.10.0.99", "Windows 10", "", 50 * time.Hour, []inventory.SourceID{vm, ztna}},
}

// SampleSource serves built-in demo devices for a category.
type SampleSource struct {
	category inventory.SourceID
	now      func() time.Time
}

// NewSampleSource creates a sample source.
func NewSampleSource(id inventory.SourceID) *SampleSource {
	return &SampleSource{category: id, now: func() time.Time { return utc.Now().Time }}
}

// ID implements Source.
func (s *SampleSource) ID() inventory.SourceID { return s.category }

// Origin implements Source.
func (s *SampleSource) Origin() inventory.Origin { return inventory.OriginSample }

// Fetch returns the sample devices reported by this category.
func (s *SampleSource) Fetch(ctx context.Context) ([]inventory.Endpoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	now := s.now()
	var out []inventory.Endpoint
	for i, h := range sampleHosts {
		if !slices.Contains(h.in, s.category) {
			continue
		}
		out = append(out, inventory.Endpoint{
			Hostname:  h.hostname,
			IP:        h.ip,
			UUID:      sampleUUID(s.category, i),
			OS:        h.os,
			LastSeen:  now.Add(-h.age).UTC().Format(time.RFC3339),
			UserEmail: h.email,
			Source:    s.category,
			Origin:    inventory.OriginSample,
		})
	}
	return out, nil
}

// sampleUUID is stable per category and host so repeated runs agree.
func sampleUUID(id inventory.SourceID, i int) string {
	return fmt.Sprintf("%s-%04d", id, i+1)
}
