package inventory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceIDsDeclaredOrder(t *testing.T) {
	assert.Equal(t, []SourceID{
		VulnerabilityMgmt, XDR, ZeroTrustNetwork, PrivilegedAccess, DirectoryDevice,
	}, SourceIDs())

	for i, id := range SourceIDs() {
		assert.True(t, id.IsValid())
		assert.Equal(t, i, id.Index())
	}
	assert.False(t, SourceID("antivirus").IsValid())
	assert.Equal(t, -1, SourceID("antivirus").Index())
}

func TestParseSourceID(t *testing.T) {
	tests := []struct {
		in      string
		want    SourceID
		wantErr bool
	}{
		{in: "xdr", want: XDR},
		{in: " Zero-Trust-Network ", want: ZeroTrustNetwork},
		{in: "directory_device", want: DirectoryDevice},
		{in: "vicarius", want: VulnerabilityMgmt},
		{in: "cortex", want: XDR},
		{in: "WARP", want: ZeroTrustNetwork},
		{in: "pam", want: PrivilegedAccess},
		{in: "jumpcloud", want: DirectoryDevice},
		{in: "firewall", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSourceID(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddSourceNoDuplicates(t *testing.T) {
	e := &NormalizedEndpoint{Hostname: "srv-db-01"}

	assert.True(t, e.AddSource(XDR, OriginAPI))
	assert.True(t, e.AddSource(VulnerabilityMgmt, OriginSample))
	assert.False(t, e.AddSource(XDR, OriginFileImport))

	assert.Equal(t, []SourceID{XDR, VulnerabilityMgmt}, e.Sources)
	assert.Equal(t, OriginFileImport, e.SourceOrigins[XDR])
	assert.Equal(t, []SourceID{VulnerabilityMgmt, XDR}, e.SortedSources())
}

func TestSourcePredicates(t *testing.T) {
	e := &NormalizedEndpoint{Sources: []SourceID{XDR}}
	assert.True(t, e.OnlyIn(XDR))
	assert.False(t, e.OnlyIn(VulnerabilityMgmt))
	assert.True(t, e.HasAllSources(nil))
	assert.False(t, e.HasAllSources([]SourceID{XDR, ZeroTrustNetwork}))

	e.Sources = append(e.Sources, ZeroTrustNetwork)
	assert.False(t, e.OnlyIn(XDR))
	assert.True(t, e.HasAllSources([]SourceID{ZeroTrustNetwork, XDR}))
}

func TestClone(t *testing.T) {
	e := &NormalizedEndpoint{Hostname: "a"}
	e.AddSource(XDR, OriginAPI)

	c := e.Clone()
	c.AddSource(PrivilegedAccess, OriginSample)
	c.SourceOrigins[XDR] = OriginSample

	assert.Equal(t, []SourceID{XDR}, e.Sources)
	assert.Equal(t, OriginAPI, e.SourceOrigins[XDR])
}

func TestRiskLevel(t *testing.T) {
	assert.Equal(t, RiskHigh, RiskMedium.Max(RiskHigh))
	assert.Equal(t, RiskHigh, RiskHigh.Max(RiskLow))
	assert.Equal(t, RiskNone, RiskLevel("").Max(RiskNone))
	assert.Equal(t, "none", RiskLevel("").String())
	assert.Less(t, RiskLow.Severity(), RiskMedium.Severity())

	l, err := ParseRiskLevel("MEDIUM")
	require.NoError(t, err)
	assert.Equal(t, RiskMedium, l)

	_, err = ParseRiskLevel("critical")
	assert.Error(t, err)
}
