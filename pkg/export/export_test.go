package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/pkg/inventory"
)

func TestWriteCSV(t *testing.T) {
	endpoints := []*inventory.NormalizedEndpoint{
		{
			Hostname:  "srv-db-01",
			IP:        "10.0.0.1",
			UUID:      "uuid-002",
			OS:        "CentOS 8",
			LastSeen:  "2024-01-25T10:25:00Z",
			Sources:   []inventory.SourceID{inventory.VulnerabilityMgmt, inventory.XDR},
			UserEmail: "ops@co.com",
			RiskLevel: inventory.RiskNone,
		},
		{
			Hostname: "exa-mbp-1",
			OS:       `Mac "Sonoma", 14`,
			Sources:  []inventory.SourceID{inventory.XDR},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, endpoints))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, []string{"hostname", "ip", "uuid", "os", "lastSeen", "userEmail", "sources", "riskLevel"}, records[0])
	assert.Equal(t, []string{
		"srv-db-01", "10.0.0.1", "uuid-002", "CentOS 8", "2024-01-25T10:25:00Z", "ops@co.com",
		"vulnerability-mgmt, xdr", "none",
	}, records[1])
	assert.Equal(t, `Mac "Sonoma", 14`, records[2][3])
	assert.Equal(t, "none", records[2][7])
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "hostname,ip,uuid,os,lastSeen,userEmail,sources,riskLevel\n", buf.String())
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "endpoints.csv")
	e := &inventory.NormalizedEndpoint{Hostname: "h", Sources: []inventory.SourceID{inventory.PrivilegedAccess}, RiskLevel: inventory.RiskHigh}

	require.NoError(t, WriteFile(path, []*inventory.NormalizedEndpoint{e}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "h,,,,,,privileged-access,high")
}

func TestFilename(t *testing.T) {
	ts := time.Date(2024, 1, 25, 23, 30, 0, 0, time.FixedZone("X", -3*3600))
	assert.Equal(t, "noncompliant_2024-01-26.csv", Filename("noncompliant", ts))
	assert.Equal(t, "endpoints_2024-01-26.csv", Filename("", ts))
}
