package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestSourcesListOrder(t *testing.T) {
	srcs := NewSources(
		&Static{Category: inventory.DirectoryDevice},
		&Static{Category: inventory.VulnerabilityMgmt},
		&Static{Category: inventory.ZeroTrustNetwork},
	)
	assert.Equal(t, []inventory.SourceID{
		inventory.VulnerabilityMgmt,
		inventory.ZeroTrustNetwork,
		inventory.DirectoryDevice,
	}, srcs.IDs())

	srcs.Delete(inventory.ZeroTrustNetwork)
	assert.Equal(t, 2, srcs.Len())
	_, ok := srcs.Get(inventory.ZeroTrustNetwork)
	assert.False(t, ok)
}

func TestEndpointFromRecordAliases(t *testing.T) {
	tests := []struct {
		name   string
		record map[string]any
		want   inventory.Endpoint
		ok     bool
	}{
		{
			name:   "canonical",
			record: map[string]any{"hostname": "srv-1", "ip": "10.0.0.1", "uuid": "u1", "os": "linux", "lastSeen": "2024-01-01", "userEmail": "a@x.com"},
			want:   inventory.Endpoint{Hostname: "srv-1", IP: "10.0.0.1", UUID: "u1", OS: "linux", LastSeen: "2024-01-01", UserEmail: "a@x.com"},
			ok:     true,
		},
		{
			name:   "xdr style",
			record: map[string]any{"endpoint_id": "e-9", "endpoint_name": "srv-2", "ip_address": "10.0.0.2", "platform": "windows", "last_seen": "t"},
			want:   inventory.Endpoint{Hostname: "srv-2", IP: "10.0.0.2", UUID: "e-9", OS: "windows", LastSeen: "t"},
			ok:     true,
		},
		{
			name:   "ztna style",
			record: map[string]any{"device_id": 42, "device_name": " srv-3 ", "ipv4": "10.0.0.3", "os_type": "mac", "last_connected": "t"},
			want:   inventory.Endpoint{Hostname: "srv-3", IP: "10.0.0.3", UUID: "42", OS: "mac", LastSeen: "t"},
			ok:     true,
		},
		{
			name:   "vm style mixed case",
			record: map[string]any{"Name": "srv-4", "ipAddress": "10.0.0.4", "operatingSystem": "rhel", "lastSeenAt": "t", "email": "b@x.com"},
			want:   inventory.Endpoint{Hostname: "srv-4", IP: "10.0.0.4", OS: "rhel", LastSeen: "t", UserEmail: "b@x.com"},
			ok:     true,
		},
		{
			name:   "no hostname",
			record: map[string]any{"ip": "10.0.0.5"},
			want:   inventory.Endpoint{IP: "10.0.0.5"},
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := endpointFromRecord(tt.record, inventory.XDR, inventory.OriginAPI)
			assert.Equal(t, tt.ok, ok)
			tt.want.Source = inventory.XDR
			tt.want.Origin = inventory.OriginAPI
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRecordsFromPayload(t *testing.T) {
	records, err := recordsFromPayload([]any{map[string]any{"hostname": "a"}, "junk"})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	records, err = recordsFromPayload(map[string]any{"total": 1, "Devices": []any{map[string]any{"hostname": "a"}}})
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, err = recordsFromPayload(map[string]any{"total": 0})
	assert.Error(t, err)

	_, err = recordsFromPayload("text")
	assert.Error(t, err)
}

func TestFileSourceCSV(t *testing.T) {
	path := writeFile(t, "xdr.csv", "\ufeffhostname,ip,id,os,last_seen,email\nsrv-1,10.0.0.1,u1,linux,t,a@x.com\n,10.0.0.9,,,,\nsrv-2,10.0.0.2\n")
	src := NewFileSource(inventory.XDR, path)
	assert.Equal(t, inventory.OriginFileImport, src.Origin())

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "srv-1", got[0].Hostname)
	assert.Equal(t, "u1", got[0].UUID)
	assert.Equal(t, "a@x.com", got[0].UserEmail)
	assert.Equal(t, inventory.XDR, got[0].Source)
	assert.Equal(t, "srv-2", got[1].Hostname)
	assert.Empty(t, got[1].OS)
}

func TestFileSourceCSVRequiresHostname(t *testing.T) {
	path := writeFile(t, "bad.csv", "ip,os\n10.0.0.1,linux\n")
	_, err := NewFileSource(inventory.XDR, path).Fetch(context.Background())
	require.Error(t, err)
	var parseErr *errors.ParseError
	assert.True(t, errors.As(err, &parseErr))
}

func TestFileSourceJSONAndYAML(t *testing.T) {
	jsonPath := writeFile(t, "vm.json", `{"endpoints":[{"hostname":"srv-1","ipAddress":"10.0.0.1"},{"ip":"x"}]}`)
	got, err := NewFileSource(inventory.VulnerabilityMgmt, jsonPath).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10.0.0.1", got[0].IP)

	yamlPath := writeFile(t, "dir.yaml", "- hostname: exa-fin-01\n  user_email: a@x.com\n- hostname: exa-fin-02\n")
	got, err = NewFileSource(inventory.DirectoryDevice, yamlPath).Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a@x.com", got[0].UserEmail)
}

func TestFileSourceMissing(t *testing.T) {
	_, err := NewFileSource(inventory.XDR, filepath.Join(t.TempDir(), "nope.csv")).Fetch(context.Background())
	assert.True(t, errors.IsNotFound(err))
}

func TestAPISource(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/endpoints", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-API-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"endpoint_name":"srv-1","ip_address":"10.0.0.1"},{"endpoint_id":"orphan"}]}`))
	}))
	defer server.Close()

	src, err := NewAPISource(inventory.XDR, APIConfig{BaseURL: server.URL + "/", Token: "secret"})
	require.NoError(t, err)
	assert.Equal(t, inventory.OriginAPI, src.Origin())

	got, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "srv-1", got[0].Hostname)
	assert.Equal(t, inventory.OriginAPI, got[0].Origin)
}

func TestAPISourceErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	src, err := NewAPISource(inventory.VulnerabilityMgmt, APIConfig{BaseURL: server.URL, Token: "bad"})
	require.NoError(t, err)
	_, err = src.Fetch(context.Background())
	assert.True(t, errors.IsUnauthorized(err))

	src, err = NewAPISource(inventory.VulnerabilityMgmt, APIConfig{BaseURL: server.URL})
	require.NoError(t, err)
	_, err = src.Fetch(context.Background())
	assert.True(t, errors.IsUnauthorized(err), "missing token")

	_, err = NewAPISource(inventory.VulnerabilityMgmt, APIConfig{})
	assert.True(t, errors.IsValidationError(err))
}

func TestSampleSource(t *testing.T) {
	for _, id := range inventory.SourceIDs() {
		got, err := NewSampleSource(id).Fetch(context.Background())
		require.NoError(t, err)
		assert.NotEmpty(t, got, id)
		for _, e := range got {
			assert.Equal(t, id, e.Source)
			assert.Equal(t, inventory.OriginSample, e.Origin)
			assert.NotEmpty(t, e.Hostname)
		}
	}

	first, _ := NewSampleSource(inventory.XDR).Fetch(context.Background())
	second, _ := NewSampleSource(inventory.XDR).Fetch(context.Background())
	assert.Equal(t, first[0].UUID, second[0].UUID)
}

// blockingSource ignores its context and returns only once released.
type blockingSource struct {
	id      inventory.SourceID
	release chan struct{}
}

func newBlockingSource(t *testing.T, id inventory.SourceID) *blockingSource {
	b := &blockingSource{id: id, release: make(chan struct{})}
	t.Cleanup(func() { close(b.release) })
	return b
}

func (b *blockingSource) ID() inventory.SourceID   { return b.id }
func (b *blockingSource) Origin() inventory.Origin { return inventory.OriginAPI }
func (b *blockingSource) Fetch(context.Context) ([]inventory.Endpoint, error) {
	<-b.release
	return nil, nil
}

func TestFetchAll(t *testing.T) {
	srcs := NewSources(
		&Static{Category: inventory.VulnerabilityMgmt, From: inventory.OriginFileImport, Endpoints: []inventory.Endpoint{{Hostname: "a"}, {Hostname: "b"}}},
		&Static{Category: inventory.XDR, From: inventory.OriginAPI, Err: errors.New("boom")},
		newBlockingSource(t, inventory.ZeroTrustNetwork),
	)

	results := FetchAll(context.Background(), srcs, WithTimeout(50*time.Millisecond))
	require.Len(t, results, 3)
	assert.Equal(t, inventory.VulnerabilityMgmt, results[0].ID)
	assert.Equal(t, 2, results[0].Count)
	assert.Equal(t, inventory.VulnerabilityMgmt, results[0].Endpoints[0].Source)
	assert.Equal(t, inventory.OriginFileImport, results[0].Endpoints[0].Origin)

	assert.Error(t, results[1].Err)
	assert.Empty(t, results[1].Endpoints)
	var srcErr *errors.SourceError
	assert.True(t, errors.As(results[1].Err, &srcErr))

	assert.True(t, errors.IsTimeout(results[2].Err))
	assert.Equal(t, 2, results.Failed())

	lists := results.Lists()
	assert.Len(t, lists[inventory.VulnerabilityMgmt], 2)
	assert.Empty(t, lists[inventory.XDR])
	assert.Equal(t, map[inventory.SourceID]int{
		inventory.VulnerabilityMgmt: 2,
		inventory.XDR:               0,
		inventory.ZeroTrustNetwork:  0,
	}, results.Counts())
}

func TestFetchAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := FetchAll(ctx, NewSources(newBlockingSource(t, inventory.XDR)))
	require.Len(t, results, 1)
	assert.True(t, errors.IsCanceled(results[0].Err))
}

func TestFetchAllWithIDs(t *testing.T) {
	results := FetchAll(context.Background(), Sample(), WithIDs(inventory.XDR, inventory.PrivilegedAccess))
	require.Len(t, results, 2)
	assert.Equal(t, inventory.XDR, results[0].ID)
	assert.Equal(t, inventory.PrivilegedAccess, results[1].ID)
}

func TestBuildPrecedence(t *testing.T) {
	t.Setenv("HARMONIZER_TEST_TOKEN", "tok")
	csv := writeFile(t, "pam.csv", "hostname\nexa-fin-01\n")
	off := false

	srcs, err := Build(Config{
		Sample: true,
		Sources: map[string]SourceConfig{
			"vm":        {BaseURL: "https://vm.example.com", File: csv, TokenEnv: "HARMONIZER_TEST_TOKEN"},
			"xdr":       {BaseURL: "https://xdr.example.com", File: csv},
			"pam":       {File: csv},
			"directory": {Sample: &off},
		},
	})
	require.NoError(t, err)

	origins := map[inventory.SourceID]inventory.Origin{}
	for _, src := range srcs.List() {
		origins[src.ID()] = src.Origin()
	}
	assert.Equal(t, map[inventory.SourceID]inventory.Origin{
		inventory.VulnerabilityMgmt: inventory.OriginAPI,
		inventory.XDR:               inventory.OriginFileImport,
		inventory.ZeroTrustNetwork:  inventory.OriginSample,
		inventory.PrivilegedAccess:  inventory.OriginFileImport,
	}, origins)

	srcs, err = Build(Config{})
	require.NoError(t, err)
	assert.Zero(t, srcs.Len())

	_, err = Build(Config{Sources: map[string]SourceConfig{"bogus": {}}})
	assert.True(t, errors.IsValidationError(err))
}

func TestBuildDuplicateAlias(t *testing.T) {
	for i := 0; i < 20; i++ {
		_, err := Build(Config{Sources: map[string]SourceConfig{
			"xdr":    {File: "a.csv"},
			"cortex": {File: "b.csv"},
		}})
		require.Error(t, err)
		assert.True(t, errors.IsValidationError(err))
		assert.Contains(t, err.Error(), `keys "cortex" and "xdr"`)
	}
}
