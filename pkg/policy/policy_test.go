package policy

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/inventory"
)

var (
	vm   = inventory.VulnerabilityMgmt
	xdr  = inventory.XDR
	ztna = inventory.ZeroTrustNetwork
	pam  = inventory.PrivilegedAccess
	dir  = inventory.DirectoryDevice
)

func TestDefaultClassify(t *testing.T) {
	p := Default()

	tests := []struct {
		hostname string
		category Category
		rule     string
		required []inventory.SourceID
	}{
		{"EXA-ARKLX-001", CategoryWorkstation, RuleWorkstationLinux, []inventory.SourceID{vm, xdr, ztna, dir}},
		{"  exa-arklx-42 ", CategoryWorkstation, RuleWorkstationLinux, []inventory.SourceID{vm, xdr, ztna, dir}},
		{"exa-mbp-017", CategoryWorkstation, RuleWorkstationStandard, []inventory.SourceID{vm, xdr, ztna, dir, pam}},
		{"EXA-WIN12", CategoryWorkstation, RuleWorkstationStandard, []inventory.SourceID{vm, xdr, ztna, dir, pam}},
		{"exa-arklx-abc", CategoryNamingViolation, RuleWorkstationNaming, []inventory.SourceID{vm, xdr, ztna, dir, pam}},
		{"exa-laptop", CategoryNamingViolation, RuleWorkstationNaming, []inventory.SourceID{vm, xdr, ztna, dir, pam}},
		{"srv-web-01", CategoryServer, RuleServer, []inventory.SourceID{vm, xdr}},
		{"exadata-01", CategoryServer, RuleServer, []inventory.SourceID{vm, xdr}},
		{"", CategoryServer, RuleServer, []inventory.SourceID{vm, xdr}},
		{"   ", CategoryServer, RuleServer, []inventory.SourceID{vm, xdr}},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			c := p.Classify(tt.hostname)
			assert.Equal(t, tt.category, c.Category)
			assert.Equal(t, tt.rule, c.Rule)
			assert.Equal(t, tt.required, c.Required)
			assert.Equal(t, tt.category == CategoryNamingViolation, c.NamingViolation)
			if c.NamingViolation {
				assert.Equal(t, DefaultNamingViolationReason, c.Reason)
			} else {
				assert.Empty(t, c.Reason)
			}
		})
	}
}

func TestClassifyIsPure(t *testing.T) {
	p := Default()
	a := p.Classify("EXA-MBP-1")
	a.Required[0] = inventory.PrivilegedAccess
	b := p.Classify("EXA-MBP-1")
	assert.Equal(t, vm, b.Required[0])
}

func TestServerInformational(t *testing.T) {
	c := Default().Classify("srv-db-01")
	assert.Equal(t, []inventory.SourceID{ztna}, c.Informational)
	assert.False(t, c.Requires(ztna))
	assert.False(t, c.Category.IsWorkstation())
}

func TestIsCompliantAndMissing(t *testing.T) {
	p := Default()

	tests := []struct {
		name      string
		entity    *inventory.NormalizedEndpoint
		compliant bool
		missing   []inventory.SourceID
	}{
		{
			name:      "linux workstation missing ztna and directory",
			entity:    &inventory.NormalizedEndpoint{Hostname: "exa-arklx-001", Sources: []inventory.SourceID{vm, xdr}},
			compliant: false,
			missing:   []inventory.SourceID{ztna, dir},
		},
		{
			name:      "server with vm and xdr",
			entity:    &inventory.NormalizedEndpoint{Hostname: "srv-web-01", Sources: []inventory.SourceID{xdr, vm}},
			compliant: true,
		},
		{
			name:      "server missing xdr",
			entity:    &inventory.NormalizedEndpoint{Hostname: "srv-web-01", Sources: []inventory.SourceID{vm, ztna, pam}},
			compliant: false,
			missing:   []inventory.SourceID{xdr},
		},
		{
			name:      "standard workstation missing pam only",
			entity:    &inventory.NormalizedEndpoint{Hostname: "exa-mbp-2", Sources: []inventory.SourceID{dir, ztna, xdr, vm}},
			compliant: false,
			missing:   []inventory.SourceID{pam},
		},
		{
			name:      "no sources at all",
			entity:    &inventory.NormalizedEndpoint{Hostname: "exa-mbp-3"},
			compliant: false,
			missing:   []inventory.SourceID{vm, xdr, ztna, dir, pam},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.compliant, p.IsCompliant(tt.entity))
			assert.Equal(t, tt.missing, p.MissingSources(tt.entity))
		})
	}
}

func TestDefaultRulesMultiplePrefixes(t *testing.T) {
	p, err := New("multi", DefaultRules("exa-", "ACME-"), DefaultFallback())
	require.NoError(t, err)

	assert.Len(t, p.Rules, 6)
	c := p.Classify("acme-arklx-7")
	assert.Equal(t, RuleWorkstationLinux+"-acme", c.Rule)
	assert.Equal(t, CategoryNamingViolation, p.Classify("acme-x").Category)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		rules    []Rule
		fallback Rule
		field    string
	}{
		{
			name:  "bad pattern",
			rules: []Rule{{Name: "r", Pattern: "(", Category: CategoryWorkstation}},
			field: "rules[0].pattern",
		},
		{
			name:  "unknown source",
			rules: []Rule{{Name: "r", Prefix: "x", Category: CategoryWorkstation, Required: []inventory.SourceID{"av"}}},
			field: "rules[0].required",
		},
		{
			name:  "duplicate source",
			rules: []Rule{{Name: "r", Prefix: "x", Category: CategoryWorkstation, Required: []inventory.SourceID{xdr, xdr}}},
			field: "rules[0].required",
		},
		{
			name:  "no matcher",
			rules: []Rule{{Name: "r", Category: CategoryWorkstation}},
			field: "rules[0]",
		},
		{
			name: "duplicate name",
			rules: []Rule{
				{Name: "r", Prefix: "a", Category: CategoryWorkstation},
				{Name: "r", Prefix: "b", Category: CategoryWorkstation},
			},
			field: "rules[1].name",
		},
		{
			name:  "unknown category",
			rules: []Rule{{Name: "r", Prefix: "a", Category: "kiosk"}},
			field: "rules[0].category",
		},
		{
			name:     "fallback not server",
			fallback: Rule{Category: CategoryWorkstation},
			field:    "fallback.category",
		},
		{
			name:     "fallback with matcher",
			fallback: Rule{Prefix: "srv-"},
			field:    "fallback",
		},
		{
			name:     "informational also required",
			fallback: Rule{Required: []inventory.SourceID{xdr}, Informational: []inventory.SourceID{xdr}},
			field:    "fallback.informational",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("bad", tt.rules, tt.fallback)
			require.Error(t, err)
			var vErr *errors.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.field, vErr.Field)
		})
	}
}

func TestFallbackDefaults(t *testing.T) {
	p, err := New("bare", nil, Rule{})
	require.NoError(t, err)
	c := p.Classify("anything")
	assert.Equal(t, CategoryServer, c.Category)
	assert.Equal(t, RuleServer, c.Rule)
	assert.Empty(t, c.Required)
}

func TestLoadAndSave(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "policy.yaml")

	require.NoError(t, Default().Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "default", loaded.Name)
	assert.Len(t, loaded.Rules, 3)
	assert.Equal(t, Default().Classify("exa-arklx-9"), loaded.Classify("exa-arklx-9"))
	assert.Equal(t, Default().Classify("srv-1"), loaded.Classify("srv-1"))
}

func TestParse(t *testing.T) {
	doc := `
name: custom
rules:
  - name: kiosk
    prefix: KSK-
    category: workstation
    required: [xdr, directory-device]
fallback:
  required: [vulnerability-mgmt]
`
	p, err := Parse([]byte(doc))
	require.NoError(t, err)

	c := p.Classify("ksk-lobby-1")
	assert.Equal(t, "kiosk", c.Rule)
	assert.Equal(t, []inventory.SourceID{xdr, dir}, c.Required)
	assert.Equal(t, []inventory.SourceID{vm}, p.RequiredSources("db-01"))
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsNotFound(err))

	path := filepath.Join(t.TempDir(), "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rules: [\n"), 0o644))
	_, err = Load(path)
	var parseErr *errors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, path, parseErr.File)
}
