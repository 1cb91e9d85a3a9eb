package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/pkg/constants"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harmonizer.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfigFile(t *testing.T) {
	path := writeConfig(t, `
policy_file: /etc/harmonizer/policy.yaml
roster_file: ~/roster.csv
data_dir: /var/lib/harmonizer
sample: false
fetch_timeout: 45s
auto_run_interval: 30m
sources:
  vm:
    base_url: https://vm.example.com
    api_token: secret
  xdr:
    file: ~/exports/xdr.json
  pam:
    sample: true
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, path, config.ConfigFile)
	assert.Equal(t, "/etc/harmonizer/policy.yaml", config.PolicyFile)
	assert.Equal(t, filepath.Join(home, "roster.csv"), config.RosterFile)
	assert.Equal(t, "/var/lib/harmonizer", config.DataDir)
	assert.False(t, config.Sources.Sample)
	assert.Equal(t, 45*time.Second, config.FetchTimeout)
	assert.Equal(t, 30*time.Minute, config.AutoRunInterval)

	require.Len(t, config.Sources.Sources, 3)
	assert.Equal(t, "https://vm.example.com", config.Sources.Sources["vm"].BaseURL)
	assert.Equal(t, "secret", config.Sources.Sources["vm"].Token)
	assert.Equal(t, filepath.Join(home, "exports", "xdr.json"), config.Sources.Sources["xdr"].File)
	require.NotNil(t, config.Sources.Sources["pam"].Sample)
	assert.True(t, *config.Sources.Sources["pam"].Sample)
}

func TestLoadConfigDefaults(t *testing.T) {
	config, err := LoadConfig(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.True(t, config.Sources.Sample)
	assert.Equal(t, constants.SourceFetchTimeout, config.FetchTimeout)
	assert.Equal(t, constants.DefaultAutoRunInterval, config.AutoRunInterval)
	assert.NotEqual(t, constants.DefaultDataDir, config.DataDir, "~ is expanded")
	assert.NotEmpty(t, config.LogFormat)
	assert.NotEmpty(t, config.LogOutput)
}

func TestLoadConfigEnvironment(t *testing.T) {
	t.Setenv("HARMONIZER_DATA_DIR", "/tmp/harmonizer-env")
	t.Setenv("HARMONIZER_SAMPLE", "false")
	t.Setenv("LOG_FORMAT", "json")

	config, err := LoadConfig(writeConfig(t, "data_dir: /from/file\n"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/harmonizer-env", config.DataDir)
	assert.False(t, config.Sources.Sample)
	assert.Equal(t, "json", config.LogFormat)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadConfig(writeConfig(t, "sources: [1, 2]\n"))
	assert.Error(t, err)
}

func TestUpdateFromFlags(t *testing.T) {
	config := &Config{Format: "yaml", LogLevel: "error"}

	config.UpdateFromFlags(true, false, true, "", "")
	assert.True(t, config.Verbose)
	assert.True(t, config.NoColor)
	assert.Equal(t, "yaml", config.Format)
	assert.Empty(t, config.LogLevelFlag)

	config.UpdateFromFlags(false, false, false, "json", "trace")
	assert.Equal(t, "json", config.Format)
	assert.Equal(t, "trace", config.LogLevelFlag)
	assert.Equal(t, "error", config.LogLevel)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	assert.Equal(t, home, expandHome("~"))
	assert.Equal(t, filepath.Join(home, "data"), expandHome("~/data"))
	assert.Equal(t, "/abs/path", expandHome("/abs/path"))
	assert.Equal(t, "~user/x", expandHome("~user/x"))
	assert.Empty(t, expandHome(""))
}
