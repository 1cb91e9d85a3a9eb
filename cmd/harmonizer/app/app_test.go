package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/pkg/inventory"
	"github.com/secopslab/harmonizer/pkg/policy"
	"github.com/secopslab/harmonizer/pkg/sources"
	filestore "github.com/secopslab/harmonizer/pkg/store/file"
	"github.com/secopslab/harmonizer/pkg/store/memory"
)

func testApp(t *testing.T, config *Config) *App {
	t.Helper()
	logger := zerolog.Nop()
	app, err := New("1.0.0", "abc123", "2024-01-01", "test", WithConfig(config), WithLogger(&logger))
	require.NoError(t, err)
	return app
}

func testConfig(t *testing.T) *Config {
	t.Helper()
	return &Config{
		DataDir:   t.TempDir(),
		Sources:   sources.Config{Sample: true},
		LogFormat: "json",
		LogOutput: "discard",
	}
}

func TestApp_New(t *testing.T) {
	app := testApp(t, testConfig(t))

	assert.Equal(t, "1.0.0", app.Version())
	assert.Equal(t, "abc123", app.Commit())
	assert.Equal(t, "2024-01-01", app.Date())
	assert.Equal(t, "test", app.BuiltBy())
	assert.NotNil(t, app.Logger())
	assert.NotNil(t, app.Config())
}

func TestApp_Harmonizer_Singleton(t *testing.T) {
	app := testApp(t, testConfig(t))

	var wg sync.WaitGroup
	clients := make(chan any, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := app.Harmonizer()
			assert.NoError(t, err)
			clients <- c
		}()
	}
	wg.Wait()
	close(clients)

	first := <-clients
	for c := range clients {
		assert.Same(t, first, c)
	}
}

func TestApp_RunWithFileStore(t *testing.T) {
	config := testConfig(t)
	app := testApp(t, config)

	client, err := app.Harmonizer()
	require.NoError(t, err)
	assert.Equal(t, len(inventory.SourceIDs()), client.Sources().Len())

	report, err := client.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 15, len(report.Result.AllEndpoints))
	assert.Len(t, report.Result.TerminatedWithActiveEndpoints, 1, "sample roster is used with sample data")

	s, err := app.Store()
	require.NoError(t, err)
	assert.IsType(t, &filestore.Store{}, s)
	snap, err := s.LatestSnapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.RunID, snap.RunID)
}

func TestApp_MemoryStoreWithoutDataDir(t *testing.T) {
	config := testConfig(t)
	config.DataDir = ""
	app := testApp(t, config)

	s, err := app.Store()
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
}

func TestApp_Policy(t *testing.T) {
	config := testConfig(t)
	app := testApp(t, config)
	p, err := app.Policy()
	require.NoError(t, err)
	assert.Equal(t, "default", p.Name)

	custom, err := policy.New("custom", policy.DefaultRules("corp-"), policy.DefaultFallback())
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, custom.Save(path))

	config = testConfig(t)
	config.PolicyFile = path
	app = testApp(t, config)
	p, err = app.Policy()
	require.NoError(t, err)
	assert.Equal(t, "custom", p.Name)
	assert.Equal(t, "workstation", string(p.Classify("corp-fin-01").Category))

	config = testConfig(t)
	config.PolicyFile = filepath.Join(t.TempDir(), "missing.yaml")
	app = testApp(t, config)
	_, err = app.Policy()
	assert.Error(t, err)
	_, err = app.Harmonizer()
	assert.Error(t, err)
}

func TestApp_RosterFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.csv")
	require.NoError(t, os.WriteFile(path, []byte("name,email\nAlex Chen,alex.chen@example.com\n"), 0o600))

	config := testConfig(t)
	config.RosterFile = path
	app := testApp(t, config)

	client, err := app.Harmonizer()
	require.NoError(t, err)
	report, err := client.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Result.TerminatedWithActiveEndpoints, 1)
	assert.Equal(t, "exa-fin-01", report.Result.TerminatedWithActiveEndpoints[0].Hostname)
}

func TestApp_Shutdown(t *testing.T) {
	app := testApp(t, testConfig(t))
	require.NoError(t, app.Shutdown(context.Background()), "no client yet")

	client, err := app.Harmonizer()
	require.NoError(t, err)
	require.NoError(t, client.AutoRunOn())
	assert.NoError(t, app.Shutdown(context.Background()))
}

func TestApp_Execute(t *testing.T) {
	app := testApp(t, testConfig(t))
	app.config.Format = "json"

	root := app.createRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"policy", "classify", "exa-fin-01", "-o", "json", "--log-level", "error"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), `"hostname": "exa-fin-01"`)
	assert.Equal(t, "error", app.config.LogLevelFlag)
}

func TestApp_ExecuteRejectsFormat(t *testing.T) {
	app := testApp(t, testConfig(t))
	err := app.Execute(context.Background(), []string{"version", "-o", "xml"})
	assert.Error(t, err)
}
