package alerts

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/pkg/alerts"
	"github.com/secopslab/harmonizer/pkg/roster"
	"github.com/secopslab/harmonizer/pkg/store"
	"github.com/secopslab/harmonizer/pkg/store/memory"
)

func setup(t *testing.T, format string) (*application.Mock, harmonizer.Client) {
	t.Helper()
	st, err := memory.New()
	require.NoError(t, err)
	client, err := harmonizer.New(
		harmonizer.WithRoster(roster.Static(roster.Sample())),
		harmonizer.WithStore(st),
	)
	require.NoError(t, err)
	return &application.Mock{
		HarmonizerFunc:   func() (harmonizer.Client, error) { return client, nil },
		StoreFunc:        func() (store.Store, error) { return st, nil },
		OutputFormatFunc: func() string { return format },
	}, client
}

func run(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAlertsFromLatestSnapshot(t *testing.T) {
	app, client := setup(t, "json")
	report, err := client.Run(context.Background())
	require.NoError(t, err)

	out, err := run(t, app, "--min-type", "error")
	require.NoError(t, err)

	var list []alerts.Alert
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.NotEmpty(t, list)
	for _, a := range list {
		assert.Equal(t, alerts.TypeError, a.Type)
		assert.Contains(t, a.ID, report.RunID)
	}
}

func TestAlertsFallsBackToFreshRun(t *testing.T) {
	app, client := setup(t, "table")

	out, err := run(t, app)
	require.NoError(t, err)
	assert.Contains(t, out, "❌")

	_, ok := client.Last()
	assert.True(t, ok)
}

func TestAlertsErrors(t *testing.T) {
	app, _ := setup(t, "table")

	_, err := run(t, app, "--min-type", "critical")
	assert.Error(t, err)

	_, err = run(t, app, "--run", "20240101-000000-000000")
	assert.Error(t, err)
}
