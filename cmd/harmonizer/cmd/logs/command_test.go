package logs

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/pkg/store"
	"github.com/secopslab/harmonizer/pkg/store/memory"
)

func run(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLogs(t *testing.T) {
	st, err := memory.New()
	require.NoError(t, err)
	client, err := harmonizer.New(harmonizer.WithStore(st))
	require.NoError(t, err)
	first, err := client.Run(context.Background())
	require.NoError(t, err)
	second, err := client.Run(context.Background())
	require.NoError(t, err)

	app := &application.Mock{
		StoreFunc:        func() (store.Store, error) { return st, nil },
		OutputFormatFunc: func() string { return "wide" },
	}

	out, err := run(t, app, "-n", "1")
	require.NoError(t, err)
	assert.Contains(t, out, second.RunID)
	assert.NotContains(t, out, first.RunID)

	out, err = run(t, app, "--snapshots")
	require.NoError(t, err)
	assert.Contains(t, out, first.RunID)
	assert.Contains(t, out, second.RunID)
}

func TestLogsErrors(t *testing.T) {
	_, err := run(t, &application.Mock{}, "--limit=-1")
	assert.Error(t, err)

	_, err = run(t, &application.Mock{})
	assert.Error(t, err)
}
