package provenance

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/pkg/errors"
)

func newApp(t *testing.T) *application.Mock {
	t.Helper()
	client, err := harmonizer.New(harmonizer.WithProvenance(true))
	require.NoError(t, err)
	return &application.Mock{
		HarmonizerFunc: func() (harmonizer.Client, error) { return client, nil },
	}
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

func TestProvenanceHost(t *testing.T) {
	out, err := run(t, newApp(t), "SRV-WEB-01")
	require.NoError(t, err)
	assert.Contains(t, out, "srv-web-01")
	assert.NotContains(t, out, "srv-db-01")
}

func TestProvenanceSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prov.yaml")

	_, err := run(t, newApp(t), "--save", path)
	require.NoError(t, err)

	out, err := run(t, &application.Mock{}, "--load", path, "exa-fin-01")
	require.NoError(t, err)
	assert.Contains(t, out, "exa-fin-01")
}

func TestProvenanceErrors(t *testing.T) {
	_, err := run(t, newApp(t), "no-such-host")
	assert.True(t, errors.IsNotFound(err), "got %v", err)

	_, err = run(t, &application.Mock{}, "--load", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.IsNotFound(err), "got %v", err)
}
