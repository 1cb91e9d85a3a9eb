package version

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/secopslab/harmonizer/internal/cmd/application"
)

func TestVersion(t *testing.T) {
	for _, format := range []string{"table", "json"} {
		t.Run(format, func(t *testing.T) {
			cmd := NewCommand(&application.Mock{OutputFormatFunc: func() string { return format }})
			var out bytes.Buffer
			cmd.SetOut(&out)
			cmd.SetArgs(nil)
			require.NoError(t, cmd.Execute())

			if format == "json" {
				var info Info
				require.NoError(t, json.Unmarshal(out.Bytes(), &info))
				assert.Equal(t, "dev", info.Version)
				assert.Equal(t, "test", info.BuiltBy)
				return
			}
			assert.Contains(t, out.String(), "harmonizer dev")
		})
	}
}
