// Package alerts provides the alerts command.
package alerts

import (
	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/cmdutil"
	"github.com/secopslab/harmonizer/internal/cmd/output"
	"github.com/secopslab/harmonizer/internal/cmd/table"
	"github.com/secopslab/harmonizer/pkg/alerts"
	"github.com/secopslab/harmonizer/pkg/errors"
)

// NewCommand creates the alerts command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		minType   string
		snapFlags *cmdutil.SnapshotFlags
	)

	cmd := &cobra.Command{
		Use:     "alerts",
		GroupID: "core",
		Short:   "Show the alerts of the latest run",
		Aliases: []string{"alert"},
		Args:    cobra.NoArgs,
		Example: `  harmonizer alerts                     # Alerts of the latest stored run
  harmonizer alerts --min-type warning  # Only warnings and errors
  harmonizer alerts --run 20240125-103000-123456
  harmonizer alerts --fresh             # Reconcile now`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			minimum := alerts.TypeInfo
			if minType != "" {
				t, err := alerts.ParseType(minType)
				if err != nil {
					return errors.WrapValidation("min-type", err)
				}
				minimum = t
			}

			snap, err := cmdutil.LoadSnapshot(cmd.Context(), app, snapFlags)
			if err != nil {
				return err
			}
			list := alerts.Filter(snap.Alerts, minimum)

			format := output.Format(app.OutputFormat())
			w := cmd.OutOrStdout()
			if format == output.FormatTable && len(list) > 0 {
				// Plain one-line-per-alert view for terminals
				return alerts.WriteAll(alerts.NewWriterTo(w), list)
			}
			return output.Write(w, format, list, table.AlertsToTableData(list, format == output.FormatWide))
		},
	}

	cmd.Flags().StringVar(&minType, "min-type", "", "Minimum alert type: info, warning, error")
	snapFlags = cmdutil.AddSnapshotFlags(cmd)

	return cmd
}
