// Package logs provides the logs command.
package logs

import (
	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/output"
	"github.com/secopslab/harmonizer/internal/cmd/table"
	"github.com/secopslab/harmonizer/pkg/errors"
)

// NewCommand creates the logs command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		limit     int
		snapshots bool
	)

	cmd := &cobra.Command{
		Use:     "logs",
		GroupID: "management",
		Short:   "Show the sync log of past runs",
		Aliases: []string{"history"},
		Args:    cobra.NoArgs,
		Example: `  harmonizer logs              # Last 20 runs, newest first
  harmonizer logs -n 5 -o wide  # With per-source failure details
  harmonizer logs --snapshots   # Stored run snapshots`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.NewValidationError("limit", limit, "must not be negative")
			}
			s, err := app.Store()
			if err != nil {
				return err
			}
			if s == nil {
				return errors.NewConfigError("store", "no store configured", nil)
			}

			format := output.Format(app.OutputFormat())
			w := cmd.OutOrStdout()

			if snapshots {
				infos, err := s.ListSnapshots(cmd.Context())
				if err != nil {
					return err
				}
				if limit > 0 && len(infos) > limit {
					infos = infos[:limit]
				}
				return output.Write(w, format, infos, table.SnapshotsToTableData(infos))
			}

			logs, err := s.SyncLogs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return output.Write(w, format, logs, table.SyncLogsToTableData(logs, format == output.FormatWide))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show (0 for all)")
	cmd.Flags().BoolVar(&snapshots, "snapshots", false, "List stored run snapshots instead of sync logs")

	return cmd
}
