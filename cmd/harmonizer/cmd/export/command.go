// Package export provides the export command.
package export

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/cmdutil"
	"github.com/secopslab/harmonizer/internal/cmd/filter"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/export"
)

// NewCommand creates the export command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		endpointFilter *filter.EndpointFilter
		snapFlags      *cmdutil.SnapshotFlags
	)

	cmd := &cobra.Command{
		Use:     "export [file]",
		GroupID: "core",
		Short:   "Export reconciled endpoints as CSV",
		Long: `Export writes the endpoints of a run to a CSV file with the columns
hostname, ip, uuid, os, lastSeen, userEmail, sources and riskLevel.

Without a file argument the name is derived from the endpoint set and the
run date, for example non-compliant_2024-01-25.csv. Use "-" for stdout.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  harmonizer export                         # endpoints_<date>.csv from the latest run
  harmonizer export --set non-compliant      # non-compliant_<date>.csv
  harmonizer export --set missing:xdr -      # CSV to stdout`,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := cmdutil.LoadSnapshot(cmd.Context(), app, snapFlags)
			if err != nil {
				return err
			}
			if snap.Result == nil {
				return errors.NewNotFoundError("result", snap.RunID)
			}
			endpoints, err := endpointFilter.Apply(snap.Result)
			if err != nil {
				return errors.WrapValidation("filter", err)
			}

			path := export.Filename(filePrefix(endpointFilter.Set), snap.CreatedAt.Time)
			if len(args) == 1 {
				path = args[0]
			}

			if path == "-" {
				return export.WriteCSV(cmd.OutOrStdout(), endpoints)
			}
			if err := export.WriteFile(path, endpoints); err != nil {
				return err
			}
			app.Logger().Info().
				Str("file", path).
				Str("run_id", snap.RunID).
				Int("endpoints", len(endpoints)).
				Msg("Exported endpoints")
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d endpoint(s) to %s\n", len(endpoints), path)
			return nil
		},
	}

	endpointFilter = cmdutil.AddEndpointFlags(cmd)
	snapFlags = cmdutil.AddSnapshotFlags(cmd)

	return cmd
}

// filePrefix turns a set name into a file name prefix.
func filePrefix(set string) string {
	if set == "" || set == "all" {
		return "endpoints"
	}
	return strings.NewReplacer(":", "-", "/", "-", " ", "-").Replace(strings.ToLower(set))
}
