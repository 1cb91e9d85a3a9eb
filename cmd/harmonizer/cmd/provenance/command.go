// Package provenance provides the provenance command.
package provenance

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/output"
	"github.com/secopslab/harmonizer/internal/cmd/table"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/provenance"
)

// NewCommand creates the provenance command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		save     string
		load     string
		conflict bool
	)

	cmd := &cobra.Command{
		Use:     "provenance [hostname]",
		GroupID: "core",
		Short:   "Show which source supplied each endpoint field",
		Long: `Provenance shows, per endpoint and field, every value the sources
reported and which one the merge kept. The first non-empty value in source
order wins; later values are listed as ignored.

Provenance is not stored with snapshots, so this command reconciles now
unless --load reads a file written earlier with --save.`,
		Args: cobra.MaximumNArgs(1),
		Example: `  harmonizer provenance                     # Every endpoint
  harmonizer provenance exa-fin-01          # One endpoint
  harmonizer provenance --conflicts         # Only fields the sources disagree on
  harmonizer provenance --save prov.yaml    # Keep the data for later`,
		RunE: func(cmd *cobra.Command, args []string) error {
			host := ""
			if len(args) == 1 {
				host = strings.ToLower(strings.TrimSpace(args[0]))
			}

			file, err := collect(cmd, app, load)
			if err != nil {
				return err
			}
			if save != "" {
				if err := file.Save(save); err != nil {
					return err
				}
				app.Logger().Info().Str("file", save).Str("run_id", file.RunID).Msg("Saved provenance")
			}

			report := provenance.GenerateReport(file.Provenance)
			if conflict {
				onlyConflicts(report)
			}
			if host != "" {
				if _, ok := report.Hosts[host]; !ok {
					return errors.NewNotFoundError("endpoint", host)
				}
			}

			format := output.Format(app.OutputFormat())
			w := cmd.OutOrStdout()
			if !format.IsTable() {
				if host != "" {
					return output.NewFormatter(format).Format(w, report.Hosts[host])
				}
				return output.NewFormatter(format).Format(w, report)
			}
			if file.RunID != "" {
				_, _ = fmt.Fprintf(w, "Run %s\n", file.RunID)
			}
			return output.Write(w, format, nil, table.ProvenanceToTableData(report, host))
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Write the provenance data to this YAML file")
	cmd.Flags().StringVar(&load, "load", "", "Read provenance data from a file instead of reconciling")
	cmd.Flags().BoolVar(&conflict, "conflicts", false, "Only show fields where sources disagree")
	cmd.MarkFlagsMutuallyExclusive("save", "load")

	return cmd
}

// collect loads a saved provenance file or runs a reconciliation.
func collect(cmd *cobra.Command, app application.Application, path string) (*provenance.File, error) {
	if path != "" {
		file, err := provenance.Load(path)
		if err != nil {
			return nil, err
		}
		if file == nil {
			return nil, errors.NewNotFoundError("provenance file", path)
		}
		return file, nil
	}

	client, err := app.Harmonizer()
	if err != nil {
		return nil, err
	}
	report, err := client.Run(cmd.Context())
	if report == nil {
		return nil, err
	}
	if err != nil {
		app.Logger().Warn().Err(err).Msg("Report not saved")
	}
	return &provenance.File{RunID: report.RunID, Provenance: report.Provenance}, nil
}

// onlyConflicts drops fields without conflicts, and hosts left empty.
func onlyConflicts(report *provenance.Report) {
	for name, host := range report.Hosts {
		for field, f := range host.Fields {
			if len(f.Conflicts) == 0 {
				delete(host.Fields, field)
			}
		}
		if len(host.Fields) == 0 {
			delete(report.Hosts, name)
		}
	}
}
