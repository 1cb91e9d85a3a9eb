// Package reconcile provides the reconcile command.
package reconcile

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer"
	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/cmdutil"
	"github.com/secopslab/harmonizer/internal/cmd/filter"
	"github.com/secopslab/harmonizer/internal/cmd/output"
	"github.com/secopslab/harmonizer/internal/cmd/table"
	"github.com/secopslab/harmonizer/pkg/errors"
)

// NewCommand creates the reconcile command.
func NewCommand(app application.Application) *cobra.Command {
	var (
		f               *filter.EndpointFilter
		noAlerts, watch bool
	)

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Fetch every source and reconcile the inventories",
		Aliases: []string{"run", "sync"},
		Args:    cobra.NoArgs,
		Example: `  harmonizer reconcile                        # Run once and print the report
  harmonizer reconcile --set non-compliant    # Only devices missing a required tool
  harmonizer reconcile --set missing:xdr      # Devices the XDR tool does not see
  harmonizer reconcile --risk high -o wide    # High-risk devices with details
  harmonizer reconcile --watch                # Re-run on the configured interval`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Harmonizer()
			if err != nil {
				return err
			}
			format := output.Format(app.OutputFormat())
			w := cmd.OutOrStdout()

			if watch {
				return runWatch(cmd.Context(), app, client, w, format, f, noAlerts)
			}

			report, err := client.Run(cmd.Context())
			if report == nil {
				return err
			}
			if err != nil {
				// The report is complete, only persisting it failed.
				app.Logger().Warn().Err(err).Msg("Report not saved")
			}
			return PrintReport(w, format, report, f, noAlerts)
		},
	}

	f = cmdutil.AddEndpointFlags(cmd)
	cmd.Flags().BoolVar(&noAlerts, "no-alerts", false, "Do not print alerts")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running on the auto_run_interval until interrupted")

	return cmd
}

// PrintReport writes a run report. Structured formats emit the whole
// report; table formats print sources, summary, alerts and the filtered
// endpoint list.
func PrintReport(w io.Writer, format output.Format, report *harmonizer.Report, f *filter.EndpointFilter, noAlerts bool) error {
	endpoints, err := f.Apply(report.Result)
	if err != nil {
		return errors.WrapValidation("filter", err)
	}
	if !format.IsTable() {
		return output.NewFormatter(format).Format(w, report)
	}

	wide := format == output.FormatWide
	_, _ = fmt.Fprintf(w, "Run %s: %s\n", report.RunID, report.SyncLog.Message)

	output.Section(w, format, "sources")
	if err := output.Write(w, format, nil, table.SourcesToTableData(report.Sources)); err != nil {
		return err
	}
	output.Section(w, format, "summary")
	if err := output.Write(w, format, nil, table.SummaryToTableData(report.Result.Summary())); err != nil {
		return err
	}
	if !noAlerts && len(report.Alerts) > 0 {
		output.Section(w, format, "alerts")
		if err := output.Write(w, format, nil, table.AlertsToTableData(report.Alerts, wide)); err != nil {
			return err
		}
	}

	title := "endpoints"
	if f.Set != "" {
		title += " (" + f.Set + ")"
	}
	output.Section(w, format, title)
	return output.Write(w, format, nil, table.EndpointsToTableData(endpoints, wide))
}

// runWatch starts scheduled runs, prints each completed report and blocks
// until the context is canceled.
func runWatch(ctx context.Context, app application.Application, client harmonizer.Client, w io.Writer, format output.Format, f *filter.EndpointFilter, noAlerts bool) error {
	client.OnRunCompleted(func(report *harmonizer.Report) {
		if err := PrintReport(w, format, report, f, noAlerts); err != nil {
			app.Logger().Error().Err(err).Str("run_id", report.RunID).Msg("Failed to print report")
		}
	})

	// AutoRunOn waits for the first tick, so run once up front.
	if _, err := client.Run(ctx); err != nil {
		app.Logger().Warn().Err(err).Msg("Initial run reported an error")
	}
	if err := client.AutoRunOn(); err != nil {
		return err
	}
	app.Logger().Info().Msg("Watching for scheduled runs, press Ctrl+C to stop")

	<-ctx.Done()
	return client.AutoRunOff()
}
