// Package cmdutil provides flags and helpers shared by harmonizer commands.
package cmdutil

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/filter"
	"github.com/secopslab/harmonizer/pkg/errors"
	"github.com/secopslab/harmonizer/pkg/store"
)

// AddEndpointFlags adds the endpoint selection flags to a command.
func AddEndpointFlags(cmd *cobra.Command) *filter.EndpointFilter {
	f := &filter.EndpointFilter{}

	cmd.Flags().StringVar(&f.Set, "set", "",
		"Endpoint set: "+strings.Join(filter.Sets(), ", "))
	cmd.Flags().StringVar(&f.Risk, "risk", "",
		"Minimum risk level: none, low, medium, high")
	cmd.Flags().StringSliceVar(&f.Hosts, "host", nil,
		"Hostname glob or regex (re: prefix), repeatable")
	cmd.Flags().StringVar(&f.Search, "search", "",
		"Only endpoints whose hostname, IP or user contains this text")
	cmd.Flags().StringVar(&f.Sort, "sort", "",
		"Sort by hostname, risk or sources")

	return f
}

// SnapshotFlags selects which run a read-only command looks at.
type SnapshotFlags struct {
	Run   string
	Fresh bool
}

// AddSnapshotFlags adds --run and --fresh to a command.
func AddSnapshotFlags(cmd *cobra.Command) *SnapshotFlags {
	flags := &SnapshotFlags{}

	cmd.Flags().StringVar(&flags.Run, "run", "",
		"Read the snapshot of this run ID instead of the latest")
	cmd.Flags().BoolVar(&flags.Fresh, "fresh", false,
		"Run a reconciliation now instead of reading a snapshot")
	cmd.MarkFlagsMutuallyExclusive("run", "fresh")

	return flags
}

// LoadSnapshot returns the requested snapshot: a fresh run, a stored run by
// ID, or the latest stored run. With no stored runs it falls back to a
// fresh run.
func LoadSnapshot(ctx context.Context, app application.Application, flags *SnapshotFlags) (*store.Snapshot, error) {
	if !flags.Fresh {
		s, err := app.Store()
		if err != nil {
			return nil, err
		}
		if s != nil {
			var snap *store.Snapshot
			if flags.Run != "" {
				snap, err = s.Snapshot(ctx, flags.Run)
			} else {
				snap, err = s.LatestSnapshot(ctx)
			}
			switch {
			case err == nil:
				return snap, nil
			case flags.Run != "" || !errors.IsNotFound(err):
				return nil, err
			}
			app.Logger().Info().Msg("No stored runs yet, reconciling now")
		}
	}

	client, err := app.Harmonizer()
	if err != nil {
		return nil, err
	}
	report, err := client.Run(ctx)
	if report == nil {
		return nil, err
	}
	if err != nil {
		app.Logger().Warn().Err(err).Msg("Report not saved")
	}
	return report.Snapshot(), nil
}
