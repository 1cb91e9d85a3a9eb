// Package policy provides the policy command and its subcommands.
package policy

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/secopslab/harmonizer/internal/cmd/application"
	"github.com/secopslab/harmonizer/internal/cmd/output"
	"github.com/secopslab/harmonizer/internal/cmd/table"
	"github.com/secopslab/harmonizer/pkg/policy"
)

// NewCommand creates the policy command.
func NewCommand(app application.Application) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "policy",
		GroupID: "management",
		Short:   "Inspect the classification policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(newShowCommand(app))
	cmd.AddCommand(newClassifyCommand(app))

	return cmd
}

func newShowCommand(app application.Application) *cobra.Command {
	var builtin bool

	return withBuiltinFlag(&cobra.Command{
		Use:   "show",
		Short: "Print the rule table in evaluation order",
		Args:  cobra.NoArgs,
		Example: `  harmonizer policy show            # Rules in evaluation order
  harmonizer policy show -o yaml    # As a policy file you can edit
  harmonizer policy show --default  # The built-in policy`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := load(app, builtin)
			if err != nil {
				return err
			}
			format := output.Format(app.OutputFormat())
			w := cmd.OutOrStdout()
			if format.IsTable() {
				_, _ = fmt.Fprintf(w, "Policy %q (first matching rule wins)\n", p.Name)
			}
			return output.Write(w, format, p, table.RulesToTableData(p))
		},
	}, &builtin)
}

func newClassifyCommand(app application.Application) *cobra.Command {
	var builtin bool

	return withBuiltinFlag(&cobra.Command{
		Use:     "classify HOSTNAME...",
		Short:   "Show category, naming violation and required sources for hostnames",
		Args:    cobra.MinimumNArgs(1),
		Example: `  harmonizer policy classify exa-fin-01 exa-arklx-02 srv-db-01 exa-laptop-temp`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := load(app, builtin)
			if err != nil {
				return err
			}
			classes := make([]policy.Classification, len(args))
			for i, host := range args {
				classes[i] = p.Classify(host)
			}
			format := output.Format(app.OutputFormat())
			return output.Write(cmd.OutOrStdout(), format, classes, table.ClassificationsToTableData(classes))
		},
	}, &builtin)
}

func withBuiltinFlag(cmd *cobra.Command, builtin *bool) *cobra.Command {
	cmd.Flags().BoolVar(builtin, "default", false, "Use the built-in policy instead of policy_file")
	return cmd
}

func load(app application.Application, builtin bool) (*policy.Policy, error) {
	if builtin {
		return policy.Default(), nil
	}
	return app.Policy()
}
