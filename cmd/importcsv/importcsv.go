// Package importcsv provides the import command that loads subscenario data
// from the CSV tree.
package importcsv

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridforge/gridforge/internal/app"
	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/datastore"
)

// Command creates and returns the import command
func Command(settings *conf.Settings) *cobra.Command {
	var req app.ImportRequest

	cmd := &cobra.Command{
		Use:   "import <subscenario> <id>",
		Short: "Import a subscenario id from the CSV tree",
		Long: fmt.Sprintf("Import a subscenario id from csv.location. Data already stored for the id is only replaced with --replace; "+
			"scenarios using it keep their reference throughout.\n\nSubscenarios: %v", datastore.SubscenarioNames()),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[1], 10, 32)
			if err != nil {
				return fmt.Errorf("invalid subscenario id %q: %w", args[1], err)
			}
			req.Subscenario, req.ID = args[0], uint(id)

			return app.With(settings, func(a *app.App) error {
				a.In = cmd.InOrStdin()
				a.Out = cmd.OutOrStdout()
				report, err := a.Import(cmd.Context(), req)
				if report != nil && err != nil {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Run %s failed; if scenario references were left unset run: gridforge import recover %s\n", report.RunID, report.RunID)
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Imported %d rows for %s id %d (%s, replaced: %t) in %s\n",
					report.Rows, req.Subscenario, req.ID, report.Strategy, report.Replaced, report.Duration)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&req.Project, "project", "", "Project for project-level subscenarios")
	cmd.Flags().BoolVar(&req.Replace, "replace", false, "Replace data already stored for the id")
	cmd.Flags().String("strategy", "", "Rebuild strategy: nullify or defer")
	cmd.Flags().BoolP("yes", "y", false, "Replace data used by scenarios without asking")
	if err := viper.BindPFlag("rebuild.strategy", cmd.Flags().Lookup("strategy")); err != nil {
		panic(err)
	}
	if err := viper.BindPFlag("rebuild.assume_yes", cmd.Flags().Lookup("yes")); err != nil {
		panic(err)
	}

	cmd.AddCommand(recoverCommand(settings))
	return cmd
}

func recoverCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "recover <run-id>",
		Short: "Restore scenario references left unset by a failed import",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(settings, func(a *app.App) error {
				return a.Recover(cmd.Context(), args[0])
			})
		},
	}
}
