// Package scenario provides commands for creating and listing scenarios
package scenario

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridforge/gridforge/internal/app"
	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/datastore"
)

// Command creates and returns the scenario command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenario",
		Short: "Manage scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			return fmt.Errorf("please specify a subcommand: create, list")
		},
	}

	cmd.AddCommand(createCommand(settings), listCommand(settings))
	return cmd
}

func createCommand(settings *conf.Settings) *cobra.Command {
	var spec datastore.ScenarioSpec

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a scenario from subscenario ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec.Name = args[0]
			return app.With(settings, func(a *app.App) error {
				id, err := a.Scenarios.Create(cmd.Context(), spec)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created scenario %s (id %d)\n", spec.Name, id)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&spec.Description, "description", "", "Scenario description")
	f.UintVar(&spec.IDs.Temporal, "temporal", 0, "Temporal subscenario id")
	f.UintVar(&spec.IDs.Load, "load", 0, "Load subscenario id")
	f.UintVar(&spec.IDs.ProjectPortfolio, "project-portfolio", 0, "Project portfolio subscenario id")
	f.UintVar(&spec.IDs.ProjectOperationalChars, "project-operational-chars", 0, "Project operational characteristics subscenario id")
	f.UintVar(&spec.IDs.ProjectSpecifiedCapacity, "project-specified-capacity", 0, "Project specified capacity subscenario id")
	f.UintVar(&spec.IDs.ProjectNewCost, "project-new-cost", 0, "Project new build cost subscenario id")
	f.UintVar(&spec.IDs.TransmissionPortfolio, "transmission-portfolio", 0, "Transmission portfolio subscenario id")
	f.UintVar(&spec.IDs.TransmissionCapacity, "transmission-capacity", 0, "Transmission capacity subscenario id")
	f.UintVar(&spec.IDs.Reserve, "reserve", 0, "Reserve subscenario id")
	f.BoolVar(&spec.Features.Transmission, "transmission", false, "Enable the transmission feature")
	f.BoolVar(&spec.Features.Reserves, "reserves", false, "Enable the reserves feature")
	return cmd
}

func listCommand(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scenario names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(settings, func(a *app.App) error {
				names, err := a.Scenarios.List(cmd.Context())
				if err != nil {
					return err
				}
				for _, n := range names {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
}
