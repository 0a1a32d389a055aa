// Package inputs provides the write-inputs command
package inputs

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridforge/gridforge/internal/app"
	"github.com/gridforge/gridforge/internal/conf"
)

// Command creates and returns the write-inputs command
func Command(settings *conf.Settings) *cobra.Command {
	return &cobra.Command{
		Use:   "write-inputs <scenario>",
		Short: "Write a scenario's tab-delimited model inputs from the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(settings, func(a *app.App) error {
				if err := a.WriteInputs(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Inputs written under %s\n", settings.ScenarioDirectory(args[0]))
				return nil
			})
		},
	}
}
