// Package run provides the run command
package run

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridforge/gridforge/internal/app"
	"github.com/gridforge/gridforge/internal/conf"
)

// Command creates and returns the run command
func Command(settings *conf.Settings) *cobra.Command {
	var solutionPath string

	cmd := &cobra.Command{
		Use:   "run <scenario>",
		Short: "Validate, write inputs and build a scenario's model",
		Long: `Run validates the scenario, writes its inputs, builds the model and writes it as an LP file.
With --solution the solver's output is read back and results are written and imported.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(settings, func(a *app.App) error {
				res, err := a.Run(cmd.Context(), args[0], solutionPath)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				_, _ = fmt.Fprintf(out, "Run %s: %d variables (%d integer), %d constraints\n",
					res.RunID, res.Stats.Vars, res.Stats.Integers, res.Stats.Constraints)
				_, _ = fmt.Fprintf(out, "Model written to %s\n", res.LPPath)
				if res.Solved {
					_, _ = fmt.Fprintf(out, "Solution %s: %d result tables imported\n", res.Status, res.Tables)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&solutionPath, "solution", "", "Solution file written by the solver for this model")
	return cmd
}
