// Package validate provides the validate command
package validate

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridforge/gridforge/internal/app"
	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/validation"
)

// Command creates and returns the validate command
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <scenario>",
		Short: "Validate a scenario's database inputs",
		Long:  "Validate a scenario's database inputs, store the findings and print them. With --fail-on the command fails when a finding reaches that severity.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(settings, func(a *app.App) error {
				c, err := a.Validate(cmd.Context(), args[0])
				if c != nil {
					printFindings(cmd, c)
				}
				return err
			})
		},
	}

	cmd.Flags().String("fail-on", "", "Fail when a finding reaches this severity: none, low, mid, high")
	if err := viper.BindPFlag("build.fail_on", cmd.Flags().Lookup("fail-on")); err != nil {
		panic(err)
	}
	return cmd
}

func printFindings(cmd *cobra.Command, c *validation.Collector) {
	out := cmd.OutOrStdout()
	errs := c.Errors()
	if len(errs) == 0 {
		_, _ = fmt.Fprintln(out, "No validation findings")
		return
	}
	for _, e := range errs {
		_, _ = fmt.Fprintln(out, e.String())
	}
	counts := c.CountBySeverity()
	_, _ = fmt.Fprintf(out, "%d finding(s): %d high, %d mid, %d low\n",
		len(errs), counts[validation.High], counts[validation.Mid], counts[validation.Low])
}
