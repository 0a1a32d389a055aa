// Package database provides the create-db command
package database

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridforge/gridforge/internal/app"
	"github.com/gridforge/gridforge/internal/conf"
)

// Command creates and returns the create-db command
func Command(settings *conf.Settings) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "create-db",
		Short: "Create the scenario database schema",
		Long:  "Create the scenario database schema. An existing schema is migrated in place unless --overwrite removes it first.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.With(settings, func(a *app.App) error {
				if err := a.CreateDatabase(overwrite); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", a.DB.Path())
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Remove an existing database before creating the schema")
	return cmd
}
