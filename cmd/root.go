// Package cmd assembles the gridforge command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/gridforge/gridforge/cmd/database"
	"github.com/gridforge/gridforge/cmd/importcsv"
	"github.com/gridforge/gridforge/cmd/inputs"
	"github.com/gridforge/gridforge/cmd/run"
	"github.com/gridforge/gridforge/cmd/scenario"
	"github.com/gridforge/gridforge/cmd/validate"
	"github.com/gridforge/gridforge/cmd/version"
	"github.com/gridforge/gridforge/internal/buildinfo"
	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/logger"
)

// RootCommand creates and returns the root command. Settings are loaded in
// PersistentPreRunE so that --config and flag overrides apply before any
// subcommand runs.
func RootCommand(settings *conf.Settings, info *buildinfo.Context) *cobra.Command {
	var configPath string

	rootCmd := &cobra.Command{
		Use:           "gridforge",
		Version:       info.Version(),
		Short:         "Capacity-expansion model generator",
		Long:          "gridforge imports scenario data, validates it, writes model inputs and builds capacity-expansion optimization models.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml (default: search ., ~/.config/gridforge, /etc/gridforge)")
	if err := setupFlags(rootCmd); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(
		database.Command(settings),
		importcsv.Command(settings),
		scenario.Command(settings),
		inputs.Command(settings),
		validate.Command(settings),
		run.Command(settings),
		version.Command(info),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		// Skip setup for the version command
		if cmd.Name() == "version" {
			return nil
		}
		conf.SetConfigFile(configPath)
		loaded, err := conf.Load()
		if err != nil {
			return err
		}
		*settings = *loaded
		return initLogging(settings)
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command) error {
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug output")
	rootCmd.PersistentFlags().String("metrics-textfile", "", "Write Prometheus metrics to this file on exit")
	rootCmd.PersistentFlags().String("database", "", "SQLite database path")

	for key, flag := range map[string]string{
		"debug":                "debug",
		"metrics.textfile":     "metrics-textfile",
		"database.sqlite.path": "database",
	} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}
	return nil
}

// initLogging replaces the bootstrap logger with one built from settings.
func initLogging(settings *conf.Settings) error {
	cfg := settings.Logging
	if settings.Debug {
		cfg.DefaultLevel = "debug"
		if cfg.Console != nil {
			cfg.Console.Level = "debug"
		}
	}
	cl, err := logger.NewCentralLogger(&cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	logger.SetGlobal(cl)
	return nil
}
