package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gridforge/gridforge/cmd"
	"github.com/gridforge/gridforge/internal/buildinfo"
	"github.com/gridforge/gridforge/internal/conf"
	"github.com/gridforge/gridforge/internal/errors"
	"github.com/gridforge/gridforge/internal/logger"
)

// Set through -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   string
	buildDate string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	settings := &conf.Settings{}
	rootCmd := cmd.RootCommand(settings, buildinfo.NewContext(version, buildDate, ""))

	err := rootCmd.ExecuteContext(ctx)
	_ = logger.Global().Flush()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode maps error categories to process exit codes so scripts can tell
// bad input from failed runs.
func exitCode(err error) int {
	switch {
	case errors.IsConfiguration(err):
		return 2
	case errors.IsCategory(err, errors.CategoryValidation):
		return 3
	default:
		return 1
	}
}
