package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slarchive/linkarchive/internal/app"
)

// newServeCmd creates and configures the 'serve' subcommand.
func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the HTTP server",
		Long: `Starts the shortener and archive HTTP server. The server accepts
shorten requests, serves archived snapshots under /r/{code}, and exposes
the compare and lookup API along with health and metrics endpoints.`,
		RunE: runServeCommand,
	}
	return cmd
}

func runServeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	application, err := app.Build(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("initialize application services: %w", err)
	}

	if err := application.Run(cmd.Context()); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("run server: %w", err)
	}
	return nil
}
