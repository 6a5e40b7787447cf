// Package cmd defines and implements the CLI commands for the linkarchive executable.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slarchive/linkarchive/internal/config"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "linkarchive",
		Short: "A URL shortener that archives page text and detects drift.",
		Long: `linkarchive shortens URLs while capturing a normalized text snapshot
of each page at shortening time. Visitors of a short link see the archived
snapshot, and the compare endpoint reports how the live page has drifted
from the snapshot since it was taken.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, env vars used otherwise)")

	cmd.AddCommand(newServeCmd())

	return cmd
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}
