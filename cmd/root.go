package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"sjsage522/listingworker/config"
	"sjsage522/listingworker/logger"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "listingworker",
	Short: "listingworker scrapes listing sites into deduplicated CSV files.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		logger.Debug("Loaded configuration for environment %s", cfg.Environment)
		return nil
	},
	SilenceUsage: true,
}

// ExecuteContext runs the CLI and exits non-zero on failure
func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
