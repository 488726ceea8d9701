// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "devin-stats",
	Short: "Aggregates Devin PR activity and usage credits into reports.",
	Long: `devin-stats reconciles three sources of agent activity - a local PR
corpus, manually transcribed usage history (CSV/JSON/free text), and the
remote session API - into daily and monthly activity reports with merge
success rates and ACU usage figures.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// setup loads the configuration and builds the logger shared by every
// command.
func setup(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := config.NewLogger(cfg.Logger, verbose)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
