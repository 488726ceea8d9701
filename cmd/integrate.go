package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
	"github.com/devin-analytics/devin-stats/internal/usecase"
)

var integrateCmd = &cobra.Command{
	Use:   "integrate",
	Short: "Merges browser-collected session data into the usage history",
	Long: `Reads session records captured from the usage dashboard (a JSON file
with session ids) and merges them into the manually maintained usage
history, deduplicating by session id where present and by name and date
otherwise.`,
	RunE: runIntegrate,
}

var (
	integrateBrowserFile string
	integrateOutFile     string
)

func init() {
	rootCmd.AddCommand(integrateCmd)
	integrateCmd.Flags().StringVar(&integrateBrowserFile, "browser-file", "", "Browser-collected JSON file (default from config)")
	integrateCmd.Flags().StringVar(&integrateOutFile, "out", "./data/usage_history_integrated.json", "Integrated output path")
}

func runIntegrate(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	browserFile := cfg.Usage.BrowserDataFile
	if integrateBrowserFile != "" {
		browserFile = integrateBrowserFile
	}

	reconciler := usecase.NewReconciler(logger)
	existing, _ := reconciler.LoadUsageHistory(cfg.Usage.UsageHistoryFile)
	browser, warnings := reconciler.LoadUsageHistory(browserFile)
	for _, w := range warnings {
		logger.Warn("parse warning", zap.String("field", w.Field), zap.String("value", w.Value), zap.String("reason", w.Reason))
	}

	fmt.Printf("Existing sessions: %d\nBrowser sessions: %d\n", len(existing), len(browser))
	if len(browser) == 0 {
		fmt.Println("No browser data to integrate, skipping")
		return nil
	}

	merged := reconciler.Merge(existing, browser)
	if err := reconciler.SaveJSON(merged, integrateOutFile, []string{"manual_input", "browser_collection"}); err != nil {
		return err
	}

	totalACUs := lo.SumBy(merged, func(s domain.UsageSession) float64 { return s.ACUsUsed })
	fmt.Printf("Integrated %d sessions (%.2f ACUs total) into %s\n", len(merged), totalACUs, integrateOutFile)
	return nil
}
