package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
	"github.com/devin-analytics/devin-stats/internal/gateway"
	"github.com/devin-analytics/devin-stats/internal/report"
	"github.com/devin-analytics/devin-stats/internal/usecase"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyzes agent PR activity and generates reports",
	Long: `Scans the PR corpus for agent-authored pull requests, optionally
reconciles them against a usage history file and the remote session API,
and writes markdown reports plus flat CSV/JSON exports.`,
	RunE: runAnalyze,
}

var (
	analyzePRDataDir   string
	analyzeOutputDir   string
	analyzeUsageFile   string
	analyzeConsoleOnly bool
	analyzeSaveRawData bool
	analyzeDaysBack    int
)

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzePRDataDir, "pr-data-dir", "", "PR corpus directory (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeOutputDir, "output-dir", "", "Report output directory (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeUsageFile, "usage-file", "", "Usage history file (CSV or JSON)")
	analyzeCmd.Flags().BoolVar(&analyzeConsoleOnly, "console-only", false, "Print the daily report instead of writing files")
	analyzeCmd.Flags().BoolVar(&analyzeSaveRawData, "save-raw-data", false, "Also save the raw agent PR records")
	analyzeCmd.Flags().IntVar(&analyzeDaysBack, "days-back", 30, "Remote session analysis window in days")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	prDataDir := cfg.Data.PRDataDir
	if analyzePRDataDir != "" {
		prDataDir = analyzePRDataDir
	}
	outputDir := cfg.Data.ReportsDir
	if analyzeOutputDir != "" {
		outputDir = analyzeOutputDir
	}

	// 1. Collect agent PRs from the corpus.
	corpus := gateway.NewCorpusStore(prDataDir, logger)
	allPRs, warnings := corpus.Load()

	classifier := usecase.NewClassifier(cfg.Analysis.DevinPatterns, logger)
	agentPRs := classifier.SelectAgentPRs(allPRs)
	if len(agentPRs) == 0 {
		return fmt.Errorf("no agent PRs found in %s", prDataDir)
	}

	summary := usecase.Summarize(agentPRs)
	fmt.Printf("Agent PRs: %d total, %d merged, %d open, %d closed (%.1f%% success)\n",
		summary.Total, summary.Merged, summary.Open, summary.Closed, summary.SuccessRate)

	// 2. Optional usage history.
	reconciler := usecase.NewReconciler(logger)
	var usage []domain.UsageSession
	if analyzeUsageFile != "" {
		var usageWarnings []domain.ParseWarning
		usage, usageWarnings = reconciler.LoadUsageHistory(analyzeUsageFile)
		warnings = append(warnings, usageWarnings...)
		if len(usage) == 0 {
			logger.Warn("usage history yielded no sessions, falling back to estimates",
				zap.String("path", analyzeUsageFile))
		}
	}

	// 3. Aggregate.
	aggregator := usecase.NewAggregator(reconciler, cfg.Analysis.EstimatedACUsPerPR, logger)
	result := aggregator.Analyze(agentPRs, usage, warnings)

	// 4. Remote session analysis; unavailability is a skip, never an error.
	devinClient := gateway.NewDevinClient(cfg.API, logger)
	remote := devinClient.AnalyzePRRelatedSessions(ctx, analyzeDaysBack)
	if !remote.APIAvailable {
		logger.Info("remote API unavailable, reporting local data only")
	}

	// 5. Emit.
	generator := report.NewGenerator(logger)
	if analyzeConsoleOnly {
		fmt.Println(generator.DailyReport(result, remote))
		return nil
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	if analyzeSaveRawData {
		rawPath := filepath.Join(outputDir, "devin_prs_raw.json")
		if err := writeJSON(rawPath, agentPRs); err != nil {
			return err
		}
		fmt.Printf("Raw PR data: %s\n", rawPath)
	}

	dailyPath, monthlyPath, err := generator.WriteAll(result, remote, outputDir)
	if err != nil {
		return err
	}
	fmt.Printf("Daily report: %s\nMonthly summary: %s\n", dailyPath, monthlyPath)

	analysisPath := filepath.Join(outputDir, "devin_analysis.json")
	if err := writeJSON(analysisPath, result); err != nil {
		return err
	}
	fmt.Printf("Analysis result: %s\n", analysisPath)

	rows := report.Flatten(result)
	csvPath := filepath.Join(outputDir, "devin_metrics.csv")
	if err := report.WriteCSV(rows, csvPath); err != nil {
		return err
	}
	jsonPath := filepath.Join(outputDir, "devin_metrics.json")
	if err := report.WriteJSON(rows, jsonPath, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Flat exports: %s, %s\n", csvPath, jsonPath)

	return nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
