package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/normalize"
	"github.com/devin-analytics/devin-stats/internal/usecase"
)

var convertCmd = &cobra.Command{
	Use:   "convert [input-file]",
	Short: "Converts a free-text usage-history dump into CSV and JSON",
	Long: `Parses a usage-history table copied as plain text (use "-" to read
from stdin), merges the sessions into the existing usage history without
duplicates, and writes the result as CSV plus a JSON envelope.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

var (
	convertCSVOut  string
	convertJSONOut string
)

func init() {
	rootCmd.AddCommand(convertCmd)
	convertCmd.Flags().StringVar(&convertCSVOut, "csv-out", "", "Output CSV path (default from config)")
	convertCmd.Flags().StringVar(&convertJSONOut, "json-out", "", "Output JSON path (default: CSV path with .json)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	var text string
	if args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(data)
	} else {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", args[0], err)
		}
		text = string(data)
	}

	sessions, warnings := normalize.ParseUsageText(text)
	if len(sessions) == 0 {
		return fmt.Errorf("could not parse any usage sessions from the input")
	}
	for _, w := range warnings {
		logger.Warn("parse warning", zap.String("field", w.Field), zap.String("value", w.Value), zap.String("reason", w.Reason))
	}
	fmt.Printf("Parsed %d sessions from input\n", len(sessions))

	csvOut := cfg.Usage.UsageHistoryFile
	if convertCSVOut != "" {
		csvOut = convertCSVOut
	}
	jsonOut := convertJSONOut
	if jsonOut == "" {
		jsonOut = strings.TrimSuffix(csvOut, ".csv") + ".json"
	}

	// Merge into whatever already exists at the target so converting the
	// same dump twice stays a no-op.
	reconciler := usecase.NewReconciler(logger)
	existing, _ := reconciler.LoadUsageHistory(csvOut)
	merged := reconciler.Merge(existing, sessions)
	fmt.Printf("Usage history now has %d sessions (%d existing)\n", len(merged), len(existing))

	if err := reconciler.SaveCSV(merged, csvOut); err != nil {
		return err
	}
	if err := reconciler.SaveJSON(merged, jsonOut, nil); err != nil {
		return err
	}
	fmt.Printf("Wrote %s and %s\n", csvOut, jsonOut)
	return nil
}
