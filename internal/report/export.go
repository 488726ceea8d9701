package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// FlatRow is one record of the flat tabular export consumed by BI tools.
// The CSV and JSON exports share the same rows, field for field.
type FlatRow struct {
	Date         string  `json:"date"`
	MetricType   string  `json:"metric_type"`
	Value        float64 `json:"value"`
	Category     string  `json:"category"`
	DataSource   string  `json:"data_source"`
	AnalysisDate string  `json:"analysis_date"`
}

// flatCSVHeader is the fixed column set of the CSV export.
var flatCSVHeader = []string{"date", "metric_type", "value", "category", "data_source", "analysis_date"}

// ExportMetadata is the envelope header of the JSON export.
type ExportMetadata struct {
	LastUpdated   string `json:"last_updated"`
	TotalRecords  int    `json:"total_records"`
	Description   string `json:"description"`
	FormatVersion string `json:"format_version"`
}

// Export is the machine-readable JSON form of the flat export.
type Export struct {
	Metadata ExportMetadata `json:"metadata"`
	Data     []FlatRow      `json:"data"`
}

// Flatten converts an AnalysisResult into flat rows: daily and monthly
// created/merged series, the success summary, and the ACU figures for
// whichever data source produced them. Row order is deterministic.
func Flatten(result domain.AnalysisResult) []FlatRow {
	analysisDate := result.Summary.AnalysisDate
	dataSource := string(result.ACUAnalysis.DataSource)

	row := func(date, metric string, value float64, category string) FlatRow {
		return FlatRow{
			Date:         date,
			MetricType:   metric,
			Value:        value,
			Category:     category,
			DataSource:   dataSource,
			AnalysisDate: analysisDate,
		}
	}

	var rows []FlatRow
	for _, date := range sortedKeys(result.DailyStats.Created) {
		rows = append(rows, row(date, "pr_created", float64(result.DailyStats.Created[date]), "daily"))
	}
	for _, date := range sortedKeys(result.DailyStats.Merged) {
		rows = append(rows, row(date, "pr_merged", float64(result.DailyStats.Merged[date]), "daily"))
	}
	for _, month := range sortedKeys(result.MonthlyStats.Created) {
		rows = append(rows, row(month+"-01", "pr_created", float64(result.MonthlyStats.Created[month]), "monthly"))
	}
	for _, month := range sortedKeys(result.MonthlyStats.Merged) {
		rows = append(rows, row(month+"-01", "pr_merged", float64(result.MonthlyStats.Merged[month]), "monthly"))
	}

	summaryDate := analysisDate
	if len(summaryDate) >= 10 {
		summaryDate = summaryDate[:10]
	}
	rows = append(rows,
		row(summaryDate, "total_prs", float64(result.SuccessPatterns.Total), "summary"),
		row(summaryDate, "merged_prs", float64(result.SuccessPatterns.Merged), "summary"),
		row(summaryDate, "success_rate", result.SuccessPatterns.SuccessRate, "summary"),
	)

	switch result.ACUAnalysis.DataSource {
	case domain.DataSourceActual:
		actual := result.ACUAnalysis.Actual
		rows = append(rows,
			row(summaryDate, "total_acus", actual.TotalACUs, "acu"),
			row(summaryDate, "acus_per_pr", actual.ACUsPerPR, "acu"),
			row(summaryDate, "pr_sessions", float64(actual.PRSessions), "acu"),
		)
	case domain.DataSourceEstimated:
		estimated := result.ACUAnalysis.Estimated
		rows = append(rows,
			row(summaryDate, "total_estimated_acus", estimated.TotalEstimatedACUs, "acu"),
			row(summaryDate, "acus_per_pr", estimated.ACUsPerPR, "acu"),
		)
	}
	return rows
}

// WriteCSV writes the flat rows with the fixed column header.
func WriteCSV(rows []FlatRow, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create export %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(flatCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Date,
			r.MetricType,
			strconv.FormatFloat(r.Value, 'f', -1, 64),
			r.Category,
			r.DataSource,
			r.AnalysisDate,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV export %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes the flat rows wrapped in the metadata envelope.
func WriteJSON(rows []FlatRow, path string, now time.Time) error {
	export := Export{
		Metadata: ExportMetadata{
			LastUpdated:   now.UTC().Format("2006-01-02 15:04:05 UTC"),
			TotalRecords:  len(rows),
			Description:   "Devin PR activity metrics",
			FormatVersion: "1.0",
		},
		Data: rows,
	}
	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal export: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write export %s: %w", path, err)
	}
	return nil
}

// ReadJSON reads a JSON export back, e.g. to verify consistency with the
// CSV form.
func ReadJSON(path string) (*Export, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export %s: %w", path, err)
	}
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("malformed export %s: %w", path, err)
	}
	return &export, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
