// Package report renders an AnalysisResult to markdown reports and flat
// tabular exports. All three output forms share the same aggregate.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// recentDays caps the per-day listings in the daily report.
const recentDays = 30

// Generator renders and persists reports.
type Generator struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewGenerator creates a Generator.
func NewGenerator(logger *zap.Logger) *Generator {
	return &Generator{logger: logger, now: time.Now}
}

// DailyReport renders the daily markdown report. The remote section and
// the ACU section each switch on their availability discriminators.
func (g *Generator) DailyReport(result domain.AnalysisResult, remote domain.RemoteSessionAnalysis) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Devin Daily Activity Report\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", g.now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- **Total agent PRs**: %d\n", result.Summary.TotalPRs)
	fmt.Fprintf(&b, "- **Merged**: %d\n", result.SuccessPatterns.Merged)
	fmt.Fprintf(&b, "- **Open**: %d\n", result.SuccessPatterns.Open)
	fmt.Fprintf(&b, "- **Closed**: %d\n", result.SuccessPatterns.Closed)
	fmt.Fprintf(&b, "- **Success rate**: %.1f%%\n\n", result.SuccessPatterns.SuccessRate)

	fmt.Fprintf(&b, "## Daily Activity\n\n### PRs Created\n\n")
	writeCountList(&b, result.DailyStats.Created, recentDays, "created")
	fmt.Fprintf(&b, "\n### PRs Merged\n\n")
	writeCountList(&b, result.DailyStats.Merged, recentDays, "merged")

	fmt.Fprintf(&b, "\n## ACU Usage\n\n")
	switch result.ACUAnalysis.DataSource {
	case domain.DataSourceActual:
		actual := result.ACUAnalysis.Actual
		fmt.Fprintf(&b, "Source: actual usage history\n\n")
		fmt.Fprintf(&b, "- **Total PR-related ACUs**: %.2f\n", actual.TotalACUs)
		fmt.Fprintf(&b, "- **Average ACUs per PR**: %.2f\n", actual.ACUsPerPR)
		fmt.Fprintf(&b, "- **PR-related sessions**: %d\n", actual.PRSessions)
		fmt.Fprintf(&b, "- **Cost efficiency**: %.2f\n", actual.CostEfficiency)
	case domain.DataSourceEstimated:
		estimated := result.ACUAnalysis.Estimated
		fmt.Fprintf(&b, "Source: estimate (no usage history supplied)\n\n")
		fmt.Fprintf(&b, "- **Estimated total ACUs**: %.0f\n", estimated.TotalEstimatedACUs)
		fmt.Fprintf(&b, "- **ACUs per PR (assumed)**: %.0f\n", estimated.ACUsPerPR)
		fmt.Fprintf(&b, "- **ACUs on merged PRs**: %.0f\n", estimated.ACUsForMerged)
		fmt.Fprintf(&b, "- **ACUs on failed PRs**: %.0f\n", estimated.ACUsForFailed)
		fmt.Fprintf(&b, "- **Cost efficiency**: %.2f\n", estimated.CostEfficiency)
	}

	fmt.Fprintf(&b, "\n## Devin API\n\n")
	if remote.APIAvailable {
		fmt.Fprintf(&b, "- **API connection**: available\n")
		fmt.Fprintf(&b, "- **PR-related sessions**: %d\n", remote.TotalPRSessions)
		fmt.Fprintf(&b, "- **Estimated credits**: %.0f\n", remote.EstimatedCredits)
		dates := sortedKeysDesc(remote.DailyStats)
		if len(dates) > 7 {
			dates = dates[:7]
		}
		if len(dates) > 0 {
			fmt.Fprintf(&b, "\n")
			for _, date := range dates {
				daily := remote.DailyStats[date]
				fmt.Fprintf(&b, "- %s: %d sessions, %.0f credits\n", date, daily.PRSessions, daily.EstimatedCredits)
			}
		}
	} else {
		fmt.Fprintf(&b, "- **API connection**: unavailable (no token configured or service unreachable)\n")
		fmt.Fprintf(&b, "- Credit figures above fall back to local data only\n")
	}

	if len(result.Warnings) > 0 {
		fmt.Fprintf(&b, "\n## Warnings\n\n")
		for _, w := range result.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}

	fmt.Fprintf(&b, "\n---\n\n*This report was generated automatically.*\n")
	return b.String()
}

// MonthlySummary renders the monthly markdown summary.
func (g *Generator) MonthlySummary(result domain.AnalysisResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Devin Monthly Summary\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", g.now().Format("2006-01-02 15:04:05"))

	fmt.Fprintf(&b, "## Summary\n\n")
	fmt.Fprintf(&b, "- **Total agent PRs**: %d\n", result.Summary.TotalPRs)
	fmt.Fprintf(&b, "- **Merged**: %d\n", result.SuccessPatterns.Merged)
	fmt.Fprintf(&b, "- **Success rate**: %.1f%%\n\n", result.SuccessPatterns.SuccessRate)

	fmt.Fprintf(&b, "## Monthly Activity\n\n### PRs Created\n\n")
	writeCountList(&b, result.MonthlyStats.Created, 0, "created")
	fmt.Fprintf(&b, "\n### PRs Merged\n\n")
	writeCountList(&b, result.MonthlyStats.Merged, 0, "merged")

	return b.String()
}

// WriteAll renders both reports into outputDir with date-stamped names.
// Write failures are fatal for the invocation.
func (g *Generator) WriteAll(result domain.AnalysisResult, remote domain.RemoteSessionAnalysis, outputDir string) (dailyPath, monthlyPath string, err error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", "", fmt.Errorf("failed to create reports directory %s: %w", outputDir, err)
	}

	now := g.now()
	dailyPath = filepath.Join(outputDir, fmt.Sprintf("devin_daily_report_%s.md", now.Format("20060102")))
	if err := g.save(g.DailyReport(result, remote), dailyPath); err != nil {
		return "", "", err
	}

	monthlyPath = filepath.Join(outputDir, fmt.Sprintf("devin_monthly_summary_%s.md", now.Format("200601")))
	if err := g.save(g.MonthlySummary(result), monthlyPath); err != nil {
		return "", "", err
	}
	return dailyPath, monthlyPath, nil
}

func (g *Generator) save(content, path string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write report %s: %w", path, err)
	}
	g.logger.Info("wrote report", zap.String("path", path))
	return nil
}

// writeCountList emits "- <key>: N <verb>" lines, newest first, capped at
// limit entries when limit > 0.
func writeCountList(b *strings.Builder, counts map[string]int, limit int, verb string) {
	if len(counts) == 0 {
		fmt.Fprintf(b, "- no data\n")
		return
	}
	keys := sortedKeysDesc(counts)
	if limit > 0 && len(keys) > limit {
		keys = keys[:limit]
	}
	for _, key := range keys {
		fmt.Fprintf(b, "- %s: %d %s\n", key, counts[key], verb)
	}
}

func sortedKeysDesc[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}
