package usecase

import (
	"time"

	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
	"github.com/devin-analytics/devin-stats/internal/normalize"
)

// Aggregator combines classified PRs and reconciled usage data into the
// single AnalysisResult every report emitter consumes.
type Aggregator struct {
	reconciler         *Reconciler
	estimatedACUsPerPR float64
	logger             *zap.Logger
	now                func() time.Time
}

// NewAggregator creates an Aggregator. estimatedACUsPerPR is the fallback
// per-PR cost applied when no real usage history is supplied.
func NewAggregator(reconciler *Reconciler, estimatedACUsPerPR float64, logger *zap.Logger) *Aggregator {
	return &Aggregator{
		reconciler:         reconciler,
		estimatedACUsPerPR: estimatedACUsPerPR,
		logger:             logger,
		now:                time.Now,
	}
}

// Analyze produces a fresh AnalysisResult from the agent PR set and the
// optional usage history. It is a pure function of its inputs aside from
// the embedded analysis timestamp.
func (a *Aggregator) Analyze(prs []domain.PullRequestRecord, usage []domain.UsageSession, warnings []domain.ParseWarning) domain.AnalysisResult {
	result := domain.AnalysisResult{
		Summary: domain.AnalysisSummary{
			TotalPRs:       len(prs),
			AnalysisDate:   a.now().UTC().Format(time.RFC3339),
			PeriodAnalyzed: "all",
		},
		DailyStats:      a.dailyStats(prs, &warnings),
		MonthlyStats:    a.monthlyStats(prs, &warnings),
		SuccessPatterns: Summarize(prs),
		ACUAnalysis:     a.acuAnalysis(prs, usage),
		Warnings:        warnings,
	}

	a.logger.Info("analysis complete",
		zap.Int("total_prs", result.Summary.TotalPRs),
		zap.Float64("success_rate", result.SuccessPatterns.SuccessRate),
		zap.String("acu_data_source", string(result.ACUAnalysis.DataSource)),
		zap.Int("warnings", len(result.Warnings)))
	return result
}

func (a *Aggregator) dailyStats(prs []domain.PullRequestRecord, warnings *[]domain.ParseWarning) domain.DailyPRStats {
	stats := domain.DailyPRStats{
		Created: make(map[string]int),
		Merged:  make(map[string]int),
	}
	for _, pr := range prs {
		bucketDate(pr.CreatedAt, "created_at", stats.Created, warnings)
		bucketDate(pr.MergedAt, "merged_at", stats.Merged, warnings)
	}
	return stats
}

func (a *Aggregator) monthlyStats(prs []domain.PullRequestRecord, warnings *[]domain.ParseWarning) domain.MonthlyPRStats {
	stats := domain.MonthlyPRStats{
		Created: make(map[string]int),
		Merged:  make(map[string]int),
	}
	for _, pr := range prs {
		bucketMonth(pr.CreatedAt, "created_at", stats.Created, warnings)
		bucketMonth(pr.MergedAt, "merged_at", stats.Merged, warnings)
	}
	return stats
}

func bucketDate(timestamp, field string, bucket map[string]int, warnings *[]domain.ParseWarning) {
	if timestamp == "" {
		return
	}
	date, ok := normalize.ParseDate(timestamp)
	if !ok {
		*warnings = append(*warnings, domain.ParseWarning{
			Field: field, Value: timestamp, Reason: "unrecognized date format",
		})
		return
	}
	bucket[date]++
}

func bucketMonth(timestamp, field string, bucket map[string]int, warnings *[]domain.ParseWarning) {
	if timestamp == "" {
		return
	}
	month, ok := normalize.MonthKey(timestamp)
	if !ok {
		// The daily pass already recorded the warning for this value.
		return
	}
	bucket[month]++
}

// acuAnalysis selects the actual-usage branch when real usage data was
// supplied and the estimate branch otherwise. The DataSource tag gates
// which branch downstream consumers read.
func (a *Aggregator) acuAnalysis(prs []domain.PullRequestRecord, usage []domain.UsageSession) domain.ACUAnalysis {
	total := len(prs)
	merged := 0
	for _, pr := range prs {
		if pr.Merged() {
			merged++
		}
	}
	costEfficiency := 0.0
	if total > 0 {
		costEfficiency = float64(merged) / float64(total)
	}

	if len(usage) > 0 {
		correlation := a.reconciler.CorrelateWithPRs(usage, prs)
		return domain.ACUAnalysis{
			DataSource: domain.DataSourceActual,
			Actual: &domain.ActualUsage{
				TotalACUs:      correlation.TotalPRACUs,
				ACUsPerPR:      correlation.AvgACUsPerPR,
				PRSessions:     correlation.TotalPRSessions,
				DailyUsage:     correlation.DailyUsage,
				CostEfficiency: costEfficiency,
			},
		}
	}

	failed := total - merged
	return domain.ACUAnalysis{
		DataSource: domain.DataSourceEstimated,
		Estimated: &domain.EstimatedUsage{
			TotalEstimatedACUs: float64(total) * a.estimatedACUsPerPR,
			ACUsPerPR:          a.estimatedACUsPerPR,
			ACUsForMerged:      float64(merged) * a.estimatedACUsPerPR,
			ACUsForFailed:      float64(failed) * a.estimatedACUsPerPR,
			CostEfficiency:     costEfficiency,
		},
	}
}
