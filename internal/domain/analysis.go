package domain

// DataSource discriminates how the ACU analysis was produced.
type DataSource string

const (
	// DataSourceActual means real usage-history records backed the numbers.
	DataSourceActual DataSource = "actual_usage_history"
	// DataSourceEstimated means the numbers are a fixed per-PR estimate.
	DataSourceEstimated DataSource = "estimated"
)

// ActualUsage carries the ACU figures derived from real usage history.
type ActualUsage struct {
	TotalACUs      float64               `json:"total_acus"`
	ACUsPerPR      float64               `json:"acus_per_pr"`
	PRSessions     int                   `json:"pr_sessions"`
	DailyUsage     map[string]DailyUsage `json:"daily_usage"`
	CostEfficiency float64               `json:"cost_efficiency"`
}

// EstimatedUsage carries the ACU figures produced by the fallback estimate.
type EstimatedUsage struct {
	TotalEstimatedACUs float64 `json:"total_estimated_acus"`
	ACUsPerPR          float64 `json:"acus_per_pr"`
	ACUsForMerged      float64 `json:"acus_for_merged"`
	ACUsForFailed      float64 `json:"acus_for_failed"`
	CostEfficiency     float64 `json:"cost_efficiency"`
}

// ACUAnalysis is a tagged union: exactly one of Actual or Estimated is
// non-nil, selected by DataSource. Consumers must switch on DataSource
// rather than probing fields.
type ACUAnalysis struct {
	DataSource DataSource      `json:"data_source"`
	Actual     *ActualUsage    `json:"actual,omitempty"`
	Estimated  *EstimatedUsage `json:"estimated,omitempty"`
}

// DailyPRStats buckets PR events by calendar day (YYYY-MM-DD keys).
type DailyPRStats struct {
	Created map[string]int `json:"daily_created"`
	Merged  map[string]int `json:"daily_merged"`
}

// MonthlyPRStats buckets PR events by year-month (YYYY-MM keys).
type MonthlyPRStats struct {
	Created map[string]int `json:"monthly_created"`
	Merged  map[string]int `json:"monthly_merged"`
}

// AnalysisSummary is the header block of an analysis run.
type AnalysisSummary struct {
	TotalPRs       int    `json:"total_prs"`
	AnalysisDate   string `json:"analysis_date"`
	PeriodAnalyzed string `json:"period_analyzed"`
}

// AnalysisResult is the aggregate snapshot consumed by every report
// emitter. It is produced fresh per invocation and never mutated.
type AnalysisResult struct {
	Summary         AnalysisSummary `json:"summary"`
	DailyStats      DailyPRStats    `json:"daily_stats"`
	MonthlyStats    MonthlyPRStats  `json:"monthly_stats"`
	SuccessPatterns PRSummary       `json:"success_patterns"`
	ACUAnalysis     ACUAnalysis     `json:"acu_analysis"`
	Warnings        []ParseWarning  `json:"warnings,omitempty"`
}
