package domain

import "strings"

// UsageSession is a single unit of agent work as reported by the usage
// history (CSV/JSON/free text) or the remote API.
//
// CreatedAt holds the date text as found in the source ("Jun 12, 2025",
// ISO timestamp, ...); Date is the canonical YYYY-MM-DD form, empty when
// the source date could not be parsed. SessionID is only present for
// sources that expose it (the remote API and browser captures).
type UsageSession struct {
	SessionName string  `json:"session_name"`
	SessionID   string  `json:"session_id,omitempty"`
	CreatedAt   string  `json:"created_at"`
	ACUsUsed    float64 `json:"acus_used"`
	Date        string  `json:"date,omitempty"`
}

// Key returns the identity of the session used for deduplication.
// Sessions with an id are identified by it; manual sources without one
// fall back to the (lowercased name, day) pair.
func (s UsageSession) Key() string {
	if s.SessionID != "" {
		return "id:" + s.SessionID
	}
	date := s.Date
	if date == "" {
		date = s.CreatedAt
	}
	return strings.ToLower(s.SessionName) + "|" + date
}

// DailyUsage accumulates PR-related session activity for one day.
type DailyUsage struct {
	Sessions int     `json:"sessions"`
	ACUs     float64 `json:"acus"`
}

// PRUsageCorrelation is the result of matching usage sessions against the
// PR-related keyword heuristic.
type PRUsageCorrelation struct {
	TotalPRSessions int                   `json:"total_pr_sessions"`
	TotalPRACUs     float64               `json:"total_pr_acus"`
	AvgACUsPerPR    float64               `json:"avg_acus_per_pr"`
	DailyUsage      map[string]DailyUsage `json:"daily_usage"`
	PRSessions      []UsageSession        `json:"pr_sessions,omitempty"`
}

// UsageSummary describes a whole usage history, independent of PR activity.
type UsageSummary struct {
	TotalSessions     int                   `json:"total_sessions"`
	TotalACUs         float64               `json:"total_acus"`
	AvgACUsPerSession float64               `json:"avg_acus_per_session"`
	MedianACUs        float64               `json:"median_acus"`
	MaxACUs           float64               `json:"max_acus"`
	PeriodStart       string                `json:"period_start,omitempty"`
	PeriodEnd         string                `json:"period_end,omitempty"`
	DailySummary      map[string]DailyUsage `json:"daily_summary"`
}

// RemoteDailyStats is the per-day slice of the remote session analysis.
type RemoteDailyStats struct {
	PRSessions       int     `json:"pr_sessions"`
	EstimatedCredits float64 `json:"estimated_credits"`
}

// RemoteSessionAnalysis is the outcome of analyzing recent sessions through
// the remote API. APIAvailable false means the whole analysis was skipped
// (no token, unreachable service) and the remaining fields are zero.
type RemoteSessionAnalysis struct {
	APIAvailable     bool                        `json:"api_available"`
	TotalPRSessions  int                         `json:"total_pr_sessions"`
	DailyStats       map[string]RemoteDailyStats `json:"daily_stats"`
	EstimatedCredits float64                     `json:"estimated_credits"`
}
