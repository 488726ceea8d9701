package usecase

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/montanaflynn/stats"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
	"github.com/devin-analytics/devin-stats/internal/normalize"
)

// Reconciler loads usage sessions from heterogeneous sources and merges
// them into one deduplicated history.
type Reconciler struct {
	logger *zap.Logger
}

// NewReconciler creates a Reconciler.
func NewReconciler(logger *zap.Logger) *Reconciler {
	return &Reconciler{logger: logger}
}

// LoadUsageHistory reads usage sessions from a CSV or JSON file,
// dispatched by extension. Missing files and unsupported extensions
// degrade to an empty result with a warning.
func (r *Reconciler) LoadUsageHistory(path string) ([]domain.UsageSession, []domain.ParseWarning) {
	if _, err := os.Stat(path); err != nil {
		r.logger.Warn("usage history file not found", zap.String("path", path))
		return nil, []domain.ParseWarning{{
			Field:  "usage_history_file",
			Value:  path,
			Reason: "file not found, treating as empty source",
		}}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return r.loadCSV(path)
	case ".json":
		return r.loadJSON(path)
	default:
		r.logger.Warn("unsupported usage history format", zap.String("path", path))
		return nil, []domain.ParseWarning{{
			Field:  "usage_history_file",
			Value:  path,
			Reason: "unsupported file extension",
		}}
	}
}

// loadCSV reads the `Session, Created At, ACUs Used` table.
func (r *Reconciler) loadCSV(path string) ([]domain.UsageSession, []domain.ParseWarning) {
	var warnings []domain.ParseWarning

	f, err := os.Open(path)
	if err != nil {
		return nil, []domain.ParseWarning{{Field: "usage_history_file", Value: path, Reason: err.Error()}}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, []domain.ParseWarning{{Field: "usage_history_file", Value: path, Reason: fmt.Sprintf("malformed CSV: %v", err)}}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	// Column positions come from the header, not fixed indexes.
	cols := map[string]int{}
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	nameIdx, dateIdx, acuIdx := cols["session"], cols["created at"], cols["acus used"]

	var sessions []domain.UsageSession
	for _, row := range rows[1:] {
		if emptyRow(row) {
			continue
		}
		session := domain.UsageSession{
			SessionName: cell(row, nameIdx),
			CreatedAt:   cell(row, dateIdx),
		}
		session.ACUsUsed = coerceACU(cell(row, acuIdx), &warnings)
		session.Date = normalizeSessionDate(session.CreatedAt, &warnings)
		sessions = append(sessions, session)
	}

	r.logger.Info("loaded usage history", zap.String("path", path), zap.Int("sessions", len(sessions)))
	return sessions, warnings
}

// usageEnvelope is the `{metadata, data}` JSON form; a flat array is also
// accepted.
type usageEnvelope struct {
	Metadata json.RawMessage `json:"metadata"`
	Data     []jsonSession   `json:"data"`
}

// jsonSession tolerates both the `session_name` and the older `session`
// field, and ACU values written as numbers or strings.
type jsonSession struct {
	SessionName string          `json:"session_name"`
	Session     string          `json:"session"`
	SessionID   string          `json:"session_id"`
	CreatedAt   string          `json:"created_at"`
	ACUsUsed    json.RawMessage `json:"acus_used"`
}

func (j jsonSession) name() string {
	if j.SessionName != "" {
		return j.SessionName
	}
	return j.Session
}

func (r *Reconciler) loadJSON(path string) ([]domain.UsageSession, []domain.ParseWarning) {
	var warnings []domain.ParseWarning

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []domain.ParseWarning{{Field: "usage_history_file", Value: path, Reason: err.Error()}}
	}

	var items []jsonSession
	var envelope usageEnvelope
	if err := json.Unmarshal(data, &envelope); err == nil && envelope.Data != nil {
		items = envelope.Data
	} else if err := json.Unmarshal(data, &items); err != nil {
		return nil, []domain.ParseWarning{{Field: "usage_history_file", Value: path, Reason: fmt.Sprintf("malformed JSON: %v", err)}}
	}

	var sessions []domain.UsageSession
	for _, item := range items {
		session := domain.UsageSession{
			SessionName: strings.TrimSpace(item.name()),
			SessionID:   item.SessionID,
			CreatedAt:   strings.TrimSpace(item.CreatedAt),
		}
		session.ACUsUsed = coerceACU(string(item.ACUsUsed), &warnings)
		session.Date = normalizeSessionDate(session.CreatedAt, &warnings)
		sessions = append(sessions, session)
	}

	r.logger.Info("loaded usage history", zap.String("path", path), zap.Int("sessions", len(sessions)))
	return sessions, warnings
}

// Merge appends the incoming sessions that are not already present,
// keyed per UsageSession.Key, also collapsing duplicates inside the
// incoming batch itself. Merging the same source twice is a no-op. The
// result is sorted newest first; the canonical date format is fixed
// width, so lexicographic order is chronological.
func (r *Reconciler) Merge(existing, incoming []domain.UsageSession) []domain.UsageSession {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]domain.UsageSession, 0, len(existing)+len(incoming))
	for _, s := range existing {
		key := s.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}

	for _, s := range incoming {
		key := s.Key()
		if _, dup := seen[key]; dup {
			r.logger.Debug("skipping duplicate session",
				zap.String("session", s.SessionName), zap.String("date", s.Date))
			continue
		}
		seen[key] = struct{}{}
		merged = append(merged, s)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return sortDate(merged[i]) > sortDate(merged[j])
	})
	return merged
}

func sortDate(s domain.UsageSession) string {
	if s.Date != "" {
		return s.Date
	}
	return s.CreatedAt
}

// CorrelateWithPRs identifies the PR-related slice of a usage history and
// relates its cost to the PR set.
func (r *Reconciler) CorrelateWithPRs(sessions []domain.UsageSession, prs []domain.PullRequestRecord) domain.PRUsageCorrelation {
	prSessions := lo.Filter(sessions, func(s domain.UsageSession, _ int) bool {
		return domain.IsPRRelated(s.SessionName)
	})

	correlation := domain.PRUsageCorrelation{
		TotalPRSessions: len(prSessions),
		TotalPRACUs: lo.SumBy(prSessions, func(s domain.UsageSession) float64 {
			return s.ACUsUsed
		}),
		DailyUsage: make(map[string]domain.DailyUsage),
		PRSessions: prSessions,
	}
	if len(prs) > 0 {
		correlation.AvgACUsPerPR = correlation.TotalPRACUs / float64(len(prs))
	}

	for _, s := range prSessions {
		if s.Date == "" {
			continue
		}
		daily := correlation.DailyUsage[s.Date]
		daily.Sessions++
		daily.ACUs += s.ACUsUsed
		correlation.DailyUsage[s.Date] = daily
	}
	return correlation
}

// Summary describes a whole usage history independent of PR activity.
func (r *Reconciler) Summary(sessions []domain.UsageSession) domain.UsageSummary {
	summary := domain.UsageSummary{
		TotalSessions: len(sessions),
		DailySummary:  make(map[string]domain.DailyUsage),
	}
	if len(sessions) == 0 {
		return summary
	}

	acus := lo.Map(sessions, func(s domain.UsageSession, _ int) float64 { return s.ACUsUsed })
	summary.TotalACUs, _ = stats.Sum(acus)
	summary.AvgACUsPerSession, _ = stats.Mean(acus)
	summary.MedianACUs, _ = stats.Median(acus)
	summary.MaxACUs, _ = stats.Max(acus)

	for _, s := range sessions {
		if s.Date == "" {
			continue
		}
		daily := summary.DailySummary[s.Date]
		daily.Sessions++
		daily.ACUs += s.ACUsUsed
		summary.DailySummary[s.Date] = daily

		if summary.PeriodStart == "" || s.Date < summary.PeriodStart {
			summary.PeriodStart = s.Date
		}
		if s.Date > summary.PeriodEnd {
			summary.PeriodEnd = s.Date
		}
	}
	return summary
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// coerceACU turns an ACU cell into a float. Values may arrive as plain
// numbers, quoted numbers, or garbage; anything unparseable defaults to
// zero with a warning instead of failing the batch.
func coerceACU(raw string, warnings *[]domain.ParseWarning) float64 {
	s := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if s == "" || s == "null" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*warnings = append(*warnings, domain.ParseWarning{
			Field:  "acus_used",
			Value:  raw,
			Reason: "not a number, defaulting to 0",
		})
		return 0
	}
	return v
}

func normalizeSessionDate(createdAt string, warnings *[]domain.ParseWarning) string {
	if createdAt == "" {
		return ""
	}
	date, ok := normalize.ParseDate(createdAt)
	if !ok {
		*warnings = append(*warnings, domain.ParseWarning{
			Field:  "created_at",
			Value:  createdAt,
			Reason: "unrecognized date format",
		})
		return ""
	}
	return date
}
