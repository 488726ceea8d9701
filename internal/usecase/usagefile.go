package usecase

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// usageCSVHeader is the fixed column set of the usage history CSV.
var usageCSVHeader = []string{"Session", "Created At", "ACUs Used"}

// usageEnvelopeOut mirrors the JSON envelope the loaders accept.
type usageEnvelopeOut struct {
	Metadata struct {
		LastUpdated   string   `json:"last_updated"`
		TotalRecords  int      `json:"total_records"`
		Description   string   `json:"description"`
		FormatVersion string   `json:"format_version"`
		Sources       []string `json:"sources,omitempty"`
	} `json:"metadata"`
	Data []domain.UsageSession `json:"data"`
}

// SaveCSV persists the usage history as `Session, Created At, ACUs Used`.
func (r *Reconciler) SaveCSV(sessions []domain.UsageSession, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(usageCSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, s := range sessions {
		createdAt := s.Date
		if createdAt == "" {
			createdAt = s.CreatedAt
		}
		record := []string{s.SessionName, createdAt, strconv.FormatFloat(s.ACUsUsed, 'f', -1, 64)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", path, err)
	}

	r.logger.Info("wrote usage history CSV", zap.String("path", path), zap.Int("sessions", len(sessions)))
	return nil
}

// SaveJSON persists the usage history wrapped in the metadata envelope.
// Dates are written in canonical form where available so a later reload
// dedupes against the exact same keys.
func (r *Reconciler) SaveJSON(sessions []domain.UsageSession, path string, sources []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	normalized := make([]domain.UsageSession, len(sessions))
	copy(normalized, sessions)
	for i := range normalized {
		if normalized[i].Date != "" {
			normalized[i].CreatedAt = normalized[i].Date
		}
	}

	var envelope usageEnvelopeOut
	envelope.Metadata.LastUpdated = time.Now().UTC().Format("2006-01-02 15:04:05 UTC")
	envelope.Metadata.TotalRecords = len(normalized)
	envelope.Metadata.Description = "Devin usage history data"
	envelope.Metadata.FormatVersion = "1.0"
	envelope.Metadata.Sources = sources
	envelope.Data = normalized

	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal usage history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	r.logger.Info("wrote usage history JSON", zap.String("path", path), zap.Int("sessions", len(normalized)))
	return nil
}
