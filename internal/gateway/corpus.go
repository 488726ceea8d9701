// Package gateway provides access to the external data sources: the local
// PR corpus, the remote Devin API, and GitHub.
package gateway

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// lastRunInfoFile records fetch metadata and is never part of the corpus.
const lastRunInfoFile = "last_run_info.json"

// corpusFile is the on-disk shape of one PR, matching the snapshot format
// produced by the fetch command.
type corpusFile struct {
	BasicInfo struct {
		Number  int    `json:"number"`
		Title   string `json:"title"`
		HTMLURL string `json:"html_url"`
		User    struct {
			Login string `json:"login"`
		} `json:"user"`
		CreatedAt  string `json:"created_at"`
		MergedAt   string `json:"merged_at,omitempty"`
		State      string `json:"state"`
		Repository string `json:"repository,omitempty"`
	} `json:"basic_info"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels,omitempty"`
}

type lastRunInfo struct {
	LastRun  string `json:"last_run"`
	TotalPRs int    `json:"total_prs"`
}

// CorpusStore reads and writes the directory of per-PR JSON files.
type CorpusStore struct {
	dir    string
	logger *zap.Logger
}

// NewCorpusStore creates a store rooted at dir.
func NewCorpusStore(dir string, logger *zap.Logger) *CorpusStore {
	return &CorpusStore{dir: dir, logger: logger}
}

// Load scans the corpus directory for PR records. A missing directory or
// an unreadable file degrades to a warning; the scan itself never fails.
func (s *CorpusStore) Load() ([]domain.PullRequestRecord, []domain.ParseWarning) {
	var warnings []domain.ParseWarning

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("PR corpus directory not readable", zap.String("dir", s.dir), zap.Error(err))
		warnings = append(warnings, domain.ParseWarning{
			Field:  "pr_data_dir",
			Value:  s.dir,
			Reason: "directory not readable, treating as empty corpus",
		})
		return nil, warnings
	}

	var records []domain.PullRequestRecord
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == lastRunInfoFile {
			continue
		}
		path := filepath.Join(s.dir, name)
		record, err := readCorpusFile(path)
		if err != nil {
			s.logger.Warn("skipping unreadable PR file", zap.String("file", name), zap.Error(err))
			warnings = append(warnings, domain.ParseWarning{
				Field:  "pr_file",
				Value:  name,
				Reason: err.Error(),
			})
			continue
		}
		records = append(records, record)
	}

	s.logger.Info("loaded PR corpus",
		zap.String("dir", s.dir),
		zap.Int("records", len(records)),
		zap.Int("warnings", len(warnings)))
	return records, warnings
}

func readCorpusFile(path string) (domain.PullRequestRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.PullRequestRecord{}, err
	}
	var f corpusFile
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.PullRequestRecord{}, fmt.Errorf("malformed PR JSON: %w", err)
	}
	record := domain.PullRequestRecord{
		Number:      f.BasicInfo.Number,
		Repository:  f.BasicInfo.Repository,
		Title:       f.BasicInfo.Title,
		HTMLURL:     f.BasicInfo.HTMLURL,
		AuthorLogin: f.BasicInfo.User.Login,
		CreatedAt:   f.BasicInfo.CreatedAt,
		MergedAt:    f.BasicInfo.MergedAt,
		State:       f.BasicInfo.State,
	}
	for _, l := range f.Labels {
		record.Labels = append(record.Labels, l.Name)
	}
	return record, nil
}

// Write persists one JSON file per record plus the run metadata file.
// Write failures are fatal for the invocation.
func (s *CorpusStore) Write(records []domain.PullRequestRecord) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create corpus directory %s: %w", s.dir, err)
	}

	for _, r := range records {
		var f corpusFile
		f.BasicInfo.Number = r.Number
		f.BasicInfo.Title = r.Title
		f.BasicInfo.HTMLURL = r.HTMLURL
		f.BasicInfo.User.Login = r.AuthorLogin
		f.BasicInfo.CreatedAt = r.CreatedAt
		f.BasicInfo.MergedAt = r.MergedAt
		f.BasicInfo.State = r.State
		f.BasicInfo.Repository = r.Repository
		for _, name := range r.Labels {
			f.Labels = append(f.Labels, struct {
				Name string `json:"name"`
			}{Name: name})
		}

		path := filepath.Join(s.dir, corpusFileName(r))
		if err := writeJSONFile(path, f); err != nil {
			return err
		}
	}

	info := lastRunInfo{
		LastRun:  time.Now().UTC().Format(time.RFC3339),
		TotalPRs: len(records),
	}
	if err := writeJSONFile(filepath.Join(s.dir, lastRunInfoFile), info); err != nil {
		return err
	}

	s.logger.Info("wrote PR corpus", zap.String("dir", s.dir), zap.Int("records", len(records)))
	return nil
}

func corpusFileName(r domain.PullRequestRecord) string {
	repo := strings.NewReplacer("/", "_", " ", "_").Replace(r.Repository)
	if repo == "" {
		repo = "unknown"
	}
	return fmt.Sprintf("pr_%s_%d.json", repo, r.Number)
}

func writeJSONFile(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
