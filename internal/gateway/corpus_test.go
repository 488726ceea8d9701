package gateway

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

func TestCorpusStore_Load(t *testing.T) {
	dir := t.TempDir()

	pr := `{
		"basic_info": {
			"number": 42,
			"title": "Add retry logic",
			"html_url": "https://github.com/acme/api/pull/42",
			"user": {"login": "devin-ai-integration[bot]"},
			"created_at": "2025-06-01T09:00:00Z",
			"merged_at": "2025-06-02T10:00:00Z",
			"state": "closed",
			"repository": "acme/api"
		},
		"labels": [{"name": "bug"}, {"name": "backend"}]
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pr_acme_api_42.json"), []byte(pr), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "last_run_info.json"), []byte(`{"last_run": "x", "total_prs": 1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignore me"), 0o644))

	store := NewCorpusStore(dir, zap.NewNop())
	records, warnings := store.Load()

	assert.Empty(t, warnings)
	require.Len(t, records, 1)
	assert.Equal(t, domain.PullRequestRecord{
		Number:      42,
		Repository:  "acme/api",
		Title:       "Add retry logic",
		HTMLURL:     "https://github.com/acme/api/pull/42",
		AuthorLogin: "devin-ai-integration[bot]",
		CreatedAt:   "2025-06-01T09:00:00Z",
		MergedAt:    "2025-06-02T10:00:00Z",
		State:       "closed",
		Labels:      []string{"bug", "backend"},
	}, records[0])
}

func TestCorpusStore_Load_MissingDir(t *testing.T) {
	store := NewCorpusStore(filepath.Join(t.TempDir(), "does-not-exist"), zap.NewNop())
	records, warnings := store.Load()

	assert.Empty(t, records)
	require.Len(t, warnings, 1)
	assert.Equal(t, "pr_data_dir", warnings[0].Field)
}

func TestCorpusStore_Load_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pr_broken_1.json"), []byte("{not json"), 0o644))
	good := `{"basic_info": {"number": 7, "state": "open", "user": {"login": "devin"}}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "pr_ok_7.json"), []byte(good), 0o644))

	store := NewCorpusStore(dir, zap.NewNop())
	records, warnings := store.Load()

	require.Len(t, records, 1)
	assert.Equal(t, 7, records[0].Number)
	require.Len(t, warnings, 1)
	assert.Equal(t, "pr_file", warnings[0].Field)
	assert.Equal(t, "pr_broken_1.json", warnings[0].Value)
}

func TestCorpusStore_WriteLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewCorpusStore(dir, zap.NewNop())

	in := []domain.PullRequestRecord{
		{
			Number:      1,
			Repository:  "acme/api",
			Title:       "First",
			HTMLURL:     "https://github.com/acme/api/pull/1",
			AuthorLogin: "devin",
			CreatedAt:   "2025-06-01T09:00:00Z",
			State:       "open",
			Labels:      []string{"feature"},
		},
		{
			Number:      2,
			Repository:  "acme/web",
			Title:       "Second",
			HTMLURL:     "https://github.com/acme/web/pull/2",
			AuthorLogin: "devin",
			CreatedAt:   "2025-06-03T09:00:00Z",
			MergedAt:    "2025-06-04T09:00:00Z",
			State:       "closed",
		},
	}
	require.NoError(t, store.Write(in))

	// The metadata file must exist but never surface as a record.
	_, err := os.Stat(filepath.Join(dir, "last_run_info.json"))
	require.NoError(t, err)

	out, warnings := store.Load()
	assert.Empty(t, warnings)
	assert.ElementsMatch(t, in, out)
}

func TestCorpusFileName(t *testing.T) {
	assert.Equal(t, "pr_acme_api_42.json", corpusFileName(domain.PullRequestRecord{Repository: "acme/api", Number: 42}))
	assert.Equal(t, "pr_unknown_7.json", corpusFileName(domain.PullRequestRecord{Number: 7}))
}
