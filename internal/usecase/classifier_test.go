package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

func TestClassifier_IsAgentPR(t *testing.T) {
	classifier := NewClassifier([]string{"devin"}, zap.NewNop())

	testCases := []struct {
		name     string
		login    string
		expected bool
	}{
		{name: "exact match", login: "devin", expected: true},
		{name: "substring match", login: "devin-ai-integration[bot]", expected: true},
		{name: "case insensitive", login: "Devin-AI", expected: true},
		{name: "no match", login: "octocat", expected: false},
		{name: "missing author fails closed", login: "", expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pr := domain.PullRequestRecord{AuthorLogin: tc.login}
			assert.Equal(t, tc.expected, classifier.IsAgentPR(pr))
		})
	}
}

func TestClassifier_SelectAgentPRs(t *testing.T) {
	classifier := NewClassifier([]string{"devin"}, zap.NewNop())

	corpus := []domain.PullRequestRecord{
		{AuthorLogin: "devin-ai-integration[bot]", Number: 1},
		{AuthorLogin: "alice", Number: 2},
		{AuthorLogin: "devin-ai-integration[bot]", Number: 3},
		{AuthorLogin: "bob", Number: 4},
		{AuthorLogin: "Devin", Number: 5},
	}

	agentPRs := classifier.SelectAgentPRs(corpus)
	assert.Len(t, agentPRs, 3)
}

func TestSummarize(t *testing.T) {
	testCases := []struct {
		name     string
		prs      []domain.PullRequestRecord
		expected domain.PRSummary
	}{
		{
			name: "two merged one open",
			prs: []domain.PullRequestRecord{
				{MergedAt: "2025-06-01T10:00:00Z", State: "closed"},
				{MergedAt: "2025-06-02T10:00:00Z", State: "closed"},
				{State: "open"},
			},
			expected: domain.PRSummary{Total: 3, Merged: 2, Open: 1, Closed: 0, SuccessRate: 200.0 / 3},
		},
		{
			name:     "empty set has zero success rate",
			prs:      nil,
			expected: domain.PRSummary{},
		},
		{
			name: "merged wins over state string",
			prs: []domain.PullRequestRecord{
				{MergedAt: "2025-06-01T10:00:00Z", State: "open"},
			},
			expected: domain.PRSummary{Total: 1, Merged: 1, SuccessRate: 100},
		},
		{
			name: "unknown state counts in total only",
			prs: []domain.PullRequestRecord{
				{State: "draft"},
				{State: "closed"},
			},
			expected: domain.PRSummary{Total: 2, Closed: 1},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			summary := Summarize(tc.prs)
			assert.Equal(t, tc.expected, summary)

			// The buckets never exceed the total and the rate stays in range.
			assert.LessOrEqual(t, summary.Merged+summary.Open+summary.Closed, summary.Total)
			assert.GreaterOrEqual(t, summary.SuccessRate, 0.0)
			assert.LessOrEqual(t, summary.SuccessRate, 100.0)
		})
	}
}

func TestSummarize_SuccessRateRounding(t *testing.T) {
	prs := []domain.PullRequestRecord{
		{MergedAt: "2025-06-01T10:00:00Z", State: "closed"},
		{MergedAt: "2025-06-02T10:00:00Z", State: "closed"},
		{State: "open"},
	}
	summary := Summarize(prs)
	assert.InDelta(t, 66.7, summary.SuccessRate, 0.05)
}
