// Package usecase contains the business logic of the application.
package usecase

import (
	"strings"

	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// Classifier decides which PRs in a corpus were authored by the agent.
type Classifier struct {
	patterns []string
	logger   *zap.Logger
}

// NewClassifier creates a Classifier for the configured name patterns.
func NewClassifier(patterns []string, logger *zap.Logger) *Classifier {
	lowered := make([]string, 0, len(patterns))
	for _, p := range patterns {
		lowered = append(lowered, strings.ToLower(p))
	}
	return &Classifier{patterns: lowered, logger: logger}
}

// IsAgentPR reports whether the PR's author login contains one of the
// configured patterns. Records without author info fail closed.
func (c *Classifier) IsAgentPR(pr domain.PullRequestRecord) bool {
	login := strings.ToLower(pr.AuthorLogin)
	if login == "" {
		return false
	}
	for _, pattern := range c.patterns {
		if strings.Contains(login, pattern) {
			return true
		}
	}
	return false
}

// SelectAgentPRs filters a corpus down to the agent-authored PRs.
func (c *Classifier) SelectAgentPRs(prs []domain.PullRequestRecord) []domain.PullRequestRecord {
	var agentPRs []domain.PullRequestRecord
	for _, pr := range prs {
		if c.IsAgentPR(pr) {
			agentPRs = append(agentPRs, pr)
		}
	}
	c.logger.Info("classified PR corpus",
		zap.Int("total", len(prs)),
		zap.Int("agent_prs", len(agentPRs)))
	return agentPRs
}

// Summarize computes the roll-up counts for a set of PRs. Classification
// precedence is merged > open > closed; a record matching none of those
// is counted in Total only.
func Summarize(prs []domain.PullRequestRecord) domain.PRSummary {
	summary := domain.PRSummary{Total: len(prs)}
	for _, pr := range prs {
		switch {
		case pr.Merged():
			summary.Merged++
		case pr.State == "open":
			summary.Open++
		case pr.State == "closed":
			summary.Closed++
		}
	}
	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Merged) / float64(summary.Total) * 100
	}
	return summary
}
