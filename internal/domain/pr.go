// Package domain contains the core data structures and domain logic for the application.
package domain

// PullRequestRecord is a single pull request loaded from the local corpus
// (or fetched from GitHub). It is immutable once loaded.
type PullRequestRecord struct {
	Number      int      `json:"number"`
	Repository  string   `json:"repository"`
	Title       string   `json:"title"`
	HTMLURL     string   `json:"html_url"`
	AuthorLogin string   `json:"author_login"`
	CreatedAt   string   `json:"created_at"`
	MergedAt    string   `json:"merged_at,omitempty"`
	State       string   `json:"state"`
	Labels      []string `json:"labels,omitempty"`
}

// Merged reports whether the PR was merged. Only merged_at is authoritative;
// the state string is not consulted here.
func (p PullRequestRecord) Merged() bool {
	return p.MergedAt != ""
}

// PRSummary holds the roll-up counts for a set of classified PRs.
// Records whose state matches none of the known buckets are counted in
// Total only; Merged+Open+Closed may therefore be less than Total.
type PRSummary struct {
	Total       int     `json:"total"`
	Merged      int     `json:"merged"`
	Open        int     `json:"open"`
	Closed      int     `json:"closed"`
	SuccessRate float64 `json:"success_rate"`
}
