package domain

import "strings"

// prKeywords flag a session as pull-request related. The Japanese entries
// cover manually transcribed session names from the usage history.
var prKeywords = []string{
	"pr", "pull request", "github", "merge", "commit", "review",
	"プルリクエスト", "マージ", "コミット", "レビュー",
}

// IsPRRelated reports whether a session name or task description matches
// the PR keyword heuristic. Matching is a case-insensitive substring
// check, so "pr" also matches inside longer words.
func IsPRRelated(text string) bool {
	lowered := strings.ToLower(text)
	for _, keyword := range prKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}
