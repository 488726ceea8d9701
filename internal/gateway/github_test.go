package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// setupTestGateway creates a GitHubGateway that communicates with a mock HTTP server.
func setupTestGateway(t *testing.T, handler http.Handler) (*GitHubGateway, *httptest.Server) {
	server := httptest.NewServer(handler)

	restClient := github.NewClient(server.Client())
	baseURL, err := url.Parse(server.URL + "/")
	require.NoError(t, err)
	restClient.BaseURL = baseURL

	// NewEnterpriseClient points the GraphQL client at the mock server.
	graphqlClient := githubv4.NewEnterpriseClient(server.URL, server.Client())

	gateway := &GitHubGateway{
		restClient:    restClient,
		graphqlClient: graphqlClient,
		logger:        zap.NewNop(),
	}
	return gateway, server
}

func prDetailJSON(number int, title, login, createdAt, mergedAt, state string) string {
	merged := "null"
	if mergedAt != "" {
		merged = fmt.Sprintf("%q", mergedAt)
	}
	return fmt.Sprintf(`{
		"number": %d,
		"title": %q,
		"html_url": "https://github.com/acme/api/pull/%d",
		"user": {"login": %q},
		"created_at": %q,
		"merged_at": %s,
		"state": %q,
		"labels": [{"name": "bug"}]
	}`, number, title, number, login, createdAt, merged, state)
}

func TestGitHubGateway_FetchAuthorPRs(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			// GraphQL search: one PR node plus an issue node that must be skipped.
			fmt.Fprint(w, `{"data": {"search": {
				"pageInfo": {"hasNextPage": false, "endCursor": ""},
				"edges": [
					{"node": {"__typename": "PullRequest", "number": 42, "repository": {"name": "api", "owner": {"login": "acme"}}}},
					{"node": {"__typename": "PullRequest", "number": 7, "repository": {"name": "api", "owner": {"login": "acme"}}}},
					{"node": {"__typename": "Issue"}}
				]
			}}}`)
		case strings.HasSuffix(r.URL.Path, "/repos/acme/api/pulls/42"):
			fmt.Fprint(w, prDetailJSON(42, "Add retry logic", "devin-ai-integration[bot]", "2025-06-01T09:00:00Z", "2025-06-02T10:00:00Z", "closed"))
		case strings.HasSuffix(r.URL.Path, "/repos/acme/api/pulls/7"):
			fmt.Fprint(w, prDetailJSON(7, "Fix typo", "devin-ai-integration[bot]", "2025-05-20T09:00:00Z", "", "open"))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	gateway, server := setupTestGateway(t, handler)
	defer server.Close()

	records, err := gateway.FetchAuthorPRs(context.Background(), "acme", "devin-ai-integration[bot]", "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	// Sorted by repository then number regardless of fetch order.
	assert.Equal(t, domain.PullRequestRecord{
		Number:      7,
		Repository:  "acme/api",
		Title:       "Fix typo",
		HTMLURL:     "https://github.com/acme/api/pull/7",
		AuthorLogin: "devin-ai-integration[bot]",
		CreatedAt:   "2025-05-20T09:00:00Z",
		State:       "open",
		Labels:      []string{"bug"},
	}, records[0])
	assert.Equal(t, 42, records[1].Number)
	assert.Equal(t, "2025-06-02T10:00:00Z", records[1].MergedAt)
	assert.True(t, records[1].Merged())
}

func TestGitHubGateway_FetchAuthorPRs_Paginated(t *testing.T) {
	page := 0
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost:
			page++
			if page == 1 {
				fmt.Fprint(w, `{"data": {"search": {
					"pageInfo": {"hasNextPage": true, "endCursor": "cursor-1"},
					"edges": [{"node": {"__typename": "PullRequest", "number": 1, "repository": {"name": "api", "owner": {"login": "acme"}}}}]
				}}}`)
				return
			}
			fmt.Fprint(w, `{"data": {"search": {
				"pageInfo": {"hasNextPage": false, "endCursor": ""},
				"edges": [{"node": {"__typename": "PullRequest", "number": 2, "repository": {"name": "api", "owner": {"login": "acme"}}}}]
			}}}`)
		case strings.HasSuffix(r.URL.Path, "/repos/acme/api/pulls/1"):
			fmt.Fprint(w, prDetailJSON(1, "First", "devin", "2025-06-01T09:00:00Z", "", "open"))
		case strings.HasSuffix(r.URL.Path, "/repos/acme/api/pulls/2"):
			fmt.Fprint(w, prDetailJSON(2, "Second", "devin", "2025-06-02T09:00:00Z", "", "open"))
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	gateway, server := setupTestGateway(t, handler)
	defer server.Close()

	records, err := gateway.FetchAuthorPRs(context.Background(), "acme", "devin", "")
	require.NoError(t, err)
	assert.Equal(t, 2, page, "search must follow the pagination cursor")
	require.Len(t, records, 2)
	assert.Equal(t, 1, records[0].Number)
	assert.Equal(t, 2, records[1].Number)
}

func TestGitHubGateway_FetchAuthorPRs_Errors(t *testing.T) {
	testCases := []struct {
		name           string
		handlerFunc    func(w http.ResponseWriter, r *http.Request)
		expectedErrMsg string
	}{
		{
			name: "GraphQL search fails",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				fmt.Fprint(w, `{"message": "Internal Server Error"}`)
			},
			expectedErrMsg: "failed to execute GraphQL search",
		},
		{
			name: "detail fetch fails",
			handlerFunc: func(w http.ResponseWriter, r *http.Request) {
				if r.Method == http.MethodPost {
					fmt.Fprint(w, `{"data": {"search": {
						"pageInfo": {"hasNextPage": false, "endCursor": ""},
						"edges": [{"node": {"__typename": "PullRequest", "number": 42, "repository": {"name": "api", "owner": {"login": "acme"}}}}]
					}}}`)
					return
				}
				w.WriteHeader(http.StatusNotFound)
				fmt.Fprint(w, `{"message": "Not Found"}`)
			},
			expectedErrMsg: "failed to fetch acme/api#42",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			gateway, server := setupTestGateway(t, http.HandlerFunc(tc.handlerFunc))
			defer server.Close()

			_, err := gateway.FetchAuthorPRs(context.Background(), "acme", "devin", "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErrMsg)
		})
	}
}
