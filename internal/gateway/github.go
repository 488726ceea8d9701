package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/errgroup"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"

	"github.com/devin-analytics/devin-stats/internal/domain"
)

// detailFetchLimit bounds the concurrent per-PR detail requests.
const detailFetchLimit = 5

// Fetcher defines the behavior of a gateway for snapshotting PR records
// from GitHub into the local corpus format.
type Fetcher interface {
	FetchAuthorPRs(ctx context.Context, org, author, dateRange string) ([]domain.PullRequestRecord, error)
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger
}

// prRef identifies one PR found by the search query.
type prRef struct {
	Owner  string
	Repo   string
	Number int
}

// prSearchQuery pages through the GraphQL search for the author's PRs.
type prSearchQuery struct {
	Search struct {
		PageInfo struct {
			HasNextPage bool
			EndCursor   githubv4.String
		}
		Edges []struct {
			Node struct {
				Typename    string `graphql:"__typename"`
				PullRequest struct {
					Number     int
					Repository struct {
						Name  string
						Owner struct {
							Login string
						}
					}
				} `graphql:"... on PullRequest"`
			}
		}
	} `graphql:"search(query: $query, type: ISSUE, first: 100, after: $cursor)"`
}

// NewGitHubGateway creates a gateway whose HTTP transport waits out
// secondary rate limits and injects the token on every call.
func NewGitHubGateway(token string, logger *zap.Logger) (Fetcher, error) {
	rateLimitWaiter, err := github_ratelimit.NewRateLimitWaiter(nil, github_ratelimit.WithSingleSleepLimit(1*time.Hour, nil))
	if err != nil {
		return nil, fmt.Errorf("failed to create rate limit waiter: %w", err)
	}
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	httpClient := &http.Client{
		Transport: &oauth2.Transport{
			Base:   rateLimitWaiter,
			Source: ts,
		},
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// FetchAuthorPRs finds every PR the author created in the organization
// (optionally bounded by a " created:from..to" range) and materializes a
// full record for each via the REST API.
func (g *GitHubGateway) FetchAuthorPRs(ctx context.Context, org, author, dateRange string) ([]domain.PullRequestRecord, error) {
	query := fmt.Sprintf("org:%s author:%s is:pr%s", org, author, dateRange)
	refs, err := g.searchPRs(ctx, query)
	if err != nil {
		return nil, err
	}
	g.logger.Info("PR search complete", zap.String("query", query), zap.Int("found", len(refs)))

	records := make([]domain.PullRequestRecord, len(refs))
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(detailFetchLimit)
	for i, ref := range refs {
		i, ref := i, ref
		eg.Go(func() error {
			record, err := g.fetchPRDetail(egCtx, ref)
			if err != nil {
				return err
			}
			mu.Lock()
			records[i] = record
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Deterministic corpus regardless of fetch interleaving.
	sort.Slice(records, func(i, j int) bool {
		if records[i].Repository != records[j].Repository {
			return records[i].Repository < records[j].Repository
		}
		return records[i].Number < records[j].Number
	})
	return records, nil
}

func (g *GitHubGateway) searchPRs(ctx context.Context, query string) ([]prRef, error) {
	variables := map[string]interface{}{
		"query":  githubv4.String(query),
		"cursor": (*githubv4.String)(nil),
	}
	var refs []prRef
	for {
		var q prSearchQuery
		if err := g.graphqlClient.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL search: %w", err)
		}
		for _, edge := range q.Search.Edges {
			if edge.Node.Typename != "PullRequest" {
				continue
			}
			pr := edge.Node.PullRequest
			refs = append(refs, prRef{
				Owner:  pr.Repository.Owner.Login,
				Repo:   pr.Repository.Name,
				Number: pr.Number,
			})
		}
		if !q.Search.PageInfo.HasNextPage {
			break
		}
		variables["cursor"] = githubv4.NewString(q.Search.PageInfo.EndCursor)
		g.logger.Debug("fetching next page of PR search results")
	}
	return refs, nil
}

func (g *GitHubGateway) fetchPRDetail(ctx context.Context, ref prRef) (domain.PullRequestRecord, error) {
	pr, _, err := g.restClient.PullRequests.Get(ctx, ref.Owner, ref.Repo, ref.Number)
	if err != nil {
		return domain.PullRequestRecord{}, fmt.Errorf("failed to fetch %s/%s#%d: %w", ref.Owner, ref.Repo, ref.Number, err)
	}

	record := domain.PullRequestRecord{
		Number:      pr.GetNumber(),
		Repository:  fmt.Sprintf("%s/%s", ref.Owner, ref.Repo),
		Title:       pr.GetTitle(),
		HTMLURL:     pr.GetHTMLURL(),
		AuthorLogin: pr.GetUser().GetLogin(),
		State:       pr.GetState(),
	}
	if createdAt := pr.GetCreatedAt(); !createdAt.IsZero() {
		record.CreatedAt = createdAt.UTC().Format(time.RFC3339)
	}
	if mergedAt := pr.GetMergedAt(); !mergedAt.IsZero() {
		record.MergedAt = mergedAt.UTC().Format(time.RFC3339)
	}
	for _, label := range pr.Labels {
		record.Labels = append(record.Labels, label.GetName())
	}
	return record, nil
}
