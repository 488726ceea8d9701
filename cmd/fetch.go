package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/devin-analytics/devin-stats/internal/gateway"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Snapshots the agent's PRs from GitHub into the local corpus",
	Long: `Searches GitHub for pull requests created by the given author in the
given organization and writes one JSON file per PR into the corpus
directory, ready for the analyze command.`,
	RunE: runFetch,
}

var (
	fetchOrg    string
	fetchAuthor string
	fetchFrom   string
	fetchTo     string
	fetchOutDir string
)

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().StringVarP(&fetchOrg, "org", "o", "", "Target GitHub organization name (required)")
	fetchCmd.Flags().StringVarP(&fetchAuthor, "author", "a", "", "Agent account login to search for (required)")
	fetchCmd.MarkFlagRequired("org")
	fetchCmd.MarkFlagRequired("author")
	fetchCmd.Flags().StringVar(&fetchFrom, "from", "", "Start date for the search (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchTo, "to", "", "End date for the search (YYYY-MM-DD)")
	fetchCmd.Flags().StringVar(&fetchOutDir, "out-dir", "", "Corpus directory (default from config)")
}

func runFetch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, logger, err := setup(cmd)
	if err != nil {
		return err
	}
	defer logger.Sync()

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return fmt.Errorf("GITHUB_TOKEN environment variable is not set")
	}

	dateRange, err := buildDateRange(fetchFrom, fetchTo)
	if err != nil {
		return err
	}

	githubGateway, err := gateway.NewGitHubGateway(token, logger)
	if err != nil {
		return fmt.Errorf("failed to create GitHub gateway: %w", err)
	}

	records, err := githubGateway.FetchAuthorPRs(ctx, fetchOrg, fetchAuthor, dateRange)
	if err != nil {
		return fmt.Errorf("failed to fetch PRs: %w", err)
	}

	outDir := cfg.Data.PRDataDir
	if fetchOutDir != "" {
		outDir = fetchOutDir
	}
	corpus := gateway.NewCorpusStore(outDir, logger)
	if err := corpus.Write(records); err != nil {
		return err
	}

	fmt.Printf("Fetched %d PRs into %s\n", len(records), outDir)
	return nil
}

// buildDateRange turns --from/--to into a " created:from..to" search
// qualifier; either side may be open.
func buildDateRange(from, to string) (string, error) {
	if from == "" && to == "" {
		return "", nil
	}
	const layout = "2006-01-02"
	fromQuery, toQuery := "*", "*"
	if from != "" {
		t, err := time.Parse(layout, from)
		if err != nil {
			return "", fmt.Errorf("invalid --from date, expected YYYY-MM-DD: %w", err)
		}
		fromQuery = t.Format(layout)
	}
	if to != "" {
		t, err := time.Parse(layout, to)
		if err != nil {
			return "", fmt.Errorf("invalid --to date, expected YYYY-MM-DD: %w", err)
		}
		toQuery = t.Format(layout)
	}
	// The leading space matters when concatenated onto the search query.
	return fmt.Sprintf(" created:%s..%s", fromQuery, toQuery), nil
}
