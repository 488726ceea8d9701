// Package config holds the immutable application configuration,
// constructed once at process start and passed into each component.
package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// DevinAPIConfig describes the remote usage/session API.
type DevinAPIConfig struct {
	BaseURL             string `envconfig:"DEVIN_API_BASE_URL" default:"https://api.devin.ai/v1"`
	TokenEnvVar         string `envconfig:"DEVIN_API_TOKEN_ENV_VAR" default:"DEVIN_API_TOKEN"`
	SessionsEndpoint    string `envconfig:"DEVIN_API_SESSIONS_ENDPOINT" default:"/sessions"`
	ConsumptionEndpoint string `envconfig:"DEVIN_API_CONSUMPTION_ENDPOINT" default:"/enterprise/consumption"`
}

// DataConfig locates the local PR corpus and the report output directory.
type DataConfig struct {
	PRDataDir  string `envconfig:"PR_DATA_DIR" default:"./data/pr_data"`
	ReportsDir string `envconfig:"REPORTS_DIR" default:"./reports"`
}

// UsageConfig locates the manually maintained usage-history files.
type UsageConfig struct {
	UsageHistoryFile string `envconfig:"USAGE_HISTORY_FILE" default:"./data/usage_history.csv"`
	BrowserDataFile  string `envconfig:"BROWSER_DATA_FILE" default:"./data/usage_history_browser.json"`
}

// AnalysisConfig tunes the classification and estimation heuristics.
type AnalysisConfig struct {
	// DevinPatterns are matched case-insensitively against PR author
	// logins to identify agent-authored PRs.
	DevinPatterns []string `envconfig:"DEVIN_PATTERNS" default:"devin"`
	// EstimatedACUsPerPR is the fallback cost estimate applied when no
	// real usage history is supplied.
	EstimatedACUsPerPR float64 `envconfig:"ESTIMATED_ACUS_PER_PR" default:"50"`
}

// Config is the full application configuration.
type Config struct {
	API      DevinAPIConfig
	Data     DataConfig
	Usage    UsageConfig
	Analysis AnalysisConfig
	Logger   LoggerConfig
}

// Load reads the configuration from environment variables, applying
// defaults for anything unset.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values no component can work with.
func (c *Config) Validate() error {
	if len(c.Analysis.DevinPatterns) == 0 {
		return fmt.Errorf("at least one agent name pattern is required")
	}
	if c.Analysis.EstimatedACUsPerPR < 0 {
		return fmt.Errorf("estimated ACUs per PR must be non-negative, got %v", c.Analysis.EstimatedACUsPerPR)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL must not be empty")
	}
	return c.Logger.Validate()
}
