package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.devin.ai/v1", cfg.API.BaseURL)
	assert.Equal(t, "DEVIN_API_TOKEN", cfg.API.TokenEnvVar)
	assert.Equal(t, "./data/pr_data", cfg.Data.PRDataDir)
	assert.Equal(t, "./reports", cfg.Data.ReportsDir)
	assert.Equal(t, []string{"devin"}, cfg.Analysis.DevinPatterns)
	assert.Equal(t, 50.0, cfg.Analysis.EstimatedACUsPerPR)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DEVIN_PATTERNS", "devin,devin-ai-integration")
	t.Setenv("ESTIMATED_ACUS_PER_PR", "25")
	t.Setenv("PR_DATA_DIR", "/tmp/prs")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"devin", "devin-ai-integration"}, cfg.Analysis.DevinPatterns)
	assert.Equal(t, 25.0, cfg.Analysis.EstimatedACUsPerPR)
	assert.Equal(t, "/tmp/prs", cfg.Data.PRDataDir)
}

func TestConfig_Validate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"no patterns", func(c *Config) { c.Analysis.DevinPatterns = nil }, "at least one agent name pattern"},
		{"negative estimate", func(c *Config) { c.Analysis.EstimatedACUsPerPR = -1 }, "must be non-negative"},
		{"empty base url", func(c *Config) { c.API.BaseURL = "" }, "must not be empty"},
		{"bad log level", func(c *Config) { c.Logger.Level = "loud" }, "invalid log level"},
		{"bad log format", func(c *Config) { c.Logger.Format = "xml" }, "invalid log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "info", Format: "console"}, false)
	require.NoError(t, err)
	assert.NotNil(t, logger)

	_, err = NewLogger(LoggerConfig{Level: "nope", Format: "console"}, false)
	assert.Error(t, err)
}
