package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/devin-analytics/devin-stats/internal/config"
	"github.com/devin-analytics/devin-stats/internal/domain"
	"github.com/devin-analytics/devin-stats/internal/normalize"
)

// Transient remote API failures get up to three
// attempts inside a 30-second window; auth and not-found responses are
// terminal.
const (
	maxRetries      = 2 // attempts = maxRetries + 1
	maxElapsedTime  = 30 * time.Second
	sessionFetchCap = 1000
	defaultDuration = 30 // minutes, assumed when a session reports none
)

// SessionAnalyzer is the behavior the aggregation pipeline needs from the
// remote client.
type SessionAnalyzer interface {
	IsAvailable(ctx context.Context) bool
	AnalyzePRRelatedSessions(ctx context.Context, daysBack int) domain.RemoteSessionAnalysis
}

// RemoteSession is a session record as returned by the remote API.
type RemoteSession struct {
	SessionID       string   `json:"session_id"`
	TaskDescription string   `json:"task_description"`
	CreatedAt       string   `json:"created_at"`
	CreditsUsed     *float64 `json:"credits_used,omitempty"`
	DurationMinutes *float64 `json:"duration_minutes,omitempty"`
}

// Consumption is the enterprise credit consumption report for a period.
type Consumption struct {
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	TotalCredits float64 `json:"total_credits"`
}

type sessionsResponse struct {
	Sessions []RemoteSession `json:"sessions"`
}

// StatusError is a non-2xx HTTP response from the remote API.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("devin api responded with status %d", e.Code)
}

// terminal reports whether the status must not be retried.
func (e *StatusError) terminal() bool {
	switch e.Code {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
		return true
	}
	return e.Code < http.StatusInternalServerError
}

// DevinClient talks to the remote usage/session API. A missing bearer
// token makes every method degrade to "unavailable" instead of failing.
type DevinClient struct {
	baseURL             string
	token               string
	sessionsEndpoint    string
	consumptionEndpoint string
	httpClient          *http.Client
	logger              *zap.Logger
	retryInterval       time.Duration
	now                 func() time.Time
}

// NewDevinClient builds a client from the configuration, reading the
// bearer token once from the configured environment variable.
func NewDevinClient(cfg config.DevinAPIConfig, logger *zap.Logger) *DevinClient {
	return &DevinClient{
		baseURL:             strings.TrimRight(cfg.BaseURL, "/"),
		token:               os.Getenv(cfg.TokenEnvVar),
		sessionsEndpoint:    cfg.SessionsEndpoint,
		consumptionEndpoint: cfg.ConsumptionEndpoint,
		httpClient:          &http.Client{Timeout: 15 * time.Second},
		logger:              logger,
		retryInterval:       time.Second,
		now:                 time.Now,
	}
}

// IsAvailable probes the sessions endpoint with a minimal request. Any
// failure, including a missing token, means unavailable; nothing is
// propagated.
func (c *DevinClient) IsAvailable(ctx context.Context) bool {
	if c.token == "" {
		return false
	}
	params := url.Values{}
	params.Set("limit", "1")
	var resp sessionsResponse
	if err := c.get(ctx, c.sessionsEndpoint, params, &resp); err != nil {
		c.logger.Debug("devin api probe failed", zap.Error(err))
		return false
	}
	return true
}

// ListSessions fetches up to limit recent sessions.
func (c *DevinClient) ListSessions(ctx context.Context, limit int) ([]RemoteSession, error) {
	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", limit))
	var resp sessionsResponse
	if err := c.get(ctx, c.sessionsEndpoint, params, &resp); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return resp.Sessions, nil
}

// GetSessionDetails fetches one session by id.
func (c *DevinClient) GetSessionDetails(ctx context.Context, sessionID string) (*RemoteSession, error) {
	var session RemoteSession
	endpoint := c.sessionsEndpoint + "/" + url.PathEscape(sessionID)
	if err := c.get(ctx, endpoint, nil, &session); err != nil {
		return nil, fmt.Errorf("failed to get session %s: %w", sessionID, err)
	}
	return &session, nil
}

// GetConsumption fetches the enterprise credit consumption between two
// ISO dates (inclusive).
func (c *DevinClient) GetConsumption(ctx context.Context, startDate, endDate string) (*Consumption, error) {
	params := url.Values{}
	params.Set("start_date", startDate)
	params.Set("end_date", endDate)
	var consumption Consumption
	if err := c.get(ctx, c.consumptionEndpoint, params, &consumption); err != nil {
		return nil, fmt.Errorf("failed to get consumption: %w", err)
	}
	return &consumption, nil
}

// AnalyzePRRelatedSessions fetches recent sessions, keeps those created
// within daysBack days whose task description matches the PR keyword
// heuristic, and totals their estimated credit cost. When the API is
// unavailable the analysis is skipped entirely, never surfaced as an
// error.
func (c *DevinClient) AnalyzePRRelatedSessions(ctx context.Context, daysBack int) domain.RemoteSessionAnalysis {
	analysis := domain.RemoteSessionAnalysis{
		DailyStats: make(map[string]domain.RemoteDailyStats),
	}
	if !c.IsAvailable(ctx) {
		return analysis
	}

	sessions, err := c.ListSessions(ctx, sessionFetchCap)
	if err != nil {
		c.logger.Warn("session fetch failed, skipping remote analysis", zap.Error(err))
		return analysis
	}
	analysis.APIAvailable = true

	cutoff := c.now().AddDate(0, 0, -daysBack).Format("2006-01-02")
	for _, session := range sessions {
		date, ok := normalize.ParseDate(session.CreatedAt)
		if !ok || date < cutoff {
			continue
		}
		if !domain.IsPRRelated(session.TaskDescription) {
			continue
		}
		credits := estimateSessionCredits(session)
		analysis.TotalPRSessions++
		analysis.EstimatedCredits += credits

		daily := analysis.DailyStats[date]
		daily.PRSessions++
		daily.EstimatedCredits += credits
		analysis.DailyStats[date] = daily
	}

	c.logger.Info("remote session analysis complete",
		zap.Int("pr_sessions", analysis.TotalPRSessions),
		zap.Float64("estimated_credits", analysis.EstimatedCredits))
	return analysis
}

// estimateSessionCredits uses the reported credit figure when present,
// otherwise max(10, duration*2) with a 30-minute default duration.
func estimateSessionCredits(s RemoteSession) float64 {
	if s.CreditsUsed != nil {
		return *s.CreditsUsed
	}
	duration := float64(defaultDuration)
	if s.DurationMinutes != nil {
		duration = *s.DurationMinutes
	}
	credits := duration * 2
	if credits < 10 {
		credits = 10
	}
	return credits
}

// get performs an authenticated GET with retry on transient failures.
func (c *DevinClient) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if c.token != "" {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			io.Copy(io.Discard, resp.Body)
			statusErr := &StatusError{Code: resp.StatusCode}
			if statusErr.terminal() {
				return backoff.Permanent(statusErr)
			}
			return statusErr
		}
		return json.NewDecoder(resp.Body).Decode(out)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryInterval
	bo.MaxElapsedTime = maxElapsedTime
	return backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(bo, maxRetries), ctx))
}
