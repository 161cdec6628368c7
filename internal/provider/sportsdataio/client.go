package sportsdataio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Rut304/matchups/internal/pkg/config"
	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/provider"
)

// Name is the provider name used in provenance and priority config.
const Name = "sportsdataio"

// sportPaths maps engine sport keys to SportsDataIO API path segments.
var sportPaths = map[string]string{
	"nfl":   "nfl",
	"nba":   "nba",
	"mlb":   "mlb",
	"nhl":   "nhl",
	"ncaaf": "cfb",
	"ncaab": "cbb",
}

// Client fetches pregame odds from SportsDataIO. Metered; the API does
// not report remaining quota in headers, so exhaustion is only learned
// from a 429.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	quota      *quota.Tracker
}

func NewClient(cfg *config.SportsDataIOConfig, timeout time.Duration, tracker *quota.Tracker) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
		quota:      tracker,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Enabled() bool { return c.apiKey != "" }

// FetchOdds fetches pregame odds for every date the window touches.
func (c *Client) FetchOdds(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderOdds, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, fmt.Errorf("sportsdataio: unsupported sport %q", sport)
	}
	if !c.Enabled() {
		return nil, provider.ErrNotConfigured
	}

	var out []models.ProviderOdds
	for _, day := range window.Days() {
		rows, err := c.fetchDate(ctx, path, day)
		if err != nil {
			return nil, err
		}
		out = append(out, parseRows(rows, window)...)
	}
	return out, nil
}

func (c *Client) fetchDate(ctx context.Context, sportPath string, day time.Time) ([]gameOdds, error) {
	date := strings.ToUpper(day.Format("2006-Jan-02"))
	u := fmt.Sprintf("%s/%s/odds/json/GameOddsByDate/%s?key=%s", c.baseURL, sportPath, date, c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("sportsdataio: failed to build request: %w", err)
	}

	c.quota.RecordCall()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sportsdataio: request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.quota.MarkExhausted()
		return nil, fmt.Errorf("sportsdataio: %w", provider.ErrQuotaExhausted)
	case resp.StatusCode == http.StatusUnauthorized:
		c.quota.MarkExhausted()
		return nil, fmt.Errorf("sportsdataio: key rejected: %w", provider.ErrQuotaExhausted)
	case resp.StatusCode != http.StatusOK:
		return nil, &provider.StatusError{Provider: Name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sportsdataio: failed to read response: %w", err)
	}

	var rows []gameOdds
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("sportsdataio: failed to parse response: %w", err)
	}
	return rows, nil
}
