package espn

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
const Name = "espn"

// sportPaths maps engine sport keys to ESPN URL path segments.
var sportPaths = map[string]string{
	"nfl":   "football/nfl",
	"nba":   "basketball/nba",
	"mlb":   "baseball/mlb",
	"nhl":   "hockey/nhl",
	"ncaaf": "football/college-football",
	"ncaab": "basketball/mens-college-basketball",
}

// Client fetches the ESPN scoreboard. No API key, no metered quota:
// the tracker only counts calls for the /providers endpoint.
type Client struct {
	baseURL    string
	httpClient *http.Client
	quota      *quota.Tracker
}

func NewClient(cfg *config.ESPNConfig, timeout time.Duration, tracker *quota.Tracker) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		quota:      tracker,
	}
}

func (c *Client) Name() string { return Name }

// Enabled is always true: the scoreboard is a free, keyless endpoint.
func (c *Client) Enabled() bool { return true }

// FetchGames returns the schedule records for a sport within the window.
func (c *Client) FetchGames(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderGame, error) {
	resp, err := c.fetchScoreboard(ctx, sport, window)
	if err != nil {
		return nil, err
	}
	return parseGames(resp, sport, window), nil
}

// FetchOdds extracts the scoreboard's embedded odds blocks. ESPN ranks
// last in the cascade; this exists so a schedule-only deployment still
// has some line when every metered provider is down.
func (c *Client) FetchOdds(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderOdds, error) {
	resp, err := c.fetchScoreboard(ctx, sport, window)
	if err != nil {
		return nil, err
	}
	return parseOdds(resp, window), nil
}

func (c *Client) fetchScoreboard(ctx context.Context, sport string, window provider.TimeWindow) (*scoreboardResponse, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, fmt.Errorf("espn: unsupported sport %q", sport)
	}

	url := fmt.Sprintf("%s/%s/scoreboard", c.baseURL, path)
	if !window.From.IsZero() {
		from := window.From.UTC().Format("20060102")
		to := window.To.UTC().Add(-time.Second).Format("20060102")
		url += "?dates=" + from + "-" + to
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("espn: failed to build request: %w", err)
	}

	c.quota.RecordCall()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("espn: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &provider.StatusError{Provider: Name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("espn: failed to read response: %w", err)
	}

	var sb scoreboardResponse
	if err := json.Unmarshal(body, &sb); err != nil {
		return nil, fmt.Errorf("espn: failed to parse scoreboard: %w", err)
	}
	return &sb, nil
}
