package oddsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Rut304/matchups/internal/pkg/config"
	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/provider"
)

// Name is the provider name used in provenance and priority config.
const Name = "oddsapi"

// sportKeys maps engine sport keys to The Odds API sport keys.
var sportKeys = map[string]string{
	"nfl":   "americanfootball_nfl",
	"nba":   "basketball_nba",
	"mlb":   "baseball_mlb",
	"nhl":   "icehockey_nhl",
	"ncaaf": "americanfootball_ncaaf",
	"ncaab": "basketball_ncaab",
}

// Client fetches quotes from The Odds API. Metered: every response
// carries x-requests-remaining/x-requests-used headers which feed the
// quota tracker so the cascade can skip this provider once exhausted.
type Client struct {
	baseURL    string
	apiKey     string
	regions    string
	markets    string
	httpClient *http.Client
	quota      *quota.Tracker
}

func NewClient(cfg *config.OddsAPIConfig, timeout time.Duration, tracker *quota.Tracker) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		regions:    cfg.Regions,
		markets:    cfg.Markets,
		httpClient: &http.Client{Timeout: timeout},
		quota:      tracker,
	}
}

func (c *Client) Name() string { return Name }

func (c *Client) Enabled() bool { return c.apiKey != "" }

// FetchOdds returns every upcoming event the provider quotes for the
// sport, filtered to the window.
func (c *Client) FetchOdds(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderOdds, error) {
	key, ok := sportKeys[sport]
	if !ok {
		return nil, fmt.Errorf("oddsapi: unsupported sport %q", sport)
	}

	u := fmt.Sprintf("%s/sports/%s/odds?%s", c.baseURL, key, c.query().Encode())
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var events []oddsEvent
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("oddsapi: failed to parse odds response: %w", err)
	}

	return parseEvents(events, window), nil
}

// FetchEventOdds fetches quotes for one named event. Used for targeted
// refresh of a stale game; costs one metered request instead of a
// full-sport fetch.
func (c *Client) FetchEventOdds(ctx context.Context, sport, eventID string) (*models.ProviderOdds, error) {
	key, ok := sportKeys[sport]
	if !ok {
		return nil, fmt.Errorf("oddsapi: unsupported sport %q", sport)
	}

	u := fmt.Sprintf("%s/sports/%s/events/%s/odds?%s", c.baseURL, key, url.PathEscape(eventID), c.query().Encode())
	body, err := c.get(ctx, u)
	if err != nil {
		return nil, err
	}

	var ev oddsEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("oddsapi: failed to parse event odds: %w", err)
	}

	parsed := parseEvents([]oddsEvent{ev}, provider.TimeWindow{})
	if len(parsed) == 0 {
		return nil, nil
	}
	return &parsed[0], nil
}

func (c *Client) query() url.Values {
	return url.Values{
		"apiKey":     {c.apiKey},
		"regions":    {c.regions},
		"markets":    {c.markets},
		"oddsFormat": {"american"},
	}
}

func (c *Client) get(ctx context.Context, u string) ([]byte, error) {
	if !c.Enabled() {
		return nil, provider.ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: failed to build request: %w", err)
	}

	c.quota.RecordCall()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: request failed: %w", err)
	}
	defer resp.Body.Close()

	c.updateQuota(resp.Header)

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		c.quota.MarkExhausted()
		return nil, fmt.Errorf("oddsapi: %w", provider.ErrQuotaExhausted)
	case resp.StatusCode == http.StatusUnauthorized:
		// Key rejected or out of credits; both mean no more calls today.
		c.quota.MarkExhausted()
		return nil, fmt.Errorf("oddsapi: key rejected: %w", provider.ErrQuotaExhausted)
	case resp.StatusCode != http.StatusOK:
		return nil, &provider.StatusError{Provider: Name, Code: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("oddsapi: failed to read response: %w", err)
	}
	return body, nil
}

// updateQuota records the remaining-request count the API reports on
// every response.
func (c *Client) updateQuota(h http.Header) {
	if v := h.Get("x-requests-remaining"); v != "" {
		if n, err := strconv.ParseFloat(v, 64); err == nil {
			c.quota.SetRemaining(int64(n))
		}
	}
}
