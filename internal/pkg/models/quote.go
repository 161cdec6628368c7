package models

import "time"

// Market keys for RawOddsQuote.
const (
	MarketSpread    = "spread"
	MarketTotal     = "total"
	MarketMoneyline = "moneyline"
)

// Outcome side keys for RawOddsQuote.Prices.
const (
	SideHome  = "home"
	SideAway  = "away"
	SideOver  = "over"
	SideUnder = "under"
	SideDraw  = "draw"
)

// RawOddsQuote is one provider's view of one market for one game at one
// book. Append-only: superseded quotes are never overwritten, they are
// simply not selected.
type RawOddsQuote struct {
	Provider   string         `json:"provider"`
	Book       string         `json:"book"`
	Market     string         `json:"market"`
	Line       *float64       `json:"line,omitempty"` // point for spread/total, nil for moneyline
	Prices     map[string]int `json:"prices"`         // side -> American price
	ObservedAt time.Time      `json:"observed_at"`
}

// ProviderGame is one schedule-provider record before reconciliation.
type ProviderGame struct {
	Provider    string          `json:"provider"`
	ID          string          `json:"id"`
	Identifiers GameIdentifiers `json:"identifiers"`
	AliasIDs    []string        `json:"alias_ids,omitempty"`

	Sport      string     `json:"sport"`
	Status     GameStatus `json:"status"`
	HomeAbbr   string     `json:"home_abbr,omitempty"`
	AwayAbbr   string     `json:"away_abbr,omitempty"`
	HomeScore  *int       `json:"home_score,omitempty"`
	AwayScore  *int       `json:"away_score,omitempty"`
	HomeRecord string     `json:"home_record,omitempty"`
	AwayRecord string     `json:"away_record,omitempty"`

	Venue     *Venue   `json:"venue,omitempty"`
	Broadcast string   `json:"broadcast,omitempty"`
	Weather   *Weather `json:"weather,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

// PopulatedFieldCount counts optional fields present on the record.
// Used as the dedupe tie-breaker: more populated beats less.
func (g ProviderGame) PopulatedFieldCount() int {
	n := 0
	if g.Venue != nil {
		n++
	}
	if g.Broadcast != "" {
		n++
	}
	if g.Weather != nil {
		n++
	}
	if g.HomeScore != nil {
		n++
	}
	if g.AwayScore != nil {
		n++
	}
	if g.HomeRecord != "" {
		n++
	}
	if g.AwayRecord != "" {
		n++
	}
	return n
}

// ProviderOdds is one odds-provider record: the game identity as that
// provider sees it plus every quote it reported.
type ProviderOdds struct {
	Provider    string          `json:"provider"`
	ID          string          `json:"id"`
	Identifiers GameIdentifiers `json:"identifiers"`
	Quotes      []RawOddsQuote  `json:"quotes"`
}
