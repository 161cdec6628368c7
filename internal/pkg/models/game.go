package models

import (
	"time"
)

// GameStatus is the lifecycle state of a game.
type GameStatus string

const (
	StatusScheduled GameStatus = "scheduled"
	StatusLive      GameStatus = "live"
	StatusFinal     GameStatus = "final"
	StatusPostponed GameStatus = "postponed"
	StatusCancelled GameStatus = "cancelled"
)

// Terminal reports whether the game can no longer change.
// Postponed games are rescheduled, so they are not terminal.
func (s GameStatus) Terminal() bool {
	return s == StatusFinal || s == StatusCancelled
}

// TeamInfo is one side of a game in the unified record.
type TeamInfo struct {
	Name         string `json:"name"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Score        *int   `json:"score,omitempty"`
	Record       string `json:"record,omitempty"`
}

// Venue is where a game is played.
type Venue struct {
	Name  string `json:"name"`
	City  string `json:"city,omitempty"`
	State string `json:"state,omitempty"`
}

// Weather is game-time weather where a provider reports it.
type Weather struct {
	Description string `json:"description,omitempty"`
	TempF       *int   `json:"temp_f,omitempty"`
	WindMPH     *int   `json:"wind_mph,omitempty"`
}

// GameOdds is the single best quote set supplied by the winning cascade
// provider. Nil pointer fields mean the market was not quoted; a zero
// spread is a valid pick'em line and is distinct from "no data".
type GameOdds struct {
	Spread          *float64 `json:"spread,omitempty"` // home team spread
	SpreadHomePrice *int     `json:"spread_home_price,omitempty"`
	SpreadAwayPrice *int     `json:"spread_away_price,omitempty"`
	Total           *float64 `json:"total,omitempty"`
	OverPrice       *int     `json:"over_price,omitempty"`
	UnderPrice      *int     `json:"under_price,omitempty"`
	HomeMoneyline   *int     `json:"home_moneyline,omitempty"`
	AwayMoneyline   *int     `json:"away_moneyline,omitempty"`
	Book            string   `json:"book,omitempty"`
	Provider        string   `json:"provider,omitempty"`
	ObservedAt      time.Time `json:"observed_at"`
}

// ConsensusLine is the arithmetic mean of each market across all known
// quotes. A market with zero quotes stays nil, never zero.
type ConsensusLine struct {
	Spread         *float64 `json:"spread,omitempty"`
	Total          *float64 `json:"total,omitempty"`
	HomeMoneyline  *float64 `json:"home_moneyline,omitempty"`
	AwayMoneyline  *float64 `json:"away_moneyline,omitempty"`
	BookmakerCount int      `json:"bookmaker_count"`
}

// BestPrice is the most favorable price for one side and the book
// offering it. Distinct from the consensus mean: this is what a user
// who can shop books gets.
type BestPrice struct {
	Price int    `json:"price"`
	Book  string `json:"book"`
}

// BestOdds holds the best available price per side.
type BestOdds struct {
	Home  *BestPrice `json:"home,omitempty"`
	Away  *BestPrice `json:"away,omitempty"`
	Over  *BestPrice `json:"over,omitempty"`
	Under *BestPrice `json:"under,omitempty"`
}

// SourceInfo records provenance of the winning odds.
// Primary is the provider that actually served the odds. When that
// provider was not first in the priority order, Backup carries its name
// and FallbackUsed is set.
type SourceInfo struct {
	Primary      string `json:"primary,omitempty"`
	Backup       string `json:"backup,omitempty"`
	Confidence   int    `json:"confidence"` // 0..100
	FallbackUsed bool   `json:"fallback_used"`
}

// UnifiedGame is the canonical merged record for one real-world game.
// Exactly one CanonicalID regardless of how many provider IDs map to it.
// Odds is present only when some provider returned a non-empty quote;
// its absence means "no odds yet", not "fetch failed".
type UnifiedGame struct {
	CanonicalID string            `json:"canonical_id"`
	Sport       string            `json:"sport"`
	ProviderIDs map[string]string `json:"provider_ids,omitempty"` // provider name -> native ID
	AliasIDs    []string          `json:"alias_ids,omitempty"`    // superseded IDs still recognized

	Status    GameStatus `json:"status"`
	StartTime time.Time  `json:"start_time"`
	Home      TeamInfo   `json:"home"`
	Away      TeamInfo   `json:"away"`

	Venue     *Venue   `json:"venue,omitempty"`
	Broadcast string   `json:"broadcast,omitempty"`
	Weather   *Weather `json:"weather,omitempty"`

	Odds      *GameOdds      `json:"odds,omitempty"`
	Consensus *ConsensusLine `json:"consensus,omitempty"`
	Best      *BestOdds      `json:"best,omitempty"`

	SourceInfo SourceInfo `json:"source_info"`

	// UpdatedAt is the freshest provider observation that contributed,
	// not wall-clock time, so unchanged inputs reproduce identical rows.
	UpdatedAt time.Time `json:"updated_at"`
}
