package reconciler

import (
	"sort"

	"github.com/Rut304/matchups/internal/pkg/models"
)

// Field precedence is declared once, here, not re-derived at call
// sites: the schedule provider owns game metadata (status, scores,
// venue, broadcast, weather); the odds cascade owns betting fields.
// Every rule is additive: a provider that omits a field never erases a
// previously-written value.

type fieldPolicy struct {
	name  string
	apply func(dst *models.UnifiedGame, src *models.ProviderGame)
}

var scheduleFieldPolicies = []fieldPolicy{
	{"status", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		if src.Status != "" {
			dst.Status = src.Status
		}
	}},
	{"start_time", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		if !src.Identifiers.StartTime.IsZero() {
			dst.StartTime = src.Identifiers.StartTime
		}
	}},
	{"home_team", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		setString(&dst.Home.Name, src.Identifiers.HomeTeam)
		setString(&dst.Home.Abbreviation, src.HomeAbbr)
		setString(&dst.Home.Record, src.HomeRecord)
		if src.HomeScore != nil {
			dst.Home.Score = src.HomeScore
		}
	}},
	{"away_team", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		setString(&dst.Away.Name, src.Identifiers.AwayTeam)
		setString(&dst.Away.Abbreviation, src.AwayAbbr)
		setString(&dst.Away.Record, src.AwayRecord)
		if src.AwayScore != nil {
			dst.Away.Score = src.AwayScore
		}
	}},
	{"venue", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		if src.Venue != nil {
			venue := *src.Venue
			dst.Venue = &venue
		}
	}},
	{"broadcast", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		setString(&dst.Broadcast, src.Broadcast)
	}},
	{"weather", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		if src.Weather != nil {
			weather := *src.Weather
			dst.Weather = &weather
		}
	}},
	{"provider_ids", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		if dst.ProviderIDs == nil {
			dst.ProviderIDs = map[string]string{}
		}
		for name, id := range src.Identifiers.ProviderIDs {
			if id != "" {
				dst.ProviderIDs[name] = id
			}
		}
	}},
	{"alias_ids", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		for _, a := range src.AliasIDs {
			dst.AliasIDs = appendAlias(dst.AliasIDs, a)
		}
		sort.Strings(dst.AliasIDs)
	}},
	{"updated_at", func(dst *models.UnifiedGame, src *models.ProviderGame) {
		if src.UpdatedAt.After(dst.UpdatedAt) {
			dst.UpdatedAt = src.UpdatedAt
		}
	}},
}

// MergeSchedule folds one schedule record into the unified game,
// creating it when dst is nil. The canonical ID is derived from the
// schedule provider's stable names and never changes afterwards.
func MergeSchedule(dst *models.UnifiedGame, src models.ProviderGame) *models.UnifiedGame {
	if dst == nil {
		dst = &models.UnifiedGame{
			CanonicalID: models.CanonicalGameID(
				src.Sport,
				src.Identifiers.HomeTeam,
				src.Identifiers.AwayTeam,
				src.Identifiers.StartTime,
			),
			Sport: src.Sport,
		}
	}
	for _, p := range scheduleFieldPolicies {
		p.apply(dst, &src)
	}
	return dst
}

// MergeOdds attaches the cascade's betting fields. Additive only: a
// cycle where every provider failed passes nils and the previous odds
// survive untouched.
func MergeOdds(dst *models.UnifiedGame, odds *models.GameOdds, consensus *models.ConsensusLine, best *models.BestOdds) {
	if odds != nil {
		o := *odds
		dst.Odds = &o
		if o.ObservedAt.After(dst.UpdatedAt) {
			dst.UpdatedAt = o.ObservedAt
		}
	}
	if consensus != nil {
		c := *consensus
		dst.Consensus = &c
	}
	if best != nil {
		b := *best
		dst.Best = &b
	}
}

// BuildGameOdds reduces the winning provider's quotes for one game to
// the single freshest quote per market. Nil when there are no usable
// quotes.
func BuildGameOdds(providerName string, quotes []models.RawOddsQuote) *models.GameOdds {
	var out *models.GameOdds

	pick := func(market string) *models.RawOddsQuote {
		var best *models.RawOddsQuote
		for i := range quotes {
			q := &quotes[i]
			if q.Market != market {
				continue
			}
			if best == nil || q.ObservedAt.After(best.ObservedAt) {
				best = q
			}
		}
		return best
	}

	ensure := func(book string) *models.GameOdds {
		if out == nil {
			out = &models.GameOdds{Provider: providerName, Book: book}
		}
		return out
	}

	if q := pick(models.MarketSpread); q != nil && q.Line != nil {
		o := ensure(q.Book)
		line := *q.Line
		o.Spread = &line
		o.SpreadHomePrice = priceIfPresent(q.Prices, models.SideHome)
		o.SpreadAwayPrice = priceIfPresent(q.Prices, models.SideAway)
		if q.ObservedAt.After(o.ObservedAt) {
			o.ObservedAt = q.ObservedAt
		}
	}
	if q := pick(models.MarketTotal); q != nil && q.Line != nil {
		o := ensure(q.Book)
		line := *q.Line
		o.Total = &line
		o.OverPrice = priceIfPresent(q.Prices, models.SideOver)
		o.UnderPrice = priceIfPresent(q.Prices, models.SideUnder)
		if q.ObservedAt.After(o.ObservedAt) {
			o.ObservedAt = q.ObservedAt
		}
	}
	if q := pick(models.MarketMoneyline); q != nil {
		home := priceIfPresent(q.Prices, models.SideHome)
		away := priceIfPresent(q.Prices, models.SideAway)
		if home != nil || away != nil {
			o := ensure(q.Book)
			o.HomeMoneyline = home
			o.AwayMoneyline = away
			if q.ObservedAt.After(o.ObservedAt) {
				o.ObservedAt = q.ObservedAt
			}
		}
	}

	return out
}

func priceIfPresent(prices map[string]int, side string) *int {
	if p, ok := prices[side]; ok && p != 0 {
		price := p
		return &price
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
