package sportsdataio

import (
	"strconv"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/provider"
)

// parseRows translates GameOddsByDate rows into neutral odds records.
// Each sportsbook entry becomes up to three quotes; an entry whose
// fields fail to parse loses only those fields.
func parseRows(rows []gameOdds, window provider.TimeWindow) []models.ProviderOdds {
	var out []models.ProviderOdds
	for _, row := range rows {
		if row.HomeTeamName == "" || row.AwayTeamName == "" {
			continue
		}
		start := parseGameTime(row)
		if !start.IsZero() && !window.Contains(start) {
			continue
		}

		var quotes []models.RawOddsQuote
		for _, odd := range row.PregameOdds {
			quotes = append(quotes, oddToQuotes(odd, start)...)
		}
		if len(quotes) == 0 {
			continue
		}

		id := strconv.FormatInt(row.GameID, 10)
		out = append(out, models.ProviderOdds{
			Provider: Name,
			ID:       id,
			Identifiers: models.GameIdentifiers{
				HomeTeam:    row.HomeTeamName,
				AwayTeam:    row.AwayTeamName,
				StartTime:   start,
				ProviderIDs: map[string]string{Name: id},
			},
			Quotes: quotes,
		})
	}
	return out
}

func oddToQuotes(odd pregameOdd, start time.Time) []models.RawOddsQuote {
	observed := parseUpdated(odd.Updated)
	if observed.IsZero() {
		observed = start
	}
	book := odd.Sportsbook
	if book == "" {
		book = Name
	}

	var quotes []models.RawOddsQuote

	if odd.HomePointSpread != nil {
		prices := map[string]int{}
		if odd.HomePointSpreadPayout != nil {
			prices[models.SideHome] = *odd.HomePointSpreadPayout
		}
		if odd.AwayPointSpreadPayout != nil {
			prices[models.SideAway] = *odd.AwayPointSpreadPayout
		}
		line := *odd.HomePointSpread
		quotes = append(quotes, models.RawOddsQuote{
			Provider:   Name,
			Book:       book,
			Market:     models.MarketSpread,
			Line:       &line,
			Prices:     prices,
			ObservedAt: observed,
		})
	}

	if odd.OverUnder != nil {
		prices := map[string]int{}
		if odd.OverPayout != nil {
			prices[models.SideOver] = *odd.OverPayout
		}
		if odd.UnderPayout != nil {
			prices[models.SideUnder] = *odd.UnderPayout
		}
		line := *odd.OverUnder
		quotes = append(quotes, models.RawOddsQuote{
			Provider:   Name,
			Book:       book,
			Market:     models.MarketTotal,
			Line:       &line,
			Prices:     prices,
			ObservedAt: observed,
		})
	}

	if odd.HomeMoneyLine != nil || odd.AwayMoneyLine != nil {
		prices := map[string]int{}
		if odd.HomeMoneyLine != nil {
			prices[models.SideHome] = *odd.HomeMoneyLine
		}
		if odd.AwayMoneyLine != nil {
			prices[models.SideAway] = *odd.AwayMoneyLine
		}
		quotes = append(quotes, models.RawOddsQuote{
			Provider:   Name,
			Book:       book,
			Market:     models.MarketMoneyline,
			Prices:     prices,
			ObservedAt: observed,
		})
	}

	return quotes
}

func parseGameTime(row gameOdds) time.Time {
	if row.DateTimeUTC != "" {
		if t, err := time.Parse("2006-01-02T15:04:05", row.DateTimeUTC); err == nil {
			return t.UTC()
		}
	}
	if row.DateTime != "" {
		// Eastern wall-clock time without offset; best effort.
		if loc, err := time.LoadLocation("America/New_York"); err == nil {
			if t, err := time.ParseInLocation("2006-01-02T15:04:05", row.DateTime, loc); err == nil {
				return t.UTC()
			}
		}
	}
	return time.Time{}
}

func parseUpdated(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
