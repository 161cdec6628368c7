package espn

import (
	"strconv"
	"strings"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/provider"
)

// parseGames translates scoreboard events into neutral game records.
// Per-field failures (unparseable score, missing venue) leave that
// field absent; the record itself is kept.
func parseGames(sb *scoreboardResponse, sport string, window provider.TimeWindow) []models.ProviderGame {
	games := make([]models.ProviderGame, 0, len(sb.Events))
	for _, ev := range sb.Events {
		start := parseEventTime(ev.Date)
		if !start.IsZero() && !window.Contains(start) {
			continue
		}
		if len(ev.Competitions) == 0 {
			continue
		}
		comp := ev.Competitions[0]

		home, away, ok := splitCompetitors(comp.Competitors)
		if !ok {
			continue
		}

		g := models.ProviderGame{
			Provider: Name,
			ID:       ev.ID,
			Identifiers: models.GameIdentifiers{
				HomeTeam:    home.Team.DisplayName,
				AwayTeam:    away.Team.DisplayName,
				StartTime:   start,
				ProviderIDs: map[string]string{Name: ev.ID},
			},
			Sport:      sport,
			Status:     parseStatus(ev),
			HomeAbbr:   home.Team.Abbreviation,
			AwayAbbr:   away.Team.Abbreviation,
			HomeScore:  parseScore(home.Score),
			AwayScore:  parseScore(away.Score),
			HomeRecord: overallRecord(home),
			AwayRecord: overallRecord(away),
			Broadcast:  firstBroadcast(comp),
			UpdatedAt:  start, // scoreboard has no per-record timestamp
		}

		if comp.Venue != nil && comp.Venue.FullName != "" {
			g.Venue = &models.Venue{
				Name:  comp.Venue.FullName,
				City:  comp.Venue.Address.City,
				State: comp.Venue.Address.State,
			}
		}
		if ev.Weather != nil && ev.Weather.DisplayValue != "" {
			temp := ev.Weather.Temperature
			g.Weather = &models.Weather{
				Description: ev.Weather.DisplayValue,
				TempF:       &temp,
			}
		}

		games = append(games, g)
	}
	return games
}

// parseOdds extracts the first odds block per event as raw quotes.
func parseOdds(sb *scoreboardResponse, window provider.TimeWindow) []models.ProviderOdds {
	var out []models.ProviderOdds
	for _, ev := range sb.Events {
		start := parseEventTime(ev.Date)
		if !start.IsZero() && !window.Contains(start) {
			continue
		}
		if len(ev.Competitions) == 0 || len(ev.Competitions[0].Odds) == 0 {
			continue
		}
		comp := ev.Competitions[0]
		home, away, ok := splitCompetitors(comp.Competitors)
		if !ok {
			continue
		}

		block := comp.Odds[0]
		book := block.Provider.Name
		if book == "" {
			book = "espn"
		}

		quotes := blockToQuotes(block, book, start)
		if len(quotes) == 0 {
			continue
		}

		out = append(out, models.ProviderOdds{
			Provider: Name,
			ID:       ev.ID,
			Identifiers: models.GameIdentifiers{
				HomeTeam:    home.Team.DisplayName,
				AwayTeam:    away.Team.DisplayName,
				StartTime:   start,
				ProviderIDs: map[string]string{Name: ev.ID},
			},
			Quotes: quotes,
		})
	}
	return out
}

func blockToQuotes(block oddsBlock, book string, observed time.Time) []models.RawOddsQuote {
	var quotes []models.RawOddsQuote

	if block.Spread != nil {
		prices := map[string]int{}
		if block.HomeTeamOdds.SpreadOdds != nil {
			prices[models.SideHome] = *block.HomeTeamOdds.SpreadOdds
		}
		if block.AwayTeamOdds.SpreadOdds != nil {
			prices[models.SideAway] = *block.AwayTeamOdds.SpreadOdds
		}
		quotes = append(quotes, models.RawOddsQuote{
			Provider:   Name,
			Book:       book,
			Market:     models.MarketSpread,
			Line:       block.Spread,
			Prices:     prices,
			ObservedAt: observed,
		})
	}

	if block.OverUnder != nil {
		prices := map[string]int{}
		if block.OverOdds != nil {
			prices[models.SideOver] = *block.OverOdds
		}
		if block.UnderOdds != nil {
			prices[models.SideUnder] = *block.UnderOdds
		}
		quotes = append(quotes, models.RawOddsQuote{
			Provider:   Name,
			Book:       book,
			Market:     models.MarketTotal,
			Line:       block.OverUnder,
			Prices:     prices,
			ObservedAt: observed,
		})
	}

	if block.HomeTeamOdds.Moneyline != nil || block.AwayTeamOdds.Moneyline != nil {
		prices := map[string]int{}
		if block.HomeTeamOdds.Moneyline != nil {
			prices[models.SideHome] = *block.HomeTeamOdds.Moneyline
		}
		if block.AwayTeamOdds.Moneyline != nil {
			prices[models.SideAway] = *block.AwayTeamOdds.Moneyline
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

func splitCompetitors(cs []competitor) (home, away competitor, ok bool) {
	for _, c := range cs {
		switch c.HomeAway {
		case "home":
			home = c
		case "away":
			away = c
		}
	}
	ok = home.Team.DisplayName != "" && away.Team.DisplayName != ""
	return home, away, ok
}

func parseEventTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		// ESPN sometimes drops seconds.
		t, err = time.Parse("2006-01-02T15:04Z", s)
		if err != nil {
			return time.Time{}
		}
	}
	return t.UTC()
}

func parseStatus(ev event) models.GameStatus {
	desc := strings.ToLower(ev.Status.Type.Description)
	switch {
	case strings.Contains(desc, "postponed"):
		return models.StatusPostponed
	case strings.Contains(desc, "cancel"):
		return models.StatusCancelled
	}
	switch ev.Status.Type.State {
	case "in":
		return models.StatusLive
	case "post":
		return models.StatusFinal
	default:
		return models.StatusScheduled
	}
}

func parseScore(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func overallRecord(c competitor) string {
	for _, r := range c.Records {
		if r.Type == "total" || r.Type == "overall" {
			return r.Summary
		}
	}
	if len(c.Records) > 0 {
		return c.Records[0].Summary
	}
	return ""
}

func firstBroadcast(comp competition) string {
	for _, b := range comp.Broadcasts {
		if len(b.Names) > 0 {
			return b.Names[0]
		}
	}
	return ""
}
