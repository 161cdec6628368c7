package oddsapi

import (
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/provider"
)

// parseEvents translates API events into neutral odds records. A market
// or bookmaker that fails to parse is skipped on its own; the event and
// its remaining quotes survive.
func parseEvents(events []oddsEvent, window provider.TimeWindow) []models.ProviderOdds {
	var out []models.ProviderOdds
	for _, ev := range events {
		if ev.HomeTeam == "" || ev.AwayTeam == "" {
			continue
		}
		start := parseTime(ev.CommenceTime)
		if !start.IsZero() && !window.Contains(start) {
			continue
		}

		var quotes []models.RawOddsQuote
		for _, bm := range ev.Bookmakers {
			observed := parseTime(bm.LastUpdate)
			if observed.IsZero() {
				observed = start
			}
			book := bm.Title
			if book == "" {
				book = bm.Key
			}
			for _, m := range bm.Markets {
				if q, ok := marketToQuote(m, ev, book, observed); ok {
					quotes = append(quotes, q)
				}
			}
		}
		if len(quotes) == 0 {
			continue
		}

		out = append(out, models.ProviderOdds{
			Provider: Name,
			ID:       ev.ID,
			Identifiers: models.GameIdentifiers{
				HomeTeam:    ev.HomeTeam,
				AwayTeam:    ev.AwayTeam,
				StartTime:   start,
				ProviderIDs: map[string]string{Name: ev.ID},
			},
			Quotes: quotes,
		})
	}
	return out
}

func marketToQuote(m market, ev oddsEvent, book string, observed time.Time) (models.RawOddsQuote, bool) {
	q := models.RawOddsQuote{
		Provider:   Name,
		Book:       book,
		Prices:     map[string]int{},
		ObservedAt: observed,
	}

	switch m.Key {
	case "spreads":
		q.Market = models.MarketSpread
		for _, o := range m.Outcomes {
			switch o.Name {
			case ev.HomeTeam:
				q.Prices[models.SideHome] = o.Price
				if o.Point != nil {
					point := *o.Point
					q.Line = &point
				}
			case ev.AwayTeam:
				q.Prices[models.SideAway] = o.Price
			}
		}
		// A spread quote without the home point is unusable.
		if q.Line == nil {
			return q, false
		}
	case "totals":
		q.Market = models.MarketTotal
		for _, o := range m.Outcomes {
			switch o.Name {
			case "Over":
				q.Prices[models.SideOver] = o.Price
				if o.Point != nil {
					point := *o.Point
					q.Line = &point
				}
			case "Under":
				q.Prices[models.SideUnder] = o.Price
			}
		}
		if q.Line == nil {
			return q, false
		}
	case "h2h":
		q.Market = models.MarketMoneyline
		for _, o := range m.Outcomes {
			switch o.Name {
			case ev.HomeTeam:
				q.Prices[models.SideHome] = o.Price
			case ev.AwayTeam:
				q.Prices[models.SideAway] = o.Price
			case "Draw":
				q.Prices[models.SideDraw] = o.Price
			}
		}
	default:
		return q, false
	}

	if len(q.Prices) == 0 {
		return q, false
	}
	return q, true
}

func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
