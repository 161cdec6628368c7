package oddsapi

import (
	"encoding/json"
	"testing"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/provider"
)

const oddsFixture = `[
  {
    "id": "e912304de2b2ce35b473ce2ecd3d1502",
    "sport_key": "americanfootball_nfl",
    "commence_time": "2026-01-25T23:30:00Z",
    "home_team": "Kansas City Chiefs",
    "away_team": "Buffalo Bills",
    "bookmakers": [
      {
        "key": "draftkings",
        "title": "DraftKings",
        "last_update": "2026-01-25T12:00:00Z",
        "markets": [
          {
            "key": "spreads",
            "outcomes": [
              {"name": "Kansas City Chiefs", "price": -108, "point": -2.5},
              {"name": "Buffalo Bills", "price": -112, "point": 2.5}
            ]
          },
          {
            "key": "totals",
            "outcomes": [
              {"name": "Over", "price": -110, "point": 47.5},
              {"name": "Under", "price": -110, "point": 47.5}
            ]
          },
          {
            "key": "h2h",
            "outcomes": [
              {"name": "Kansas City Chiefs", "price": -135},
              {"name": "Buffalo Bills", "price": 115}
            ]
          },
          {
            "key": "player_props_unknown",
            "outcomes": [{"name": "Someone", "price": 200}]
          }
        ]
      },
      {
        "key": "fanduel",
        "title": "FanDuel",
        "last_update": "2026-01-25T12:05:00Z",
        "markets": [
          {
            "key": "spreads",
            "outcomes": [
              {"name": "Kansas City Chiefs", "price": -110, "point": -3.0},
              {"name": "Buffalo Bills", "price": -110, "point": 3.0}
            ]
          }
        ]
      }
    ]
  },
  {
    "id": "no-books",
    "commence_time": "2026-01-25T21:00:00Z",
    "home_team": "Detroit Lions",
    "away_team": "Green Bay Packers",
    "bookmakers": []
  }
]`

func TestParseEvents(t *testing.T) {
	var events []oddsEvent
	if err := json.Unmarshal([]byte(oddsFixture), &events); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	out := parseEvents(events, provider.TimeWindow{})

	// The event with no bookmakers yields no record at all.
	if len(out) != 1 {
		t.Fatalf("expected 1 odds record, got %d", len(out))
	}

	o := out[0]
	if o.Identifiers.HomeTeam != "Kansas City Chiefs" {
		t.Errorf("home = %q", o.Identifiers.HomeTeam)
	}
	if o.Identifiers.ProviderIDs[Name] != "e912304de2b2ce35b473ce2ecd3d1502" {
		t.Errorf("provider ID = %q", o.Identifiers.ProviderIDs[Name])
	}

	// DraftKings spread+total+h2h (unknown market dropped) + FanDuel spread.
	if len(o.Quotes) != 4 {
		t.Fatalf("expected 4 quotes, got %d", len(o.Quotes))
	}

	dkSpread := o.Quotes[0]
	if dkSpread.Market != models.MarketSpread || *dkSpread.Line != -2.5 {
		t.Errorf("DK spread = %+v", dkSpread)
	}
	if dkSpread.Prices[models.SideHome] != -108 || dkSpread.Prices[models.SideAway] != -112 {
		t.Errorf("DK spread prices = %v", dkSpread.Prices)
	}

	total := o.Quotes[1]
	if total.Market != models.MarketTotal || *total.Line != 47.5 {
		t.Errorf("total = %+v", total)
	}
	if total.Prices[models.SideOver] != -110 || total.Prices[models.SideUnder] != -110 {
		t.Errorf("total prices = %v", total.Prices)
	}

	ml := o.Quotes[2]
	if ml.Market != models.MarketMoneyline || ml.Prices[models.SideHome] != -135 {
		t.Errorf("moneyline = %+v", ml)
	}

	fdSpread := o.Quotes[3]
	if fdSpread.Book != "FanDuel" || *fdSpread.Line != -3.0 {
		t.Errorf("FanDuel spread = %+v", fdSpread)
	}
}

// Data-shape drift: a spreads market missing points is dropped alone,
// not the whole event.
func TestParseEvents_SpreadWithoutPointDropped(t *testing.T) {
	events := []oddsEvent{
		{
			ID:           "x",
			CommenceTime: "2026-01-25T21:00:00Z",
			HomeTeam:     "A",
			AwayTeam:     "B",
			Bookmakers: []bookmaker{
				{
					Key: "bk", Title: "Book",
					Markets: []market{
						{Key: "spreads", Outcomes: []outcome{{Name: "A", Price: -110}, {Name: "B", Price: -110}}},
						{Key: "h2h", Outcomes: []outcome{{Name: "A", Price: -150}, {Name: "B", Price: 130}}},
					},
				},
			},
		},
	}

	out := parseEvents(events, provider.TimeWindow{})
	if len(out) != 1 {
		t.Fatalf("event must survive, got %d records", len(out))
	}
	if len(out[0].Quotes) != 1 {
		t.Fatalf("expected only the h2h quote, got %d", len(out[0].Quotes))
	}
	if out[0].Quotes[0].Market != models.MarketMoneyline {
		t.Errorf("surviving market = %s", out[0].Quotes[0].Market)
	}
}
