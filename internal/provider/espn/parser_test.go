package espn

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/provider"
)

const scoreboardFixture = `{
  "events": [
    {
      "id": "401547321",
      "name": "Buffalo Bills at Kansas City Chiefs",
      "date": "2026-01-25T23:30Z",
      "status": {"type": {"name": "STATUS_SCHEDULED", "state": "pre", "description": "Scheduled"}},
      "weather": {"displayValue": "Partly cloudy", "temperature": 28},
      "competitions": [
        {
          "venue": {"fullName": "GEHA Field at Arrowhead Stadium", "address": {"city": "Kansas City", "state": "MO"}},
          "broadcasts": [{"names": ["CBS"]}],
          "competitors": [
            {
              "homeAway": "home",
              "score": "",
              "team": {"displayName": "Kansas City Chiefs", "abbreviation": "KC"},
              "records": [{"type": "total", "summary": "14-3"}]
            },
            {
              "homeAway": "away",
              "score": "",
              "team": {"displayName": "Buffalo Bills", "abbreviation": "BUF"},
              "records": [{"type": "total", "summary": "13-4"}]
            }
          ],
          "odds": [
            {
              "provider": {"name": "DraftKings"},
              "spread": -2.5,
              "overUnder": 47.5,
              "overOdds": -110,
              "underOdds": -110,
              "homeTeamOdds": {"moneyline": -135, "spreadOdds": -108},
              "awayTeamOdds": {"moneyline": 115, "spreadOdds": -112}
            }
          ]
        }
      ]
    },
    {
      "id": "401547322",
      "name": "Final Game",
      "date": "2026-01-25T18:00Z",
      "status": {"type": {"name": "STATUS_FINAL", "state": "post", "description": "Final"}},
      "competitions": [
        {
          "competitors": [
            {"homeAway": "home", "score": "27", "team": {"displayName": "Detroit Lions", "abbreviation": "DET"}},
            {"homeAway": "away", "score": "not-a-number", "team": {"displayName": "Green Bay Packers", "abbreviation": "GB"}}
          ]
        }
      ]
    }
  ]
}`

func fixtureResponse(t *testing.T) *scoreboardResponse {
	t.Helper()
	var sb scoreboardResponse
	if err := json.Unmarshal([]byte(scoreboardFixture), &sb); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	return &sb
}

func TestParseGames(t *testing.T) {
	sb := fixtureResponse(t)
	games := parseGames(sb, "nfl", provider.TimeWindow{})

	if len(games) != 2 {
		t.Fatalf("expected 2 games, got %d", len(games))
	}

	g := games[0]
	if g.Identifiers.HomeTeam != "Kansas City Chiefs" || g.Identifiers.AwayTeam != "Buffalo Bills" {
		t.Errorf("unexpected teams: %q vs %q", g.Identifiers.HomeTeam, g.Identifiers.AwayTeam)
	}
	if g.Status != models.StatusScheduled {
		t.Errorf("status = %s, want scheduled", g.Status)
	}
	wantStart := time.Date(2026, 1, 25, 23, 30, 0, 0, time.UTC)
	if !g.Identifiers.StartTime.Equal(wantStart) {
		t.Errorf("start = %v, want %v", g.Identifiers.StartTime, wantStart)
	}
	if g.Venue == nil || g.Venue.Name != "GEHA Field at Arrowhead Stadium" {
		t.Errorf("venue not parsed: %+v", g.Venue)
	}
	if g.Broadcast != "CBS" {
		t.Errorf("broadcast = %q, want CBS", g.Broadcast)
	}
	if g.Weather == nil || g.Weather.TempF == nil || *g.Weather.TempF != 28 {
		t.Errorf("weather not parsed: %+v", g.Weather)
	}
	if g.HomeRecord != "14-3" || g.AwayRecord != "13-4" {
		t.Errorf("records = %q / %q", g.HomeRecord, g.AwayRecord)
	}
	if g.Identifiers.ProviderIDs[Name] != "401547321" {
		t.Errorf("provider ID = %q", g.Identifiers.ProviderIDs[Name])
	}
}

// One bad field must not discard the record: a score that fails to
// parse is simply absent.
func TestParseGames_BadScoreKeepsRecord(t *testing.T) {
	sb := fixtureResponse(t)
	games := parseGames(sb, "nfl", provider.TimeWindow{})

	g := games[1]
	if g.Status != models.StatusFinal {
		t.Errorf("status = %s, want final", g.Status)
	}
	if g.HomeScore == nil || *g.HomeScore != 27 {
		t.Errorf("home score = %v, want 27", g.HomeScore)
	}
	if g.AwayScore != nil {
		t.Errorf("unparseable away score must be absent, got %v", *g.AwayScore)
	}
}

func TestParseOdds(t *testing.T) {
	sb := fixtureResponse(t)
	odds := parseOdds(sb, provider.TimeWindow{})

	if len(odds) != 1 {
		t.Fatalf("expected odds for 1 game, got %d", len(odds))
	}
	o := odds[0]
	if len(o.Quotes) != 3 {
		t.Fatalf("expected spread+total+moneyline, got %d quotes", len(o.Quotes))
	}

	spread := o.Quotes[0]
	if spread.Market != models.MarketSpread || spread.Line == nil || *spread.Line != -2.5 {
		t.Errorf("spread quote = %+v", spread)
	}
	if spread.Book != "DraftKings" {
		t.Errorf("book = %q, want DraftKings", spread.Book)
	}

	total := o.Quotes[1]
	if total.Market != models.MarketTotal || total.Line == nil || *total.Line != 47.5 {
		t.Errorf("total quote = %+v", total)
	}

	ml := o.Quotes[2]
	if ml.Market != models.MarketMoneyline || ml.Prices[models.SideHome] != -135 || ml.Prices[models.SideAway] != 115 {
		t.Errorf("moneyline quote = %+v", ml)
	}
}

func TestParseStatus_PostponedAndCancelled(t *testing.T) {
	tests := []struct {
		desc  string
		state string
		want  models.GameStatus
	}{
		{"Postponed", "pre", models.StatusPostponed},
		{"Canceled", "pre", models.StatusCancelled},
		{"In Progress", "in", models.StatusLive},
		{"Final", "post", models.StatusFinal},
		{"Scheduled", "pre", models.StatusScheduled},
	}
	for _, tt := range tests {
		ev := event{}
		ev.Status.Type.Description = tt.desc
		ev.Status.Type.State = tt.state
		if got := parseStatus(ev); got != tt.want {
			t.Errorf("parseStatus(%q/%q) = %s, want %s", tt.desc, tt.state, got, tt.want)
		}
	}
}

func TestParseGames_WindowFilter(t *testing.T) {
	sb := fixtureResponse(t)
	window := provider.TimeWindow{
		From: time.Date(2026, 1, 25, 20, 0, 0, 0, time.UTC),
		To:   time.Date(2026, 1, 26, 0, 0, 0, 0, time.UTC),
	}
	games := parseGames(sb, "nfl", window)
	if len(games) != 1 {
		t.Fatalf("expected window to keep only the late game, got %d", len(games))
	}
	if games[0].ID != "401547321" {
		t.Errorf("kept wrong game: %s", games[0].ID)
	}
}
