package reconciler

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/pkg/storage"
	"github.com/Rut304/matchups/internal/provider"
)

var (
	kickoff  = time.Date(2026, 1, 25, 23, 30, 0, 0, time.UTC)
	observed = time.Date(2026, 1, 25, 18, 0, 0, 0, time.UTC)
)

type fakeScheduleClient struct {
	name    string
	enabled bool
	games   []models.ProviderGame
	err     error
}

func (f *fakeScheduleClient) Name() string  { return f.name }
func (f *fakeScheduleClient) Enabled() bool { return f.enabled }

func (f *fakeScheduleClient) FetchGames(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderGame, error) {
	return f.games, f.err
}

func chiefsBillsSchedule() []models.ProviderGame {
	return []models.ProviderGame{
		{
			Provider: "espn",
			ID:       "401547440",
			Sport:    "nfl",
			Status:   models.StatusScheduled,
			Identifiers: models.GameIdentifiers{
				HomeTeam:    "Kansas City Chiefs",
				AwayTeam:    "Buffalo Bills",
				StartTime:   kickoff,
				ProviderIDs: map[string]string{"espn": "401547440"},
			},
			HomeAbbr:  "KC",
			AwayAbbr:  "BUF",
			Broadcast: "CBS",
			UpdatedAt: observed,
		},
	}
}

func chiefsBillsOdds(providerName string) []models.ProviderOdds {
	line := -2.5
	return []models.ProviderOdds{
		{
			Provider: providerName,
			ID:       "evt-1",
			Identifiers: models.GameIdentifiers{
				HomeTeam:    "KC Chiefs",
				AwayTeam:    "Buffalo Bills",
				StartTime:   kickoff,
				ProviderIDs: map[string]string{providerName: "evt-1"},
			},
			Quotes: []models.RawOddsQuote{
				{
					Provider:   providerName,
					Book:       "draftkings",
					Market:     models.MarketSpread,
					Line:       &line,
					Prices:     map[string]int{models.SideHome: -110, models.SideAway: -110},
					ObservedAt: observed,
				},
			},
		},
	}
}

func newTestReconciler(schedule provider.ScheduleClient, oddsClients []provider.OddsClient, store storage.GameStore) *Reconciler {
	registry := quota.NewRegistry()
	return New(Options{
		ScheduleClients: []provider.ScheduleClient{schedule},
		Cascade:         NewCascade(oddsClients, registry, time.Second),
		Matcher:         NewMatcher(85, 2*time.Hour, nil),
		Store:           store,
		QuoteLog:        storage.NewMemoryStore(),
		Quotas:          registry,
		Sports:          []string{"nfl"},
		StalenessWindow: 15 * time.Minute,
		Now:             func() time.Time { return observed.Add(5 * time.Minute) },
	})
}

// Primary odds provider returns nothing, backup serves: the unified
// record carries the backup's line and says so in its provenance.
func TestSyncSport_FallbackProvenance(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	primary := &fakeOddsClient{name: "oddsapi", enabled: true} // empty response
	backup := &fakeOddsClient{name: "sportsdataio", enabled: true, odds: chiefsBillsOdds("sportsdataio")}
	store := storage.NewMemoryStore()

	r := newTestReconciler(schedule, []provider.OddsClient{primary, backup}, store)
	res := r.SyncSport(context.Background(), "nfl")

	if res.Games != 1 || res.WithOdds != 1 {
		t.Fatalf("result = %+v, want 1 game with odds", res)
	}

	game, err := store.GetGame(context.Background(), "nfl|kansas city chiefs|buffalo bills|2026-01-25T23:30:00Z")
	if err != nil {
		t.Fatalf("stored game not found: %v", err)
	}

	if game.Odds == nil || game.Odds.Spread == nil || *game.Odds.Spread != -2.5 {
		t.Errorf("Odds = %+v, want spread -2.5", game.Odds)
	}
	if game.SourceInfo.Primary != "sportsdataio" {
		t.Errorf("SourceInfo.Primary = %q, want sportsdataio", game.SourceInfo.Primary)
	}
	if game.SourceInfo.Backup != "sportsdataio" {
		t.Errorf("SourceInfo.Backup = %q, want sportsdataio", game.SourceInfo.Backup)
	}
	if !game.SourceInfo.FallbackUsed {
		t.Error("SourceInfo.FallbackUsed must be set")
	}
	if game.Consensus == nil || game.Consensus.Spread == nil || *game.Consensus.Spread != -2.5 {
		t.Errorf("Consensus = %+v, want spread -2.5", game.Consensus)
	}
	// Odds quota was spent on one skipped provider.
	if game.SourceInfo.Confidence != confScheduleBase+confOddsFull-confOddsPenalty {
		t.Errorf("Confidence = %d, want %d", game.SourceInfo.Confidence, confScheduleBase+confOddsFull-confOddsPenalty)
	}
	// The provider's cross-reference ID survives into the unified record.
	if game.ProviderIDs["sportsdataio"] != "evt-1" {
		t.Errorf("ProviderIDs = %v, want sportsdataio evt-1", game.ProviderIDs)
	}
}

func TestSyncSport_AllOddsFailStillUpsertsSchedule(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	broken := &fakeOddsClient{name: "oddsapi", enabled: true, err: errors.New("connect timeout")}
	store := storage.NewMemoryStore()

	r := newTestReconciler(schedule, []provider.OddsClient{broken}, store)
	res := r.SyncSport(context.Background(), "nfl")

	if res.Games != 1 {
		t.Fatalf("schedule-only upsert expected, got %+v", res)
	}
	if res.WithOdds != 0 {
		t.Errorf("WithOdds = %d, want 0", res.WithOdds)
	}

	games, err := store.QueryGames(context.Background(), storage.QueryFilter{Sport: "nfl"})
	if err != nil || len(games) != 1 {
		t.Fatalf("QueryGames = %v, %v", games, err)
	}
	game := games[0]
	if game.Odds != nil {
		t.Errorf("Odds = %+v, want nil when every provider failed", game.Odds)
	}
	if game.Status != models.StatusScheduled || game.Home.Name != "Kansas City Chiefs" {
		t.Errorf("schedule fields missing: %+v", game)
	}
	if game.SourceInfo.Confidence != confScheduleBase {
		t.Errorf("Confidence = %d, want schedule-only %d", game.SourceInfo.Confidence, confScheduleBase)
	}
}

// Re-running with byte-identical provider responses must reproduce a
// byte-identical stored record.
func TestSyncSport_Idempotent(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	odds := &fakeOddsClient{name: "oddsapi", enabled: true, odds: chiefsBillsOdds("oddsapi")}
	store := storage.NewMemoryStore()

	r := newTestReconciler(schedule, []provider.OddsClient{odds}, store)

	r.SyncSport(context.Background(), "nfl")
	first, err := store.QueryGames(context.Background(), storage.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}

	r.SyncSport(context.Background(), "nfl")
	second, err := store.QueryGames(context.Background(), storage.QueryFilter{})
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Errorf("rerun changed the stored record:\nfirst:  %+v\nsecond: %+v", first[0], second[0])
	}
}

func TestSyncSport_StaleQuotesExcluded(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	oddsRecords := chiefsBillsOdds("oddsapi")
	// Observed an hour before "now", well past the 15 minute window.
	oddsRecords[0].Quotes[0].ObservedAt = observed.Add(-time.Hour)
	odds := &fakeOddsClient{name: "oddsapi", enabled: true, odds: oddsRecords}
	store := storage.NewMemoryStore()

	r := newTestReconciler(schedule, []provider.OddsClient{odds}, store)
	res := r.SyncSport(context.Background(), "nfl")

	if res.WithOdds != 0 {
		t.Errorf("WithOdds = %d, want 0 for stale quotes", res.WithOdds)
	}
	games, _ := store.QueryGames(context.Background(), storage.QueryFilter{})
	if len(games) != 1 || games[0].Odds != nil {
		t.Errorf("stale quotes must not attach odds: %+v", games)
	}
}

// An odds record naming teams no schedule game has stays unmatched and
// is reported, never force-merged into the closest game.
func TestSyncSport_UnmatchedOddsReported(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	stray := chiefsBillsOdds("oddsapi")
	stray[0].Identifiers.HomeTeam = "Denver Broncos"
	stray[0].Identifiers.AwayTeam = "Las Vegas Raiders"
	stray[0].Identifiers.ProviderIDs = nil
	odds := &fakeOddsClient{name: "oddsapi", enabled: true, odds: stray}
	store := storage.NewMemoryStore()

	r := newTestReconciler(schedule, []provider.OddsClient{odds}, store)
	res := r.SyncSport(context.Background(), "nfl")

	if res.WithOdds != 0 {
		t.Errorf("WithOdds = %d, want 0", res.WithOdds)
	}
	found := false
	for _, issue := range res.Issues {
		if issue.Stage == "match" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a match issue, got %v", res.Issues)
	}
}

// Once a game is final it is history: later cycles must not rewrite it.
func TestSyncSport_TerminalGameIsReadOnly(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	odds := &fakeOddsClient{name: "oddsapi", enabled: true}
	store := storage.NewMemoryStore()

	final := &models.UnifiedGame{
		CanonicalID: "nfl|kansas city chiefs|buffalo bills|2026-01-25T23:30:00Z",
		Sport:       "nfl",
		Status:      models.StatusFinal,
		StartTime:   kickoff,
		Home:        models.TeamInfo{Name: "Kansas City Chiefs", Score: intPtr(31)},
		Away:        models.TeamInfo{Name: "Buffalo Bills", Score: intPtr(28)},
	}
	if err := store.UpsertGame(context.Background(), final); err != nil {
		t.Fatal(err)
	}

	r := newTestReconciler(schedule, []provider.OddsClient{odds}, store)
	r.SyncSport(context.Background(), "nfl")

	got, err := store.GetGame(context.Background(), final.CanonicalID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != models.StatusFinal || got.Home.Score == nil || *got.Home.Score != 31 {
		t.Errorf("terminal game was rewritten: %+v", got)
	}
}

func TestSyncAll_SportIsolation(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	odds := &fakeOddsClient{name: "oddsapi", enabled: true, odds: chiefsBillsOdds("oddsapi")}
	store := storage.NewMemoryStore()
	registry := quota.NewRegistry()

	r := New(Options{
		ScheduleClients: []provider.ScheduleClient{schedule},
		Cascade:         NewCascade([]provider.OddsClient{odds}, registry, time.Second),
		Matcher:         NewMatcher(85, 2*time.Hour, nil),
		Store:           store,
		Quotas:          registry,
		Sports:          []string{"nfl", "nba"},
		Now:             func() time.Time { return observed.Add(5 * time.Minute) },
	})

	results := r.SyncAll(context.Background())
	if len(results) != 2 {
		t.Fatalf("expected a result per sport, got %d", len(results))
	}
	// nba has no schedule (the fake serves nfl shapes for both, so both
	// succeed); the point is that both sports completed without one
	// aborting the other.
	for _, res := range results {
		if res.Sport == "" {
			t.Errorf("missing sport on result: %+v", res)
		}
	}
}

type fakeEventOddsClient struct {
	fakeOddsClient
	event *models.ProviderOdds
}

func (f *fakeEventOddsClient) FetchEventOdds(ctx context.Context, sport, eventID string) (*models.ProviderOdds, error) {
	return f.event, nil
}

func TestRefreshGame_TargetedFetch(t *testing.T) {
	schedule := &fakeScheduleClient{name: "espn", enabled: true, games: chiefsBillsSchedule()}
	seed := chiefsBillsOdds("oddsapi")
	line := -3.0
	eventClient := &fakeEventOddsClient{
		fakeOddsClient: fakeOddsClient{name: "oddsapi", enabled: true, odds: seed},
		event: &models.ProviderOdds{
			Provider:    "oddsapi",
			ID:          "evt-1",
			Identifiers: seed[0].Identifiers,
			Quotes: []models.RawOddsQuote{
				{
					Provider:   "oddsapi",
					Book:       "draftkings",
					Market:     models.MarketSpread,
					Line:       &line,
					Prices:     map[string]int{models.SideHome: -110, models.SideAway: -110},
					ObservedAt: observed,
				},
			},
		},
	}
	store := storage.NewMemoryStore()

	r := newTestReconciler(schedule, []provider.OddsClient{eventClient}, store)
	r.SyncSport(context.Background(), "nfl")

	game, err := r.RefreshGame(context.Background(), "nfl|kansas city chiefs|buffalo bills|2026-01-25T23:30:00Z")
	if err != nil {
		t.Fatalf("RefreshGame failed: %v", err)
	}
	if game.Odds == nil || game.Odds.Spread == nil || *game.Odds.Spread != -3.0 {
		t.Errorf("refreshed Odds = %+v, want moved spread -3.0", game.Odds)
	}
}
