package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/pkg/storage"
	"github.com/Rut304/matchups/internal/reconciler"
)

type fakeSyncer struct {
	results []reconciler.SyncResult
	called  int
}

func (f *fakeSyncer) SyncAll(ctx context.Context) []reconciler.SyncResult {
	f.called++
	return f.results
}

func (f *fakeSyncer) RefreshGame(ctx context.Context, id string) (*models.UnifiedGame, error) {
	return nil, storage.ErrNotFound
}

func testServer(t *testing.T) (*Server, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	registry := quota.NewRegistry()
	registry.ForProvider("oddsapi").RecordCall()
	return NewServer(store, store, registry, &fakeSyncer{}), store
}

func seedGame(t *testing.T, store *storage.MemoryStore) *models.UnifiedGame {
	t.Helper()
	game := &models.UnifiedGame{
		CanonicalID: "nfl|kansas city chiefs|buffalo bills|2026-01-25T23:30:00Z",
		Sport:       "nfl",
		Status:      models.StatusScheduled,
		StartTime:   time.Date(2026, 1, 25, 23, 30, 0, 0, time.UTC),
		Home:        models.TeamInfo{Name: "Kansas City Chiefs"},
		Away:        models.TeamInfo{Name: "Buffalo Bills"},
		AliasIDs:    []string{"old-401"},
	}
	if err := store.UpsertGame(context.Background(), game); err != nil {
		t.Fatal(err)
	}
	return game
}

func TestHandleGames_SportFilter(t *testing.T) {
	server, store := testServer(t)
	seedGame(t, store)

	req := httptest.NewRequest(http.MethodGet, "/games?sport=nfl", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Games []models.UnifiedGame `json:"games"`
		Count int                  `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 || body.Games[0].Sport != "nfl" {
		t.Errorf("body = %+v, want one nfl game", body)
	}

	// A sport with no games returns an empty list, not null.
	req = httptest.NewRequest(http.MethodGet, "/games?sport=nhl", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Body.String(); !json.Valid([]byte(got)) || got == "" {
		t.Fatalf("invalid body: %q", got)
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.Games == nil || body.Count != 0 {
		t.Errorf("empty result must be [], got %+v", body)
	}
}

func TestHandleGames_BadDate(t *testing.T) {
	server, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/games?date=january", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleGame_AliasLookup(t *testing.T) {
	server, store := testServer(t)
	seedGame(t, store)

	req := httptest.NewRequest(http.MethodGet, "/games/old-401", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for alias lookup", rec.Code)
	}
	var game models.UnifiedGame
	if err := json.Unmarshal(rec.Body.Bytes(), &game); err != nil {
		t.Fatal(err)
	}
	if game.CanonicalID != "nfl|kansas city chiefs|buffalo bills|2026-01-25T23:30:00Z" {
		t.Errorf("CanonicalID = %q, want the surviving record", game.CanonicalID)
	}
}

func TestHandleGame_NotFound(t *testing.T) {
	server, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/games/nope", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHandleProviders(t *testing.T) {
	server, _ := testServer(t)

	req := httptest.NewRequest(http.MethodGet, "/providers", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Providers []quota.Usage `json:"providers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Providers) != 1 || body.Providers[0].Provider != "oddsapi" || body.Providers[0].Used != 1 {
		t.Errorf("providers = %+v, want oddsapi with 1 call", body.Providers)
	}
}

func TestHandleSync_TriggersCycle(t *testing.T) {
	store := storage.NewMemoryStore()
	syncer := &fakeSyncer{results: []reconciler.SyncResult{{Sport: "nfl", Games: 3}}}
	server := NewServer(store, store, quota.NewRegistry(), syncer)

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if syncer.called != 1 {
		t.Errorf("syncer called %d times, want 1", syncer.called)
	}
	var body struct {
		Results []reconciler.SyncResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if len(body.Results) != 1 || body.Results[0].Games != 3 {
		t.Errorf("results = %+v", body.Results)
	}
}

func TestHandleQuoteHistory(t *testing.T) {
	server, store := testServer(t)
	game := seedGame(t, store)

	line := -2.5
	quotes := []models.RawOddsQuote{
		{Provider: "oddsapi", Book: "dk", Market: models.MarketSpread, Line: &line, Prices: map[string]int{"home": -110}},
	}
	if err := store.AppendQuotes(context.Background(), game.CanonicalID, quotes); err != nil {
		t.Fatal(err)
	}

	// History resolves aliases the same way game lookup does.
	req := httptest.NewRequest(http.MethodGet, "/games/old-401/history", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		CanonicalID string                `json:"canonical_id"`
		Quotes      []models.RawOddsQuote `json:"quotes"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body.CanonicalID != game.CanonicalID || len(body.Quotes) != 1 {
		t.Errorf("body = %+v, want 1 quote under the canonical ID", body)
	}
}
