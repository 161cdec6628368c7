package reconciler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/pkg/storage"
	"github.com/Rut304/matchups/internal/provider"
)

// Confidence components. The schedule half is earned by having a
// schedule record at all; the odds half shrinks with every provider the
// cascade had to pass over before one served.
const (
	confScheduleBase = 50
	confOddsFull     = 50
	confOddsPenalty  = 10 // per provider skipped ahead of the winner
	confOddsMinimum  = 20
)

// Reconciler runs the sync pipeline: fetch schedules, dedupe, fetch
// odds through the cascade, match across providers, merge, compute
// consensus, and upsert. One instance serves every sport; sports are
// isolated, so one sport's total failure never blocks another.
type Reconciler struct {
	scheduleClients []provider.ScheduleClient
	cascade         *Cascade
	matcher         *Matcher
	store           storage.GameStore
	quoteLog        storage.QuoteLog
	quotas          *quota.Registry
	notifier        Notifier

	sports      []string
	staleness   time.Duration
	callTimeout time.Duration

	// now is injectable so staleness tests are deterministic. It feeds
	// only the staleness filter, never stored timestamps.
	now func() time.Time
}

// Options bundles the Reconciler's collaborators. QuoteLog and Notifier
// are optional.
type Options struct {
	ScheduleClients []provider.ScheduleClient
	Cascade         *Cascade
	Matcher         *Matcher
	Store           storage.GameStore
	QuoteLog        storage.QuoteLog
	Quotas          *quota.Registry
	Notifier        Notifier

	Sports          []string
	StalenessWindow time.Duration
	CallTimeout     time.Duration
	Now             func() time.Time
}

func New(opts Options) *Reconciler {
	if opts.StalenessWindow <= 0 {
		opts.StalenessWindow = 15 * time.Minute
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 10 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Reconciler{
		scheduleClients: opts.ScheduleClients,
		cascade:         opts.Cascade,
		matcher:         opts.Matcher,
		store:           opts.Store,
		quoteLog:        opts.QuoteLog,
		quotas:          opts.Quotas,
		notifier:        opts.Notifier,
		sports:          opts.Sports,
		staleness:       opts.StalenessWindow,
		callTimeout:     opts.CallTimeout,
		now:             opts.Now,
	}
}

// SyncResult summarizes one sport's cycle for logs and the manual
// trigger endpoint.
type SyncResult struct {
	Sport    string  `json:"sport"`
	Games    int     `json:"games"`
	WithOdds int     `json:"with_odds"`
	Provider string  `json:"odds_provider,omitempty"`
	Issues   []Issue `json:"issues,omitempty"`
}

// SyncAll runs one full cycle across every configured sport in
// parallel. Quota trackers are reset first so a provider that was
// exhausted last cycle gets exactly one probe this cycle.
func (r *Reconciler) SyncAll(ctx context.Context) []SyncResult {
	cycleID := uuid.NewString()
	started := time.Now()
	r.quotas.ResetAll()

	log := slog.With("cycle", cycleID)
	log.Info("Sync cycle started", "sports", r.sports)

	results := make([]SyncResult, len(r.sports))
	var wg sync.WaitGroup
	for i, sport := range r.sports {
		wg.Add(1)
		go func(i int, sport string) {
			defer wg.Done()
			results[i] = r.SyncSport(ctx, sport)
		}(i, sport)
	}
	wg.Wait()

	total, withOdds, issues := 0, 0, 0
	for _, res := range results {
		total += res.Games
		withOdds += res.WithOdds
		issues += len(res.Issues)
	}
	log.Info("Sync cycle finished",
		"games", total,
		"with_odds", withOdds,
		"issues", issues,
		"duration", time.Since(started).Round(time.Millisecond),
	)

	r.alertOnQuota()
	return results
}

// SyncSport runs the pipeline for one sport. Failures surface as
// issues on the result, never as a panic or an aborted cycle.
func (r *Reconciler) SyncSport(ctx context.Context, sport string) SyncResult {
	result := SyncResult{Sport: sport}
	window := provider.DayWindow(r.now())

	games, issues := r.fetchSchedule(ctx, sport, window)
	result.Issues = append(result.Issues, issues...)
	if len(games) == 0 {
		slog.Warn("Sync: no schedule available", "sport", sport)
		return result
	}

	games, dedupeIssues := Dedupe(games, r.matcher)
	result.Issues = append(result.Issues, dedupeIssues...)

	oddsRes := r.cascade.Fetch(ctx, sport, window)
	result.Issues = append(result.Issues, oddsRes.Issues...)
	result.Provider = oddsRes.Provider
	if oddsRes.Provider == "" && oddsRes.FailureSummary != nil {
		slog.Error("Sync: every odds provider failed", "sport", sport, "error", oddsRes.FailureSummary)
		r.alert("odds-all-failed:"+sport, fmt.Sprintf("all odds providers failed for %s: %v", sport, oddsRes.FailureSummary))
	}

	matched, unmatchedIssues := r.matchOdds(sport, games, oddsRes.Odds)
	result.Issues = append(result.Issues, unmatchedIssues...)

	for _, g := range games {
		if err := r.upsertGame(ctx, sport, g, matched[g.ID], oddsRes); err != nil {
			result.Issues = append(result.Issues, issuef("upsert", sport, g.Provider, "%s: %v", g.ID, err))
			continue
		}
		result.Games++
		if len(matched[g.ID]) > 0 {
			result.WithOdds++
		}
	}
	return result
}

// fetchSchedule walks schedule providers in priority order and serves
// the first non-empty response. Same shape as the odds cascade, but
// schedule sources are free, so failures are only logged.
func (r *Reconciler) fetchSchedule(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderGame, []Issue) {
	var issues []Issue
	for _, client := range r.scheduleClients {
		if !client.Enabled() {
			continue
		}
		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		games, err := client.FetchGames(callCtx, sport, window)
		cancel()
		if err != nil {
			slog.Warn("Sync: schedule fetch failed", "sport", sport, "provider", client.Name(), "error", err)
			issues = append(issues, issuef("schedule", sport, client.Name(), "fetch failed: %v", err))
			continue
		}
		if len(games) == 0 {
			continue
		}
		return games, issues
	}
	return nil, issues
}

// matchOdds assigns each odds record to the schedule game it most
// confidently identifies. Records below the cutoff stay unmatched and
// are reported, never guessed into a game.
func (r *Reconciler) matchOdds(sport string, games []models.ProviderGame, odds []models.ProviderOdds) (map[string][]models.RawOddsQuote, []Issue) {
	matched := make(map[string][]models.RawOddsQuote)
	var issues []Issue

	for _, record := range odds {
		bestIdx, bestConf := -1, 0
		for i := range games {
			conf := r.matcher.Confidence(games[i].Identifiers, record.Identifiers)
			if conf > bestConf {
				bestIdx, bestConf = i, conf
			}
		}
		if bestIdx == -1 || bestConf < r.matcher.Cutoff() {
			issues = append(issues, issuef("match", sport, record.Provider,
				"no schedule game for %s vs %s (best confidence %d)",
				record.Identifiers.AwayTeam, record.Identifiers.HomeTeam, bestConf))
			continue
		}

		g := &games[bestIdx]
		g.Identifiers = g.Identifiers.Merged(record.Identifiers)
		matched[g.ID] = append(matched[g.ID], record.Quotes...)
	}
	return matched, issues
}

// upsertGame merges one schedule record, its matched quotes, and the
// previously stored row into the unified record and writes it back.
func (r *Reconciler) upsertGame(ctx context.Context, sport string, g models.ProviderGame, quotes []models.RawOddsQuote, oddsRes CascadeResult) error {
	canonicalID := models.CanonicalGameID(sport, g.Identifiers.HomeTeam, g.Identifiers.AwayTeam, g.Identifiers.StartTime)

	existing, err := r.store.GetGame(ctx, canonicalID)
	if err != nil && err != storage.ErrNotFound {
		return err
	}
	if existing != nil && existing.Status.Terminal() {
		// Finished games are history; nothing may rewrite them.
		return nil
	}

	game := MergeSchedule(existing, g)

	fresh := r.freshQuotes(quotes)
	if len(fresh) > 0 {
		consensus := ComputeConsensus(fresh)
		MergeOdds(game, BuildGameOdds(oddsRes.Provider, fresh), &consensus, ComputeBestOdds(fresh))

		game.SourceInfo = models.SourceInfo{
			Primary:      oddsRes.Provider,
			FallbackUsed: oddsRes.FallbackUsed,
			Confidence:   confidence(oddsRes.Attempted, true),
		}
		if oddsRes.FallbackUsed {
			game.SourceInfo.Backup = oddsRes.Provider
		}
	} else if game.SourceInfo.Primary == "" {
		// No odds this cycle and none stored: schedule-only record.
		game.SourceInfo.Confidence = confidence(0, false)
	}

	if r.quoteLog != nil && len(fresh) > 0 {
		if err := r.quoteLog.AppendQuotes(ctx, canonicalID, fresh); err != nil {
			slog.Warn("Sync: quote log append failed", "game", canonicalID, "error", err)
		}
	}

	return r.store.UpsertGame(ctx, game)
}

// freshQuotes drops quotes older than the staleness window. Undated
// quotes pass: some providers do not timestamp their payloads.
func (r *Reconciler) freshQuotes(quotes []models.RawOddsQuote) []models.RawOddsQuote {
	cutoff := r.now().Add(-r.staleness)
	var out []models.RawOddsQuote
	for _, q := range quotes {
		if q.ObservedAt.IsZero() || !q.ObservedAt.Before(cutoff) {
			out = append(out, q)
		}
	}
	return out
}

// confidence scores the record's provenance 0-100.
func confidence(skipped int, hasOdds bool) int {
	if !hasOdds {
		return confScheduleBase
	}
	oddsPart := confOddsFull - skipped*confOddsPenalty
	if oddsPart < confOddsMinimum {
		oddsPart = confOddsMinimum
	}
	return confScheduleBase + oddsPart
}

// RefreshGame re-fetches odds for one stored game through the first
// provider that supports per-event quotes, without spending a
// full-sport call. Used by the manual refresh endpoint.
func (r *Reconciler) RefreshGame(ctx context.Context, id string) (*models.UnifiedGame, error) {
	game, err := r.store.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}

	for _, client := range r.cascade.clients {
		eventClient, ok := client.(provider.EventOddsClient)
		if !ok || !eventClient.Enabled() {
			continue
		}
		eventID, ok := game.ProviderIDs[client.Name()]
		if !ok || eventID == "" {
			continue
		}
		if r.quotas.ForProvider(client.Name()).Exhausted() {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, r.callTimeout)
		record, err := eventClient.FetchEventOdds(callCtx, game.Sport, eventID)
		cancel()
		if err != nil {
			slog.Warn("Refresh: event odds fetch failed", "game", game.CanonicalID, "provider", client.Name(), "error", err)
			continue
		}
		if record == nil || len(record.Quotes) == 0 {
			continue
		}

		fresh := r.freshQuotes(record.Quotes)
		if len(fresh) == 0 {
			continue
		}
		consensus := ComputeConsensus(fresh)
		MergeOdds(game, BuildGameOdds(client.Name(), fresh), &consensus, ComputeBestOdds(fresh))

		if r.quoteLog != nil {
			if err := r.quoteLog.AppendQuotes(ctx, game.CanonicalID, fresh); err != nil {
				slog.Warn("Refresh: quote log append failed", "game", game.CanonicalID, "error", err)
			}
		}
		if err := r.store.UpsertGame(ctx, game); err != nil {
			return nil, err
		}
		return game, nil
	}

	return nil, fmt.Errorf("no event odds source available for %s", game.CanonicalID)
}

func (r *Reconciler) alert(key, message string) {
	if r.notifier != nil {
		r.notifier.Alert(key, message)
	}
}

func (r *Reconciler) alertOnQuota() {
	for _, u := range r.quotas.Snapshot() {
		if u.Exhausted {
			r.alert("quota:"+u.Provider, fmt.Sprintf("provider %s quota exhausted", u.Provider))
		}
	}
}
