// Package provider defines the uniform fetch contract every external
// data source implements. Provider-specific response shapes never leak
// upstream: each client translates to the models types.
package provider

import (
	"context"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
)

// TimeWindow bounds a fetch to games starting within [From, To).
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// DayWindow returns the window covering the UTC day containing t plus
// the following day, which covers late-night local starts.
func DayWindow(t time.Time) TimeWindow {
	day := t.UTC().Truncate(24 * time.Hour)
	return TimeWindow{From: day, To: day.Add(48 * time.Hour)}
}

// Days lists the UTC days the window touches, for providers whose API
// is keyed by date. A zero window yields the current UTC day.
func (w TimeWindow) Days() []time.Time {
	if w.From.IsZero() {
		return []time.Time{time.Now().UTC().Truncate(24 * time.Hour)}
	}
	var days []time.Time
	for day := w.From.UTC().Truncate(24 * time.Hour); day.Before(w.To); day = day.Add(24 * time.Hour) {
		days = append(days, day)
	}
	return days
}

// Contains reports whether t falls inside the window. A zero window
// contains everything.
func (w TimeWindow) Contains(t time.Time) bool {
	if w.From.IsZero() && w.To.IsZero() {
		return true
	}
	return !t.Before(w.From) && t.Before(w.To)
}

// ScheduleClient fetches scheduled and live games for a sport.
type ScheduleClient interface {
	// Name returns the provider name used in provenance and logs.
	Name() string

	// Enabled reports whether the provider is configured. A missing
	// API key disables the provider; the cascade degrades gracefully.
	Enabled() bool

	// FetchGames returns provider-native game records translated to
	// the neutral model, or an explicit failure.
	FetchGames(ctx context.Context, sport string, window TimeWindow) ([]models.ProviderGame, error)
}

// OddsClient fetches current quotes for a sport.
type OddsClient interface {
	Name() string
	Enabled() bool

	// FetchOdds returns one record per game the provider quotes.
	// An empty slice with nil error means "provider has no odds yet"
	// and is a normal state, not a failure.
	FetchOdds(ctx context.Context, sport string, window TimeWindow) ([]models.ProviderOdds, error)
}

// EventOddsClient is implemented by providers that additionally expose
// a per-event quote fetch, used for targeted refresh of a stale game
// without spending a full-sport call.
type EventOddsClient interface {
	OddsClient

	FetchEventOdds(ctx context.Context, sport, eventID string) (*models.ProviderOdds, error)
}
