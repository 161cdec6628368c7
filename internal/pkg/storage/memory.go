package storage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
)

// MemoryStore is the in-process GameStore used by tests and by runs
// without a configured database. Same alias-resolution semantics as the
// Postgres store.
type MemoryStore struct {
	mu     sync.RWMutex
	games  map[string]*models.UnifiedGame
	quotes map[string][]models.RawOddsQuote
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		games:  make(map[string]*models.UnifiedGame),
		quotes: make(map[string][]models.RawOddsQuote),
	}
}

func (m *MemoryStore) UpsertGame(ctx context.Context, game *models.UnifiedGame) error {
	clone, err := cloneGame(game)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.games[game.CanonicalID] = clone
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) GetGame(ctx context.Context, id string) (*models.UnifiedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if g, ok := m.games[id]; ok {
		return cloneGame(g)
	}
	for _, g := range m.games {
		for _, alias := range g.AliasIDs {
			if alias == id {
				return cloneGame(g)
			}
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) QueryGames(ctx context.Context, filter QueryFilter) ([]models.UnifiedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []models.UnifiedGame
	for _, g := range m.games {
		if filter.Sport != "" && g.Sport != filter.Sport {
			continue
		}
		if filter.Status != "" && g.Status != filter.Status {
			continue
		}
		if filter.Date != nil {
			day := filter.Date.UTC().Truncate(24 * time.Hour)
			start := g.StartTime.UTC()
			if start.Before(day) || !start.Before(day.AddDate(0, 0, 1)) {
				continue
			}
		}
		clone, err := cloneGame(g)
		if err != nil {
			return nil, err
		}
		out = append(out, *clone)
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.Before(out[j].StartTime)
		}
		return out[i].CanonicalID < out[j].CanonicalID
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (m *MemoryStore) AppendQuotes(ctx context.Context, canonicalID string, quotes []models.RawOddsQuote) error {
	m.mu.Lock()
	m.quotes[canonicalID] = append(m.quotes[canonicalID], quotes...)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) QuoteHistory(ctx context.Context, canonicalID string, limit int) ([]models.RawOddsQuote, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.quotes[canonicalID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	out := make([]models.RawOddsQuote, len(history))
	copy(out, history)
	return out, nil
}

func (m *MemoryStore) Close() error { return nil }

// cloneGame deep-copies through JSON so callers can never mutate the
// stored record through shared maps or pointers.
func cloneGame(g *models.UnifiedGame) (*models.UnifiedGame, error) {
	data, err := json.Marshal(g)
	if err != nil {
		return nil, err
	}
	var out models.UnifiedGame
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
