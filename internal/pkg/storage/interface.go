package storage

import (
	"context"
	"errors"
	"time"

	"github.com/Rut304/matchups/internal/pkg/models"
)

// ErrNotFound is returned when no game matches the requested ID.
var ErrNotFound = errors.New("storage: game not found")

// QueryFilter narrows a game listing. Zero fields mean "any".
type QueryFilter struct {
	Sport  string
	Status models.GameStatus
	// Date filters to games starting on this UTC calendar day.
	Date *time.Time
	Limit int
}

// GameStore persists unified game records.
//
// Lookups are alias-aware: a game fetched by an ID that was later
// superseded during dedupe still resolves to the surviving record.
type GameStore interface {
	// UpsertGame inserts or fully replaces the record for its canonical ID.
	UpsertGame(ctx context.Context, game *models.UnifiedGame) error

	// GetGame resolves id against canonical IDs first, then alias IDs.
	GetGame(ctx context.Context, id string) (*models.UnifiedGame, error)

	// QueryGames lists games matching the filter, ordered by start time.
	QueryGames(ctx context.Context, filter QueryFilter) ([]models.UnifiedGame, error)

	Close() error
}

// QuoteLog records every raw quote observed, append-only. Superseded
// quotes are never deleted; history queries read them back oldest first.
type QuoteLog interface {
	AppendQuotes(ctx context.Context, canonicalID string, quotes []models.RawOddsQuote) error
	QuoteHistory(ctx context.Context, canonicalID string, limit int) ([]models.RawOddsQuote, error)
}
