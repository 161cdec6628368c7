package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/lib/pq"

	"github.com/Rut304/matchups/internal/pkg/config"
	"github.com/Rut304/matchups/internal/pkg/models"
)

var (
	_ GameStore = (*PostgresStore)(nil)
	_ QuoteLog  = (*PostgresStore)(nil)
)

// PostgresStore persists unified games and the append-only quote log.
// Filterable columns are extracted; the full record rides along as
// JSONB so the schema does not chase every optional field.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(cfg *config.PostgresConfig) (*PostgresStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL game store initialized")
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS games (
		canonical_id VARCHAR(500) PRIMARY KEY,
		sport VARCHAR(50) NOT NULL,
		status VARCHAR(50) NOT NULL,
		start_time TIMESTAMPTZ NOT NULL,
		home_team VARCHAR(200) NOT NULL,
		away_team VARCHAR(200) NOT NULL,
		alias_ids TEXT[] NOT NULL DEFAULT '{}',
		payload JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_games_sport ON games(sport);
	CREATE INDEX IF NOT EXISTS idx_games_status ON games(status);
	CREATE INDEX IF NOT EXISTS idx_games_start_time ON games(start_time);
	CREATE INDEX IF NOT EXISTS idx_games_alias_ids ON games USING GIN(alias_ids);

	CREATE TABLE IF NOT EXISTS raw_quotes (
		id BIGSERIAL PRIMARY KEY,
		canonical_id VARCHAR(500) NOT NULL,
		provider VARCHAR(100) NOT NULL,
		book VARCHAR(100) NOT NULL,
		market VARCHAR(50) NOT NULL,
		line DECIMAL(10, 2),
		prices JSONB NOT NULL,
		observed_at TIMESTAMPTZ NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_raw_quotes_canonical_id ON raw_quotes(canonical_id, id);
	`

	_, err := s.db.ExecContext(ctx, query)
	return err
}

func (s *PostgresStore) UpsertGame(ctx context.Context, game *models.UnifiedGame) error {
	payload, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("failed to marshal game %s: %w", game.CanonicalID, err)
	}

	query := `
	INSERT INTO games (canonical_id, sport, status, start_time, home_team, away_team, alias_ids, payload, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (canonical_id) DO UPDATE SET
		sport = EXCLUDED.sport,
		status = EXCLUDED.status,
		start_time = EXCLUDED.start_time,
		home_team = EXCLUDED.home_team,
		away_team = EXCLUDED.away_team,
		alias_ids = EXCLUDED.alias_ids,
		payload = EXCLUDED.payload,
		updated_at = EXCLUDED.updated_at
	`

	_, err = s.db.ExecContext(ctx, query,
		game.CanonicalID,
		game.Sport,
		string(game.Status),
		game.StartTime,
		game.Home.Name,
		game.Away.Name,
		pq.Array(game.AliasIDs),
		payload,
		game.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert game %s: %w", game.CanonicalID, err)
	}
	return nil
}

func (s *PostgresStore) GetGame(ctx context.Context, id string) (*models.UnifiedGame, error) {
	query := `
	SELECT payload FROM games
	WHERE canonical_id = $1 OR $1 = ANY(alias_ids)
	LIMIT 1
	`

	var payload []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game %s: %w", id, err)
	}

	var game models.UnifiedGame
	if err := json.Unmarshal(payload, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game %s: %w", id, err)
	}
	return &game, nil
}

func (s *PostgresStore) QueryGames(ctx context.Context, filter QueryFilter) ([]models.UnifiedGame, error) {
	query := `SELECT payload FROM games WHERE 1=1`
	var args []interface{}

	if filter.Sport != "" {
		args = append(args, filter.Sport)
		query += fmt.Sprintf(" AND sport = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Date != nil {
		day := filter.Date.UTC().Truncate(24 * time.Hour)
		args = append(args, day)
		query += fmt.Sprintf(" AND start_time >= $%d", len(args))
		args = append(args, day.AddDate(0, 0, 1))
		query += fmt.Sprintf(" AND start_time < $%d", len(args))
	}

	query += " ORDER BY start_time, canonical_id"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query games: %w", err)
	}
	defer rows.Close()

	var games []models.UnifiedGame
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("failed to scan game row: %w", err)
		}
		var game models.UnifiedGame
		if err := json.Unmarshal(payload, &game); err != nil {
			return nil, fmt.Errorf("failed to unmarshal game row: %w", err)
		}
		games = append(games, game)
	}
	return games, rows.Err()
}

// AppendQuotes inserts every quote as a new row. Nothing is updated or
// deleted: the table is the full observation history.
func (s *PostgresStore) AppendQuotes(ctx context.Context, canonicalID string, quotes []models.RawOddsQuote) error {
	if len(quotes) == 0 {
		return nil
	}

	query := `
	INSERT INTO raw_quotes (canonical_id, provider, book, market, line, prices, observed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, q := range quotes {
		prices, err := json.Marshal(q.Prices)
		if err != nil {
			return fmt.Errorf("failed to marshal quote prices: %w", err)
		}
		var line sql.NullFloat64
		if q.Line != nil {
			line = sql.NullFloat64{Float64: *q.Line, Valid: true}
		}
		if _, err := s.db.ExecContext(ctx, query,
			canonicalID, q.Provider, q.Book, q.Market, line, prices, q.ObservedAt,
		); err != nil {
			return fmt.Errorf("failed to append quote for %s: %w", canonicalID, err)
		}
	}
	return nil
}

func (s *PostgresStore) QuoteHistory(ctx context.Context, canonicalID string, limit int) ([]models.RawOddsQuote, error) {
	query := `
	SELECT provider, book, market, line, prices, observed_at
	FROM (
		SELECT * FROM raw_quotes WHERE canonical_id = $1 ORDER BY id DESC LIMIT $2
	) recent
	ORDER BY id
	`
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.QueryContext(ctx, query, canonicalID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query quote history: %w", err)
	}
	defer rows.Close()

	var quotes []models.RawOddsQuote
	for rows.Next() {
		var q models.RawOddsQuote
		var line sql.NullFloat64
		var prices []byte
		if err := rows.Scan(&q.Provider, &q.Book, &q.Market, &line, &prices, &q.ObservedAt); err != nil {
			return nil, fmt.Errorf("failed to scan quote row: %w", err)
		}
		if line.Valid {
			v := line.Float64
			q.Line = &v
		}
		if err := json.Unmarshal(prices, &q.Prices); err != nil {
			return nil, fmt.Errorf("failed to unmarshal quote prices: %w", err)
		}
		quotes = append(quotes, q)
	}
	return quotes, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
