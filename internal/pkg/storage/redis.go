package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rut304/matchups/internal/pkg/config"
	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/provider"
)

// QuoteCache holds recent provider odds responses in Redis so repeated
// cycles inside the staleness window reuse the cached payload instead of
// spending metered quota.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQuoteCache(cfg *config.RedisConfig, ttl time.Duration) (*QuoteCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &QuoteCache{client: client, ttl: ttl}, nil
}

func cacheKey(providerName, sport string) string {
	return fmt.Sprintf("quotes:%s:%s", providerName, sport)
}

// Get returns the cached response and whether one was present. Cache
// trouble is reported as a miss: the caller falls through to the live
// fetch.
func (c *QuoteCache) Get(ctx context.Context, providerName, sport string) ([]models.ProviderOdds, bool) {
	data, err := c.client.Get(ctx, cacheKey(providerName, sport)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		slog.Warn("QuoteCache: get failed", "provider", providerName, "sport", sport, "error", err)
		return nil, false
	}

	var odds []models.ProviderOdds
	if err := json.Unmarshal([]byte(data), &odds); err != nil {
		slog.Warn("QuoteCache: corrupt entry dropped", "provider", providerName, "sport", sport, "error", err)
		return nil, false
	}
	return odds, true
}

func (c *QuoteCache) Set(ctx context.Context, providerName, sport string, odds []models.ProviderOdds) {
	data, err := json.Marshal(odds)
	if err != nil {
		slog.Warn("QuoteCache: marshal failed", "provider", providerName, "sport", sport, "error", err)
		return
	}
	if err := c.client.Set(ctx, cacheKey(providerName, sport), data, c.ttl).Err(); err != nil {
		slog.Warn("QuoteCache: set failed", "provider", providerName, "sport", sport, "error", err)
	}
}

// Invalidate drops the cached response so the next fetch goes live.
// Used by the manual sync trigger.
func (c *QuoteCache) Invalidate(ctx context.Context, providerName, sport string) {
	if err := c.client.Del(ctx, cacheKey(providerName, sport)).Err(); err != nil {
		slog.Warn("QuoteCache: invalidate failed", "provider", providerName, "sport", sport, "error", err)
	}
}

func (c *QuoteCache) Close() error {
	return c.client.Close()
}

// CachedOddsClient wraps an odds provider with the quote cache. A cache
// hit costs no provider call and therefore no quota; only successful
// non-empty responses are cached, so failures are retried next cycle.
type CachedOddsClient struct {
	inner provider.OddsClient
	cache *QuoteCache
}

func NewCachedOddsClient(inner provider.OddsClient, cache *QuoteCache) *CachedOddsClient {
	return &CachedOddsClient{inner: inner, cache: cache}
}

func (c *CachedOddsClient) Name() string  { return c.inner.Name() }
func (c *CachedOddsClient) Enabled() bool { return c.inner.Enabled() }

func (c *CachedOddsClient) FetchOdds(ctx context.Context, sport string, window provider.TimeWindow) ([]models.ProviderOdds, error) {
	if odds, ok := c.cache.Get(ctx, c.inner.Name(), sport); ok {
		return odds, nil
	}

	odds, err := c.inner.FetchOdds(ctx, sport, window)
	if err != nil {
		return nil, err
	}
	if len(odds) > 0 {
		c.cache.Set(ctx, c.inner.Name(), sport, odds)
	}
	return odds, nil
}
