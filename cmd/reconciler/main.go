package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	pkgconfig "github.com/Rut304/matchups/internal/pkg/config"
	"github.com/Rut304/matchups/internal/pkg/health"
	"github.com/Rut304/matchups/internal/pkg/logging"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/pkg/storage"
	"github.com/Rut304/matchups/internal/provider"
	"github.com/Rut304/matchups/internal/provider/espn"
	"github.com/Rut304/matchups/internal/provider/oddsapi"
	"github.com/Rut304/matchups/internal/provider/sportsdataio"
	"github.com/Rut304/matchups/internal/reconciler"
)

const defaultConfigPath = "configs/production.yaml"

type config struct {
	configPath string
	runFor     time.Duration
	once       bool
	sports     string // override sync.sports, comma-separated
}

func main() {
	if err := run(); err != nil {
		slog.Error("Reconciler failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	slog.Info("Starting reconciler...")

	// .env is optional; environment and config file still apply.
	_ = godotenv.Load()

	cfg := parseFlags()
	slog.Info("Loading config", "path", cfg.configPath)

	appConfig, err := pkgconfig.Load(cfg.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if _, err := logging.SetupLogger(&appConfig.Logging, "reconciler"); err != nil {
		slog.Warn("Failed to setup logging, continuing with default logger", "error", err)
	}

	if cfg.sports != "" {
		appConfig.Sync.Sports = splitSports(cfg.sports)
	}
	if len(appConfig.Sync.Sports) == 0 {
		return fmt.Errorf("no sports configured (sync.sports)")
	}

	ctx, cancel := createContext(cfg.runFor)
	defer cancel()
	setupSignalHandler(ctx, cancel)

	registry := quota.NewRegistry()

	store, quoteLog, err := buildStorage(appConfig)
	if err != nil {
		return err
	}
	defer store.Close()

	aliases, err := loadAliases(appConfig)
	if err != nil {
		return err
	}

	scheduleClients, oddsClients := buildProviders(appConfig, registry)
	oddsClients = wrapWithCache(ctx, appConfig, oddsClients)

	rec := reconciler.New(reconciler.Options{
		ScheduleClients: scheduleClients,
		Cascade:         reconciler.NewCascade(oddsClients, registry, appConfig.Sync.ProviderTimeout),
		Matcher:         reconciler.NewMatcher(appConfig.Sync.MatchCutoff, appConfig.Sync.TimeTolerance, aliases),
		Store:           store,
		QuoteLog:        quoteLog,
		Quotas:          registry,
		Notifier:        buildNotifier(appConfig),
		Sports:          appConfig.Sync.Sports,
		StalenessWindow: appConfig.Sync.StalenessWindow,
		CallTimeout:     appConfig.Sync.ProviderTimeout,
	})

	if cfg.once {
		rec.SyncAll(ctx)
		slog.Info("Single sync cycle complete")
		return nil
	}

	if appConfig.Service.Port > 0 {
		server := health.NewServer(store, quoteLog, registry, rec)
		health.Run(ctx, health.AddrFor(appConfig.Service.Port), server, appConfig.Service.ReadHeaderTimeout)
	}

	runSyncLoop(ctx, rec, appConfig.Sync.Interval)

	slog.Info("Reconciler stopped gracefully")
	return nil
}

func parseFlags() config {
	var cfg config

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&cfg.configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.DurationVar(&cfg.runFor, "run-for", 0, "Auto-stop after duration (e.g. 10s, 1m). 0 = run until SIGINT/SIGTERM")
	flag.BoolVar(&cfg.once, "once", false, "Run a single sync cycle and exit")
	flag.StringVar(&cfg.sports, "sports", "", "Override sync.sports: comma-separated (e.g. 'nfl,nba'). Empty = use config")
	flag.Parse()
	return cfg
}

func splitSports(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.ToLower(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// buildStorage picks Postgres when a DSN is configured, otherwise the
// in-memory store. The quote log rides on the same backend.
func buildStorage(cfg *pkgconfig.Config) (storage.GameStore, storage.QuoteLog, error) {
	if cfg.Postgres.DSN != "" {
		pg, err := storage.NewPostgresStore(&cfg.Postgres)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		return pg, pg, nil
	}
	slog.Warn("No postgres DSN configured, using in-memory store")
	mem := storage.NewMemoryStore()
	return mem, mem, nil
}

func loadAliases(cfg *pkgconfig.Config) (*reconciler.AliasTable, error) {
	if cfg.Aliases.Path == "" {
		return reconciler.DefaultAliasTable(), nil
	}
	table, err := reconciler.LoadAliasTable(cfg.Aliases.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to load alias table: %w", err)
	}
	slog.Info("Alias table loaded", "path", cfg.Aliases.Path, "version", table.Version)
	return table, nil
}

// buildProviders instantiates every known client and orders the odds
// cascade by the configured priority. Unknown names in the priority
// list are ignored with a warning.
func buildProviders(cfg *pkgconfig.Config, registry *quota.Registry) ([]provider.ScheduleClient, []provider.OddsClient) {
	timeout := cfg.Sync.ProviderTimeout
	espnClient := espn.NewClient(&cfg.Providers.ESPN, timeout, registry.ForProvider(espn.Name))
	oddsAPIClient := oddsapi.NewClient(&cfg.Providers.OddsAPI, timeout, registry.ForProvider(oddsapi.Name))
	sdioClient := sportsdataio.NewClient(&cfg.Providers.SportsDataIO, timeout, registry.ForProvider(sportsdataio.Name))

	oddsByName := map[string]provider.OddsClient{
		espn.Name:         espnClient,
		oddsapi.Name:      oddsAPIClient,
		sportsdataio.Name: sdioClient,
	}

	var oddsClients []provider.OddsClient
	for _, name := range cfg.Providers.Priority {
		client, ok := oddsByName[name]
		if !ok {
			slog.Warn("Unknown provider in priority list, skipping", "provider", name)
			continue
		}
		oddsClients = append(oddsClients, client)
	}

	// Schedule comes from the free ESPN scoreboard.
	scheduleClients := []provider.ScheduleClient{espnClient}
	return scheduleClients, oddsClients
}

// wrapWithCache decorates odds clients with the Redis quote cache when
// one is configured. Cache failure at startup is not fatal.
func wrapWithCache(ctx context.Context, cfg *pkgconfig.Config, clients []provider.OddsClient) []provider.OddsClient {
	if cfg.Redis.Addr == "" {
		return clients
	}
	cache, err := storage.NewQuoteCache(&cfg.Redis, cfg.Sync.StalenessWindow)
	if err != nil {
		slog.Warn("Quote cache unavailable, fetching live every cycle", "error", err)
		return clients
	}
	go func() {
		<-ctx.Done()
		_ = cache.Close()
	}()

	wrapped := make([]provider.OddsClient, len(clients))
	for i, c := range clients {
		wrapped[i] = storage.NewCachedOddsClient(c, cache)
	}
	slog.Info("Quote cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Sync.StalenessWindow)
	return wrapped
}

func buildNotifier(cfg *pkgconfig.Config) reconciler.Notifier {
	if cfg.Notifier.TelegramBotToken == "" || cfg.Notifier.TelegramChatID == 0 {
		return nil
	}
	cooldown := time.Duration(cfg.Notifier.CooldownMinutes) * time.Minute
	n := reconciler.NewTelegramNotifier(cfg.Notifier.TelegramBotToken, cfg.Notifier.TelegramChatID, cooldown)
	if n == nil {
		return nil
	}
	return n
}

func runSyncLoop(ctx context.Context, rec *reconciler.Reconciler, interval time.Duration) {
	slog.Info("Starting periodic sync", "interval", interval)

	// First cycle immediately, then on the ticker.
	rec.SyncAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rec.SyncAll(ctx)
		}
	}
}

func createContext(runFor time.Duration) (context.Context, context.CancelFunc) {
	if runFor > 0 {
		return context.WithTimeout(context.Background(), runFor)
	}
	return context.WithCancel(context.Background())
}

func setupSignalHandler(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("Received shutdown signal, stopping reconciler...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
			signal.Stop(sigChan)
			close(sigChan)
		}
	}()
}
