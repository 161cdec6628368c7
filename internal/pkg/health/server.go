// Package health serves the read API and operational endpoints: game
// queries, quota snapshots, and the manual sync trigger.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/quota"
	"github.com/Rut304/matchups/internal/pkg/storage"
	"github.com/Rut304/matchups/internal/reconciler"
)

// Syncer triggers a cycle on demand and a targeted per-game refresh.
// Implemented by the Reconciler; narrowed here so handlers are testable
// without one.
type Syncer interface {
	SyncAll(ctx context.Context) []reconciler.SyncResult
	RefreshGame(ctx context.Context, id string) (*models.UnifiedGame, error)
}

// Server wires the HTTP surface over the game store and quota registry.
type Server struct {
	store  storage.GameStore
	quotes storage.QuoteLog
	quotas *quota.Registry
	syncer Syncer
}

func NewServer(store storage.GameStore, quotes storage.QuoteLog, quotas *quota.Registry, syncer Syncer) *Server {
	return &Server{store: store, quotes: quotes, quotas: quotas, syncer: syncer}
}

// Router builds the chi router with CORS open for read endpoints.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/ping", s.handlePing)
	r.Get("/health", s.handleHealth)
	r.Get("/games", s.handleGames)
	r.Get("/games/{id}", s.handleGame)
	r.Get("/games/{id}/history", s.handleQuoteHistory)
	r.Get("/providers", s.handleProviders)
	r.Post("/sync", s.handleSync)
	r.Post("/games/{id}/refresh", s.handleRefresh)

	return r
}

// Run starts the server and shuts it down when ctx is cancelled.
// Mirrors the service convention: listen in the background, drain with
// a 5 second grace period.
func Run(ctx context.Context, addr string, server *Server, readHeaderTimeout time.Duration) {
	if readHeaderTimeout <= 0 {
		slog.Error("read_header_timeout must be specified in config")
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		slog.Info("API server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("API server error", "error", err)
		}
	}()
}

func AddrFor(port int) string {
	if port <= 0 {
		slog.Error("port must be greater than 0")
		os.Exit(1)
	}
	return fmt.Sprintf(":%d", port)
}
