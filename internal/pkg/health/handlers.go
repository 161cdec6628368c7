package health

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Rut304/matchups/internal/pkg/models"
	"github.com/Rut304/matchups/internal/pkg/storage"
)

func (s *Server) handlePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("pong"))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleGames lists games. Filters: ?sport=nfl&status=scheduled&date=2026-01-25&limit=50
func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	filter := storage.QueryFilter{
		Sport:  r.URL.Query().Get("sport"),
		Status: models.GameStatus(r.URL.Query().Get("status")),
	}
	if d := r.URL.Query().Get("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &day
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		limit, err := strconv.Atoi(l)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		filter.Limit = limit
	}

	games, err := s.store.QueryGames(r.Context(), filter)
	if err != nil {
		slog.Error("handleGames: query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if games == nil {
		games = []models.UnifiedGame{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"games": games,
		"count": len(games),
	})
}

func (s *Server) handleGame(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	game, err := s.store.GetGame(r.Context(), id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		slog.Error("handleGame: lookup failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Server) handleQuoteHistory(w http.ResponseWriter, r *http.Request) {
	if s.quotes == nil {
		writeError(w, http.StatusNotFound, "quote history not enabled")
		return
	}
	id := chi.URLParam(r, "id")

	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	// Resolve aliases so history follows the surviving record.
	game, err := s.store.GetGame(r.Context(), id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "lookup failed")
		return
	}

	history, err := s.quotes.QuoteHistory(r.Context(), game.CanonicalID, limit)
	if err != nil {
		slog.Error("handleQuoteHistory: query failed", "id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "query failed")
		return
	}
	if history == nil {
		history = []models.RawOddsQuote{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"canonical_id": game.CanonicalID,
		"quotes":       history,
		"count":        len(history),
	})
}

// handleProviders exposes per-provider quota usage for operators.
func (s *Server) handleProviders(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"providers": s.quotas.Snapshot(),
	})
}

// handleSync runs one full cycle synchronously and returns its summary.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "sync not available")
		return
	}
	results := s.syncer.SyncAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "refresh not available")
		return
	}
	id := chi.URLParam(r, "id")
	game, err := s.syncer.RefreshGame(r.Context(), id)
	if err == storage.ErrNotFound {
		writeError(w, http.StatusNotFound, "game not found")
		return
	}
	if err != nil {
		slog.Warn("handleRefresh: refresh failed", "id", id, "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
