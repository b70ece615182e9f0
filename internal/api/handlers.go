package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/alexk/chessinsight/internal/db"
	"github.com/alexk/chessinsight/internal/errors"
	"github.com/alexk/chessinsight/internal/logger"
	"github.com/alexk/chessinsight/internal/models"
	"github.com/alexk/chessinsight/internal/services"
)

type Server struct {
	DB           *db.DB
	BatchService services.BatchService
	StatsService services.StatsService
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

type createBatchRequest struct {
	Username string `json:"username"`
	Year     int    `json:"year"`
	Result   string `json:"result"` // optional: win, draw or loss
	Depth    int    `json:"depth"`  // optional search depth override
}

func (s *Server) handleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req createBatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handleError(w, r, errors.NewBadRequestError("invalid JSON body"))
		return
	}

	batch, err := s.BatchService.Start(r.Context(), req.Username, req.Year, req.Result, req.Depth)
	if err != nil {
		handleError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusAccepted, batch)
}

func (s *Server) handleGetBatch(w http.ResponseWriter, r *http.Request) {
	batch, err := s.BatchService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, batch)
}

func (s *Server) handleBatchReports(w http.ResponseWriter, r *http.Request) {
	reports, err := s.BatchService.Reports(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"reports": reports,
		"count":   len(reports),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	filter := gameFilterFromQuery(r)
	if filter.Username == "" {
		handleError(w, r, errors.NewValidationError("username", "query parameter is required"))
		return
	}

	stats, err := s.StatsService.GetStats(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, stats)
}

func (s *Server) handleGames(w http.ResponseWriter, r *http.Request) {
	filter := gameFilterFromQuery(r)
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}

	games, total, err := s.StatsService.ListGames(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"games":  games,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

func (s *Server) handlePurgeCache(w http.ResponseWriter, r *http.Request) {
	var olderThan time.Duration
	if v := r.URL.Query().Get("older_than"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			handleError(w, r, errors.NewValidationError("older_than", "must be a positive duration like 720h"))
			return
		}
		olderThan = d
	}

	removed, err := s.StatsService.PurgeCache(r.Context(), olderThan)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"removed": removed})
}

// handleHealth is a liveness probe; it only says the process is up.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleReady checks the database before declaring the service ready.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.DB.PingContext(r.Context()); err != nil {
		logger.FromContext(r.Context()).Warn("readiness check failed: %v", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("Database unavailable"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("Ready"))
}

func gameFilterFromQuery(r *http.Request) models.GameFilter {
	q := r.URL.Query()
	filter := models.GameFilter{
		Username: q.Get("username"),
		Result:   q.Get("result"),
		PlayedAs: models.Color(q.Get("played_as")),
	}
	if v := q.Get("year"); v != "" {
		filter.Year, _ = strconv.Atoi(v)
	}
	if v := q.Get("limit"); v != "" {
		filter.Limit, _ = strconv.Atoi(v)
	}
	if v := q.Get("offset"); v != "" {
		filter.Offset, _ = strconv.Atoi(v)
	}
	return filter
}
