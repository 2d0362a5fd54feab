package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"govigil/domain/core"
)

const defaultListLimit = 50

// handleHealth reports server liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleListRuns returns runs ordered most recent first
func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	offset := queryInt(r, "offset", 0)

	runs, err := s.repo.ListRuns(r.Context(), limit, offset)
	if err != nil {
		s.logger.Error("Listing runs failed: %v", err)
		http.Error(w, "Failed to list runs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"runs":  runs,
		"count": len(runs),
	})
}

// handleGetRun returns a single run by ID
func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	rn, err := s.repo.GetRun(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.Error(w, "Run not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Loading run %s failed: %v", id, err)
		http.Error(w, "Failed to load run", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(rn)
}

// handleGetResults returns the per-sample results of a completed run
func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid run ID", http.StatusBadRequest)
		return
	}

	summary, err := s.repo.GetResults(r.Context(), id)
	if errors.Is(err, core.ErrNotFound) {
		http.Error(w, "Results not found", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Error("Loading results for %s failed: %v", id, err)
		http.Error(w, "Failed to load results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"run_id": id,
		"total":  summary.Len(),
		"wrong":  summary.WrongCount(),
		"rows":   summary.Rows,
	})
}

// queryInt parses an integer query parameter, falling back on bad input
func queryInt(r *http.Request, key string, fallback int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}
