package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/linkshield/linkshield-go/internal/db"
)

// HistoryHandler serves scan history and dashboard aggregates.
type HistoryHandler struct {
	db     *db.DB
	logger *slog.Logger
}

// NewHistoryHandler creates a HistoryHandler.
func NewHistoryHandler(database *db.DB, logger *slog.Logger) *HistoryHandler {
	return &HistoryHandler{db: database, logger: logger}
}

// GetHistory handles GET /api/history?limit=N.
func (hh *HistoryHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	scans, err := hh.db.GetRecentScans(r.Context(), limit)
	if err != nil {
		hh.logger.Error("fetch history failed", "err", err)
		jsonError(w, "failed to fetch history", http.StatusInternalServerError)
		return
	}
	if scans == nil {
		scans = []*db.Scan{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(scans)
}

// GetStats handles GET /api/stats.
func (hh *HistoryHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := hh.db.GetStats(r.Context())
	if err != nil {
		hh.logger.Error("fetch stats failed", "err", err)
		jsonError(w, "failed to fetch stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}

// GetConfig handles GET /api/config — public deployment info for the UI.
func GetConfig(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"base_url": os.Getenv("LINKSHIELD_BASE_URL"),
	})
}
