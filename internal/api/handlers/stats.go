package handlers

import (
	"net/http"

	"scamp/internal/domain/services"
	"scamp/pkg/logger"
)

// StatsHandler serves service counters.
type StatsHandler struct {
	stats  *services.Stats
	logger *logger.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats *services.Stats, log *logger.Logger) *StatsHandler {
	return &StatsHandler{
		stats:  stats,
		logger: log.WithComponent("stats-handler"),
	}
}

// Get handles GET /api/v1/stats.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.stats.View())
}
