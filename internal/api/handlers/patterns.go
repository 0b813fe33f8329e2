package handlers

import (
	"net/http"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
	"scamp/pkg/logger"
)

// PatternsHandler exposes the active taxonomy for client pre-filtering.
type PatternsHandler struct {
	store  *patterns.Store
	logger *logger.Logger
}

// NewPatternsHandler creates a new patterns handler.
func NewPatternsHandler(store *patterns.Store, log *logger.Logger) *PatternsHandler {
	return &PatternsHandler{
		store:  store,
		logger: log.WithComponent("patterns-handler"),
	}
}

// PatternView is one pattern with its locale-resolved effective weight.
type PatternView struct {
	ID       string            `json:"id"`
	Type     models.SignalType `json:"type"`
	Name     string            `json:"name"`
	Kind     string            `json:"kind"`
	Keywords []string          `json:"keywords,omitempty"`
	Regexes  []string          `json:"regexes,omitempty"`
	Weight   float64           `json:"weight"`
	Language string            `json:"language,omitempty"`
	Region   string            `json:"region,omitempty"`
}

// PatternsResponse is the taxonomy export.
type PatternsResponse struct {
	Version  int64         `json:"version"`
	Patterns []PatternView `json:"patterns"`
}

// List handles GET /api/v1/patterns. Optional region/language query params
// resolve the effective weights for that locale.
func (h *PatternsHandler) List(w http.ResponseWriter, r *http.Request) {
	loc := models.Locale{
		Region:   r.URL.Query().Get("region"),
		Language: r.URL.Query().Get("language"),
	}

	snap := h.store.Snapshot()
	views := make([]PatternView, 0, len(snap.Patterns))
	for _, p := range snap.Patterns {
		views = append(views, PatternView{
			ID:       p.ID,
			Type:     p.Type,
			Name:     p.Name,
			Kind:     string(p.Kind),
			Keywords: p.Keywords,
			Regexes:  p.Regexes,
			Weight:   p.Weight(loc),
			Language: p.Language,
			Region:   p.Region,
		})
	}

	respondJSON(w, http.StatusOK, PatternsResponse{
		Version:  snap.Version,
		Patterns: views,
	})
}
