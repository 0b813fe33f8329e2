package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"scamp/internal/domain/patterns"
	"scamp/internal/domain/services"
	"scamp/internal/infrastructure/cache"
	"scamp/pkg/logger"
)

// Handlers holds all API handlers.
type Handlers struct {
	Health   *HealthHandler
	Analyze  *AnalyzeHandler
	Feedback *FeedbackHandler
	Patterns *PatternsHandler
	Stats    *StatsHandler
}

// Dependencies holds dependencies for handlers.
type Dependencies struct {
	Analyzer   *services.Analyzer
	Adaptation *services.Adaptation
	Store      *patterns.Store
	Stats      *services.Stats
	Cache      *cache.RedisCache
	DBPing     func(ctx context.Context) error // nil when running without Postgres
	Logger     *logger.Logger
	Version    string
}

// NewHandlers creates all handlers.
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(deps.Cache, deps.DBPing, deps.Version, deps.Logger),
		Analyze:  NewAnalyzeHandler(deps.Analyzer, deps.Logger),
		Feedback: NewFeedbackHandler(deps.Adaptation, deps.Logger),
		Patterns: NewPatternsHandler(deps.Store, deps.Logger),
		Stats:    NewStatsHandler(deps.Stats, deps.Logger),
	}
}

// errorResponse is the uniform error body.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// respondServiceError maps the error taxonomy onto HTTP statuses.
func respondServiceError(w http.ResponseWriter, err error) {
	kind := services.KindOf(err)
	status := http.StatusInternalServerError
	switch kind {
	case services.ErrInvalidInput:
		status = http.StatusBadRequest
	case services.ErrTimeout:
		status = http.StatusRequestTimeout
	case services.ErrAdaptationConflict:
		status = http.StatusConflict
	case services.ErrExplanationUnavailable, services.ErrExtractionFailure:
		status = http.StatusInternalServerError
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	respondJSON(w, status, errorResponse{Error: msg, Kind: string(kind)})
}
