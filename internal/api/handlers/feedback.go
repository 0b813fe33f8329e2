package handlers

import (
	"encoding/json"
	"net/http"

	"scamp/internal/domain/models"
	"scamp/internal/domain/services"
	"scamp/pkg/logger"
)

// FeedbackHandler handles user feedback about past analyses.
type FeedbackHandler struct {
	adaptation *services.Adaptation
	logger     *logger.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(adaptation *services.Adaptation, log *logger.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		adaptation: adaptation,
		logger:     log.WithComponent("feedback-handler"),
	}
}

// FeedbackRequest is the request body for feedback submission.
type FeedbackRequest struct {
	Message    string `json:"message"`
	IsScam     bool   `json:"is_scam"`
	Region     string `json:"region,omitempty"`
	Language   string `json:"language,omitempty"`
	AnalysisID string `json:"analysis_id"`
}

// FeedbackResponse reports what happened to a submission.
type FeedbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Submit handles POST /api/v1/feedback.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: string(services.ErrInvalidInput)})
		return
	}

	outcome, err := h.adaptation.Ingest(r.Context(), services.Feedback{
		AnalysisID: req.AnalysisID,
		Message:    req.Message,
		IsScam:     req.IsScam,
		Region:     req.Region,
		Language:   req.Language,
	})
	if err != nil {
		if services.KindOf(err) == "" {
			h.logger.Error().Err(err).Msg("feedback ingestion failed")
		}
		respondServiceError(w, err)
		return
	}

	msg := "feedback recorded"
	if outcome == models.FeedbackNoop {
		msg = "feedback already recorded"
	}
	respondJSON(w, http.StatusOK, FeedbackResponse{Success: true, Message: msg})
}
