package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"scamp/internal/domain/models"
	"scamp/internal/domain/services"
	"scamp/pkg/logger"
)

// AnalyzeHandler handles message analysis endpoints.
type AnalyzeHandler struct {
	analyzer *services.Analyzer
	logger   *logger.Logger
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(analyzer *services.Analyzer, log *logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{
		analyzer: analyzer,
		logger:   log.WithComponent("analyze-handler"),
	}
}

// AnalyzeRequest is the request body for message analysis.
type AnalyzeRequest struct {
	Text     string `json:"text"`
	UserID   string `json:"user_id,omitempty"`
	Platform string `json:"platform,omitempty"` // chrome, telegram, web
	Region   string `json:"region,omitempty"`
	Language string `json:"language,omitempty"`
	Modality string `json:"modality,omitempty"`
	Source   string `json:"source,omitempty"`
}

// Highlight is one located signal in the response, ranked by contribution.
type Highlight struct {
	Span  string `json:"span"`
	Type  string `json:"type"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Thresholds echoes the category band cutoffs so clients render the gauge
// without hardcoding them.
type Thresholds struct {
	Caution  int `json:"caution"`
	High     int `json:"high"`
	Critical int `json:"critical"`
}

// AnalyzeResponse is the wire form consumed by the extension and bot clients.
type AnalyzeResponse struct {
	AnalysisID     string      `json:"analysis_id"`
	Score          int         `json:"score"`
	Risk           string      `json:"risk"`
	Category       string      `json:"category"`
	Highlights     []Highlight `json:"highlights"`
	Explanation    string      `json:"explanation,omitempty"`
	Thresholds     Thresholds  `json:"thresholds"`
	PatternVersion int64       `json:"pattern_version"`
}

// Analyze handles POST /api/v1/analyze. The legacy extension client posts a
// form; everything newer posts JSON.
func (h *AnalyzeHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	req, err := decodeAnalyzeRequest(r)
	if err != nil {
		h.logger.Debug().Err(err).Msg("invalid request body")
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body", Kind: string(services.ErrInvalidInput)})
		return
	}

	msg := models.Message{
		Text:        req.Text,
		Modality:    models.ParseModality(req.Modality),
		Locale:      models.Locale{Region: req.Region, Language: req.Language},
		Source:      sourceForPlatform(req.Platform, req.Source),
		SubmittedBy: req.UserID,
	}

	result, err := h.analyzer.Analyze(r.Context(), msg)
	if err != nil {
		if services.KindOf(err) == "" {
			h.logger.Error().Err(err).Msg("analysis failed")
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, toAnalyzeResponse(result))
}

// Lookup handles GET /api/v1/analysis/{id}, returning the stored trace of a
// past analysis.
func (h *AnalyzeHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	rec, err := h.analyzer.Lookup(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rec)
}

func decodeAnalyzeRequest(r *http.Request) (AnalyzeRequest, error) {
	var req AnalyzeRequest
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseForm(); err != nil {
			return req, err
		}
		req.Text = r.PostFormValue("text")
		req.UserID = r.PostFormValue("user_id")
		req.Platform = r.PostFormValue("platform")
		req.Region = r.PostFormValue("region")
		req.Language = r.PostFormValue("language")
		return req, nil
	}
	err := json.NewDecoder(r.Body).Decode(&req)
	return req, err
}

func sourceForPlatform(platform, source string) models.MessageSource {
	if source != "" {
		return models.ParseMessageSource(source)
	}
	switch platform {
	case "chrome":
		return models.SourceExtensionSelection
	case "telegram":
		return models.SourceChatForward
	default:
		return models.SourcePaste
	}
}

func toAnalyzeResponse(result *models.AnalysisResult) AnalyzeResponse {
	highlights := make([]Highlight, 0, len(result.Signals))
	for _, sig := range result.Signals {
		highlights = append(highlights, Highlight{
			Span:  sig.Text,
			Type:  string(sig.Type),
			Start: sig.Span.Start,
			End:   sig.Span.End,
		})
	}
	return AnalyzeResponse{
		AnalysisID:     result.AnalysisID,
		Score:          result.Score,
		Risk:           result.Category.Risk(),
		Category:       string(result.Category),
		Highlights:     highlights,
		Explanation:    result.Explanation,
		Thresholds:     Thresholds{Caution: 20, High: 50, Critical: 80},
		PatternVersion: result.PatternVersion,
	}
}
