package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
	"scamp/pkg/logger"
)

// AnalysisRepository persists analysis traces for later feedback correlation.
type AnalysisRepository interface {
	SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) error
	GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error)
}

// Cache is the shared key-value capability backed by Redis. A nil Cache
// disables result caching and the feedback idempotency fast path.
type Cache interface {
	GetJSON(ctx context.Context, key string, dest interface{}) (bool, error)
	SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
}

// AnalyzerConfig tunes the orchestrator.
type AnalyzerConfig struct {
	MaxTextLength  int
	RequestTimeout time.Duration
	ResultCacheTTL time.Duration
}

// Analyzer runs the full pipeline for one message: validate, snapshot,
// extract, score, explain, persist, cache. It is safe for concurrent use;
// per-request state never escapes the call.
type Analyzer struct {
	extractor *Extractor
	scorer    *Scorer
	explainer *Explainer
	store     *patterns.Store
	analyses  AnalysisRepository
	cache     Cache
	config    AnalyzerConfig
	stats     *Stats
	logger    *logger.Logger
}

// NewAnalyzer wires the pipeline. Repository and cache may be nil; the
// pipeline still answers, it just forgets.
func NewAnalyzer(
	store *patterns.Store,
	explainer *Explainer,
	analyses AnalysisRepository,
	cache Cache,
	cfg AnalyzerConfig,
	stats *Stats,
	log *logger.Logger,
) *Analyzer {
	if cfg.MaxTextLength <= 0 {
		cfg.MaxTextLength = 20000
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 10 * time.Second
	}
	if cfg.ResultCacheTTL <= 0 {
		cfg.ResultCacheTTL = 10 * time.Minute
	}
	return &Analyzer{
		extractor: NewExtractor(),
		scorer:    NewScorer(),
		explainer: explainer,
		store:     store,
		analyses:  analyses,
		cache:     cache,
		config:    cfg,
		stats:     stats,
		logger:    log.WithComponent("analyzer"),
	}
}

// Analyze scores one message. The whole call runs under the request budget;
// hitting the deadline surfaces as a timeout error, while a slow explanation
// alone degrades to the template inside the budget.
func (a *Analyzer) Analyze(ctx context.Context, msg models.Message) (*models.AnalysisResult, error) {
	if strings.TrimSpace(msg.Text) == "" {
		return nil, NewError(ErrInvalidInput, "message text is empty", nil)
	}
	if len(msg.Text) > a.config.MaxTextLength {
		return nil, NewError(ErrInvalidInput,
			fmt.Sprintf("message text exceeds %d characters", a.config.MaxTextLength), nil)
	}

	ctx, cancel := context.WithTimeout(ctx, a.config.RequestTimeout)
	defer cancel()

	snap := a.store.Snapshot()
	hash := HashMessage(msg.Text)
	cacheKey := resultCacheKey(hash, msg.Locale, snap.Version)

	if a.cache != nil {
		var cached models.AnalysisResult
		if hit, err := a.cache.GetJSON(ctx, cacheKey, &cached); err == nil && hit {
			a.stats.recordAnalysis(cached.Category, true)
			return &cached, nil
		}
	}

	signals := a.extractor.Extract(msg, snap)
	score, category := a.scorer.Score(signals, snap, msg.Locale)

	result := &models.AnalysisResult{
		AnalysisID:     uuid.New().String(),
		Score:          score,
		Category:       category,
		Signals:        signals,
		PatternVersion: snap.Version,
	}
	result.Explanation = a.explainer.Explain(ctx, score, category, signals)

	if err := ctx.Err(); errors.Is(err, context.DeadlineExceeded) {
		return nil, NewError(ErrTimeout, "analysis exceeded request budget", err)
	}

	if a.analyses != nil {
		rec := &models.AnalysisRecord{
			AnalysisID:     result.AnalysisID,
			MessageHash:    hash,
			Score:          score,
			Category:       category,
			FiredPatterns:  firedPatternIDs(signals),
			Region:         msg.Locale.Region,
			Language:       msg.Locale.Language,
			PatternVersion: snap.Version,
			CreatedAt:      time.Now().UTC(),
		}
		if err := a.analyses.SaveAnalysis(ctx, rec); err != nil {
			a.logger.Warn().Err(err).Str("analysis_id", result.AnalysisID).
				Msg("failed to persist analysis record")
		}
	}

	if a.cache != nil {
		if err := a.cache.SetJSON(ctx, cacheKey, result, a.config.ResultCacheTTL); err != nil {
			a.logger.Debug().Err(err).Msg("failed to cache analysis result")
		}
	}

	a.stats.recordAnalysis(category, false)
	a.logger.Info().
		Str("analysis_id", result.AnalysisID).
		Int("score", score).
		Str("category", string(category)).
		Int("signals", len(signals)).
		Int64("pattern_version", snap.Version).
		Msg("analysis completed")

	return result, nil
}

// Lookup returns the persisted trace of a past analysis. Unknown ids are a
// caller error, not a server fault.
func (a *Analyzer) Lookup(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	if analysisID == "" || a.analyses == nil {
		return nil, NewError(ErrInvalidInput, "unknown analysis id", nil)
	}
	rec, err := a.analyses.GetAnalysis(ctx, analysisID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, NewError(ErrInvalidInput, "unknown analysis id", nil)
	}
	return rec, nil
}

// HashMessage returns the stable content hash used for caching, persistence,
// and feedback correlation. The raw text never leaves the request.
func HashMessage(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func resultCacheKey(hash string, loc models.Locale, version int64) string {
	return fmt.Sprintf("result:%s:%s:%s:%d", hash, loc.Region, loc.Language, version)
}

func firedPatternIDs(signals []models.Signal) []string {
	seen := make(map[string]bool, len(signals))
	var ids []string
	for _, sig := range signals {
		if !seen[sig.PatternID] {
			seen[sig.PatternID] = true
			ids = append(ids, sig.PatternID)
		}
	}
	return ids
}

// Stats aggregates service counters for the stats endpoint.
type Stats struct {
	mu              sync.RWMutex
	startedAt       time.Time
	totalAnalyses   int64
	cacheHits       int64
	byCategory      map[models.Category]int64
	feedbackApplied int64
	feedbackNoop    int64
}

// NewStats builds an empty counter set.
func NewStats() *Stats {
	return &Stats{
		startedAt:  time.Now().UTC(),
		byCategory: make(map[models.Category]int64),
	}
}

func (s *Stats) recordAnalysis(cat models.Category, cacheHit bool) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.totalAnalyses++
	s.byCategory[cat]++
	if cacheHit {
		s.cacheHits++
	}
}

func (s *Stats) recordFeedback(outcome models.FeedbackOutcome) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if outcome == models.FeedbackApplied {
		s.feedbackApplied++
	} else {
		s.feedbackNoop++
	}
}

// StatsView is the read-only snapshot served over the API.
type StatsView struct {
	UptimeSeconds   int64                     `json:"uptime_seconds"`
	TotalAnalyses   int64                     `json:"total_analyses"`
	CacheHits       int64                     `json:"cache_hits"`
	ByCategory      map[models.Category]int64 `json:"by_category"`
	FeedbackApplied int64                     `json:"feedback_applied"`
	FeedbackNoop    int64                     `json:"feedback_noop"`
}

// View copies the counters for serving.
func (s *Stats) View() StatsView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	by := make(map[models.Category]int64, len(s.byCategory))
	for k, v := range s.byCategory {
		by[k] = v
	}
	return StatsView{
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
		TotalAnalyses:   s.totalAnalyses,
		CacheHits:       s.cacheHits,
		ByCategory:      by,
		FeedbackApplied: s.feedbackApplied,
		FeedbackNoop:    s.feedbackNoop,
	}
}
