package services

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"time"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
	"scamp/pkg/logger"
)

// FeedbackRepository durably records feedback exactly once per
// (analysis id, message hash) pair. Insert reports false for duplicates.
type FeedbackRepository interface {
	InsertFeedback(ctx context.Context, rec *models.FeedbackRecord) (bool, error)
}

// Feedback is one user correction as received from the API.
type Feedback struct {
	AnalysisID string
	Message    string
	IsScam     bool
	Region     string
	Language   string
}

// AdaptationConfig tunes weight learning.
type AdaptationConfig struct {
	// StepFraction scales each nudge relative to the pattern's current
	// effective weight. Confirmed scams push fired patterns up by this
	// fraction, refuted ones push them down.
	StepFraction float64
	// IdempotencyTTL bounds the cache fast-path keys. The durable record is
	// authoritative; the cache only short-circuits hot duplicates.
	IdempotencyTTL time.Duration
}

// Adaptation ingests feedback and nudges the weights of the patterns that
// actually fired in the referenced analysis. Ingestion for the same
// (analysis, message) pair is serialized and idempotent.
type Adaptation struct {
	store    *patterns.Store
	analyses AnalysisRepository
	feedback FeedbackRepository
	cache    Cache
	config   AdaptationConfig
	stats    *Stats
	logger   *logger.Logger

	locks [64]sync.Mutex // striped by feedback key
}

// NewAdaptation wires the engine.
func NewAdaptation(
	store *patterns.Store,
	analyses AnalysisRepository,
	feedback FeedbackRepository,
	cache Cache,
	cfg AdaptationConfig,
	stats *Stats,
	log *logger.Logger,
) *Adaptation {
	if cfg.StepFraction <= 0 {
		cfg.StepFraction = 0.02
	}
	if cfg.IdempotencyTTL <= 0 {
		cfg.IdempotencyTTL = 24 * time.Hour
	}
	return &Adaptation{
		store:    store,
		analyses: analyses,
		feedback: feedback,
		cache:    cache,
		config:   cfg,
		stats:    stats,
		logger:   log.WithComponent("adaptation"),
	}
}

// Ingest applies one feedback event. Duplicates are a no-op, feedback for an
// unknown analysis or a different message than the one analyzed is rejected,
// and a feedback event only ever moves the patterns that fired.
func (a *Adaptation) Ingest(ctx context.Context, fb Feedback) (models.FeedbackOutcome, error) {
	if strings.TrimSpace(fb.Message) == "" {
		return models.FeedbackNoop, NewError(ErrInvalidInput, "feedback message is empty", nil)
	}
	if fb.AnalysisID == "" {
		return models.FeedbackNoop, NewError(ErrInvalidInput, "feedback is missing the analysis id", nil)
	}

	hash := HashMessage(fb.Message)
	key := fb.AnalysisID + ":" + hash

	lock := a.keyLock(key)
	lock.Lock()
	defer lock.Unlock()

	// The durable (analysis id, message hash) record is the idempotency
	// authority. The cache only short-circuits known duplicates; it is never
	// claimed before the insert has committed, so a rejected or failed
	// submission can be retried.
	if a.cache != nil {
		var seen int
		if hit, err := a.cache.GetJSON(ctx, "feedback:"+key, &seen); err == nil && hit {
			a.stats.recordFeedback(models.FeedbackNoop)
			return models.FeedbackNoop, nil
		}
	}

	rec, err := a.analyses.GetAnalysis(ctx, fb.AnalysisID)
	if err != nil {
		return models.FeedbackNoop, err
	}
	if rec == nil {
		return models.FeedbackNoop, NewError(ErrInvalidInput, "unknown analysis id", nil)
	}
	if rec.MessageHash != hash {
		return models.FeedbackNoop, NewError(ErrInvalidInput,
			"feedback message does not match the analyzed message", nil)
	}

	region := fb.Region
	if region == "" {
		region = rec.Region
	}
	language := fb.Language
	if language == "" {
		language = rec.Language
	}

	inserted, err := a.feedback.InsertFeedback(ctx, &models.FeedbackRecord{
		MessageHash:        hash,
		DeclaredIsScam:     fb.IsScam,
		Region:             region,
		Language:           language,
		OriginalAnalysisID: fb.AnalysisID,
		ReceivedAt:         time.Now().UTC(),
	})
	if err != nil {
		return models.FeedbackNoop, NewError(ErrAdaptationConflict, "failed to record feedback", err)
	}
	a.markSeen(ctx, key)
	if !inserted {
		a.stats.recordFeedback(models.FeedbackNoop)
		return models.FeedbackNoop, nil
	}

	if len(rec.FiredPatterns) == 0 {
		// Nothing fired, so there is no weight to move.
		a.stats.recordFeedback(models.FeedbackNoop)
		return models.FeedbackNoop, nil
	}

	loc := models.Locale{Region: region, Language: language}
	snap := a.store.Snapshot()
	applied := 0
	for _, id := range rec.FiredPatterns {
		p := snap.Pattern(id)
		if p == nil {
			continue
		}
		delta := a.config.StepFraction * p.Weight(loc)
		if !fb.IsScam {
			delta = -delta
		}
		if _, err := a.store.ApplyDelta(ctx, id, region, language, delta); err != nil {
			a.logger.Warn().Err(err).Str("pattern_id", id).Msg("failed to apply weight delta")
			continue
		}
		applied++
	}

	if applied == 0 {
		a.stats.recordFeedback(models.FeedbackNoop)
		return models.FeedbackNoop, nil
	}

	a.stats.recordFeedback(models.FeedbackApplied)
	a.logger.Info().
		Str("analysis_id", fb.AnalysisID).
		Bool("is_scam", fb.IsScam).
		Int("patterns_adjusted", applied).
		Int64("pattern_version", a.store.Version()).
		Msg("feedback applied")

	return models.FeedbackApplied, nil
}

// markSeen records a processed feedback key so later duplicates skip the
// database. Only called once the record is durably committed.
func (a *Adaptation) markSeen(ctx context.Context, key string) {
	if a.cache == nil {
		return
	}
	if _, err := a.cache.SetNX(ctx, "feedback:"+key, 1, a.config.IdempotencyTTL); err != nil {
		a.logger.Warn().Err(err).Msg("failed to mark feedback as processed")
	}
}

func (a *Adaptation) keyLock(key string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(key))
	return &a.locks[h.Sum32()%uint32(len(a.locks))]
}
