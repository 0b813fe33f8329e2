package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
	"scamp/internal/infrastructure/database/repository"
	"scamp/pkg/logger"
)

func newAdaptationFixture(t *testing.T) (*Adaptation, *patterns.Store, *repository.Memory) {
	t.Helper()
	store, err := patterns.NewStore(context.Background(), nil, patterns.Bounds{Min: 0.05, Max: 0.95}, logger.NewDefault())
	require.NoError(t, err)

	mem := repository.NewMemory()
	eng := NewAdaptation(store, mem, mem, nil, AdaptationConfig{StepFraction: 0.02}, NewStats(), logger.NewDefault())
	return eng, store, mem
}

func recordAnalysis(t *testing.T, mem *repository.Memory, id, text, region string, fired []string) {
	t.Helper()
	require.NoError(t, mem.SaveAnalysis(context.Background(), &models.AnalysisRecord{
		AnalysisID:    id,
		MessageHash:   HashMessage(text),
		Score:         60,
		Category:      models.CategoryHigh,
		FiredPatterns: fired,
		Region:        region,
		CreatedAt:     time.Now().UTC(),
	}))
}

func TestIngestConfirmedScamRaisesWeights(t *testing.T) {
	eng, store, mem := newAdaptationFixture(t)
	recordAnalysis(t, mem, "a1", "pay me now", "IN", []string{"urg-001"})

	before := store.Snapshot().Pattern("urg-001").Weight(models.Locale{Region: "IN"})

	outcome, err := eng.Ingest(context.Background(), Feedback{
		AnalysisID: "a1", Message: "pay me now", IsScam: true, Region: "IN",
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackApplied, outcome)

	after := store.Snapshot().Pattern("urg-001").Weight(models.Locale{Region: "IN"})
	assert.InDelta(t, before*1.02, after, 1e-9)
}

func TestIngestRefutedScamLowersWeights(t *testing.T) {
	eng, store, mem := newAdaptationFixture(t)
	recordAnalysis(t, mem, "a1", "sale ends today", "", []string{"urg-001"})

	before := store.Snapshot().Pattern("urg-001").Weight(models.Locale{})

	outcome, err := eng.Ingest(context.Background(), Feedback{
		AnalysisID: "a1", Message: "sale ends today", IsScam: false,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackApplied, outcome)

	after := store.Snapshot().Pattern("urg-001").Weight(models.Locale{})
	assert.InDelta(t, before*0.98, after, 1e-9)
}

func TestIngestIdempotent(t *testing.T) {
	eng, store, mem := newAdaptationFixture(t)
	recordAnalysis(t, mem, "a1", "pay me now", "", []string{"urg-001"})

	fb := Feedback{AnalysisID: "a1", Message: "pay me now", IsScam: true}

	outcome, err := eng.Ingest(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackApplied, outcome)
	version := store.Version()

	outcome, err = eng.Ingest(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackNoop, outcome)
	assert.Equal(t, version, store.Version(), "duplicate feedback must not move weights")
}

func TestIngestUnknownAnalysis(t *testing.T) {
	eng, _, _ := newAdaptationFixture(t)

	_, err := eng.Ingest(context.Background(), Feedback{
		AnalysisID: "missing", Message: "whatever", IsScam: true,
	})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, KindOf(err))
}

func TestIngestMismatchedMessage(t *testing.T) {
	eng, _, mem := newAdaptationFixture(t)
	recordAnalysis(t, mem, "a1", "original text", "", []string{"urg-001"})

	_, err := eng.Ingest(context.Background(), Feedback{
		AnalysisID: "a1", Message: "different text", IsScam: true,
	})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, KindOf(err))
}

func TestIngestValidation(t *testing.T) {
	eng, _, _ := newAdaptationFixture(t)

	_, err := eng.Ingest(context.Background(), Feedback{AnalysisID: "a1", Message: "  "})
	assert.Equal(t, ErrInvalidInput, KindOf(err))

	_, err = eng.Ingest(context.Background(), Feedback{Message: "text"})
	assert.Equal(t, ErrInvalidInput, KindOf(err))
}

func TestIngestNoFiredPatterns(t *testing.T) {
	eng, store, mem := newAdaptationFixture(t)
	recordAnalysis(t, mem, "a1", "clean message", "", nil)

	version := store.Version()
	outcome, err := eng.Ingest(context.Background(), Feedback{
		AnalysisID: "a1", Message: "clean message", IsScam: true,
	})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackNoop, outcome)
	assert.Equal(t, version, store.Version())
}

type memCache struct {
	mu   sync.Mutex
	vals map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{vals: make(map[string][]byte)}
}

func (c *memCache) GetJSON(_ context.Context, key string, dest interface{}) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.vals[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memCache) SetJSON(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals[key] = raw
	return nil
}

func (c *memCache) SetNX(_ context.Context, key string, value interface{}, _ time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.vals[key]; ok {
		return false, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	c.vals[key] = raw
	return true, nil
}

type flakyFeedbackRepo struct {
	inner    *repository.Memory
	failures int
}

func (f *flakyFeedbackRepo) InsertFeedback(ctx context.Context, rec *models.FeedbackRecord) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, errors.New("connection reset")
	}
	return f.inner.InsertFeedback(ctx, rec)
}

func TestIngestRetryAfterInsertFailure(t *testing.T) {
	store, err := patterns.NewStore(context.Background(), nil, patterns.Bounds{Min: 0.05, Max: 0.95}, logger.NewDefault())
	require.NoError(t, err)

	mem := repository.NewMemory()
	flaky := &flakyFeedbackRepo{inner: mem, failures: 1}
	eng := NewAdaptation(store, mem, flaky, newMemCache(), AdaptationConfig{StepFraction: 0.02}, NewStats(), logger.NewDefault())

	recordAnalysis(t, mem, "a1", "pay me now", "", []string{"urg-001"})
	before := store.Snapshot().Pattern("urg-001").Weight(models.Locale{})

	fb := Feedback{AnalysisID: "a1", Message: "pay me now", IsScam: true}

	// A transient insert failure must not burn the idempotency key.
	_, err = eng.Ingest(context.Background(), fb)
	require.Error(t, err)
	assert.Equal(t, ErrAdaptationConflict, KindOf(err))

	outcome, err := eng.Ingest(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackApplied, outcome)
	assert.InDelta(t, before*1.02, store.Snapshot().Pattern("urg-001").Weight(models.Locale{}), 1e-9)

	// Once committed, the cache fast-path catches the duplicate.
	outcome, err = eng.Ingest(context.Background(), fb)
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackNoop, outcome)
}

func TestIngestRejectedSubmissionStaysRetriable(t *testing.T) {
	store, err := patterns.NewStore(context.Background(), nil, patterns.Bounds{Min: 0.05, Max: 0.95}, logger.NewDefault())
	require.NoError(t, err)

	mem := repository.NewMemory()
	eng := NewAdaptation(store, mem, mem, newMemCache(), AdaptationConfig{StepFraction: 0.02}, NewStats(), logger.NewDefault())

	recordAnalysis(t, mem, "a1", "pay me now", "", []string{"urg-001"})

	// Wrong analysis id first, corrected on resubmit.
	_, err = eng.Ingest(context.Background(), Feedback{AnalysisID: "wrong", Message: "pay me now", IsScam: true})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, KindOf(err))

	outcome, err := eng.Ingest(context.Background(), Feedback{AnalysisID: "a1", Message: "pay me now", IsScam: true})
	require.NoError(t, err)
	assert.Equal(t, models.FeedbackApplied, outcome)
}

func TestIngestWeightsStayBounded(t *testing.T) {
	eng, store, mem := newAdaptationFixture(t)

	for i := 0; i < 300; i++ {
		id := fmt.Sprintf("a%d", i)
		text := fmt.Sprintf("scam message %d", i)
		recordAnalysis(t, mem, id, text, "", []string{"urg-001"})
		_, err := eng.Ingest(context.Background(), Feedback{AnalysisID: id, Message: text, IsScam: true})
		require.NoError(t, err)
	}

	w := store.Snapshot().Pattern("urg-001").Weight(models.Locale{})
	assert.LessOrEqual(t, w, 0.95)
	assert.GreaterOrEqual(t, w, 0.05)
}
