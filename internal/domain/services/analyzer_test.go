package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
	"scamp/internal/infrastructure/database/repository"
	"scamp/pkg/logger"
)

func newAnalyzerFixture(t *testing.T) (*Analyzer, *Adaptation, *patterns.Store) {
	t.Helper()
	log := logger.NewDefault()
	store, err := patterns.NewStore(context.Background(), nil, patterns.Bounds{Min: 0.05, Max: 0.95}, log)
	require.NoError(t, err)

	mem := repository.NewMemory()
	stats := NewStats()
	explainer := NewExplainer(nil, ExplainerConfig{}, log)
	analyzer := NewAnalyzer(store, explainer, mem, nil, AnalyzerConfig{}, stats, log)
	adaptation := NewAdaptation(store, mem, mem, nil, AdaptationConfig{StepFraction: 0.02}, stats, log)
	return analyzer, adaptation, store
}

const scamText = "URGENT: Your account will be blocked! Pay ₹5000 to verify@paytm immediately"

func TestAnalyzeScamMessage(t *testing.T) {
	analyzer, _, store := newAnalyzerFixture(t)

	result, err := analyzer.Analyze(context.Background(), models.Message{
		Text:   scamText,
		Locale: models.Locale{Region: "IN"},
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.AnalysisID)
	assert.GreaterOrEqual(t, result.Score, 50)
	assert.Contains(t, []models.Category{models.CategoryHigh, models.CategoryCritical}, result.Category)
	assert.NotEmpty(t, result.Signals)
	assert.NotEmpty(t, result.Explanation)
	assert.Equal(t, store.Version(), result.PatternVersion)

	// Signals arrive ranked by contribution.
	for i := 1; i < len(result.Signals); i++ {
		assert.GreaterOrEqual(t, result.Signals[i-1].Contribution, result.Signals[i].Contribution)
	}
}

func TestAnalyzeBenignMessage(t *testing.T) {
	analyzer, _, _ := newAnalyzerFixture(t)

	result, err := analyzer.Analyze(context.Background(), models.Message{
		Text: "Want to grab dinner tomorrow evening?",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, result.Score)
	assert.Equal(t, models.CategorySafe, result.Category)
	assert.Empty(t, result.Signals)
}

func TestAnalyzeRejectsEmptyText(t *testing.T) {
	analyzer, _, _ := newAnalyzerFixture(t)

	_, err := analyzer.Analyze(context.Background(), models.Message{Text: "   "})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, KindOf(err))
}

func TestAnalyzeRejectsOversizedText(t *testing.T) {
	analyzer, _, _ := newAnalyzerFixture(t)

	_, err := analyzer.Analyze(context.Background(), models.Message{
		Text: strings.Repeat("a", 20001),
	})
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, KindOf(err))
}

func TestAnalyzePersistsTrace(t *testing.T) {
	analyzer, _, _ := newAnalyzerFixture(t)

	result, err := analyzer.Analyze(context.Background(), models.Message{
		Text:   scamText,
		Locale: models.Locale{Region: "IN"},
	})
	require.NoError(t, err)

	rec, err := analyzer.Lookup(context.Background(), result.AnalysisID)
	require.NoError(t, err)
	assert.Equal(t, HashMessage(scamText), rec.MessageHash)
	assert.Equal(t, result.Score, rec.Score)
	assert.Equal(t, "IN", rec.Region)
	assert.NotEmpty(t, rec.FiredPatterns)
}

func TestLookupUnknownID(t *testing.T) {
	analyzer, _, _ := newAnalyzerFixture(t)

	_, err := analyzer.Lookup(context.Background(), "nope")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidInput, KindOf(err))
}

func TestFeedbackShiftsSubsequentScores(t *testing.T) {
	analyzer, adaptation, _ := newAnalyzerFixture(t)
	msg := models.Message{Text: scamText, Locale: models.Locale{Region: "IN"}}

	first, err := analyzer.Analyze(context.Background(), msg)
	require.NoError(t, err)

	outcome, err := adaptation.Ingest(context.Background(), Feedback{
		AnalysisID: first.AnalysisID,
		Message:    scamText,
		IsScam:     true,
		Region:     "IN",
	})
	require.NoError(t, err)
	require.Equal(t, models.FeedbackApplied, outcome)

	second, err := analyzer.Analyze(context.Background(), msg)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, second.Score, first.Score)
	assert.Greater(t, second.PatternVersion, first.PatternVersion)
}
