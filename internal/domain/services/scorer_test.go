package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
)

func snapshotWith(pats ...*models.Pattern) *patterns.Snapshot {
	return &patterns.Snapshot{Version: 1, Patterns: pats}
}

func TestCategoryForScoreBands(t *testing.T) {
	cases := []struct {
		score int
		want  models.Category
	}{
		{0, models.CategorySafe},
		{19, models.CategorySafe},
		{20, models.CategoryCaution},
		{49, models.CategoryCaution},
		{50, models.CategoryHigh},
		{79, models.CategoryHigh},
		{80, models.CategoryCritical},
		{100, models.CategoryCritical},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CategoryForScore(tc.score), "score %d", tc.score)
	}
}

func TestScoreNoSignals(t *testing.T) {
	score, cat := NewScorer().Score(nil, snapshotWith(), models.Locale{})
	assert.Equal(t, 0, score)
	assert.Equal(t, models.CategorySafe, cat)
}

func TestScoreSingleSignal(t *testing.T) {
	snap := snapshotWith(&models.Pattern{ID: "p1", BaseWeight: 0.5})
	signals := []models.Signal{{PatternID: "p1", Confidence: 0.9}}

	score, cat := NewScorer().Score(signals, snap, models.Locale{})

	assert.Equal(t, 45, score)
	assert.Equal(t, models.CategoryCaution, cat)
	assert.InDelta(t, 0.45, signals[0].Contribution, 1e-9)
}

func TestScoreAggregatesIndependently(t *testing.T) {
	snap := snapshotWith(
		&models.Pattern{ID: "p1", BaseWeight: 0.5},
		&models.Pattern{ID: "p2", BaseWeight: 0.5},
	)
	signals := []models.Signal{
		{PatternID: "p1", Confidence: 0.9},
		{PatternID: "p2", Confidence: 0.9},
	}

	// 100 * (1 - 0.55^2) = 69.75, rounded to 70.
	score, cat := NewScorer().Score(signals, snap, models.Locale{})
	assert.Equal(t, 70, score)
	assert.Equal(t, models.CategoryHigh, cat)
}

func TestScoreMonotonic(t *testing.T) {
	snap := snapshotWith(
		&models.Pattern{ID: "p1", BaseWeight: 0.4},
		&models.Pattern{ID: "p2", BaseWeight: 0.3},
	)

	base := []models.Signal{{PatternID: "p1", Confidence: 0.9}}
	more := []models.Signal{
		{PatternID: "p1", Confidence: 0.9},
		{PatternID: "p2", Confidence: 0.85},
	}

	s1, _ := NewScorer().Score(base, snap, models.Locale{})
	s2, _ := NewScorer().Score(more, snap, models.Locale{})
	assert.GreaterOrEqual(t, s2, s1)
}

func TestScoreUsesLocaleWeights(t *testing.T) {
	snap := snapshotWith(&models.Pattern{
		ID:              "p1",
		BaseWeight:      0.3,
		RegionOverrides: map[string]float64{"IN": 0.6},
	})
	signals := []models.Signal{{PatternID: "p1", Confidence: 1.0}}

	plain, _ := NewScorer().Score([]models.Signal{signals[0]}, snap, models.Locale{})
	scoped, _ := NewScorer().Score([]models.Signal{signals[0]}, snap, models.Locale{Region: "IN"})

	assert.Equal(t, 30, plain)
	assert.Equal(t, 60, scoped)
}

func TestScoreOrdersByContribution(t *testing.T) {
	snap := snapshotWith(
		&models.Pattern{ID: "weak", BaseWeight: 0.2},
		&models.Pattern{ID: "strong", BaseWeight: 0.6},
	)
	signals := []models.Signal{
		{PatternID: "weak", Confidence: 0.9, Span: models.Span{Start: 0, End: 4}},
		{PatternID: "strong", Confidence: 0.9, Span: models.Span{Start: 10, End: 16}},
	}

	NewScorer().Score(signals, snap, models.Locale{})

	assert.Equal(t, "strong", signals[0].PatternID)
	assert.Equal(t, "weak", signals[1].PatternID)
}

func TestScoreNeverExceedsHundred(t *testing.T) {
	var pats []*models.Pattern
	var signals []models.Signal
	for i := 0; i < 20; i++ {
		id := string(rune('a' + i))
		pats = append(pats, &models.Pattern{ID: id, BaseWeight: 0.9})
		signals = append(signals, models.Signal{PatternID: id, Confidence: 0.9})
	}

	score, cat := NewScorer().Score(signals, snapshotWith(pats...), models.Locale{})
	assert.LessOrEqual(t, score, 100)
	assert.Equal(t, models.CategoryCritical, cat)
}
