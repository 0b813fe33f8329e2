package services

import (
	"math"
	"sort"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
)

// Scorer turns extracted signals into a 0-100 risk score. Each signal
// contributes weight(pattern, locale) x confidence, and contributions
// aggregate as independent evidence:
//
//	score = 100 x (1 - prod(1 - c_i))
//
// so the score saturates toward 100 instead of overshooting, and any single
// contribution can only increase it.
type Scorer struct{}

// NewScorer builds a scorer.
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score computes the aggregate score and category for a signal set, filling
// each signal's Contribution and sorting signals by contribution, highest
// first. Spans break contribution ties so ordering stays deterministic.
func (s *Scorer) Score(signals []models.Signal, snap *patterns.Snapshot, loc models.Locale) (int, models.Category) {
	if len(signals) == 0 {
		return 0, models.CategorySafe
	}

	survival := 1.0
	for i := range signals {
		weight := 0.0
		if p := snap.Pattern(signals[i].PatternID); p != nil {
			weight = p.Weight(loc)
		}
		c := weight * signals[i].Confidence
		if c < 0 {
			c = 0
		} else if c > 1 {
			c = 1
		}
		signals[i].Contribution = c
		survival *= 1 - c
	}

	sort.SliceStable(signals, func(i, j int) bool {
		if signals[i].Contribution != signals[j].Contribution {
			return signals[i].Contribution > signals[j].Contribution
		}
		return signals[i].Span.Start < signals[j].Span.Start
	})

	score := int(math.Round(100 * (1 - survival)))
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}
	return score, CategoryForScore(score)
}

// CategoryForScore maps a score onto its risk band. Bands are half-open
// except the top: [0,20) Safe, [20,50) Caution, [50,80) High, [80,100] Critical.
func CategoryForScore(score int) models.Category {
	switch {
	case score >= 80:
		return models.CategoryCritical
	case score >= 50:
		return models.CategoryHigh
	case score >= 20:
		return models.CategoryCaution
	default:
		return models.CategorySafe
	}
}
