package patterns

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"

	"scamp/internal/domain/models"
	"scamp/pkg/logger"
)

// Repository persists pattern weights and the store version across restarts.
// A nil repository leaves the store purely in-memory.
type Repository interface {
	LoadAll(ctx context.Context) ([]*models.Pattern, int64, error)
	Seed(ctx context.Context, pats []*models.Pattern, version int64) error
	Save(ctx context.Context, p *models.Pattern, version int64) error
}

// Bounds clamps adapted weights to a configured band. The band is the
// defense against runaway drift from adversarial feedback floods.
type Bounds struct {
	Min float64
	Max float64
}

// Clamp forces w into the band.
func (b Bounds) Clamp(w float64) float64 {
	if w < b.Min {
		return b.Min
	}
	if w > b.Max {
		return b.Max
	}
	return w
}

// Snapshot is an immutable view of the store used for the duration of one
// analysis. In-flight analyses keep the snapshot they started with and never
// observe a partially-applied delta.
type Snapshot struct {
	Version  int64
	Patterns []*models.Pattern
	regexes  map[string]*regexp.Regexp
}

// Regex returns the precompiled case-insensitive regex for an expression
// carried by one of the snapshot's patterns, or nil if it failed to compile.
func (s *Snapshot) Regex(expr string) *regexp.Regexp {
	return s.regexes[expr]
}

// Pattern looks a pattern up by ID.
func (s *Snapshot) Pattern(id string) *models.Pattern {
	for _, p := range s.Patterns {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Store is the single source of truth for pattern weights. Readers take
// snapshots; the adaptation engine is the only writer. A writer builds a
// modified copy and publishes it atomically, so readers never block writers.
type Store struct {
	mu     sync.Mutex // serializes writers
	snap   atomic.Pointer[Snapshot]
	repo   Repository
	bounds Bounds
	logger *logger.Logger
}

// NewStore loads patterns from the repository, falling back to the default
// taxonomy (and seeding the repository with it) when none are stored.
func NewStore(ctx context.Context, repo Repository, bounds Bounds, log *logger.Logger) (*Store, error) {
	s := &Store{
		repo:   repo,
		bounds: bounds,
		logger: log.WithComponent("pattern-store"),
	}

	var (
		pats    []*models.Pattern
		version int64
	)
	if repo != nil {
		var err error
		pats, version, err = repo.LoadAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load patterns: %w", err)
		}
	}

	if len(pats) == 0 {
		pats = DefaultTaxonomy()
		version = 1
		if repo != nil {
			if err := repo.Seed(ctx, pats, version); err != nil {
				return nil, fmt.Errorf("failed to seed default patterns: %w", err)
			}
		}
		s.logger.Info().Int("patterns", len(pats)).Msg("bootstrapped default pattern taxonomy")
	} else {
		s.logger.Info().Int("patterns", len(pats)).Int64("version", version).Msg("loaded patterns")
	}

	s.snap.Store(buildSnapshot(pats, version))
	return s, nil
}

// Snapshot returns the current immutable view.
func (s *Store) Snapshot() *Snapshot {
	return s.snap.Load()
}

// Version returns the current store version.
func (s *Store) Version() int64 {
	return s.snap.Load().Version
}

// ApplyDelta nudges one pattern's weight for a locale by an additive delta,
// clamped to the store's bounds, and publishes a new snapshot with an
// incremented version. The language override takes the nudge when a language
// is known, the region override when only a region is known, and the base
// weight otherwise. Only that one scope moves, so overrides at other scopes
// drift independently and each stays within a single step of its own value.
// Returns the new effective weight.
//
// The delta is committed to the repository before publication: a feedback
// update is durable-then-visible, or not applied at all.
func (s *Store) ApplyDelta(ctx context.Context, patternID, region, language string, delta float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.snap.Load()
	idx := -1
	for i, p := range cur.Patterns {
		if p.ID == patternID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("unknown pattern %q", patternID)
	}

	loc := models.Locale{Region: region, Language: language}
	updated := cur.Patterns[idx].Clone()
	next := s.bounds.Clamp(updated.Weight(loc) + delta)

	switch {
	case language != "":
		if updated.LanguageOverrides == nil {
			updated.LanguageOverrides = make(map[string]float64)
		}
		updated.LanguageOverrides[language] = next
	case region != "":
		if updated.RegionOverrides == nil {
			updated.RegionOverrides = make(map[string]float64)
		}
		updated.RegionOverrides[region] = next
	default:
		updated.BaseWeight = next
	}

	version := cur.Version + 1
	updated.Version = version

	if s.repo != nil {
		if err := s.repo.Save(ctx, updated, version); err != nil {
			return 0, fmt.Errorf("failed to persist weight delta: %w", err)
		}
	}

	pats := make([]*models.Pattern, len(cur.Patterns))
	copy(pats, cur.Patterns)
	pats[idx] = updated

	s.snap.Store(&Snapshot{
		Version:  version,
		Patterns: pats,
		regexes:  cur.regexes, // regex set is immutable across weight updates
	})

	s.logger.Debug().
		Str("pattern_id", patternID).
		Str("region", region).
		Str("language", language).
		Float64("weight", next).
		Int64("version", version).
		Msg("applied weight delta")

	return next, nil
}

func buildSnapshot(pats []*models.Pattern, version int64) *Snapshot {
	regexes := make(map[string]*regexp.Regexp)
	for _, p := range pats {
		for _, expr := range p.Regexes {
			if _, ok := regexes[expr]; ok {
				continue
			}
			if compiled, err := regexp.Compile("(?i)" + expr); err == nil {
				regexes[expr] = compiled
			}
		}
	}
	return &Snapshot{Version: version, Patterns: pats, regexes: regexes}
}
