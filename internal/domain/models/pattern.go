package models

import "time"

// MatcherKind selects how a pattern's matcher runs against text.
type MatcherKind string

const (
	MatcherKeyword    MatcherKind = "keyword"
	MatcherRegex      MatcherKind = "regex"
	MatcherStructural MatcherKind = "structural"
)

// Pattern is a named detector plus its tunable weight, scoped by region and
// language. Patterns are owned by the pattern store; the extractor and scorer
// only ever see them through an immutable snapshot. Patterns are never
// deleted — a weight that decays to the configured floor retires the pattern
// while keeping it addressable for audit.
type Pattern struct {
	ID                string             `json:"id"`
	Type              SignalType         `json:"type"`
	Name              string             `json:"name"`
	Kind              MatcherKind        `json:"kind"`
	Keywords          []string           `json:"keywords,omitempty"`
	Regexes           []string           `json:"regexes,omitempty"`
	Structural        string             `json:"structural,omitempty"` // structural check id for MatcherStructural
	BaseWeight        float64            `json:"base_weight"`
	Language          string             `json:"language,omitempty"` // "" for all languages
	Region            string             `json:"region,omitempty"`   // "" for all regions
	RegionOverrides   map[string]float64 `json:"region_overrides,omitempty"`
	LanguageOverrides map[string]float64 `json:"language_overrides,omitempty"`
	Version           int64              `json:"version"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Weight resolves the effective weight for a locale. Precedence:
// language override > region override > base weight.
func (p *Pattern) Weight(loc Locale) float64 {
	if loc.Language != "" {
		if w, ok := p.LanguageOverrides[loc.Language]; ok {
			return w
		}
	}
	if loc.Region != "" {
		if w, ok := p.RegionOverrides[loc.Region]; ok {
			return w
		}
	}
	return p.BaseWeight
}

// AppliesTo reports whether a scoped pattern should run for a locale.
// Unscoped patterns run everywhere.
func (p *Pattern) AppliesTo(loc Locale) bool {
	if p.Language != "" && p.Language != loc.Language {
		return false
	}
	if p.Region != "" && p.Region != loc.Region {
		return false
	}
	return true
}

// Clone returns a deep copy so a snapshot can be mutated into a successor
// without touching the published one.
func (p *Pattern) Clone() *Pattern {
	cp := *p
	if p.Keywords != nil {
		cp.Keywords = append([]string(nil), p.Keywords...)
	}
	if p.Regexes != nil {
		cp.Regexes = append([]string(nil), p.Regexes...)
	}
	if p.RegionOverrides != nil {
		cp.RegionOverrides = make(map[string]float64, len(p.RegionOverrides))
		for k, v := range p.RegionOverrides {
			cp.RegionOverrides[k] = v
		}
	}
	if p.LanguageOverrides != nil {
		cp.LanguageOverrides = make(map[string]float64, len(p.LanguageOverrides))
		for k, v := range p.LanguageOverrides {
			cp.LanguageOverrides[k] = v
		}
	}
	return &cp
}
