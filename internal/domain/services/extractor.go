package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"scamp/internal/domain/models"
	"scamp/internal/domain/patterns"
)

// Matcher confidences are fixed per matcher kind so extraction stays
// reproducible: the same text and snapshot always yield the same signals.
const (
	keywordConfidence    = 0.90
	regexConfidence      = 0.85
	structuralConfidence = 0.85
)

// Structural checks are fixed code, not data. Pattern rows reference them by
// id so their weights still adapt like any other pattern's.
var (
	upiHandleRe = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9._\-]{1,}@(upi|ybl|oksbi|okaxis|okicici|okhdfcbank|paytm|apl|ibl|axl)\b`)
	urlRe       = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"')\]]+`)
	shortenerRe = regexp.MustCompile(`(?i)\b(?:https?://)?(?:bit\.ly|tinyurl\.com|t\.co|cutt\.ly|rb\.gy|tiny\.cc|is\.gd)/[^\s<>"')\]]+`)
	riskyTLDRe  = regexp.MustCompile(`(?i)\bhttps?://[^\s<>"')\]/]+\.(?:xyz|top|click|buzz|icu|tk)\b[^\s<>"')\]]*`)
	anchorRe    = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^)\s]+)\)`)
	domainRe    = regexp.MustCompile(`(?i)\b[a-z0-9][a-z0-9\-]*(?:\.[a-z0-9\-]+)+\b`)
)

// Extractor runs every applicable pattern in a snapshot against a message and
// returns positioned signals. It holds no state; results are never shared.
type Extractor struct{}

// NewExtractor builds an extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract matches the snapshot's patterns against the message text. Locale
// filtering applies before matching, so a Hindi-only pattern never fires on
// an unscoped request. Same-type overlapping spans collapse to the highest
// confidence match; overlapping spans of different types are all retained.
func (e *Extractor) Extract(msg models.Message, snap *patterns.Snapshot) []models.Signal {
	folded := foldText(msg.Text)

	var sigs []models.Signal
	for _, p := range snap.Patterns {
		if !p.AppliesTo(msg.Locale) {
			continue
		}
		switch p.Kind {
		case models.MatcherKeyword:
			sigs = append(sigs, matchKeywords(msg.Text, folded, p)...)
		case models.MatcherRegex:
			sigs = append(sigs, matchRegexes(msg.Text, p, snap)...)
		case models.MatcherStructural:
			sigs = append(sigs, matchStructural(msg.Text, p)...)
		}
	}

	return collapseOverlaps(sigs)
}

// foldedText is a lowercased copy of a message together with a byte-offset map
// back into the original. Unicode lowercasing can change a rune's encoded
// length, so offsets found in the folded text cannot index the original
// directly; offsets[i] is the original position of the rune covering folded
// byte i, with one extra entry for the end of the text.
type foldedText struct {
	lowered string
	offsets []int
}

func foldText(text string) foldedText {
	var b strings.Builder
	b.Grow(len(text))
	offsets := make([]int, 0, len(text)+1)
	for i, r := range text {
		low := unicode.ToLower(r)
		for n := utf8.RuneLen(low); n > 0; n-- {
			offsets = append(offsets, i)
		}
		b.WriteRune(low)
	}
	offsets = append(offsets, len(text))
	return foldedText{lowered: b.String(), offsets: offsets}
}

func matchKeywords(text string, folded foldedText, p *models.Pattern) []models.Signal {
	var sigs []models.Signal
	for _, kw := range p.Keywords {
		needle := strings.ToLower(kw)
		from := 0
		for {
			i := strings.Index(folded.lowered[from:], needle)
			if i < 0 {
				break
			}
			start := folded.offsets[from+i]
			end := folded.offsets[from+i+len(needle)]
			sigs = append(sigs, models.Signal{
				Type:       p.Type,
				Span:       models.Span{Start: start, End: end},
				Text:       text[start:end],
				Confidence: keywordConfidence,
				PatternID:  p.ID,
			})
			from = from + i + len(needle)
		}
	}
	return sigs
}

func matchRegexes(text string, p *models.Pattern, snap *patterns.Snapshot) []models.Signal {
	var sigs []models.Signal
	for _, expr := range p.Regexes {
		re := snap.Regex(expr)
		if re == nil {
			continue
		}
		for _, loc := range re.FindAllStringIndex(text, -1) {
			sigs = append(sigs, models.Signal{
				Type:       p.Type,
				Span:       models.Span{Start: loc[0], End: loc[1]},
				Text:       text[loc[0]:loc[1]],
				Confidence: regexConfidence,
				PatternID:  p.ID,
			})
		}
	}
	return sigs
}

func matchStructural(text string, p *models.Pattern) []models.Signal {
	var locs [][]int
	switch p.Structural {
	case patterns.StructuralUPIHandle:
		locs = upiHandleRe.FindAllStringIndex(text, -1)
	case patterns.StructuralURL:
		locs = append(urlRe.FindAllStringIndex(text, -1), shortenerRe.FindAllStringIndex(text, -1)...)
		locs = append(locs, riskyTLDRe.FindAllStringIndex(text, -1)...)
	case patterns.StructuralMismatchedLink:
		locs = mismatchedLinks(text)
	}

	sigs := make([]models.Signal, 0, len(locs))
	for _, loc := range locs {
		sigs = append(sigs, models.Signal{
			Type:       p.Type,
			Span:       models.Span{Start: loc[0], End: loc[1]},
			Text:       text[loc[0]:loc[1]],
			Confidence: structuralConfidence,
			PatternID:  p.ID,
		})
	}
	return sigs
}

// mismatchedLinks flags anchor-style links whose display text names a domain
// different from the link target's host. "[sbi.co.in](http://sbi-kyc.xyz)"
// is the shape phishing kits produce.
func mismatchedLinks(text string) [][]int {
	var locs [][]int
	for _, m := range anchorRe.FindAllStringSubmatchIndex(text, -1) {
		display := text[m[2]:m[3]]
		target := text[m[4]:m[5]]
		shown := domainRe.FindString(display)
		if shown == "" {
			continue
		}
		host := target
		if i := strings.Index(host, "://"); i >= 0 {
			host = host[i+3:]
		}
		if i := strings.IndexAny(host, "/?#"); i >= 0 {
			host = host[:i]
		}
		if !strings.EqualFold(shown, host) && !strings.HasSuffix(strings.ToLower(host), "."+strings.ToLower(shown)) {
			locs = append(locs, []int{m[0], m[1]})
		}
	}
	return locs
}

// collapseOverlaps drops same-type signals whose spans overlap a higher
// confidence signal of that type. Ties keep the earlier, longer span.
func collapseOverlaps(sigs []models.Signal) []models.Signal {
	if len(sigs) <= 1 {
		return sigs
	}

	sort.SliceStable(sigs, func(i, j int) bool {
		if sigs[i].Confidence != sigs[j].Confidence {
			return sigs[i].Confidence > sigs[j].Confidence
		}
		if sigs[i].Span.Start != sigs[j].Span.Start {
			return sigs[i].Span.Start < sigs[j].Span.Start
		}
		return sigs[i].Span.End-sigs[i].Span.Start > sigs[j].Span.End-sigs[j].Span.Start
	})

	kept := make([]models.Signal, 0, len(sigs))
	for _, sig := range sigs {
		overlapped := false
		for _, k := range kept {
			if k.Type == sig.Type && k.Span.Overlaps(sig.Span) {
				overlapped = true
				break
			}
		}
		if !overlapped {
			kept = append(kept, sig)
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		if kept[i].Span.Start != kept[j].Span.Start {
			return kept[i].Span.Start < kept[j].Span.Start
		}
		return kept[i].Type < kept[j].Type
	})
	return kept
}
