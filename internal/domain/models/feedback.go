package models

import "time"

// AnalysisRecord is the persisted trace of one analysis: enough to reconcile
// later feedback against what was actually scored, without retaining the raw
// message content.
type AnalysisRecord struct {
	AnalysisID     string    `json:"analysis_id"`
	MessageHash    string    `json:"message_hash"`
	Score          int       `json:"score"`
	Category       Category  `json:"category"`
	FiredPatterns  []string  `json:"fired_patterns"`
	Region         string    `json:"region,omitempty"`
	Language       string    `json:"language,omitempty"`
	PatternVersion int64     `json:"pattern_version"`
	CreatedAt      time.Time `json:"created_at"`
}

// FeedbackRecord is a user correction. It is consumed exactly once by the
// adaptation engine and then retained only as the idempotency/audit key:
// re-submitting identical feedback for the same analysis is a no-op.
type FeedbackRecord struct {
	MessageHash        string    `json:"message_hash"`
	DeclaredIsScam     bool      `json:"declared_is_scam"`
	Region             string    `json:"region,omitempty"`
	Language           string    `json:"language,omitempty"`
	OriginalAnalysisID string    `json:"original_analysis_id"`
	ReceivedAt         time.Time `json:"received_at"`
}

// FeedbackOutcome reports what ingestion did with a record.
type FeedbackOutcome string

const (
	FeedbackApplied FeedbackOutcome = "applied"
	FeedbackNoop    FeedbackOutcome = "noop"
)
