package models

// SignalType classifies a detected risk indicator.
type SignalType string

const (
	SignalUrgency           SignalType = "urgency"
	SignalPaymentRequest    SignalType = "payment-request"
	SignalCredentialRequest SignalType = "credential-request"
	SignalOTPRequest        SignalType = "otp-request"
	SignalKYCVerification   SignalType = "kyc-verification"
	SignalSuspiciousLink    SignalType = "suspicious-link"
	SignalImpersonation     SignalType = "impersonation"
	SignalThreatLanguage    SignalType = "threat-language"
	SignalRewardBait        SignalType = "reward-bait"
	SignalRemoteAccess      SignalType = "remote-access"
)

// Span locates a signal inside the analyzed text (byte offsets).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Overlaps reports whether two spans share at least one byte.
func (s Span) Overlaps(other Span) bool {
	return s.Start < other.End && other.Start < s.End
}

// Signal is a located, typed risk indicator produced by one extraction.
// Signals are owned by their AnalysisResult and never shared across requests.
type Signal struct {
	Type       SignalType `json:"type"`
	Span       Span       `json:"span"`
	Text       string     `json:"text"`
	Confidence float64    `json:"confidence"`
	PatternID  string     `json:"pattern_id"`

	// Contribution is the weighted confidence the scorer assigned; it ranks
	// the signals in the result.
	Contribution float64 `json:"contribution"`
}

// Category is the ordinal risk label derived from the score.
type Category string

const (
	CategorySafe     Category = "Safe"
	CategoryCaution  Category = "Caution"
	CategoryHigh     Category = "High"
	CategoryCritical Category = "Critical"
)

// Risk returns the lowercase wire form consumed by the extension clients.
func (c Category) Risk() string {
	switch c {
	case CategoryCaution:
		return "caution"
	case CategoryHigh:
		return "high"
	case CategoryCritical:
		return "critical"
	default:
		return "low"
	}
}

// AnalysisResult is the composed outcome of one analyze call.
//
// Invariants: Category is a deterministic monotonic function of Score;
// Signals is non-empty whenever Score > 0 and ordered by contribution,
// highest first; Explanation only references signal types present in Signals.
type AnalysisResult struct {
	AnalysisID     string   `json:"analysis_id"`
	Score          int      `json:"score"`
	Category       Category `json:"category"`
	Signals        []Signal `json:"signals"`
	Explanation    string   `json:"explanation,omitempty"`
	PatternVersion int64    `json:"pattern_version"`
}
