package patterns

import (
	"time"

	"scamp/internal/domain/models"
)

// Structural check identifiers understood by the extractor.
const (
	StructuralUPIHandle      = "upi-handle"
	StructuralURL            = "url"
	StructuralMismatchedLink = "mismatched-link"
)

// DefaultTaxonomy returns the bootstrap pattern set. Weights evolve through
// feedback; the set itself only grows.
func DefaultTaxonomy() []*models.Pattern {
	now := time.Now()

	pats := []*models.Pattern{
		// Urgency / pressure
		{
			ID:   "urg-001",
			Type: models.SignalUrgency,
			Name: "Extreme Urgency",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"urgent", "immediately", "right now", "act now", "within 15 minutes",
				"within 30 minutes", "last chance", "final warning", "don't delay",
				"expires today", "time sensitive",
			},
			BaseWeight: 0.40,
		},
		{
			ID:   "urg-002",
			Type: models.SignalUrgency,
			Name: "Deadline Pressure",
			Kind: models.MatcherRegex,
			Regexes: []string{
				`within\s+\d+\s+(minutes|hours)`,
				`(today|now)\s+or\s+(never|lose)`,
			},
			BaseWeight: 0.40,
		},

		// Threats
		{
			ID:   "thr-001",
			Type: models.SignalThreatLanguage,
			Name: "Account Suspension Threat",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"account will be blocked", "account will be suspended", "account blocked",
				"account freeze", "it will be blocked", "will be deactivated",
				"permanently closed", "access will be revoked",
			},
			BaseWeight: 0.45,
		},
		{
			ID:   "thr-002",
			Type: models.SignalThreatLanguage,
			Name: "Legal/Police Threat",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"arrest warrant", "legal action", "court summons", "to avoid fir",
				"police complaint", "cyber cell",
			},
			BaseWeight:      0.50,
			RegionOverrides: map[string]float64{"IN": 0.55},
		},

		// Payment requests
		{
			ID:   "pay-001",
			Type: models.SignalPaymentRequest,
			Name: "Payment Rail Mention",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"upi", "imps", "rtgs", "neft", "net banking", "wire transfer",
				"western union", "moneygram", "gift card", "gift cards",
			},
			BaseWeight:      0.45,
			RegionOverrides: map[string]float64{"IN": 0.50},
		},
		{
			ID:   "pay-002",
			Type: models.SignalPaymentRequest,
			Name: "Send Money Demand",
			Kind: models.MatcherRegex,
			Regexes: []string{
				`send\s+(₹|rs\.?|inr|\$|usd)\s*[\d,]+`,
				`pay\s+(₹|rs\.?|inr|\$|usd)\s*[\d,]+`,
				`transfer\s+[\d,]+\s*(rupees|dollars)`,
			},
			BaseWeight: 0.55,
		},
		{
			ID:              "pay-003",
			Type:            models.SignalPaymentRequest,
			Name:            "UPI Handle Present",
			Kind:            models.MatcherStructural,
			Structural:      StructuralUPIHandle,
			BaseWeight:      0.50,
			RegionOverrides: map[string]float64{"IN": 0.55},
		},
		{
			ID:   "pay-004",
			Type: models.SignalPaymentRequest,
			Name: "Processing Fee Request",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"processing fee", "transfer fee", "clearance fee", "release fee",
				"registration fee", "pay to receive",
			},
			BaseWeight: 0.50,
		},

		// Credential / OTP / KYC
		{
			ID:   "cred-001",
			Type: models.SignalCredentialRequest,
			Name: "Credential Harvesting",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"verify your account", "confirm your identity", "password", "pin number",
				"cvv", "card number", "verify your card", "login details",
				"validate your account", "update your account information",
			},
			BaseWeight: 0.50,
		},
		{
			ID:   "otp-001",
			Type: models.SignalOTPRequest,
			Name: "OTP Request",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"otp", "one time password", "share the code", "verification code",
			},
			BaseWeight:      0.55,
			RegionOverrides: map[string]float64{"IN": 0.60},
		},
		{
			ID:   "kyc-001",
			Type: models.SignalKYCVerification,
			Name: "KYC Verification Lure",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"kyc", "video kyc", "kyc expired", "kyc update", "kyc pending",
			},
			BaseWeight:      0.40,
			RegionOverrides: map[string]float64{"IN": 0.50},
		},

		// Links
		{
			ID:         "link-001",
			Type:       models.SignalSuspiciousLink,
			Name:       "Unfamiliar Link",
			Kind:       models.MatcherStructural,
			Structural: StructuralURL,
			BaseWeight: 0.35,
		},
		{
			ID:         "link-002",
			Type:       models.SignalSuspiciousLink,
			Name:       "Mismatched Link Text",
			Kind:       models.MatcherStructural,
			Structural: StructuralMismatchedLink,
			BaseWeight: 0.55,
		},

		// Impersonation
		{
			ID:   "imp-001",
			Type: models.SignalImpersonation,
			Name: "Authority Impersonation",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"this is the ceo", "i am calling from your bank", "bank security department",
				"income tax department", "customs office", "courier company",
				"electricity board", "your bank", "rbi",
			},
			BaseWeight: 0.45,
		},
		{
			ID:   "imp-002",
			Type: models.SignalImpersonation,
			Name: "Lottery Authority Claim",
			Kind: models.MatcherRegex,
			Regexes: []string{
				`on behalf of\s+\w+`,
				`official\s+(winner|notification|notice)`,
			},
			BaseWeight: 0.40,
		},

		// Reward bait
		{
			ID:   "rwd-001",
			Type: models.SignalRewardBait,
			Name: "Prize/Refund Lure",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"refund", "cashback", "lottery", "prize", "you have won",
				"congratulations winner", "lucky draw", "claim your reward",
			},
			BaseWeight: 0.40,
		},

		// Remote access
		{
			ID:   "rem-001",
			Type: models.SignalRemoteAccess,
			Name: "Remote Access Request",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"anydesk", "teamviewer", "quick support", "screen share",
				"remote access", "install this app",
			},
			BaseWeight: 0.55,
		},

		// Hindi-language patterns
		{
			ID:   "hi-001",
			Type: models.SignalRewardBait,
			Name: "Hindi Prize Lure",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"बधाई हो आपने जीता", "पुरस्कार", "लॉटरी", "इनाम",
			},
			BaseWeight: 0.45,
			Language:   "hi",
		},
		{
			ID:   "hi-002",
			Type: models.SignalThreatLanguage,
			Name: "Hindi Account Threat",
			Kind: models.MatcherKeyword,
			Keywords: []string{
				"खाता बंद", "तुरंत", "ब्लॉक कर दिया जाएगा",
			},
			BaseWeight: 0.45,
			Language:   "hi",
		},
	}

	for _, p := range pats {
		p.Version = 1
		p.CreatedAt = now
		p.UpdatedAt = now
	}
	return pats
}
