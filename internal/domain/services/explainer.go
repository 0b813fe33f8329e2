package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"scamp/internal/domain/models"
	"scamp/pkg/logger"
)

// Completer is the model capability the explainer depends on. The concrete
// implementation lives in the ai package; tests substitute their own.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// ExplainerConfig tunes explanation synthesis.
type ExplainerConfig struct {
	TopSignals int           // how many signals the explanation may reference
	Timeout    time.Duration // budget for one model call
}

// Explainer turns a scored result into a short plain-language explanation.
// The model is advisory: a slow, failed, or ungrounded completion degrades to
// a deterministic template built from the same signals, never to an error.
type Explainer struct {
	completer Completer
	config    ExplainerConfig
	logger    *logger.Logger
}

// NewExplainer builds an explainer. A nil completer always uses the template.
func NewExplainer(completer Completer, cfg ExplainerConfig, log *logger.Logger) *Explainer {
	if cfg.TopSignals <= 0 {
		cfg.TopSignals = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Explainer{
		completer: completer,
		config:    cfg,
		logger:    log.WithComponent("explainer"),
	}
}

// Explain produces the explanation for a result. Signals must already be
// sorted by contribution; only the top slice is offered to the model, and a
// completion that names signal types outside that slice is discarded as
// ungrounded.
func (e *Explainer) Explain(ctx context.Context, score int, category models.Category, signals []models.Signal) string {
	top := topSignals(signals, e.config.TopSignals)

	if e.completer != nil {
		mctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()

		text, err := e.completer.Complete(mctx, explainSystemPrompt, buildExplainPrompt(score, category, top))
		if err != nil {
			e.logger.Warn().Err(err).Msg("explanation model call failed, using template")
		} else if text = strings.TrimSpace(text); text == "" {
			e.logger.Warn().Msg("explanation model returned empty text, using template")
		} else if !grounded(text, top) {
			e.logger.Warn().Msg("explanation referenced signals outside the result, using template")
		} else {
			return text
		}
	}

	return templateExplanation(score, category, top)
}

func topSignals(signals []models.Signal, n int) []models.Signal {
	if len(signals) <= n {
		return signals
	}
	return signals[:n]
}

const explainSystemPrompt = `You write one short paragraph explaining a scam risk assessment to an ordinary person.
Rules:
- Mention only the detected signals you are given. Never invent signals.
- Refer to signals by their type names exactly as given.
- Plain language, no jargon, no markdown, at most three sentences.
- End with one concrete action the reader should take.`

func buildExplainPrompt(score int, category models.Category, top []models.Signal) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Risk score: %d/100 (%s)\n", score, category))
	sb.WriteString("Detected signals:\n")
	for _, sig := range top {
		sb.WriteString(fmt.Sprintf("- %s: %q\n", sig.Type, sig.Text))
	}
	sb.WriteString("\nWrite the explanation.")
	return sb.String()
}

// grounded rejects completions mentioning a known signal type that is not in
// the offered slice. Types absent from the whole taxonomy are just prose.
func grounded(text string, top []models.Signal) bool {
	offered := make(map[models.SignalType]bool, len(top))
	for _, sig := range top {
		offered[sig.Type] = true
	}

	lowered := strings.ToLower(text)
	for _, t := range allSignalTypes {
		if !offered[t] && strings.Contains(lowered, string(t)) {
			return false
		}
	}
	return true
}

var allSignalTypes = []models.SignalType{
	models.SignalUrgency,
	models.SignalPaymentRequest,
	models.SignalCredentialRequest,
	models.SignalOTPRequest,
	models.SignalKYCVerification,
	models.SignalSuspiciousLink,
	models.SignalImpersonation,
	models.SignalThreatLanguage,
	models.SignalRewardBait,
	models.SignalRemoteAccess,
}

var signalDescriptions = map[models.SignalType]string{
	models.SignalUrgency:           "pressure to act immediately",
	models.SignalPaymentRequest:    "a request to send money",
	models.SignalCredentialRequest: "a request for account or card details",
	models.SignalOTPRequest:        "a request to share a one-time password",
	models.SignalKYCVerification:   "a fake KYC verification demand",
	models.SignalSuspiciousLink:    "a suspicious link",
	models.SignalImpersonation:     "someone posing as an authority",
	models.SignalThreatLanguage:    "threats about your account or legal action",
	models.SignalRewardBait:        "a prize or refund lure",
	models.SignalRemoteAccess:      "a request to install remote-access software",
}

// templateExplanation is the deterministic fallback. It reads the same top
// signals the model would have, so degraded responses stay grounded.
func templateExplanation(score int, category models.Category, top []models.Signal) string {
	if len(top) == 0 {
		return "No known scam signals were found in this message. Stay cautious with requests for money or personal details."
	}

	seen := make(map[models.SignalType]bool)
	var parts []string
	for _, sig := range top {
		if seen[sig.Type] {
			continue
		}
		seen[sig.Type] = true
		if desc, ok := signalDescriptions[sig.Type]; ok {
			parts = append(parts, desc)
		}
	}

	var lead string
	switch category {
	case models.CategoryCritical:
		lead = "This message is almost certainly a scam"
	case models.CategoryHigh:
		lead = "This message shows strong signs of a scam"
	case models.CategoryCaution:
		lead = "This message has some warning signs"
	default:
		lead = "This message looks low risk, but it is not entirely clean"
	}

	advice := "Do not reply, click links, or send money or codes."
	if category == models.CategorySafe || category == models.CategoryCaution {
		advice = "Verify the sender through an official channel before acting."
	}

	return fmt.Sprintf("%s: it contains %s. It scored %d out of 100. %s",
		lead, joinNatural(parts), score, advice)
}

func joinNatural(parts []string) string {
	switch len(parts) {
	case 0:
		return "no recognizable signals"
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}
