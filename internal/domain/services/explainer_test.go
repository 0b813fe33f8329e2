package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"scamp/internal/domain/models"
	"scamp/pkg/logger"
)

type stubCompleter struct {
	text string
	err  error
}

func (s *stubCompleter) Complete(context.Context, string, string) (string, error) {
	return s.text, s.err
}

func testSignals() []models.Signal {
	return []models.Signal{
		{Type: models.SignalPaymentRequest, Text: "pay ₹5000", Contribution: 0.47},
		{Type: models.SignalUrgency, Text: "immediately", Contribution: 0.36},
	}
}

func newTestExplainer(c Completer) *Explainer {
	return NewExplainer(c, ExplainerConfig{TopSignals: 5, Timeout: time.Second}, logger.NewDefault())
}

func TestExplainUsesModelWhenGrounded(t *testing.T) {
	c := &stubCompleter{text: "This message combines a payment-request with urgency. Do not pay."}
	got := newTestExplainer(c).Explain(context.Background(), 80, models.CategoryCritical, testSignals())
	assert.Equal(t, c.text, got)
}

func TestExplainFallsBackOnError(t *testing.T) {
	c := &stubCompleter{err: errors.New("model unavailable")}
	got := newTestExplainer(c).Explain(context.Background(), 80, models.CategoryCritical, testSignals())

	assert.Contains(t, got, "80 out of 100")
	assert.Contains(t, got, "request to send money")
}

func TestExplainRejectsUngroundedCompletion(t *testing.T) {
	// The model names a signal type that is not in the result.
	c := &stubCompleter{text: "This asks you to install remote-access software."}
	got := newTestExplainer(c).Explain(context.Background(), 80, models.CategoryCritical, testSignals())

	assert.NotEqual(t, c.text, got)
	assert.Contains(t, got, "80 out of 100")
}

func TestExplainFallsBackOnEmptyCompletion(t *testing.T) {
	c := &stubCompleter{text: "   "}
	got := newTestExplainer(c).Explain(context.Background(), 30, models.CategoryCaution, testSignals())
	assert.Contains(t, got, "30 out of 100")
}

func TestExplainNilCompleter(t *testing.T) {
	got := newTestExplainer(nil).Explain(context.Background(), 55, models.CategoryHigh, testSignals())
	assert.Contains(t, got, "strong signs of a scam")
	assert.Contains(t, got, "55 out of 100")
}

func TestExplainNoSignals(t *testing.T) {
	got := newTestExplainer(nil).Explain(context.Background(), 0, models.CategorySafe, nil)
	assert.Contains(t, got, "No known scam signals")
}

func TestExplainTemplateDeduplicatesTypes(t *testing.T) {
	sigs := []models.Signal{
		{Type: models.SignalUrgency, Text: "urgent"},
		{Type: models.SignalUrgency, Text: "immediately"},
	}
	got := newTestExplainer(nil).Explain(context.Background(), 40, models.CategoryCaution, sigs)
	assert.Contains(t, got, "pressure to act immediately")
	assert.NotContains(t, got, "pressure to act immediately, and pressure to act immediately")
}
