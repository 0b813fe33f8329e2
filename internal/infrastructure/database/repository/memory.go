package repository

import (
	"context"
	"sync"

	"scamp/internal/domain/models"
)

// Memory is the in-process fallback used when PostgreSQL is unavailable.
// The service stays fully functional; traces and learned weights just do not
// survive a restart.
type Memory struct {
	mu       sync.RWMutex
	analyses map[string]*models.AnalysisRecord
	feedback map[string]*models.FeedbackRecord
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		analyses: make(map[string]*models.AnalysisRecord),
		feedback: make(map[string]*models.FeedbackRecord),
	}
}

// SaveAnalysis stores one analysis trace.
func (m *Memory) SaveAnalysis(_ context.Context, rec *models.AnalysisRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *rec
	m.analyses[rec.AnalysisID] = &cp
	return nil
}

// GetAnalysis returns the trace for an analysis id, or nil when unknown.
func (m *Memory) GetAnalysis(_ context.Context, analysisID string) (*models.AnalysisRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.analyses[analysisID]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// InsertFeedback records one feedback event, reporting false for duplicates.
func (m *Memory) InsertFeedback(_ context.Context, rec *models.FeedbackRecord) (bool, error) {
	key := rec.OriginalAnalysisID + ":" + rec.MessageHash
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.feedback[key]; ok {
		return false, nil
	}
	cp := *rec
	m.feedback[key] = &cp
	return true, nil
}
