package repository

import (
	"context"
	"fmt"

	"scamp/internal/domain/models"
	"scamp/internal/infrastructure/database"
)

// FeedbackRepository records feedback events. The (analysis_id, message_hash)
// primary key is the idempotency contract: duplicates insert nothing.
type FeedbackRepository struct {
	db *database.PostgresDB
}

// NewFeedbackRepository creates a FeedbackRepository.
func NewFeedbackRepository(db *database.PostgresDB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// InsertFeedback stores one feedback record, reporting false when an
// identical (analysis, message) pair was already recorded.
func (r *FeedbackRepository) InsertFeedback(ctx context.Context, rec *models.FeedbackRecord) (bool, error) {
	tag, err := r.db.Pool().Exec(ctx,
		`INSERT INTO feedback (analysis_id, message_hash, is_scam, region, language, received_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (analysis_id, message_hash) DO NOTHING`,
		rec.OriginalAnalysisID, rec.MessageHash, rec.DeclaredIsScam,
		rec.Region, rec.Language, rec.ReceivedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert feedback: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}
