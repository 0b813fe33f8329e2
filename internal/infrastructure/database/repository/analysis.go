package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scamp/internal/domain/models"
	"scamp/internal/infrastructure/database"
)

// AnalysisRepository persists analysis traces.
type AnalysisRepository struct {
	db *database.PostgresDB
}

// NewAnalysisRepository creates an AnalysisRepository.
func NewAnalysisRepository(db *database.PostgresDB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// SaveAnalysis stores one analysis trace.
func (r *AnalysisRepository) SaveAnalysis(ctx context.Context, rec *models.AnalysisRecord) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO analyses
			(analysis_id, message_hash, score, category, fired_patterns, region, language, pattern_version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 ON CONFLICT (analysis_id) DO NOTHING`,
		rec.AnalysisID, rec.MessageHash, rec.Score, string(rec.Category),
		rec.FiredPatterns, rec.Region, rec.Language, rec.PatternVersion, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert analysis: %w", err)
	}
	return nil
}

// GetAnalysis returns the trace for an analysis id, or nil when unknown.
func (r *AnalysisRepository) GetAnalysis(ctx context.Context, analysisID string) (*models.AnalysisRecord, error) {
	var (
		rec      models.AnalysisRecord
		category string
	)
	err := r.db.Pool().QueryRow(ctx,
		`SELECT analysis_id, message_hash, score, category, fired_patterns, region, language, pattern_version, created_at
		 FROM analyses WHERE analysis_id = $1`,
		analysisID,
	).Scan(
		&rec.AnalysisID, &rec.MessageHash, &rec.Score, &category,
		&rec.FiredPatterns, &rec.Region, &rec.Language, &rec.PatternVersion, &rec.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query analysis: %w", err)
	}
	rec.Category = models.Category(category)
	return &rec, nil
}
