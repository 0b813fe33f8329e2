package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"scamp/internal/domain/models"
	"scamp/internal/infrastructure/database"
)

// PatternRepository persists the pattern taxonomy and its store version.
// Each pattern row carries the full pattern as JSONB; the singleton
// pattern_store row carries the version the set was last published at.
type PatternRepository struct {
	db *database.PostgresDB
}

// NewPatternRepository creates a PatternRepository.
func NewPatternRepository(db *database.PostgresDB) *PatternRepository {
	return &PatternRepository{db: db}
}

// LoadAll returns every stored pattern and the store version. An empty table
// returns (nil, 0, nil) so the caller can seed defaults.
func (r *PatternRepository) LoadAll(ctx context.Context) ([]*models.Pattern, int64, error) {
	rows, err := r.db.Pool().Query(ctx, `SELECT payload FROM patterns ORDER BY id`)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query patterns: %w", err)
	}
	defer rows.Close()

	var pats []*models.Pattern
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, 0, fmt.Errorf("failed to scan pattern: %w", err)
		}
		var p models.Pattern
		if err := json.Unmarshal(payload, &p); err != nil {
			return nil, 0, fmt.Errorf("failed to decode pattern: %w", err)
		}
		pats = append(pats, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if len(pats) == 0 {
		return nil, 0, nil
	}

	var version int64
	err = r.db.Pool().QueryRow(ctx, `SELECT version FROM pattern_store WHERE singleton`).Scan(&version)
	if err != nil {
		if err == pgx.ErrNoRows {
			return pats, 1, nil
		}
		return nil, 0, fmt.Errorf("failed to read store version: %w", err)
	}
	return pats, version, nil
}

// Seed stores the bootstrap taxonomy and version in one transaction.
func (r *PatternRepository) Seed(ctx context.Context, pats []*models.Pattern, version int64) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		for _, p := range pats {
			payload, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("failed to encode pattern %s: %w", p.ID, err)
			}
			if _, err := tx.Exec(ctx,
				`INSERT INTO patterns (id, payload, version)
				 VALUES ($1, $2, $3)
				 ON CONFLICT (id) DO NOTHING`,
				p.ID, payload, version,
			); err != nil {
				return fmt.Errorf("failed to insert pattern %s: %w", p.ID, err)
			}
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO pattern_store (singleton, version) VALUES (TRUE, $1)
			 ON CONFLICT (singleton) DO UPDATE SET version = $1, updated_at = now()`,
			version,
		)
		return err
	})
}

// Save upserts one pattern and advances the store version atomically, so a
// crash never leaves a new weight visible under an old version.
func (r *PatternRepository) Save(ctx context.Context, p *models.Pattern, version int64) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode pattern %s: %w", p.ID, err)
	}
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO patterns (id, payload, version)
			 VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO UPDATE SET payload = $2, version = $3, updated_at = now()`,
			p.ID, payload, version,
		); err != nil {
			return fmt.Errorf("failed to upsert pattern %s: %w", p.ID, err)
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO pattern_store (singleton, version) VALUES (TRUE, $1)
			 ON CONFLICT (singleton) DO UPDATE SET version = $1, updated_at = now()`,
			version,
		)
		return err
	})
}
