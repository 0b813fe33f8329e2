package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"scamp/internal/config"
	"scamp/pkg/logger"
)

// PostgresDB wraps the pgx connection pool.
type PostgresDB struct {
	pool   *pgxpool.Pool
	logger *logger.Logger
}

// NewPostgres creates a new PostgreSQL connection pool and ensures the
// schema exists.
func NewPostgres(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (*PostgresDB, error) {
	log = log.WithComponent("postgres")
	log.Info().Str("host", cfg.Host).Int("port", cfg.Port).Str("dbname", cfg.DBName).Msg("connecting to PostgreSQL")

	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnLifetime = cfg.ConnMaxLifetime

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &PostgresDB{
		pool:   pool,
		logger: log,
	}

	if err := db.bootstrap(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to bootstrap schema: %w", err)
	}

	log.Info().Msg("connected to PostgreSQL successfully")
	return db, nil
}

// bootstrap creates the tables this service owns. All statements are
// idempotent so restarts are safe.
func (db *PostgresDB) bootstrap(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patterns (
			id          TEXT PRIMARY KEY,
			payload     JSONB NOT NULL,
			version     BIGINT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS pattern_store (
			singleton   BOOLEAN PRIMARY KEY DEFAULT TRUE,
			version     BIGINT NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS analyses (
			analysis_id     TEXT PRIMARY KEY,
			message_hash    TEXT NOT NULL,
			score           INT NOT NULL,
			category        TEXT NOT NULL,
			fired_patterns  TEXT[] NOT NULL DEFAULT '{}',
			region          TEXT NOT NULL DEFAULT '',
			language        TEXT NOT NULL DEFAULT '',
			pattern_version BIGINT NOT NULL,
			created_at      TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_message_hash ON analyses(message_hash)`,
		`CREATE TABLE IF NOT EXISTS feedback (
			analysis_id   TEXT NOT NULL,
			message_hash  TEXT NOT NULL,
			is_scam       BOOLEAN NOT NULL,
			region        TEXT NOT NULL DEFAULT '',
			language      TEXT NOT NULL DEFAULT '',
			received_at   TIMESTAMPTZ NOT NULL,
			PRIMARY KEY (analysis_id, message_hash)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Pool returns the underlying connection pool.
func (db *PostgresDB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *PostgresDB) Close() {
	db.logger.Info().Msg("closing PostgreSQL connection pool")
	db.pool.Close()
}

// Ping checks the database connection.
func (db *PostgresDB) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

// WithTx executes a function within a transaction.
func (db *PostgresDB) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(ctx)
			panic(p)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			db.logger.Error().Err(rbErr).Msg("failed to rollback transaction")
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
