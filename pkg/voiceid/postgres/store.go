// Package postgres provides a PostgreSQL-backed implementation of
// [voiceid.TemplateStore] using a pgvector column for the template
// embedding.
//
// The pgvector extension must be available in the target database;
// [Migrate] installs it automatically via CREATE EXTENSION IF NOT EXISTS.
// The vector column stores float32 components, which preserves cosine
// similarity within float tolerance across a save/load round trip (the
// enrolled vectors are float32 to begin with).
//
// Usage:
//
//	store, err := postgres.NewStore(ctx, dsn, 256)
//	if err != nil { … }
//	defer store.Close()
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/vaani-labs/vaani/pkg/voiceid"
)

// Compile-time assertion that Store satisfies voiceid.TemplateStore.
var _ voiceid.TemplateStore = (*Store)(nil)

const ddlVoiceTemplates = `
CREATE TABLE IF NOT EXISTS voice_templates (
    identity      TEXT         PRIMARY KEY,
    embedding     VECTOR(%d)   NOT NULL,
    sample_count  INTEGER      NOT NULL,
    enrolled_at   TIMESTAMPTZ  NOT NULL DEFAULT now()
);
`

// Store persists one voice template per identity in PostgreSQL.
// All methods are safe for concurrent use; per-identity write atomicity is
// provided by single-statement upserts, so a concurrent Load never sees a
// partially written template.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore connects to the PostgreSQL database at dsn, registers pgvector
// types on every connection, and runs [Migrate] to ensure the template table
// exists.
//
// dimensions must match the output dimension of the voice encoder producing
// the template vectors. Changing it after the first migration requires a
// manual schema change.
func NewStore(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("voiceid postgres: parse dsn: %w", err)
	}

	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("voiceid postgres: create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("voiceid postgres: ping: %w", err)
	}

	if err := Migrate(ctx, pool, dimensions); err != nil {
		pool.Close()
		return nil, fmt.Errorf("voiceid postgres: migrate: %w", err)
	}

	return &Store{pool: pool}, nil
}

// Migrate ensures the pgvector extension and the voice_templates table exist.
func Migrate(ctx context.Context, pool *pgxpool.Pool, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("voiceid postgres: dimensions must be positive, got %d", dimensions)
	}
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		return fmt.Errorf("create vector extension: %w", err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(ddlVoiceTemplates, dimensions)); err != nil {
		return fmt.Errorf("create voice_templates table: %w", err)
	}
	return nil
}

// Save implements [voiceid.TemplateStore.Save]. Re-enrollment replaces the
// stored row wholesale.
func (s *Store) Save(ctx context.Context, tpl voiceid.Template) error {
	const q = `
		INSERT INTO voice_templates (identity, embedding, sample_count, enrolled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identity) DO UPDATE SET
		    embedding    = EXCLUDED.embedding,
		    sample_count = EXCLUDED.sample_count,
		    enrolled_at  = EXCLUDED.enrolled_at`

	_, err := s.pool.Exec(ctx, q,
		tpl.Identity,
		pgvector.NewVector(tpl.Vector),
		tpl.SampleCount,
		tpl.EnrolledAt,
	)
	if err != nil {
		return fmt.Errorf("voiceid postgres: save template %q: %w", tpl.Identity, err)
	}
	return nil
}

// Load implements [voiceid.TemplateStore.Load].
func (s *Store) Load(ctx context.Context, identity string) (voiceid.Template, error) {
	const q = `
		SELECT identity, embedding, sample_count, enrolled_at
		FROM   voice_templates
		WHERE  identity = $1`

	var (
		tpl voiceid.Template
		vec pgvector.Vector
	)
	err := s.pool.QueryRow(ctx, q, identity).Scan(
		&tpl.Identity,
		&vec,
		&tpl.SampleCount,
		&tpl.EnrolledAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return voiceid.Template{}, voiceid.ErrNotEnrolled
	}
	if err != nil {
		return voiceid.Template{}, fmt.Errorf("voiceid postgres: load template %q: %w", identity, err)
	}
	tpl.Vector = vec.Slice()
	return tpl, nil
}

// Delete implements [voiceid.TemplateStore.Delete].
func (s *Store) Delete(ctx context.Context, identity string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM voice_templates WHERE identity = $1`, identity)
	if err != nil {
		return fmt.Errorf("voiceid postgres: delete template %q: %w", identity, err)
	}
	if tag.RowsAffected() == 0 {
		return voiceid.ErrNotEnrolled
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() {
	s.pool.Close()
}
