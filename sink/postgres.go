package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"medtriage/models"
)

const createTriageLogs = `
CREATE TABLE IF NOT EXISTS triage_logs (
	id              TEXT PRIMARY KEY,
	channel         TEXT,
	language        TEXT,
	symptoms        TEXT,
	esi_level       INTEGER,
	panic           BOOLEAN NOT NULL DEFAULT FALSE,
	agent_responses JSONB NOT NULL,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore writes records to the triage_logs table. The table is
// created on first use, so an unreachable database only fails writes.
type PostgresStore struct {
	pool *pgxpool.Pool

	schemaMu sync.Mutex
	schemaOK bool
}

// OpenPostgres builds a connection pool for url. No connection is made until
// the first Append or Recent.
func OpenPostgres(ctx context.Context, url string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// ensureSchema creates triage_logs once; failures are retried on the next call.
func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaMu.Lock()
	defer s.schemaMu.Unlock()
	if s.schemaOK {
		return nil
	}
	if _, err := s.pool.Exec(ctx, createTriageLogs); err != nil {
		return fmt.Errorf("create triage_logs: %w", err)
	}
	s.schemaOK = true
	return nil
}

func (s *PostgresStore) Append(ctx context.Context, rec models.TriageLogRecord) error {
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	var esi pgtype.Int4
	if rec.ESILevel != nil {
		esi = pgtype.Int4{Int32: int32(*rec.ESILevel), Valid: true}
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO triage_logs (id, channel, language, symptoms, esi_level, panic, agent_responses, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.Channel, rec.Language, rec.Symptoms, esi, rec.Panic, []byte(rec.AgentResponses), rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert triage log: %w", err)
	}
	return nil
}

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]models.TriageLogRecord, error) {
	if err := s.ensureSchema(ctx); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, COALESCE(channel, ''), COALESCE(language, ''), COALESCE(symptoms, ''), esi_level, panic, agent_responses, created_at
		FROM triage_logs ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query triage logs: %w", err)
	}
	defer rows.Close()

	out := []models.TriageLogRecord{}
	for rows.Next() {
		var (
			rec  models.TriageLogRecord
			esi  pgtype.Int4
			blob []byte
		)
		if err := rows.Scan(&rec.ID, &rec.Channel, &rec.Language, &rec.Symptoms, &esi, &rec.Panic, &blob, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan triage log: %w", err)
		}
		if esi.Valid {
			lvl := int(esi.Int32)
			rec.ESILevel = &lvl
		}
		rec.AgentResponses = blob
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
