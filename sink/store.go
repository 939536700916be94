// Package sink persists redacted triage log records. Writes are best-effort:
// the Recorder hands records to a Store off the request path and only logs
// failures.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"medtriage/config"
	"medtriage/models"
)

const (
	DefaultRecentLimit = 100
	MaxRecentLimit     = 500
)

// Store is an append-only log of triage records. Implementations must be
// safe for concurrent Append calls.
type Store interface {
	Append(ctx context.Context, rec models.TriageLogRecord) error
	Recent(ctx context.Context, limit int) ([]models.TriageLogRecord, error)
	Close() error
}

// Open picks the store from configuration: Postgres when a database URL is
// set, then Redis, then an in-memory ring.
func Open(ctx context.Context, cfg config.Config) (Store, error) {
	switch {
	case cfg.Database.URL != "":
		return OpenPostgres(ctx, cfg.Database.URL)
	case cfg.Redis.URL != "":
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		return NewRedisStore(redis.NewClient(opts), cfg.Sink.RedisStream, cfg.Sink.RedisMaxLen), nil
	default:
		return NewMemoryStore(cfg.Sink.MemoryLimit), nil
	}
}

// BuildRecord projects a completed run into its persisted, redacted form.
func BuildRecord(resp models.AggregatedResponse, meta models.RunMetadata) (models.TriageLogRecord, error) {
	blob, err := json.Marshal(RedactResponse(resp))
	if err != nil {
		return models.TriageLogRecord{}, fmt.Errorf("marshal agent responses: %w", err)
	}
	id := meta.RunID
	if id == "" {
		id = uuid.NewString()
	}
	created := meta.CompletedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	lang := meta.Language
	if lang == "" {
		lang = "unknown"
	}
	return models.TriageLogRecord{
		ID:             id,
		CreatedAt:      created,
		Channel:        meta.Channel,
		Language:       lang,
		Symptoms:       Redact(meta.Transcript),
		ESILevel:       meta.ESILevel,
		Panic:          meta.Panic,
		AgentResponses: blob,
	}, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultRecentLimit
	}
	if limit > MaxRecentLimit {
		return MaxRecentLimit
	}
	return limit
}
