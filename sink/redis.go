package sink

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"medtriage/models"
)

const (
	defaultLogStream = "triage:logs"
	recordField      = "record"
)

// RedisStore appends records to a capped Redis stream. XADD never rewrites
// existing entries, so concurrent writers cannot clobber each other.
type RedisStore struct {
	rdb    *redis.Client
	stream string
	maxLen int64
}

func NewRedisStore(rdb *redis.Client, stream string, maxLen int64) *RedisStore {
	if stream == "" {
		stream = defaultLogStream
	}
	return &RedisStore{rdb: rdb, stream: stream, maxLen: maxLen}
}

func (s *RedisStore) Append(ctx context.Context, rec models.TriageLogRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	args := &redis.XAddArgs{
		Stream: s.stream,
		Values: map[string]interface{}{recordField: string(data)},
	}
	if s.maxLen > 0 {
		args.MaxLen = s.maxLen
		args.Approx = true
	}
	if err := s.rdb.XAdd(ctx, args).Err(); err != nil {
		return fmt.Errorf("failed to append record: %w", err)
	}
	return nil
}

// Recent returns up to limit records, newest first. Entries that fail to
// decode are skipped.
func (s *RedisStore) Recent(ctx context.Context, limit int) ([]models.TriageLogRecord, error) {
	msgs, err := s.rdb.XRevRangeN(ctx, s.stream, "+", "-", int64(clampLimit(limit))).Result()
	if err == redis.Nil {
		return []models.TriageLogRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}
	out := make([]models.TriageLogRecord, 0, len(msgs))
	for _, msg := range msgs {
		raw, ok := msg.Values[recordField].(string)
		if !ok {
			continue
		}
		var rec models.TriageLogRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
