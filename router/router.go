// Package router is the queue front end: it consumes emergency events from a
// Redis stream with a consumer group, runs each through the orchestrator and
// publishes the outcome on the caller's response channel.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"medtriage/adapters"
	"medtriage/config"
	"medtriage/models"
)

const (
	eventField     = "event"
	responsePrefix = "response:"
	defaultBlock   = 5 * time.Second
	retryDelay     = time.Second
)

// Processor runs one orchestration.
type Processor interface {
	Process(ctx context.Context, ev models.EmergencyEvent) models.AggregatedResponse
}

// Option configures a Router.
type Option func(*Router)

func WithLogger(l *slog.Logger) Option {
	return func(r *Router) { r.logger = l }
}

// WithBlock sets how long one read waits for new entries. A negative value
// returns immediately when the stream is empty.
func WithBlock(d time.Duration) Option {
	return func(r *Router) { r.block = d }
}

type Router struct {
	rdb      *redis.Client
	proc     Processor
	stream   string
	group    string
	consumer string
	block    time.Duration
	logger   *slog.Logger
}

func New(rdb *redis.Client, proc Processor, cfg config.RedisConfig, opts ...Option) *Router {
	r := &Router{
		rdb:      rdb,
		proc:     proc,
		stream:   cfg.InboundStream,
		group:    cfg.ConsumerGroup,
		consumer: cfg.ConsumerName,
		block:    defaultBlock,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// EnsureConsumerGroup creates the stream and group if needed.
func (r *Router) EnsureConsumerGroup(ctx context.Context) error {
	err := r.rdb.XGroupCreateMkStream(ctx, r.stream, r.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// ConsumeLoop reads and handles entries until ctx is cancelled.
func (r *Router) ConsumeLoop(ctx context.Context) error {
	r.logger.Info("starting consumer loop", "stream", r.stream, "group", r.group, "consumer", r.consumer)
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := r.ReadOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("error reading stream", "error", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(retryDelay):
			}
		}
	}
}

// ReadOnce reads one batch from the group and handles every entry in it.
// It returns the number of entries handled.
func (r *Router) ReadOnce(ctx context.Context) (int, error) {
	streams, err := r.rdb.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    r.group,
		Consumer: r.consumer,
		Streams:  []string{r.stream, ">"},
		Count:    1,
		Block:    r.block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	n := 0
	for _, stream := range streams {
		for _, msg := range stream.Messages {
			r.handleMessage(ctx, msg)
			n++
		}
	}
	return n, nil
}

func (r *Router) handleMessage(ctx context.Context, msg redis.XMessage) {
	log := r.logger.With("entry_id", msg.ID)
	defer r.ack(ctx, msg.ID)

	raw, ok := msg.Values[eventField].(string)
	if !ok {
		log.Warn("invalid entry, missing event field")
		return
	}
	var frame models.AudioFrame
	if err := json.Unmarshal([]byte(raw), &frame); err != nil {
		log.Warn("failed to unmarshal event", "error", err)
		return
	}
	ev, err := adapters.NormalizeAudioFrame(frame.SessionID, models.ChannelQueue, frame)
	if err != nil {
		log.Warn("rejected event", "session_id", frame.SessionID, "error", err)
		if frame.SessionID != "" {
			r.publishResponse(ctx, frame.SessionID, models.WSResponse{
				Type:      "error",
				Text:      "invalid event: " + err.Error(),
				SessionID: frame.SessionID,
			})
		}
		return
	}

	log.Info("processing event", "session_id", ev.SessionID, "run_id", ev.ID)
	r.publishResponse(ctx, ev.SessionID, models.WSResponse{Type: "processing", SessionID: ev.SessionID})

	resp := r.proc.Process(ctx, ev)
	r.publishResponse(ctx, ev.SessionID, models.WSResponse{
		Type:      "result",
		SessionID: ev.SessionID,
		Result:    &resp,
	})
}

func (r *Router) ack(ctx context.Context, id string) {
	if err := r.rdb.XAck(ctx, r.stream, r.group, id).Err(); err != nil {
		r.logger.Warn("failed to ack entry", "entry_id", id, "error", err)
	}
}

func (r *Router) publishResponse(ctx context.Context, sessionID string, resp models.WSResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		r.logger.Error("failed to marshal response", "error", err)
		return
	}
	if err := r.rdb.Publish(ctx, responsePrefix+sessionID, string(data)).Err(); err != nil {
		r.logger.Warn("failed to publish response", "session_id", sessionID, "error", err)
	}
}
