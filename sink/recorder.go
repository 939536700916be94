package sink

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"medtriage/metrics"
	"medtriage/models"
)

const (
	defaultBufferSize   = 256
	defaultDrainTimeout = 5 * time.Second
	defaultWriteTimeout = 5 * time.Second
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithBufferSize sets the queue capacity. Default: 256.
func WithBufferSize(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.bufSize = n
		}
	}
}

func WithMetrics(m *metrics.Metrics) RecorderOption {
	return func(r *Recorder) { r.metrics = m }
}

func WithLogger(l *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = l }
}

// Recorder decouples persistence from the response path. Record builds the
// redacted record and queues it; a background goroutine appends queued
// records to the Store. A full queue drops the record rather than blocking
// the caller, and store errors are logged, never returned.
type Recorder struct {
	store        Store
	ch           chan models.TriageLogRecord
	done         chan struct{}
	abandon      chan struct{}
	bufSize      int
	drainTimeout time.Duration
	writeTimeout time.Duration
	metrics      *metrics.Metrics
	logger       *slog.Logger
	mu           sync.RWMutex
	closed       bool
	closeOnce    sync.Once
}

// NewRecorder starts the drain goroutine immediately.
func NewRecorder(store Store, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		store:        store,
		bufSize:      defaultBufferSize,
		drainTimeout: defaultDrainTimeout,
		writeTimeout: defaultWriteTimeout,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.ch = make(chan models.TriageLogRecord, r.bufSize)
	r.done = make(chan struct{})
	r.abandon = make(chan struct{})
	go r.drain()
	return r
}

// Record queues a completed run for persistence. It never blocks on the store.
func (r *Recorder) Record(_ context.Context, resp models.AggregatedResponse, meta models.RunMetadata) {
	rec, err := BuildRecord(resp, meta)
	if err != nil {
		r.logger.Warn("failed to build triage log record", "run_id", meta.RunID, "error", err)
		r.metrics.PersistFailed()
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.logger.Warn("recorder closed, dropping triage log", "run_id", rec.ID)
		r.metrics.PersistDrop()
		return
	}
	select {
	case r.ch <- rec:
	default:
		r.logger.Warn("triage log buffer full, dropping record", "run_id", rec.ID)
		r.metrics.PersistDrop()
	}
}

// Close stops accepting records and waits for queued ones to be written.
// Records still queued when the drain timeout expires are discarded; the
// store is closed only after the drain goroutine has stopped.
func (r *Recorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		close(r.ch)
		r.mu.Unlock()

		select {
		case <-r.done:
		case <-time.After(r.drainTimeout):
			r.logger.Warn("triage log drain timed out, discarding pending records", "pending", len(r.ch))
			close(r.abandon)
			// at most one Append is in flight, bounded by writeTimeout
			<-r.done
		}
		err = r.store.Close()
	})
	return err
}

func (r *Recorder) drain() {
	defer close(r.done)
	for rec := range r.ch {
		select {
		case <-r.abandon:
			r.metrics.PersistDrop()
			continue
		default:
		}
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		err := r.store.Append(ctx, rec)
		cancel()
		if err != nil {
			r.logger.Warn("failed to persist triage log", "run_id", rec.ID, "error", err)
			r.metrics.PersistFailed()
			continue
		}
		r.logger.Debug("persisted triage log", "run_id", rec.ID)
	}
}
