package main

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"medtriage/agents"
	"medtriage/config"
	"medtriage/logging"
	"medtriage/metrics"
	"medtriage/orchestrator"
	"medtriage/sink"
)

// app is everything one process needs to run orchestrations.
type app struct {
	cfg      config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	store    sink.Store
	recorder *sink.Recorder
	orch     *orchestrator.Orchestrator
}

// loadConfig reads configuration and initialises the default logger from it.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	logging.Init(logging.ParseLevel(cfg.Log.Level), cfg.Log.Format)
	return cfg, nil
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	sinkLog := logging.New("sink")
	store, err := sink.Open(ctx, cfg)
	if err != nil {
		sinkLog.Warn("falling back to in-memory triage log store", "error", err)
		store = sink.NewMemoryStore(cfg.Sink.MemoryLimit)
	}
	rec := sink.NewRecorder(store,
		sink.WithBufferSize(cfg.Sink.Buffer),
		sink.WithMetrics(m),
		sink.WithLogger(sinkLog),
	)

	logging.New("agents").LogAttrs(ctx, slog.LevelInfo, "agent strategies", agents.Describe(cfg.Agents)...)
	orch := orchestrator.New(agents.NewSet(cfg.Agents),
		orchestrator.WithRecorder(rec),
		orchestrator.WithMetrics(m),
		orchestrator.WithLogger(logging.New("orchestrator")),
		orchestrator.WithTargetLanguage(cfg.Agents.TargetLanguage),
	)

	return &app{cfg: cfg, registry: reg, metrics: m, store: store, recorder: rec, orch: orch}, nil
}

// Close drains pending log records and closes the store.
func (a *app) Close() error {
	return a.recorder.Close()
}
