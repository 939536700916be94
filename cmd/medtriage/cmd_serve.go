package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"medtriage/handlers"
	"medtriage/logging"
	"medtriage/metrics"
	"medtriage/router"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the REST, WebSocket and queue front ends",
	Long: `Starts the HTTP server (POST /api/triage, GET /ws/triage, GET /api/logs,
GET /api/health, GET /metrics). When REDIS_URL is set it also consumes the
inbound Redis stream and publishes results on response:<session_id>.

SIGINT or SIGTERM stops both front ends and drains pending triage logs.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log := logging.New("serve")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn("failed to close triage log store", "error", err)
		}
	}()

	api := &handlers.Handler{Orchestrator: a.orch, Logs: a.store, Logger: logging.New("api")}
	ws := handlers.NewWSHandler(a.orch, cfg.Server.AllowedOrigins, logging.New("websocket"))
	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handlers.NewRouter(api, ws, metrics.Handler(a.registry)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()

		g.Go(func() error {
			if err := rdb.Ping(gctx).Err(); err != nil {
				return fmt.Errorf("failed to connect to Redis: %w", err)
			}
			log.Info("connected to Redis")
			r := router.New(rdb, a.orch, cfg.Redis, router.WithLogger(logging.New("router")))
			if err := r.EnsureConsumerGroup(gctx); err != nil {
				return err
			}
			return r.ConsumeLoop(gctx)
		})
	}

	return g.Wait()
}
