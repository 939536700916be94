// Package handlers is the HTTP and WebSocket front end of the orchestrator.
package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"medtriage/adapters"
	"medtriage/models"
)

const (
	maxBodyBytes     = 1 << 20
	defaultLogsLimit = 100
	maxLogsLimit     = 500
)

// Processor runs one orchestration. *orchestrator.Orchestrator satisfies it.
type Processor interface {
	Process(ctx context.Context, ev models.EmergencyEvent) models.AggregatedResponse
}

// LogReader lists recent triage log records, newest first.
type LogReader interface {
	Recent(ctx context.Context, limit int) ([]models.TriageLogRecord, error)
}

type Handler struct {
	Orchestrator Processor
	Logs         LogReader
	Logger       *slog.Logger
}

// Triage handles POST /api/triage.
func (h *Handler) Triage(w http.ResponseWriter, r *http.Request) {
	var req models.TriageRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	ev, err := adapters.NormalizeTriageRequest(r.Header.Get("X-Session-ID"), req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.Orchestrator.Process(r.Context(), ev))
}

// RecentLogs handles GET /api/logs?limit=N.
func (h *Handler) RecentLogs(w http.ResponseWriter, r *http.Request) {
	limit := defaultLogsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxLogsLimit)
	}
	if h.Logs == nil {
		writeJSON(w, http.StatusOK, []models.TriageLogRecord{})
		return
	}
	recs, err := h.Logs.Recent(r.Context(), limit)
	if err != nil {
		h.logger().Error("failed to list triage logs", "error", err)
		writeError(w, http.StatusServiceUnavailable, "triage log store unavailable")
		return
	}
	if recs == nil {
		recs = []models.TriageLogRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// Health handles GET /api/health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
