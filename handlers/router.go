package handlers

import "net/http"

// NewRouter mounts the REST and WebSocket endpoints. metrics may be nil.
func NewRouter(api *Handler, ws http.Handler, metrics http.Handler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/triage", api.Triage)
	mux.HandleFunc("GET /api/logs", api.RecentLogs)
	mux.HandleFunc("GET /api/health", api.Health)
	if ws != nil {
		mux.Handle("GET /ws/triage", ws)
	}
	if metrics != nil {
		mux.Handle("GET /metrics", metrics)
	}

	return mux
}
