package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"medtriage/adapters"
	"medtriage/models"
)

const maxFrameBytes = 16 << 20

// WSHandler serves /ws/triage. Every frame triggers one orchestration and
// gets exactly one JSON message back: the AggregatedResponse, or {error}
// when the frame could not be used. The connection stays open afterwards.
type WSHandler struct {
	orch           Processor
	logger         *slog.Logger
	allowedOrigins map[string]bool
	upgrader       websocket.Upgrader
}

func NewWSHandler(orch Processor, allowedOrigins []string, logger *slog.Logger) *WSHandler {
	origins := make(map[string]bool)
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	if logger == nil {
		logger = slog.Default()
	}
	h := &WSHandler{orch: orch, logger: logger, allowedOrigins: origins}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true // non-browser clients
	}
	return h.allowedOrigins[origin]
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()
	conn.SetReadLimit(maxFrameBytes)

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	log := h.logger.With("session_id", sessionID)
	log.Info("websocket connected", "remote", r.RemoteAddr)

	ctx := r.Context()
	for {
		msgType, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("websocket closed unexpectedly", "error", err)
			}
			return
		}

		var ev models.EmergencyEvent
		switch msgType {
		case websocket.BinaryMessage:
			ev, err = adapters.NormalizeBinaryFrame(sessionID, message)
		case websocket.TextMessage:
			var frame models.AudioFrame
			if err = json.Unmarshal(message, &frame); err == nil {
				ev, err = adapters.NormalizeAudioFrame(sessionID, models.ChannelWS, frame)
			}
		}
		if err != nil {
			log.Info("rejected websocket frame", "error", err)
			if werr := conn.WriteJSON(models.ErrorResponse{Error: "invalid frame: " + err.Error()}); werr != nil {
				log.Warn("failed to write to websocket", "error", werr)
				return
			}
			continue
		}

		resp := h.orch.Process(ctx, ev)
		if err := conn.WriteJSON(resp); err != nil {
			log.Warn("failed to write to websocket", "error", err)
			return
		}
	}
}
