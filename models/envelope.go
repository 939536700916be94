package models

import "time"

// Channels an EmergencyEvent can arrive on.
const (
	ChannelREST  = "rest"
	ChannelWS    = "ws"
	ChannelQueue = "queue"
	ChannelCLI   = "cli"
)

// EmergencyEvent is one inbound request. It lives for a single orchestration run.
type EmergencyEvent struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	Channel      string    `json:"channel"`
	Audio        []byte    `json:"-"`
	Symptoms     string    `json:"symptoms,omitempty"`
	Language     string    `json:"language,omitempty"`
	PatientID    string    `json:"patient_id,omitempty"`
	PolicyNumber string    `json:"policy_number,omitempty"`
	Location     string    `json:"location,omitempty"`
	ReceivedAt   time.Time `json:"received_at"`
}

// TriageRequest is the body of POST /api/triage.
type TriageRequest struct {
	Symptoms     string `json:"symptoms"`
	Language     string `json:"language"`
	PatientID    string `json:"patient_id,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	Location     string `json:"location,omitempty"`
}

// AudioFrame is a WebSocket text frame or a queued stream entry. Audio is
// base64, optionally wrapped in a data URL.
type AudioFrame struct {
	SessionID    string `json:"session_id,omitempty"`
	Audio        string `json:"audio"`
	Symptoms     string `json:"symptoms,omitempty"`
	Language     string `json:"language,omitempty"`
	PatientID    string `json:"patient_id,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
	Location     string `json:"location,omitempty"`
}

// WSResponse is published on the per-session response channel by the queue consumer.
type WSResponse struct {
	Type      string              `json:"type"`
	Text      string              `json:"text,omitempty"`
	SessionID string              `json:"session_id,omitempty"`
	Result    *AggregatedResponse `json:"result,omitempty"`
}

// ErrorResponse is the envelope returned when a request fails before orchestration starts.
type ErrorResponse struct {
	Error string `json:"error"`
}
