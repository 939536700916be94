package models

import (
	"encoding/json"
	"time"
)

// Agent names, which double as the keys of AggregatedResponse.
const (
	AgentVoice       = "voice"
	AgentTriage      = "triage"
	AgentTranslation = "translation"
	AgentHistory     = "history"
	AgentVitals      = "vitals"
	AgentDispatch    = "dispatch"
	AgentInsurance   = "insurance"
)

// ResponseKeys lists every key of an AggregatedResponse, in pipeline order.
var ResponseKeys = []string{
	AgentVoice, AgentTriage, AgentTranslation, AgentHistory,
	AgentVitals, AgentDispatch, AgentInsurance,
}

// Transcript is the voice agent payload.
type Transcript struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Panic    bool   `json:"panic"`
}

// Assessment is the triage agent payload. ESILevel runs 1 (most urgent) to 5.
type Assessment struct {
	ESILevel int    `json:"esi_level"`
	Analysis string `json:"analysis"`
}

type History struct {
	History string `json:"history"`
}

type Vitals struct {
	HeartRate   int    `json:"heart_rate"`
	StressLevel string `json:"stress_level"`
}

type Dispatch struct {
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Location string `json:"location"`
}

// Coverage is the insurance agent payload.
type Coverage struct {
	Verified bool   `json:"verified"`
	Provider string `json:"provider"`
}

// AggregatedResponse fuses every agent result of one run. All seven keys are
// always present; a failed agent serialises as {"error": "..."}.
type AggregatedResponse struct {
	Voice       Result[Transcript] `json:"voice"`
	Triage      Result[Assessment] `json:"triage"`
	Translation Result[string]     `json:"translation"`
	History     Result[History]    `json:"history"`
	Vitals      Result[Vitals]     `json:"vitals"`
	Dispatch    Result[Dispatch]   `json:"dispatch"`
	Insurance   Result[Coverage]   `json:"insurance"`
}

// Failed returns the keys whose agent call failed, in pipeline order.
func (a AggregatedResponse) Failed() []string {
	oks := []bool{
		a.Voice.OK(), a.Triage.OK(), a.Translation.OK(), a.History.OK(),
		a.Vitals.OK(), a.Dispatch.OK(), a.Insurance.OK(),
	}
	var failed []string
	for i, ok := range oks {
		if !ok {
			failed = append(failed, ResponseKeys[i])
		}
	}
	return failed
}

// RunMetadata describes one completed orchestration run for persistence.
type RunMetadata struct {
	RunID       string
	Channel     string
	Language    string
	Transcript  string
	ESILevel    *int
	Panic       bool
	StartedAt   time.Time
	CompletedAt time.Time
}

// TriageLogRecord is the persisted, redacted projection of a run.
type TriageLogRecord struct {
	ID             string          `json:"id"`
	CreatedAt      time.Time       `json:"created_at"`
	Channel        string          `json:"channel,omitempty"`
	Language       string          `json:"language"`
	Symptoms       string          `json:"symptoms"`
	ESILevel       *int            `json:"esi_level"`
	Panic          bool            `json:"panic"`
	AgentResponses json.RawMessage `json:"agent_responses"`
}
