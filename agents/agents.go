// Package agents holds the client adapters for the external triage agents.
//
// Each capability has an interface returning a models.Result. Two strategies
// implement every interface: an HTTP adapter talking to a configured endpoint
// and a deterministic mock used when no endpoint is set. The strategy is
// chosen once, in NewSet.
package agents

import (
	"context"
	"fmt"
	"log/slog"

	"medtriage/config"
	"medtriage/models"
)

type VoiceInput struct {
	Audio    []byte
	Text     string // transcript hint, used when there is no audio
	Language string
}

type TriageInput struct {
	Symptoms string
	Language string
}

type TranslationInput struct {
	Text   string
	Source string
	Target string
}

type HistoryInput struct {
	PatientID  string
	Transcript string
	Audio      []byte
}

type VitalsInput struct {
	Audio []byte
}

type InsuranceInput struct {
	PatientID    string
	PolicyNumber string
}

type DispatchInput struct {
	ESILevel   *int
	Location   string
	Transcript string
}

type VoiceAgent interface {
	Transcribe(ctx context.Context, in VoiceInput) models.Result[models.Transcript]
}

type TriageAgent interface {
	Assess(ctx context.Context, in TriageInput) models.Result[models.Assessment]
}

type TranslationAgent interface {
	Translate(ctx context.Context, in TranslationInput) models.Result[string]
}

type HistoryAgent interface {
	Collect(ctx context.Context, in HistoryInput) models.Result[models.History]
}

type VitalsAgent interface {
	Analyze(ctx context.Context, in VitalsInput) models.Result[models.Vitals]
}

type InsuranceAgent interface {
	Verify(ctx context.Context, in InsuranceInput) models.Result[models.Coverage]
}

type DispatchAgent interface {
	Dispatch(ctx context.Context, in DispatchInput) models.Result[models.Dispatch]
}

// Set is the full roster of agents used by one orchestrator.
type Set struct {
	Voice       VoiceAgent
	Triage      TriageAgent
	Translation TranslationAgent
	History     HistoryAgent
	Vitals      VitalsAgent
	Insurance   InsuranceAgent
	Dispatch    DispatchAgent
}

// MockSet returns a Set made only of deterministic mocks.
func MockSet() Set {
	return Set{
		Voice:       MockVoice{},
		Triage:      MockTriage{},
		Translation: MockTranslation{},
		History:     MockHistory{},
		Vitals:      MockVitals{},
		Insurance:   MockInsurance{},
		Dispatch:    MockDispatch{},
	}
}

// NewSet selects, per agent, the HTTP adapter when an endpoint is configured
// and the mock otherwise.
func NewSet(cfg config.AgentsConfig, opts ...ClientOption) Set {
	set := MockSet()
	client := func(e config.EndpointConfig) *Client {
		all := append([]ClientOption{WithTimeout(cfg.Timeout)}, opts...)
		return NewClient(e.URL, e.APIKey, all...)
	}
	if !cfg.Voice.Mock() {
		set.Voice = NewHTTPVoice(client(cfg.Voice))
	}
	if !cfg.Triage.Mock() {
		set.Triage = NewHTTPTriage(client(cfg.Triage))
	}
	if !cfg.Translation.Mock() {
		set.Translation = NewHTTPTranslation(client(cfg.Translation))
	}
	if !cfg.History.Mock() {
		set.History = NewHTTPHistory(client(cfg.History))
	}
	if !cfg.Vitals.Mock() {
		set.Vitals = NewHTTPVitals(client(cfg.Vitals))
	}
	if !cfg.Insurance.Mock() {
		set.Insurance = NewHTTPInsurance(client(cfg.Insurance))
	}
	if !cfg.Dispatch.Mock() {
		set.Dispatch = NewHTTPDispatch(client(cfg.Dispatch))
	}
	return set
}

// Describe reports the strategy of every agent, for startup logging.
func Describe(cfg config.AgentsConfig) []slog.Attr {
	mode := func(e config.EndpointConfig) string {
		if e.Mock() {
			return "mock"
		}
		return e.URL
	}
	return []slog.Attr{
		slog.String(models.AgentVoice, mode(cfg.Voice)),
		slog.String(models.AgentTriage, mode(cfg.Triage)),
		slog.String(models.AgentTranslation, mode(cfg.Translation)),
		slog.String(models.AgentHistory, mode(cfg.History)),
		slog.String(models.AgentVitals, mode(cfg.Vitals)),
		slog.String(models.AgentInsurance, mode(cfg.Insurance)),
		slog.String(models.AgentDispatch, mode(cfg.Dispatch)),
	}
}

// capture runs fn and turns its outcome into a Result. Errors are prefixed
// with the agent name and panics are recovered, so nothing escapes an adapter.
func capture[T any](agent string, fn func() (T, error)) (res models.Result[T]) {
	defer func() {
		if r := recover(); r != nil {
			res = models.Failf[T]("%s: panic: %v", agent, r)
		}
	}()
	v, err := fn()
	if err != nil {
		return models.Fail[T](fmt.Errorf("%s: %w", agent, err))
	}
	return models.Ok(v)
}
