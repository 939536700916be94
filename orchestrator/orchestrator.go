// Package orchestrator runs one EmergencyEvent through every agent in a fixed
// order and fuses the results.
//
// Steps run sequentially. A failed step is recorded under its key and later
// steps continue on the best data available, so a run always completes with
// all seven keys populated.
package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"medtriage/agents"
	"medtriage/metrics"
	"medtriage/models"
)

// Recorder receives every completed run. Record must not block on I/O.
type Recorder interface {
	Record(ctx context.Context, resp models.AggregatedResponse, meta models.RunMetadata)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithTargetLanguage sets the language translations are produced in. Default: "en".
func WithTargetLanguage(lang string) Option {
	return func(o *Orchestrator) {
		if lang != "" {
			o.target = lang
		}
	}
}

type Orchestrator struct {
	agents   agents.Set
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *slog.Logger
	target   string
	now      func() time.Time
}

// New builds an Orchestrator. Nil agents in set fall back to their mocks.
func New(set agents.Set, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		agents: fillMocks(set),
		logger: slog.Default(),
		target: "en",
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Process runs the full pipeline for ev. It always returns a complete
// response; failures show up as per-key errors.
func (o *Orchestrator) Process(ctx context.Context, ev models.EmergencyEvent) models.AggregatedResponse {
	runID := ev.ID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := o.logger.With("run_id", runID, "session_id", ev.SessionID, "channel", ev.Channel)
	started := o.now()
	log.Info("orchestration started", "audio_bytes", len(ev.Audio))

	var resp models.AggregatedResponse

	resp.Voice = step(o, log, models.AgentVoice, func() models.Result[models.Transcript] {
		return o.agents.Voice.Transcribe(ctx, agents.VoiceInput{Audio: ev.Audio, Text: ev.Symptoms, Language: ev.Language})
	})
	transcript, lang, panicFlag := fallbackTranscript(resp.Voice, ev)

	resp.Triage = step(o, log, models.AgentTriage, func() models.Result[models.Assessment] {
		return o.agents.Triage.Assess(ctx, agents.TriageInput{Symptoms: transcript, Language: lang})
	})
	var esi *int
	if a, ok := resp.Triage.Value(); ok {
		lvl := a.ESILevel
		esi = &lvl
	}

	resp.Translation = step(o, log, models.AgentTranslation, func() models.Result[string] {
		return o.agents.Translation.Translate(ctx, agents.TranslationInput{Text: transcript, Source: lang, Target: o.target})
	})

	resp.History = step(o, log, models.AgentHistory, func() models.Result[models.History] {
		return o.agents.History.Collect(ctx, agents.HistoryInput{PatientID: ev.PatientID, Transcript: transcript, Audio: ev.Audio})
	})

	resp.Vitals = step(o, log, models.AgentVitals, func() models.Result[models.Vitals] {
		return o.agents.Vitals.Analyze(ctx, agents.VitalsInput{Audio: ev.Audio})
	})

	resp.Insurance = step(o, log, models.AgentInsurance, func() models.Result[models.Coverage] {
		return o.agents.Insurance.Verify(ctx, agents.InsuranceInput{PatientID: ev.PatientID, PolicyNumber: ev.PolicyNumber})
	})

	resp.Dispatch = step(o, log, models.AgentDispatch, func() models.Result[models.Dispatch] {
		return o.agents.Dispatch.Dispatch(ctx, agents.DispatchInput{ESILevel: esi, Location: ev.Location, Transcript: transcript})
	})

	meta := models.RunMetadata{
		RunID:       runID,
		Channel:     ev.Channel,
		Language:    lang,
		Transcript:  transcript,
		ESILevel:    esi,
		Panic:       panicFlag,
		StartedAt:   started,
		CompletedAt: o.now(),
	}
	failed := resp.Failed()
	log.Info("orchestration completed",
		"duration", meta.CompletedAt.Sub(started),
		"failed", failed,
		"esi_level", esiAttr(esi),
		"panic", panicFlag,
	)
	o.metrics.RunCompleted(ev.Channel)

	if o.recorder != nil {
		o.recorder.Record(ctx, resp, meta)
	}
	return resp
}

// fallbackTranscript picks the text and language later steps work from:
// the voice result when usable, otherwise the raw symptoms and the caller's hint.
func fallbackTranscript(voice models.Result[models.Transcript], ev models.EmergencyEvent) (text, lang string, panicFlag bool) {
	if t, ok := voice.Value(); ok {
		text, lang, panicFlag = t.Text, t.Language, t.Panic
	}
	if text == "" {
		text = ev.Symptoms
		panicFlag = agents.DetectPanic(text)
	}
	if lang == "" {
		lang = agents.NormalizeLanguage(ev.Language)
	}
	if lang == "" {
		lang = agents.LanguageUnknown
	}
	return text, lang, panicFlag
}

// step runs one agent call, timing and logging it. A panic that escapes the
// adapter is converted into a failed Result.
func step[T any](o *Orchestrator, log *slog.Logger, agent string, call func() models.Result[T]) (res models.Result[T]) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			res = models.Failf[T]("%s: panic: %v", agent, r)
		}
		d := time.Since(start)
		o.metrics.ObserveAgent(agent, res.OK(), d)
		if res.OK() {
			log.Debug("agent succeeded", "agent", agent, "duration", d)
		} else {
			log.Warn("agent failed", "agent", agent, "duration", d, "error", res.Err())
		}
	}()
	return call()
}

func esiAttr(esi *int) any {
	if esi == nil {
		return "none"
	}
	return *esi
}

func fillMocks(set agents.Set) agents.Set {
	mocks := agents.MockSet()
	if set.Voice == nil {
		set.Voice = mocks.Voice
	}
	if set.Triage == nil {
		set.Triage = mocks.Triage
	}
	if set.Translation == nil {
		set.Translation = mocks.Translation
	}
	if set.History == nil {
		set.History = mocks.History
	}
	if set.Vitals == nil {
		set.Vitals = mocks.Vitals
	}
	if set.Insurance == nil {
		set.Insurance = mocks.Insurance
	}
	if set.Dispatch == nil {
		set.Dispatch = mocks.Dispatch
	}
	return set
}
