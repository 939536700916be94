package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"medtriage/agents"
	"medtriage/metrics"
	"medtriage/models"
)

type captureRecorder struct {
	mu    sync.Mutex
	resps []models.AggregatedResponse
	metas []models.RunMetadata
}

func (c *captureRecorder) Record(_ context.Context, resp models.AggregatedResponse, meta models.RunMetadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resps = append(c.resps, resp)
	c.metas = append(c.metas, meta)
}

type failingVoice struct{}

func (failingVoice) Transcribe(context.Context, agents.VoiceInput) models.Result[models.Transcript] {
	return models.Fail[models.Transcript](errors.New("voice: request failed: connection refused"))
}

type failingTriage struct{}

func (failingTriage) Assess(context.Context, agents.TriageInput) models.Result[models.Assessment] {
	return models.Failf[models.Assessment]("triage: HTTP 503: unavailable")
}

type failingTranslation struct{}

func (failingTranslation) Translate(context.Context, agents.TranslationInput) models.Result[string] {
	return models.Failf[string]("translation: down")
}

type failingHistory struct{}

func (failingHistory) Collect(context.Context, agents.HistoryInput) models.Result[models.History] {
	return models.Failf[models.History]("history: down")
}

type failingVitals struct{}

func (failingVitals) Analyze(context.Context, agents.VitalsInput) models.Result[models.Vitals] {
	return models.Failf[models.Vitals]("vitals: down")
}

type failingInsurance struct{}

func (failingInsurance) Verify(context.Context, agents.InsuranceInput) models.Result[models.Coverage] {
	return models.Failf[models.Coverage]("insurance: down")
}

type failingDispatch struct{}

func (failingDispatch) Dispatch(context.Context, agents.DispatchInput) models.Result[models.Dispatch] {
	return models.Failf[models.Dispatch]("dispatch: down")
}

type panickingHistory struct{}

func (panickingHistory) Collect(context.Context, agents.HistoryInput) models.Result[models.History] {
	panic("nil record")
}

type spyTriage struct {
	got agents.TriageInput
}

func (s *spyTriage) Assess(_ context.Context, in agents.TriageInput) models.Result[models.Assessment] {
	s.got = in
	return models.Ok(agents.ScoreESI(in.Symptoms))
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decodeKeys(t *testing.T, resp models.AggregatedResponse) map[string]json.RawMessage {
	t.Helper()
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestProcessAllMocks(t *testing.T) {
	rec := &captureRecorder{}
	o := New(agents.MockSet(), WithRecorder(rec), WithLogger(quietLogger()))

	resp := o.Process(context.Background(), models.EmergencyEvent{
		ID:       "run-1",
		Channel:  models.ChannelREST,
		Symptoms: "fever and cough",
		Language: "en",
	})

	if failed := resp.Failed(); len(failed) != 0 {
		t.Fatalf("unexpected failures: %v", failed)
	}
	voice, _ := resp.Voice.Value()
	if voice.Language != "en" {
		t.Errorf("voice.language = %q, want en", voice.Language)
	}
	triage, _ := resp.Triage.Value()
	if triage.ESILevel < 1 || triage.ESILevel > 5 {
		t.Errorf("esi_level = %d, want 1..5", triage.ESILevel)
	}
	if tr, _ := resp.Translation.Value(); tr == "" {
		t.Error("translation is empty")
	}

	keys := decodeKeys(t, resp)
	got := make([]string, 0, len(keys))
	for _, k := range models.ResponseKeys {
		if _, ok := keys[k]; ok {
			got = append(got, k)
		}
	}
	if diff := cmp.Diff(models.ResponseKeys, got); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if len(rec.metas) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(rec.metas))
	}
	meta := rec.metas[0]
	if meta.RunID != "run-1" || meta.Channel != models.ChannelREST || meta.Language != "en" {
		t.Errorf("unexpected metadata: %+v", meta)
	}
	if meta.ESILevel == nil || *meta.ESILevel != triage.ESILevel {
		t.Errorf("meta.ESILevel = %v, want %d", meta.ESILevel, triage.ESILevel)
	}
	if meta.CompletedAt.Before(meta.StartedAt) {
		t.Error("completed before started")
	}
}

func TestProcessAllAgentsFail(t *testing.T) {
	set := agents.Set{
		Voice:       failingVoice{},
		Triage:      failingTriage{},
		Translation: failingTranslation{},
		History:     failingHistory{},
		Vitals:      failingVitals{},
		Insurance:   failingInsurance{},
		Dispatch:    failingDispatch{},
	}
	rec := &captureRecorder{}
	o := New(set, WithRecorder(rec), WithLogger(quietLogger()))

	resp := o.Process(context.Background(), models.EmergencyEvent{Symptoms: "headache"})

	if diff := cmp.Diff(models.ResponseKeys, resp.Failed()); diff != "" {
		t.Errorf("failed keys mismatch (-want +got):\n%s", diff)
	}
	keys := decodeKeys(t, resp)
	for _, k := range models.ResponseKeys {
		var body models.ErrorResponse
		if err := json.Unmarshal(keys[k], &body); err != nil || body.Error == "" {
			t.Errorf("%s = %s, want error object", k, keys[k])
		}
	}
	if len(rec.metas) != 1 {
		t.Fatalf("recorded %d runs, want 1", len(rec.metas))
	}
	if rec.metas[0].ESILevel != nil {
		t.Error("ESILevel should be nil when triage failed")
	}
	if rec.metas[0].RunID == "" {
		t.Error("run id should be generated")
	}
}

func TestUnreachableVoiceFallsBackToSymptoms(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	spy := &spyTriage{}
	set := agents.MockSet()
	set.Voice = agents.NewHTTPVoice(agents.NewClient(url, "", agents.WithTimeout(time.Second)))
	set.Triage = spy
	o := New(set, WithLogger(quietLogger()))

	resp := o.Process(context.Background(), models.EmergencyEvent{Symptoms: "chest pain", Language: "en-US"})

	if resp.Voice.OK() {
		t.Fatal("voice should fail against a closed server")
	}
	if !resp.Triage.OK() {
		t.Fatalf("triage should still run: %s", resp.Triage.Err())
	}
	if spy.got.Symptoms != "chest pain" {
		t.Errorf("triage got %q, want raw symptoms", spy.got.Symptoms)
	}
	if spy.got.Language != "en" {
		t.Errorf("triage language = %q, want en", spy.got.Language)
	}
}

func TestFallbackLanguageUnknown(t *testing.T) {
	set := agents.MockSet()
	set.Voice = failingVoice{}
	rec := &captureRecorder{}
	o := New(set, WithRecorder(rec), WithLogger(quietLogger()))

	o.Process(context.Background(), models.EmergencyEvent{Symptoms: "help me, hurry"})

	meta := rec.metas[0]
	if meta.Language != agents.LanguageUnknown {
		t.Errorf("language = %q, want %q", meta.Language, agents.LanguageUnknown)
	}
	if !meta.Panic {
		t.Error("panic heuristic should apply to the raw symptoms")
	}
}

func TestPanickingAgentBecomesError(t *testing.T) {
	set := agents.MockSet()
	set.History = panickingHistory{}
	o := New(set, WithLogger(quietLogger()))

	resp := o.Process(context.Background(), models.EmergencyEvent{Symptoms: "sprained ankle"})

	if resp.History.OK() {
		t.Fatal("history should have failed")
	}
	if want := "history: panic: nil record"; resp.History.Err() != want {
		t.Errorf("history error = %q, want %q", resp.History.Err(), want)
	}
	if !resp.Insurance.OK() || !resp.Dispatch.OK() {
		t.Error("steps after the panic should still run")
	}
}

func TestNilAgentsUseMocks(t *testing.T) {
	o := New(agents.Set{}, WithLogger(quietLogger()))
	resp := o.Process(context.Background(), models.EmergencyEvent{Symptoms: "rash"})
	if failed := resp.Failed(); len(failed) != 0 {
		t.Errorf("unexpected failures: %v", failed)
	}
}

func TestTargetLanguage(t *testing.T) {
	o := New(agents.MockSet(), WithLogger(quietLogger()), WithTargetLanguage("es"))
	resp := o.Process(context.Background(), models.EmergencyEvent{Symptoms: "cough", Language: "en"})
	if got, _ := resp.Translation.Value(); got != "[es] cough" {
		t.Errorf("translation = %q", got)
	}
}

func TestDispatchFollowsTriage(t *testing.T) {
	o := New(agents.MockSet(), WithLogger(quietLogger()))
	resp := o.Process(context.Background(), models.EmergencyEvent{Symptoms: "patient is unconscious", Location: "5th and Main"})
	d, ok := resp.Dispatch.Value()
	if !ok {
		t.Fatalf("dispatch failed: %s", resp.Dispatch.Err())
	}
	want := models.Dispatch{Status: "dispatched", Priority: "critical", Location: "5th and Main"}
	if diff := cmp.Diff(want, d); diff != "" {
		t.Errorf("dispatch mismatch (-want +got):\n%s", diff)
	}
}

func TestProcessRecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	set := agents.MockSet()
	set.Vitals = failingVitals{}
	o := New(set, WithMetrics(m), WithLogger(quietLogger()))

	o.Process(context.Background(), models.EmergencyEvent{Channel: models.ChannelWS, Symptoms: "cough"})

	if got := testutil.ToFloat64(m.Runs.WithLabelValues(models.ChannelWS)); got != 1 {
		t.Errorf("runs = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AgentCalls.WithLabelValues(models.AgentVitals, "error")); got != 1 {
		t.Errorf("vitals errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.AgentCalls.WithLabelValues(models.AgentTriage, "ok")); got != 1 {
		t.Errorf("triage successes = %v, want 1", got)
	}
}
