package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"medtriage/agents"
	"medtriage/models"
	"medtriage/sink"
)

// downStore refuses every write.
type downStore struct{ *sink.MemoryStore }

func (downStore) Append(context.Context, models.TriageLogRecord) error {
	return errors.New("connection refused")
}

var _ = ginkgo.Describe("Process", func() {
	var ctx context.Context

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
	})

	ginkgo.It("answers a plain English text report with all mocks", func() {
		o := New(agents.MockSet(), WithLogger(quietLogger()))
		resp := o.Process(ctx, models.EmergencyEvent{Channel: models.ChannelREST, Symptoms: "fever and cough", Language: "en"})

		voice, ok := resp.Voice.Value()
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(voice.Language).To(gomega.Equal("en"))

		triage, ok := resp.Triage.Value()
		gomega.Expect(ok).To(gomega.BeTrue())
		gomega.Expect(triage.ESILevel).To(gomega.BeNumerically(">=", 1))
		gomega.Expect(triage.ESILevel).To(gomega.BeNumerically("<=", 5))

		gomega.Expect(resp.Translation.OrElse("")).NotTo(gomega.BeEmpty())
	})

	ginkgo.It("serializes every key even when every agent fails", func() {
		o := New(agents.Set{
			Voice:       failingVoice{},
			Triage:      failingTriage{},
			Translation: failingTranslation{},
			History:     failingHistory{},
			Vitals:      failingVitals{},
			Insurance:   failingInsurance{},
			Dispatch:    failingDispatch{},
		}, WithLogger(quietLogger()))

		data, err := json.Marshal(o.Process(ctx, models.EmergencyEvent{Symptoms: "cough"}))
		gomega.Expect(err).To(gomega.Succeed())

		var body map[string]map[string]string
		gomega.Expect(json.Unmarshal(data, &body)).To(gomega.Succeed())
		gomega.Expect(body).To(gomega.HaveLen(len(models.ResponseKeys)))
		for _, k := range models.ResponseKeys {
			gomega.Expect(body).To(gomega.HaveKey(k))
			gomega.Expect(body[k]).To(gomega.HaveKeyWithValue("error", gomega.Not(gomega.BeEmpty())))
		}
	})

	ginkgo.It("still answers when persistence is unavailable", func() {
		rec := sink.NewRecorder(downStore{sink.NewMemoryStore(10)}, sink.WithLogger(quietLogger()))
		ginkgo.DeferCleanup(rec.Close)
		o := New(agents.MockSet(), WithRecorder(rec), WithLogger(quietLogger()))

		done := make(chan models.AggregatedResponse, 1)
		go func() {
			done <- o.Process(ctx, models.EmergencyEvent{Symptoms: "chest pain and shortness of breath"})
		}()

		var resp models.AggregatedResponse
		gomega.Eventually(done).WithTimeout(2 * time.Second).Should(gomega.Receive(&resp))
		gomega.Expect(resp.Failed()).To(gomega.BeEmpty())
		gomega.Expect(resp.Triage.OrElse(models.Assessment{}).ESILevel).To(gomega.Equal(2))
	})

	ginkgo.It("persists a redacted record for each run", func() {
		store := sink.NewMemoryStore(10)
		rec := sink.NewRecorder(store, sink.WithLogger(quietLogger()))
		o := New(agents.MockSet(), WithRecorder(rec), WithLogger(quietLogger()))

		o.Process(ctx, models.EmergencyEvent{
			ID:       "run-redact",
			Channel:  models.ChannelREST,
			Symptoms: "headache, call me at jane.doe@example.com",
			Language: "en",
		})
		gomega.Expect(rec.Close()).To(gomega.Succeed())

		recs, err := store.Recent(ctx, 10)
		gomega.Expect(err).To(gomega.Succeed())
		gomega.Expect(recs).To(gomega.HaveLen(1))
		gomega.Expect(recs[0].ID).To(gomega.Equal("run-redact"))
		gomega.Expect(recs[0].Symptoms).NotTo(gomega.ContainSubstring("jane.doe@example.com"))
		gomega.Expect(string(recs[0].AgentResponses)).NotTo(gomega.ContainSubstring("jane.doe@example.com"))
	})
})
