package adapters

import (
	"encoding/base64"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"medtriage/models"
)

func TestNormalizeTriageRequest(t *testing.T) {
	ev, err := NormalizeTriageRequest("", models.TriageRequest{
		Symptoms:     "  fever and cough ",
		Language:     "en",
		PatientID:    "p-1",
		PolicyNumber: "POL-9",
		Location:     "Main St",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.Symptoms != "fever and cough" {
		t.Errorf("symptoms = %q", ev.Symptoms)
	}
	if ev.Channel != models.ChannelREST {
		t.Errorf("channel = %q", ev.Channel)
	}
	if ev.ID == "" || ev.SessionID == "" {
		t.Error("ids should be generated")
	}
	if ev.ReceivedAt.IsZero() {
		t.Error("received_at should be set")
	}
	if ev.PatientID != "p-1" || ev.PolicyNumber != "POL-9" || ev.Location != "Main St" {
		t.Errorf("optional fields lost: %+v", ev)
	}
}

func TestNormalizeTriageRequestEmptySymptoms(t *testing.T) {
	for _, s := range []string{"", "   "} {
		if _, err := NormalizeTriageRequest("s", models.TriageRequest{Symptoms: s}); !errors.Is(err, ErrEmptySymptoms) {
			t.Errorf("symptoms %q: err = %v, want ErrEmptySymptoms", s, err)
		}
	}
}

func TestDecodeAudio(t *testing.T) {
	raw := []byte("RIFF....WAVEfmt ")
	std := base64.StdEncoding.EncodeToString(raw)
	unpadded := base64.RawStdEncoding.EncodeToString([]byte("ab"))

	tests := []struct {
		name    string
		in      string
		want    []byte
		wantErr bool
	}{
		{name: "empty", in: "", want: nil},
		{name: "plain base64", in: std, want: raw},
		{name: "data url", in: "data:audio/webm;codecs=opus;base64," + std, want: raw},
		{name: "unpadded", in: unpadded, want: []byte("ab")},
		{name: "garbage", in: "not base64 at all!", wantErr: true},
		{name: "data url without comma", in: "data:audio/webm;base64", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAudio(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %q", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("audio mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeAudioFrame(t *testing.T) {
	audio := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	ev, err := NormalizeAudioFrame("conn-1", models.ChannelWS, models.AudioFrame{Audio: audio, Language: "es"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff([]byte{1, 2, 3, 4}, ev.Audio); diff != "" {
		t.Errorf("audio mismatch (-want +got):\n%s", diff)
	}
	if ev.SessionID != "conn-1" || ev.Channel != models.ChannelWS || ev.Language != "es" {
		t.Errorf("unexpected event: %+v", ev)
	}

	ev, err = NormalizeAudioFrame("conn-1", models.ChannelQueue, models.AudioFrame{SessionID: "sess-9", Symptoms: "cough"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.SessionID != "sess-9" {
		t.Errorf("frame session id should win, got %q", ev.SessionID)
	}
}

func TestNormalizeAudioFrameRejectsEmpty(t *testing.T) {
	if _, err := NormalizeAudioFrame("s", models.ChannelWS, models.AudioFrame{}); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("err = %v, want ErrEmptyFrame", err)
	}
	if _, err := NormalizeAudioFrame("s", models.ChannelWS, models.AudioFrame{Audio: "%%%"}); err == nil {
		t.Error("expected decode error")
	}
}

func TestNormalizeBinaryFrame(t *testing.T) {
	if _, err := NormalizeBinaryFrame("s", nil); !errors.Is(err, ErrEmptyFrame) {
		t.Errorf("err = %v, want ErrEmptyFrame", err)
	}
	ev, err := NormalizeBinaryFrame("s", []byte{9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ev.SessionID != "s" || len(ev.Audio) != 1 {
		t.Errorf("unexpected event: %+v", ev)
	}
}
