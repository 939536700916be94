// Package adapters turns what each inbound channel receives into an EmergencyEvent.
package adapters

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"medtriage/models"
)

var (
	ErrEmptySymptoms = errors.New("symptoms must not be empty")
	ErrEmptyFrame    = errors.New("frame carries neither audio nor symptoms")
)

// NormalizeTriageRequest converts a POST /api/triage body. The symptoms text
// is required.
func NormalizeTriageRequest(sessionID string, req models.TriageRequest) (models.EmergencyEvent, error) {
	symptoms := strings.TrimSpace(req.Symptoms)
	if symptoms == "" {
		return models.EmergencyEvent{}, ErrEmptySymptoms
	}
	ev := newEvent(sessionID, models.ChannelREST)
	ev.Symptoms = symptoms
	ev.Language = strings.TrimSpace(req.Language)
	ev.PatientID = req.PatientID
	ev.PolicyNumber = req.PolicyNumber
	ev.Location = req.Location
	return ev, nil
}

// NormalizeAudioFrame converts a JSON text frame from the WebSocket or the
// inbound queue.
func NormalizeAudioFrame(sessionID, channel string, frame models.AudioFrame) (models.EmergencyEvent, error) {
	audio, err := DecodeAudio(frame.Audio)
	if err != nil {
		return models.EmergencyEvent{}, err
	}
	symptoms := strings.TrimSpace(frame.Symptoms)
	if len(audio) == 0 && symptoms == "" {
		return models.EmergencyEvent{}, ErrEmptyFrame
	}
	if frame.SessionID != "" {
		sessionID = frame.SessionID
	}
	ev := newEvent(sessionID, channel)
	ev.Audio = audio
	ev.Symptoms = symptoms
	ev.Language = strings.TrimSpace(frame.Language)
	ev.PatientID = frame.PatientID
	ev.PolicyNumber = frame.PolicyNumber
	ev.Location = frame.Location
	return ev, nil
}

// NormalizeBinaryFrame converts a binary WebSocket frame of raw audio.
func NormalizeBinaryFrame(sessionID string, audio []byte) (models.EmergencyEvent, error) {
	if len(audio) == 0 {
		return models.EmergencyEvent{}, ErrEmptyFrame
	}
	ev := newEvent(sessionID, models.ChannelWS)
	ev.Audio = audio
	return ev, nil
}

// DecodeAudio accepts plain base64 (padded or not) or a data URL such as
// "data:audio/webm;base64,....". An empty string decodes to no audio.
func DecodeAudio(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if strings.HasPrefix(s, "data:") {
		i := strings.LastIndex(s, ",")
		if i < 0 {
			return nil, errors.New("invalid audio: malformed data URL")
		}
		s = s[i+1:]
	}
	audio, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		var rawErr error
		if audio, rawErr = base64.RawStdEncoding.DecodeString(s); rawErr != nil {
			return nil, fmt.Errorf("invalid audio: %w", err)
		}
	}
	return audio, nil
}

func newEvent(sessionID, channel string) models.EmergencyEvent {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	return models.EmergencyEvent{
		ID:         uuid.New().String(),
		SessionID:  sessionID,
		Channel:    channel,
		ReceivedAt: time.Now().UTC(),
	}
}
