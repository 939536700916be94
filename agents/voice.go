package agents

import (
	"context"
	"encoding/base64"
	"errors"

	"medtriage/models"
)

const mockTranscript = "Caller reports feeling unwell and requests medical assistance."

type voiceRequest struct {
	Audio    string `json:"audio,omitempty"`
	Text     string `json:"text,omitempty"`
	Language string `json:"language,omitempty"`
}

type voiceResponse struct {
	Text     string `json:"text"`
	Language string `json:"language"`
	Panic    bool   `json:"panic"`
}

// HTTPVoice transcribes audio through a remote speech-to-text agent.
type HTTPVoice struct {
	client *Client
}

func NewHTTPVoice(c *Client) *HTTPVoice { return &HTTPVoice{client: c} }

func (v *HTTPVoice) Transcribe(ctx context.Context, in VoiceInput) models.Result[models.Transcript] {
	return capture(models.AgentVoice, func() (models.Transcript, error) {
		req := voiceRequest{Text: in.Text, Language: in.Language}
		if len(in.Audio) > 0 {
			req.Audio = base64.StdEncoding.EncodeToString(in.Audio)
		}
		var resp voiceResponse
		if err := v.client.PostJSON(ctx, req, &resp); err != nil {
			return models.Transcript{}, err
		}
		text := resp.Text
		if text == "" {
			text = in.Text
		}
		if text == "" {
			return models.Transcript{}, errors.New("malformed response: empty transcript")
		}
		return finishTranscript(text, resp.Language, in.Language, resp.Panic), nil
	})
}

// MockVoice echoes the text hint, or a fixed transcript when only audio is given.
type MockVoice struct{}

func (MockVoice) Transcribe(_ context.Context, in VoiceInput) models.Result[models.Transcript] {
	return capture(models.AgentVoice, func() (models.Transcript, error) {
		text := in.Text
		if text == "" {
			text = mockTranscript
		}
		return finishTranscript(text, "", in.Language, false), nil
	})
}

// finishTranscript settles the language (agent detection, then hint, then
// English) and applies the panic heuristic on top of the agent's own flag.
func finishTranscript(text, detected, hint string, panicFlag bool) models.Transcript {
	lang := NormalizeLanguage(detected)
	if lang == "" || lang == LanguageUnknown {
		if h := NormalizeLanguage(hint); h != "" {
			lang = h
		}
	}
	if lang == "" {
		lang = "en"
	}
	return models.Transcript{
		Text:     text,
		Language: lang,
		Panic:    panicFlag || DetectPanic(text),
	}
}
