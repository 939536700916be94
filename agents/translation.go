package agents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"medtriage/models"
)

type translationRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Target string `json:"target"`
}

// The translation service has shipped both spellings.
type translationResponse struct {
	TranslatedText string `json:"translated_text"`
	TranslatedAlt  string `json:"translatedText"`
}

// HTTPTranslation calls a remote medical translation service.
type HTTPTranslation struct {
	client *Client
}

func NewHTTPTranslation(c *Client) *HTTPTranslation { return &HTTPTranslation{client: c} }

func (t *HTTPTranslation) Translate(ctx context.Context, in TranslationInput) models.Result[string] {
	return capture(models.AgentTranslation, func() (string, error) {
		source := in.Source
		if source == "" || source == LanguageUnknown {
			source = "auto"
		}
		var resp translationResponse
		if err := t.client.PostJSON(ctx, translationRequest{Text: in.Text, Source: source, Target: in.Target}, &resp); err != nil {
			return "", err
		}
		out := strings.TrimSpace(resp.TranslatedText)
		if out == "" {
			out = strings.TrimSpace(resp.TranslatedAlt)
		}
		if out == "" {
			out = in.Text
		}
		if out == "" {
			return "", errors.New("malformed response: empty translation")
		}
		return out, nil
	})
}

// MockTranslation tags text with its target language unless it is already in it.
type MockTranslation struct{}

func (MockTranslation) Translate(_ context.Context, in TranslationInput) models.Result[string] {
	return capture(models.AgentTranslation, func() (string, error) {
		text := in.Text
		if text == "" {
			text = "(no transcript)"
		}
		if in.Source != "" && in.Source == in.Target {
			return text, nil
		}
		return fmt.Sprintf("[%s] %s", in.Target, text), nil
	})
}
