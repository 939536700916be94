package agents

import (
	"context"
	"fmt"

	"medtriage/models"
)

type triageRequest struct {
	Symptoms string `json:"symptoms"`
	Language string `json:"language,omitempty"`
}

// HTTPTriage scores symptoms through a remote triage classifier.
type HTTPTriage struct {
	client *Client
}

func NewHTTPTriage(c *Client) *HTTPTriage { return &HTTPTriage{client: c} }

func (t *HTTPTriage) Assess(ctx context.Context, in TriageInput) models.Result[models.Assessment] {
	return capture(models.AgentTriage, func() (models.Assessment, error) {
		var resp models.Assessment
		if err := t.client.PostJSON(ctx, triageRequest{Symptoms: in.Symptoms, Language: in.Language}, &resp); err != nil {
			return models.Assessment{}, err
		}
		if resp.ESILevel < 1 || resp.ESILevel > 5 {
			return models.Assessment{}, fmt.Errorf("malformed response: esi_level %d out of range", resp.ESILevel)
		}
		return resp, nil
	})
}

// MockTriage scores symptoms with the local keyword table.
type MockTriage struct{}

func (MockTriage) Assess(_ context.Context, in TriageInput) models.Result[models.Assessment] {
	return capture(models.AgentTriage, func() (models.Assessment, error) {
		return ScoreESI(in.Symptoms), nil
	})
}
