package agents

import (
	"context"
	"errors"

	"medtriage/models"
)

// HTTPVitals posts raw audio to the vital-signs ML endpoint.
type HTTPVitals struct {
	client *Client
}

func NewHTTPVitals(c *Client) *HTTPVitals { return &HTTPVitals{client: c} }

func (v *HTTPVitals) Analyze(ctx context.Context, in VitalsInput) models.Result[models.Vitals] {
	return capture(models.AgentVitals, func() (models.Vitals, error) {
		if len(in.Audio) == 0 {
			return models.Vitals{}, errors.New("no audio to analyze")
		}
		var resp models.Vitals
		if err := v.client.PostBytes(ctx, in.Audio, &resp); err != nil {
			return models.Vitals{}, err
		}
		if resp.StressLevel == "" {
			resp.StressLevel = "unknown"
		}
		return resp, nil
	})
}

// mockVitalsTable is indexed by audio length bucket so repeated calls with
// the same payload agree.
var mockVitalsTable = []models.Vitals{
	{HeartRate: 72, StressLevel: "low"},
	{HeartRate: 88, StressLevel: "medium"},
	{HeartRate: 104, StressLevel: "high"},
}

type MockVitals struct{}

func (MockVitals) Analyze(_ context.Context, in VitalsInput) models.Result[models.Vitals] {
	return capture(models.AgentVitals, func() (models.Vitals, error) {
		if len(in.Audio) == 0 {
			return models.Vitals{HeartRate: 70, StressLevel: "low"}, nil
		}
		bucket := (len(in.Audio) / 4096) % len(mockVitalsTable)
		return mockVitalsTable[bucket], nil
	})
}
