package agents

import (
	"context"

	"medtriage/models"
)

type historyRequest struct {
	PatientID  string `json:"patient_id,omitempty"`
	Transcript string `json:"transcript"`
}

// HTTPHistory asks the medical-office agent for a history summary. With
// audio it posts the raw recording, which is what the medical-office triage
// service reads; without audio it posts the patient id and transcript as JSON.
type HTTPHistory struct {
	client *Client
}

func NewHTTPHistory(c *Client) *HTTPHistory { return &HTTPHistory{client: c} }

func (h *HTTPHistory) Collect(ctx context.Context, in HistoryInput) models.Result[models.History] {
	return capture(models.AgentHistory, func() (models.History, error) {
		var resp models.History
		var err error
		if len(in.Audio) > 0 {
			err = h.client.PostBytes(ctx, in.Audio, &resp)
		} else {
			err = h.client.PostJSON(ctx, historyRequest{PatientID: in.PatientID, Transcript: in.Transcript}, &resp)
		}
		if err != nil {
			return models.History{}, err
		}
		if resp.History == "" {
			resp.History = "No history found."
		}
		return resp, nil
	})
}

type MockHistory struct{}

func (MockHistory) Collect(_ context.Context, in HistoryInput) models.Result[models.History] {
	return capture(models.AgentHistory, func() (models.History, error) {
		if in.PatientID == "" {
			return models.History{History: "No patient identifier provided; no prior history on file."}, nil
		}
		return models.History{History: "Patient " + in.PatientID + ": no known allergies, no chronic conditions on file."}, nil
	})
}
