package agents

import (
	"context"

	"medtriage/models"
)

type dispatchRequest struct {
	ESILevel   *int   `json:"esi_level"`
	Location   string `json:"location,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// HTTPDispatch hands the case to a real dispatch service.
type HTTPDispatch struct {
	client *Client
}

func NewHTTPDispatch(c *Client) *HTTPDispatch { return &HTTPDispatch{client: c} }

func (d *HTTPDispatch) Dispatch(ctx context.Context, in DispatchInput) models.Result[models.Dispatch] {
	return capture(models.AgentDispatch, func() (models.Dispatch, error) {
		var resp models.Dispatch
		req := dispatchRequest{ESILevel: in.ESILevel, Location: in.Location, Transcript: in.Transcript}
		if err := d.client.PostJSON(ctx, req, &resp); err != nil {
			return models.Dispatch{}, err
		}
		fallback := DeriveDispatch(in.ESILevel, in.Location)
		if resp.Status == "" {
			resp.Status = fallback.Status
		}
		if resp.Priority == "" {
			resp.Priority = fallback.Priority
		}
		if resp.Location == "" {
			resp.Location = fallback.Location
		}
		return resp, nil
	})
}

// MockDispatch derives the status from triage severity alone.
type MockDispatch struct{}

func (MockDispatch) Dispatch(_ context.Context, in DispatchInput) models.Result[models.Dispatch] {
	return capture(models.AgentDispatch, func() (models.Dispatch, error) {
		return DeriveDispatch(in.ESILevel, in.Location), nil
	})
}
