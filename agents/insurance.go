package agents

import (
	"context"

	"medtriage/models"
)

const mockProvider = "Demo Health Mutual"

type insuranceRequest struct {
	PatientID    string `json:"patient_id,omitempty"`
	PolicyNumber string `json:"policy_number,omitempty"`
}

// HTTPInsurance verifies coverage with a remote eligibility service.
type HTTPInsurance struct {
	client *Client
}

func NewHTTPInsurance(c *Client) *HTTPInsurance { return &HTTPInsurance{client: c} }

func (i *HTTPInsurance) Verify(ctx context.Context, in InsuranceInput) models.Result[models.Coverage] {
	return capture(models.AgentInsurance, func() (models.Coverage, error) {
		var resp models.Coverage
		if err := i.client.PostJSON(ctx, insuranceRequest{PatientID: in.PatientID, PolicyNumber: in.PolicyNumber}, &resp); err != nil {
			return models.Coverage{}, err
		}
		if resp.Provider == "" {
			resp.Provider = "Unknown"
		}
		return resp, nil
	})
}

// MockInsurance treats any policy number as verified.
type MockInsurance struct{}

func (MockInsurance) Verify(_ context.Context, in InsuranceInput) models.Result[models.Coverage] {
	return capture(models.AgentInsurance, func() (models.Coverage, error) {
		if in.PolicyNumber == "" {
			return models.Coverage{Verified: false, Provider: "Unknown"}, nil
		}
		return models.Coverage{Verified: true, Provider: mockProvider}, nil
	})
}
