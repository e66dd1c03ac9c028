package insurance

import (
	"time"

	"github.com/google/uuid"
)

type Insurance struct {
	ID              uuid.UUID `json:"insurance_id"`
	Provider        string    `json:"insurance_provider"`
	PolicyNumber    string    `json:"policy_number"`
	CoverageDetails string    `json:"coverage_details,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

type Patch struct {
	Provider        *string
	PolicyNumber    *string
	CoverageDetails *string
}

func (p Patch) IsZero() bool {
	return p.Provider == nil && p.PolicyNumber == nil && p.CoverageDetails == nil
}
