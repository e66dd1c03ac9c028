package insurance

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/httperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateInput struct {
	Provider        string
	PolicyNumber    string
	CoverageDetails string
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Insurance, error) {
	if in.Provider == "" {
		return nil, httperr.Validation("insurance_provider is required")
	}
	if in.PolicyNumber == "" {
		return nil, httperr.Validation("policy_number is required")
	}
	i := &Insurance{Provider: in.Provider, PolicyNumber: in.PolicyNumber, CoverageDetails: in.CoverageDetails}
	if err := s.repo.Create(ctx, i); err != nil {
		return nil, err
	}
	return i, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Insurance, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	if patch.IsZero() {
		return httperr.Validation("no fields to update")
	}
	return s.repo.Update(ctx, id, patch)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// GetOwn returns the insurance linked to the calling patient.
func (s *Service) GetOwn(ctx context.Context, identity auth.Identity) (*Insurance, error) {
	if identity.Role != auth.RolePatient || identity.PatientID == nil {
		return nil, httperr.Forbidden("patient credentials required")
	}
	return s.repo.GetForPatient(ctx, *identity.PatientID)
}
