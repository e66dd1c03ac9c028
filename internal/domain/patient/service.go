package patient

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

// CredentialStore is the slice of the account service the patient
// registry needs: writing the credential half of the two-table
// create/update transactions.
type CredentialStore interface {
	CreateForPatient(ctx context.Context, patientID uuid.UUID, email, password string) error
	UpdateForPatient(ctx context.Context, patientID uuid.UUID, email, password *string) error
}

// Purger performs the cascading profile delete.
type Purger interface {
	DeletePatient(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	repo   Repository
	creds  CredentialStore
	purger Purger
	inTx   db.Runner
}

func NewService(repo Repository, creds CredentialStore, purger Purger, inTx db.Runner) *Service {
	return &Service{repo: repo, creds: creds, purger: purger, inTx: inTx}
}

// CreateInput carries all admin-writable fields for a new patient and
// its credential.
type CreateInput struct {
	Email                 string
	Password              string
	FirstName             string
	LastName              string
	DateOfBirth           time.Time
	PhoneNumber           string
	Address               string
	EmergencyContactName  string
	EmergencyContactPhone string
	InsuranceID           *uuid.UUID
}

// Create inserts the profile row and its credential in one
// transaction. A duplicate email rolls the profile insert back, so no
// orphan profile survives.
func (s *Service) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	if in.FirstName == "" || in.LastName == "" {
		return uuid.Nil, httperr.Validation("first and last name are required")
	}
	if in.DateOfBirth.IsZero() {
		return uuid.Nil, httperr.Validation("date of birth is required")
	}

	p := &Patient{
		FirstName:             in.FirstName,
		LastName:              in.LastName,
		DateOfBirth:           in.DateOfBirth,
		PhoneNumber:           in.PhoneNumber,
		Address:               in.Address,
		EmergencyContactName:  in.EmergencyContactName,
		EmergencyContactPhone: in.EmergencyContactPhone,
		InsuranceID:           in.InsuranceID,
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		return s.creds.CreateForPatient(ctx, p.ID, in.Email, in.Password)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return p.ID, nil
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*WithEmail, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.repo.GetByID(ctx, id)
}

// Update applies a partial update to the profile and, when email or
// password are supplied, to the credential, in one transaction. Allowed
// for an admin or for the patient themself.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, patch Patch, email, password *string) error {
	if !identity.OwnsPatient(id) {
		return httperr.Forbidden("not allowed to modify this patient")
	}
	if patch.IsZero() && email == nil && password == nil {
		return httperr.Validation("no fields to update")
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		if !patch.IsZero() {
			if err := s.repo.Update(ctx, id, patch); err != nil {
				return err
			}
		}
		if email != nil || password != nil {
			return s.creds.UpdateForPatient(ctx, id, email, password)
		}
		return nil
	})
}

// Delete removes the profile and everything that transitively
// references it. Admin only (enforced at the route).
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.purger.DeletePatient(ctx, id)
}

// GetOwnProfile returns the calling patient's joined profile view.
func (s *Service) GetOwnProfile(ctx context.Context, identity auth.Identity) (*Profile, error) {
	if identity.Role != auth.RolePatient || identity.PatientID == nil {
		return nil, httperr.Forbidden("patient credentials required")
	}
	return s.repo.GetProfile(ctx, *identity.PatientID)
}

// LinkInsurance points the calling patient's profile at an insurance
// record.
func (s *Service) LinkInsurance(ctx context.Context, identity auth.Identity, insuranceID uuid.UUID) error {
	if identity.Role != auth.RolePatient || identity.PatientID == nil {
		return httperr.Forbidden("patient credentials required")
	}
	return s.repo.SetInsurance(ctx, *identity.PatientID, insuranceID)
}
