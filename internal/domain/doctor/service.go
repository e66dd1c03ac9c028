package doctor

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

// CredentialStore is the slice of the account service the doctor
// registry needs for two-table create/update transactions.
type CredentialStore interface {
	CreateForDoctor(ctx context.Context, doctorID uuid.UUID, email, password string) error
	UpdateForDoctor(ctx context.Context, doctorID uuid.UUID, email, password *string) error
}

// Purger performs the cascading profile delete.
type Purger interface {
	DeleteDoctor(ctx context.Context, id uuid.UUID) error
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

type CreateInput struct {
	Email          string
	Password       string
	FirstName      string
	LastName       string
	Specialization string
	PhoneNumber    string
}

// Create inserts the profile row and its credential in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (uuid.UUID, error) {
	if in.FirstName == "" || in.LastName == "" {
		return uuid.Nil, httperr.Validation("first and last name are required")
	}
	if in.Specialization == "" {
		return uuid.Nil, httperr.Validation("specialization is required")
	}

	d := &Doctor{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Specialization: in.Specialization,
		PhoneNumber:    in.PhoneNumber,
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, d); err != nil {
			return err
		}
		return s.creds.CreateForDoctor(ctx, d.ID, in.Email, in.Password)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return d.ID, nil
}

// List is the public directory used by the booking UI; it carries no
// credential data.
func (s *Service) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	return s.repo.List(ctx, limit, offset)
}

// ListWithEmail is the admin listing.
func (s *Service) ListWithEmail(ctx context.Context, limit, offset int) ([]*WithEmail, int, error) {
	return s.repo.ListWithEmail(ctx, limit, offset)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error) {
	if specialization == "" {
		return nil, httperr.Validation("specialization is required")
	}
	return s.repo.ListBySpecialization(ctx, specialization)
}

func (s *Service) Specializations(ctx context.Context) ([]string, error) {
	return s.repo.Specializations(ctx)
}

// Update applies a partial update; admin or the doctor themself.
func (s *Service) Update(ctx context.Context, identity auth.Identity, id uuid.UUID, patch Patch, email, password *string) error {
	if !identity.OwnsDoctor(id) {
		return httperr.Forbidden("not allowed to modify this doctor")
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
			return s.creds.UpdateForDoctor(ctx, id, email, password)
		}
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.purger.DeleteDoctor(ctx, id)
}
