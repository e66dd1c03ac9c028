package patient

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*WithEmail, int, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	SetInsurance(ctx context.Context, id, insuranceID uuid.UUID) error
}
