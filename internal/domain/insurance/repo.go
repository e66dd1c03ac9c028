package insurance

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, i *Insurance) error
	GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error)
	GetForPatient(ctx context.Context, patientID uuid.UUID) (*Insurance, error)
	List(ctx context.Context, limit, offset int) ([]*Insurance, int, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
	Delete(ctx context.Context, id uuid.UUID) error
}
