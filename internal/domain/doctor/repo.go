package doctor

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, d *Doctor) error
	GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	List(ctx context.Context, limit, offset int) ([]*Doctor, int, error)
	ListWithEmail(ctx context.Context, limit, offset int) ([]*WithEmail, int, error)
	ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error)
	Specializations(ctx context.Context) ([]string, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) error
}
