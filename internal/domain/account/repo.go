package account

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	List(ctx context.Context, limit, offset int) ([]*User, int, error)
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error
	UpdateByPatient(ctx context.Context, patientID uuid.UUID, email, passwordHash *string) error
	UpdateByDoctor(ctx context.Context, doctorID uuid.UUID, email, passwordHash *string) error
}
