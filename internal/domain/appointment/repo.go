package appointment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error)
	// ListForPatient returns active appointments date-ascending, or the
	// archived history date-descending.
	ListForPatient(ctx context.Context, patientID uuid.UUID, archived bool) ([]*WithDoctor, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, archived bool) ([]*WithPatient, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
	// Delete removes the appointment together with its prescriptions and
	// diagnoses; callers wrap it in a transaction.
	Delete(ctx context.Context, id uuid.UUID) error
}
