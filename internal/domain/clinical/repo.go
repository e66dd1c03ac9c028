package clinical

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	CreateDiagnosis(ctx context.Context, d *Diagnosis) error
	GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error)
	ListDiagnosesByAppointment(ctx context.Context, apptID uuid.UUID) ([]*Diagnosis, error)
	ListDiagnosesForPatient(ctx context.Context, patientID uuid.UUID) ([]*DiagnosisHistory, error)
	ListAllDiagnoses(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error)
	UpdateDiagnosis(ctx context.Context, id uuid.UUID, patch DiagnosisPatch) error
	DeleteDiagnosis(ctx context.Context, id uuid.UUID) error

	CreatePrescription(ctx context.Context, p *Prescription) error
	GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error)
	ListPrescriptionsByAppointment(ctx context.Context, apptID uuid.UUID) ([]*Prescription, error)
	ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*PrescriptionHistory, error)
	ListAllPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error)
	UpdatePrescription(ctx context.Context, id uuid.UUID, patch PrescriptionPatch) error
	DeletePrescription(ctx context.Context, id uuid.UUID) error
}
