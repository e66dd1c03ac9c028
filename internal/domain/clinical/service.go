package clinical

import (
	"context"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/appointment"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

type Service struct {
	repo  Repository
	appts appointment.Repository
	inTx  db.Runner
}

func NewService(repo Repository, appts appointment.Repository, inTx db.Runner) *Service {
	return &Service{repo: repo, appts: appts, inTx: inTx}
}

// assigned loads the appointment and checks that the caller is the
// doctor assigned to it (or an admin).
func (s *Service) assigned(ctx context.Context, identity auth.Identity, apptID uuid.UUID) (*appointment.Appointment, error) {
	a, err := s.appts.GetByID(ctx, apptID)
	if err != nil {
		return nil, err
	}
	if !identity.OwnsDoctor(a.DoctorID) {
		return nil, httperr.Forbidden("only the assigned doctor can modify clinical records")
	}
	return a, nil
}

// participant checks that the caller is the assigned doctor, the
// appointment's patient, or an admin.
func (s *Service) participant(ctx context.Context, identity auth.Identity, apptID uuid.UUID) error {
	a, err := s.appts.GetByID(ctx, apptID)
	if err != nil {
		return err
	}
	if identity.OwnsDoctor(a.DoctorID) || identity.OwnsPatient(a.PatientID) {
		return nil
	}
	return httperr.Forbidden("not allowed to view these records")
}

type DiagnosisInput struct {
	Description string
	Notes       string
}

type PrescriptionInput struct {
	Medication   string
	Dosage       string
	Duration     string
	Instructions string
}

func (s *Service) AddDiagnosis(ctx context.Context, identity auth.Identity, apptID uuid.UUID, in DiagnosisInput) (*Diagnosis, error) {
	if in.Description == "" {
		return nil, httperr.Validation("diagnosis_description is required")
	}
	if _, err := s.assigned(ctx, identity, apptID); err != nil {
		return nil, err
	}
	d := &Diagnosis{AppointmentID: apptID, Description: in.Description, Notes: in.Notes}
	if err := s.repo.CreateDiagnosis(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) AddPrescription(ctx context.Context, identity auth.Identity, apptID uuid.UUID, in PrescriptionInput) (*Prescription, error) {
	if in.Medication == "" {
		return nil, httperr.Validation("medication_name is required")
	}
	if _, err := s.assigned(ctx, identity, apptID); err != nil {
		return nil, err
	}
	p := &Prescription{
		AppointmentID: apptID,
		Medication:    in.Medication,
		Dosage:        in.Dosage,
		Duration:      in.Duration,
		Instructions:  in.Instructions,
	}
	if err := s.repo.CreatePrescription(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListDiagnosesByAppointment(ctx context.Context, identity auth.Identity, apptID uuid.UUID) ([]*Diagnosis, error) {
	if err := s.participant(ctx, identity, apptID); err != nil {
		return nil, err
	}
	return s.repo.ListDiagnosesByAppointment(ctx, apptID)
}

func (s *Service) ListPrescriptionsByAppointment(ctx context.Context, identity auth.Identity, apptID uuid.UUID) ([]*Prescription, error) {
	if err := s.participant(ctx, identity, apptID); err != nil {
		return nil, err
	}
	return s.repo.ListPrescriptionsByAppointment(ctx, apptID)
}

func (s *Service) ListDiagnosesForPatient(ctx context.Context, identity auth.Identity, patientID uuid.UUID) ([]*DiagnosisHistory, error) {
	if !identity.OwnsPatient(patientID) {
		return nil, httperr.Forbidden("not allowed to view these records")
	}
	return s.repo.ListDiagnosesForPatient(ctx, patientID)
}

func (s *Service) ListPrescriptionsForPatient(ctx context.Context, identity auth.Identity, patientID uuid.UUID) ([]*PrescriptionHistory, error) {
	if !identity.OwnsPatient(patientID) {
		return nil, httperr.Forbidden("not allowed to view these records")
	}
	return s.repo.ListPrescriptionsForPatient(ctx, patientID)
}

func (s *Service) ListAllDiagnoses(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error) {
	return s.repo.ListAllDiagnoses(ctx, limit, offset)
}

func (s *Service) ListAllPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	return s.repo.ListAllPrescriptions(ctx, limit, offset)
}

func (s *Service) UpdateDiagnosis(ctx context.Context, identity auth.Identity, id uuid.UUID, patch DiagnosisPatch) error {
	if patch.IsZero() {
		return httperr.Validation("no fields to update")
	}
	d, err := s.repo.GetDiagnosis(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.assigned(ctx, identity, d.AppointmentID); err != nil {
		return err
	}
	return s.repo.UpdateDiagnosis(ctx, id, patch)
}

func (s *Service) DeleteDiagnosis(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	d, err := s.repo.GetDiagnosis(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.assigned(ctx, identity, d.AppointmentID); err != nil {
		return err
	}
	return s.repo.DeleteDiagnosis(ctx, id)
}

func (s *Service) UpdatePrescription(ctx context.Context, identity auth.Identity, id uuid.UUID, patch PrescriptionPatch) error {
	if patch.IsZero() {
		return httperr.Validation("no fields to update")
	}
	p, err := s.repo.GetPrescription(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.assigned(ctx, identity, p.AppointmentID); err != nil {
		return err
	}
	return s.repo.UpdatePrescription(ctx, id, patch)
}

func (s *Service) DeletePrescription(ctx context.Context, identity auth.Identity, id uuid.UUID) error {
	p, err := s.repo.GetPrescription(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.assigned(ctx, identity, p.AppointmentID); err != nil {
		return err
	}
	return s.repo.DeletePrescription(ctx, id)
}

// CompleteConsultation records the outcome of a visit in one
// transaction: the diagnosis, any prescriptions, and the transition to
// Completed. A failure anywhere rolls the whole consultation back.
func (s *Service) CompleteConsultation(ctx context.Context, identity auth.Identity, apptID uuid.UUID, diag DiagnosisInput, scripts []PrescriptionInput) error {
	if diag.Description == "" {
		return httperr.Validation("diagnosis_description is required")
	}
	for _, p := range scripts {
		if p.Medication == "" {
			return httperr.Validation("medication_name is required")
		}
	}

	return s.inTx(ctx, func(ctx context.Context) error {
		a, err := s.assigned(ctx, identity, apptID)
		if err != nil {
			return err
		}
		if !a.Status.CanTransitionTo(appointment.StatusCompleted) {
			return httperr.Validation("cannot transition from %s to %s", a.Status, appointment.StatusCompleted)
		}

		d := &Diagnosis{AppointmentID: apptID, Description: diag.Description, Notes: diag.Notes}
		if err := s.repo.CreateDiagnosis(ctx, d); err != nil {
			return err
		}
		for _, in := range scripts {
			p := &Prescription{
				AppointmentID: apptID,
				Medication:    in.Medication,
				Dosage:        in.Dosage,
				Duration:      in.Duration,
				Instructions:  in.Instructions,
			}
			if err := s.repo.CreatePrescription(ctx, p); err != nil {
				return err
			}
		}
		return s.appts.UpdateStatus(ctx, apptID, appointment.StatusCompleted)
	})
}
