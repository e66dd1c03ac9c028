package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

type Service struct {
	repo Repository
	inTx db.Runner
}

func NewService(repo Repository, inTx db.Runner) *Service {
	return &Service{repo: repo, inTx: inTx}
}

// Book schedules an appointment for the calling patient.
func (s *Service) Book(ctx context.Context, identity auth.Identity, doctorID uuid.UUID, date time.Time, reason string) (*Appointment, error) {
	if identity.Role != auth.RolePatient || identity.PatientID == nil {
		return nil, httperr.Validation("only patients can book appointments")
	}
	if date.IsZero() {
		return nil, httperr.Validation("appointment_date is required")
	}

	a := &Appointment{
		PatientID: *identity.PatientID,
		DoctorID:  doctorID,
		Date:      date,
		Reason:    reason,
		Status:    StatusScheduled,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Create is the admin form of Book; any patient/doctor pair.
func (s *Service) Create(ctx context.Context, patientID, doctorID uuid.UUID, date time.Time, reason string) (*Appointment, error) {
	if date.IsZero() {
		return nil, httperr.Validation("appointment_date is required")
	}
	a := &Appointment{
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      date,
		Reason:    reason,
		Status:    StatusScheduled,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	return s.repo.ListAll(ctx, limit, offset)
}

func (s *Service) ListForPatient(ctx context.Context, identity auth.Identity, patientID uuid.UUID, archived bool) ([]*WithDoctor, error) {
	if !identity.OwnsPatient(patientID) {
		return nil, httperr.Forbidden("not allowed to view these appointments")
	}
	return s.repo.ListForPatient(ctx, patientID, archived)
}

func (s *Service) ListForDoctor(ctx context.Context, identity auth.Identity, doctorID uuid.UUID, archived bool) ([]*WithPatient, error) {
	if !identity.OwnsDoctor(doctorID) {
		return nil, httperr.Forbidden("not allowed to view these appointments")
	}
	return s.repo.ListForDoctor(ctx, doctorID, archived)
}

// UpdateStatus enforces ownership and the state machine. Checks run in
// a fixed order: existence, ownership, patient archive rules, edge
// legality.
func (s *Service) UpdateStatus(ctx context.Context, identity auth.Identity, id uuid.UUID, next Status) error {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	switch identity.Role {
	case auth.RoleDoctor:
		if identity.DoctorID == nil || *identity.DoctorID != a.DoctorID {
			return httperr.Forbidden("not allowed to modify this appointment")
		}
	case auth.RolePatient:
		if identity.PatientID == nil || *identity.PatientID != a.PatientID {
			return httperr.Forbidden("not allowed to modify this appointment")
		}
		if next != StatusArchived {
			return httperr.Forbidden("patients may only archive appointments")
		}
	}

	if !a.Status.CanTransitionTo(next) {
		return httperr.Validation("cannot transition from %s to %s", a.Status, next)
	}
	return s.repo.UpdateStatus(ctx, id, next)
}

// Delete removes the appointment and its clinical records in one
// transaction.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.inTx(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, id)
	})
}
