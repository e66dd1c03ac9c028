package clinical

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/appointment"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

type mockApptRepo struct {
	appts map[uuid.UUID]*appointment.Appointment
}

func (m *mockApptRepo) Create(ctx context.Context, a *appointment.Appointment) error {
	a.ID = uuid.New()
	m.appts[a.ID] = a
	return nil
}

func (m *mockApptRepo) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := m.appts[id]
	if !ok {
		return nil, httperr.NotFound("appointment not found")
	}
	return a, nil
}

func (m *mockApptRepo) ListAll(ctx context.Context, limit, offset int) ([]*appointment.Appointment, int, error) {
	return nil, 0, nil
}

func (m *mockApptRepo) ListForPatient(ctx context.Context, patientID uuid.UUID, archived bool) ([]*appointment.WithDoctor, error) {
	return nil, nil
}

func (m *mockApptRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID, archived bool) ([]*appointment.WithPatient, error) {
	return nil, nil
}

func (m *mockApptRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status appointment.Status) error {
	a, ok := m.appts[id]
	if !ok {
		return httperr.NotFound("appointment not found")
	}
	a.Status = status
	return nil
}

func (m *mockApptRepo) Delete(ctx context.Context, id uuid.UUID) error {
	delete(m.appts, id)
	return nil
}

type mockRepo struct {
	diagnoses     map[uuid.UUID]*Diagnosis
	prescriptions map[uuid.UUID]*Prescription
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		diagnoses:     make(map[uuid.UUID]*Diagnosis),
		prescriptions: make(map[uuid.UUID]*Prescription),
	}
}

func (m *mockRepo) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	d.CreatedAt = time.Now()
	m.diagnoses[d.ID] = d
	return nil
}

func (m *mockRepo) GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	d, ok := m.diagnoses[id]
	if !ok {
		return nil, httperr.NotFound("diagnosis not found")
	}
	return d, nil
}

func (m *mockRepo) ListDiagnosesByAppointment(ctx context.Context, apptID uuid.UUID) ([]*Diagnosis, error) {
	var out []*Diagnosis
	for _, d := range m.diagnoses {
		if d.AppointmentID == apptID {
			out = append(out, d)
		}
	}
	return out, nil
}

func (m *mockRepo) ListDiagnosesForPatient(ctx context.Context, patientID uuid.UUID) ([]*DiagnosisHistory, error) {
	return nil, nil
}

func (m *mockRepo) ListAllDiagnoses(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error) {
	out := make([]*Diagnosis, 0, len(m.diagnoses))
	for _, d := range m.diagnoses {
		out = append(out, d)
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateDiagnosis(ctx context.Context, id uuid.UUID, patch DiagnosisPatch) error {
	d, ok := m.diagnoses[id]
	if !ok {
		return httperr.NotFound("diagnosis not found")
	}
	if patch.Description != nil {
		d.Description = *patch.Description
	}
	if patch.Notes != nil {
		d.Notes = *patch.Notes
	}
	return nil
}

func (m *mockRepo) DeleteDiagnosis(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.diagnoses[id]; !ok {
		return httperr.NotFound("diagnosis not found")
	}
	delete(m.diagnoses, id)
	return nil
}

func (m *mockRepo) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	m.prescriptions[p.ID] = p
	return nil
}

func (m *mockRepo) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, httperr.NotFound("prescription not found")
	}
	return p, nil
}

func (m *mockRepo) ListPrescriptionsByAppointment(ctx context.Context, apptID uuid.UUID) ([]*Prescription, error) {
	var out []*Prescription
	for _, p := range m.prescriptions {
		if p.AppointmentID == apptID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*PrescriptionHistory, error) {
	return nil, nil
}

func (m *mockRepo) ListAllPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	out := make([]*Prescription, 0, len(m.prescriptions))
	for _, p := range m.prescriptions {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdatePrescription(ctx context.Context, id uuid.UUID, patch PrescriptionPatch) error {
	p, ok := m.prescriptions[id]
	if !ok {
		return httperr.NotFound("prescription not found")
	}
	if patch.Medication != nil {
		p.Medication = *patch.Medication
	}
	return nil
}

func (m *mockRepo) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.prescriptions[id]; !ok {
		return httperr.NotFound("prescription not found")
	}
	delete(m.prescriptions, id)
	return nil
}

// txRunner restores clinical rows and appointment statuses on failure.
func txRunner(repo *mockRepo, appts *mockApptRepo) db.Runner {
	return func(ctx context.Context, fn func(context.Context) error) error {
		diagSnap := make(map[uuid.UUID]*Diagnosis, len(repo.diagnoses))
		for k, v := range repo.diagnoses {
			diagSnap[k] = v
		}
		presSnap := make(map[uuid.UUID]*Prescription, len(repo.prescriptions))
		for k, v := range repo.prescriptions {
			presSnap[k] = v
		}
		apptSnap := make(map[uuid.UUID]*appointment.Appointment, len(appts.appts))
		for k, v := range appts.appts {
			cp := *v
			apptSnap[k] = &cp
		}
		if err := fn(ctx); err != nil {
			repo.diagnoses = diagSnap
			repo.prescriptions = presSnap
			appts.appts = apptSnap
			return err
		}
		return nil
	}
}

type fixture struct {
	svc       *Service
	repo      *mockRepo
	appts     *mockApptRepo
	apptID    uuid.UUID
	patientID uuid.UUID
	doctorID  uuid.UUID
}

func newFixture() *fixture {
	repo := newMockRepo()
	appts := &mockApptRepo{appts: make(map[uuid.UUID]*appointment.Appointment)}

	apptID, patientID, doctorID := uuid.New(), uuid.New(), uuid.New()
	appts.appts[apptID] = &appointment.Appointment{
		ID:        apptID,
		PatientID: patientID,
		DoctorID:  doctorID,
		Date:      time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC),
		Status:    appointment.StatusScheduled,
	}

	return &fixture{
		svc:       NewService(repo, appts, txRunner(repo, appts)),
		repo:      repo,
		appts:     appts,
		apptID:    apptID,
		patientID: patientID,
		doctorID:  doctorID,
	}
}

func doctorIdentity(id uuid.UUID) auth.Identity {
	return auth.Identity{UserID: uuid.New(), Role: auth.RoleDoctor, DoctorID: &id}
}

func patientIdentity(id uuid.UUID) auth.Identity {
	return auth.Identity{UserID: uuid.New(), Role: auth.RolePatient, PatientID: &id}
}

func admin() auth.Identity {
	return auth.Identity{UserID: uuid.New(), Role: auth.RoleAdmin}
}

func TestAddDiagnosis_AssignedDoctorOnly(t *testing.T) {
	f := newFixture()
	in := DiagnosisInput{Description: "acute bronchitis"}

	_, err := f.svc.AddDiagnosis(context.Background(), doctorIdentity(uuid.New()), f.apptID, in)
	if httperr.KindOf(err) != httperr.KindForbidden {
		t.Errorf("expected forbidden for another doctor, got %v", err)
	}

	_, err = f.svc.AddDiagnosis(context.Background(), patientIdentity(f.patientID), f.apptID, in)
	if httperr.KindOf(err) != httperr.KindForbidden {
		t.Errorf("expected forbidden for patient, got %v", err)
	}

	d, err := f.svc.AddDiagnosis(context.Background(), doctorIdentity(f.doctorID), f.apptID, in)
	if err != nil {
		t.Fatalf("assigned doctor: %v", err)
	}
	if f.repo.diagnoses[d.ID] == nil {
		t.Error("diagnosis not stored")
	}
}

func TestAddDiagnosis_EmptyDescription(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AddDiagnosis(context.Background(), doctorIdentity(f.doctorID), f.apptID, DiagnosisInput{})
	if httperr.KindOf(err) != httperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestAddPrescription_UnknownAppointment(t *testing.T) {
	f := newFixture()
	_, err := f.svc.AddPrescription(context.Background(), doctorIdentity(f.doctorID), uuid.New(),
		PrescriptionInput{Medication: "amoxicillin"})
	if httperr.KindOf(err) != httperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestListByAppointment_Participants(t *testing.T) {
	f := newFixture()
	if _, err := f.svc.AddDiagnosis(context.Background(), doctorIdentity(f.doctorID), f.apptID,
		DiagnosisInput{Description: "flu"}); err != nil {
		t.Fatal(err)
	}

	for _, identity := range []auth.Identity{
		doctorIdentity(f.doctorID),
		patientIdentity(f.patientID),
		admin(),
	} {
		got, err := f.svc.ListDiagnosesByAppointment(context.Background(), identity, f.apptID)
		if err != nil {
			t.Errorf("%s: %v", identity.Role, err)
			continue
		}
		if len(got) != 1 {
			t.Errorf("%s: got %d diagnoses", identity.Role, len(got))
		}
	}

	_, err := f.svc.ListDiagnosesByAppointment(context.Background(), patientIdentity(uuid.New()), f.apptID)
	if httperr.KindOf(err) != httperr.KindForbidden {
		t.Errorf("expected forbidden for outsider, got %v", err)
	}
}

func TestPatientHistory_OwnershipEnforced(t *testing.T) {
	f := newFixture()

	_, err := f.svc.ListPrescriptionsForPatient(context.Background(), patientIdentity(uuid.New()), f.patientID)
	if httperr.KindOf(err) != httperr.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
	if _, err := f.svc.ListPrescriptionsForPatient(context.Background(), admin(), f.patientID); err != nil {
		t.Errorf("admin history: %v", err)
	}
}

func TestUpdateDiagnosis_AssignedDoctorOnly(t *testing.T) {
	f := newFixture()
	d, err := f.svc.AddDiagnosis(context.Background(), doctorIdentity(f.doctorID), f.apptID,
		DiagnosisInput{Description: "flu"})
	if err != nil {
		t.Fatal(err)
	}

	desc := "influenza A"
	patch := DiagnosisPatch{Description: &desc}

	err = f.svc.UpdateDiagnosis(context.Background(), doctorIdentity(uuid.New()), d.ID, patch)
	if httperr.KindOf(err) != httperr.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
	if err := f.svc.UpdateDiagnosis(context.Background(), doctorIdentity(f.doctorID), d.ID, patch); err != nil {
		t.Fatalf("update: %v", err)
	}
	if f.repo.diagnoses[d.ID].Description != desc {
		t.Error("patch not applied")
	}

	err = f.svc.UpdateDiagnosis(context.Background(), doctorIdentity(f.doctorID), uuid.New(), patch)
	if httperr.KindOf(err) != httperr.KindNotFound {
		t.Errorf("expected not found for missing diagnosis, got %v", err)
	}
}

func TestCompleteConsultation(t *testing.T) {
	f := newFixture()

	err := f.svc.CompleteConsultation(context.Background(), doctorIdentity(f.doctorID), f.apptID,
		DiagnosisInput{Description: "acute bronchitis"},
		[]PrescriptionInput{
			{Medication: "amoxicillin", Dosage: "500mg", Duration: "7 days"},
			{Medication: "ibuprofen", Dosage: "200mg", Duration: "as needed"},
		})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got := f.appts.appts[f.apptID].Status; got != appointment.StatusCompleted {
		t.Errorf("status = %v, want Completed", got)
	}
	if len(f.repo.diagnoses) != 1 || len(f.repo.prescriptions) != 2 {
		t.Errorf("stored %d diagnoses, %d prescriptions", len(f.repo.diagnoses), len(f.repo.prescriptions))
	}
}

func TestCompleteConsultation_AlreadyCompletedRollsBack(t *testing.T) {
	f := newFixture()
	f.appts.appts[f.apptID].Status = appointment.StatusCompleted

	err := f.svc.CompleteConsultation(context.Background(), doctorIdentity(f.doctorID), f.apptID,
		DiagnosisInput{Description: "second visit"}, nil)
	if httperr.KindOf(err) != httperr.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(f.repo.diagnoses) != 0 {
		t.Errorf("expected rollback, found %d diagnoses", len(f.repo.diagnoses))
	}
}

func TestCompleteConsultation_EmptyMedicationRejected(t *testing.T) {
	f := newFixture()

	err := f.svc.CompleteConsultation(context.Background(), doctorIdentity(f.doctorID), f.apptID,
		DiagnosisInput{Description: "flu"}, []PrescriptionInput{{}})
	if httperr.KindOf(err) != httperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}
