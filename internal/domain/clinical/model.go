package clinical

import (
	"time"

	"github.com/google/uuid"
)

type Diagnosis struct {
	ID            uuid.UUID `json:"diagnosis_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Description   string    `json:"diagnosis_description"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Prescription struct {
	ID            uuid.UUID `json:"prescription_id"`
	AppointmentID uuid.UUID `json:"appointment_id"`
	Medication    string    `json:"medication_name"`
	Dosage        string    `json:"dosage"`
	Duration      string    `json:"duration"`
	Instructions  string    `json:"instructions,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// DiagnosisHistory is a patient-history row joined with the
// appointment and the treating doctor.
type DiagnosisHistory struct {
	Diagnosis
	AppointmentDate time.Time `json:"appointment_date"`
	DoctorFirstName string    `json:"doctor_first_name"`
	DoctorLastName  string    `json:"doctor_last_name"`
}

type PrescriptionHistory struct {
	Prescription
	AppointmentDate time.Time `json:"appointment_date"`
	DoctorFirstName string    `json:"doctor_first_name"`
	DoctorLastName  string    `json:"doctor_last_name"`
}

type DiagnosisPatch struct {
	Description *string
	Notes       *string
}

func (p DiagnosisPatch) IsZero() bool {
	return p.Description == nil && p.Notes == nil
}

type PrescriptionPatch struct {
	Medication   *string
	Dosage       *string
	Duration     *string
	Instructions *string
}

func (p PrescriptionPatch) IsZero() bool {
	return p.Medication == nil && p.Dosage == nil && p.Duration == nil && p.Instructions == nil
}
