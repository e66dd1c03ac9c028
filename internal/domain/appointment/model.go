package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusScheduled Status = "Scheduled"
	StatusCompleted Status = "Completed"
	StatusCancelled Status = "Cancelled"
	StatusNoShow    Status = "No-Show"
	StatusArchived  Status = "Archived"
)

// transitions is the full state machine. Cancelled, No-Show and
// Archived have no outgoing edges.
var transitions = map[Status][]Status{
	StatusScheduled: {StatusCompleted, StatusCancelled, StatusNoShow},
	StatusCompleted: {StatusArchived},
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow, StatusArchived:
		return Status(s), true
	}
	return "", false
}

// CanTransitionTo reports whether the edge from s to next is legal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

type Appointment struct {
	ID        uuid.UUID `json:"appointment_id"`
	PatientID uuid.UUID `json:"patient_id"`
	DoctorID  uuid.UUID `json:"doctor_id"`
	Date      time.Time `json:"appointment_date"`
	Reason    string    `json:"reason_for_visit"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// WithDoctor is the patient-facing listing row.
type WithDoctor struct {
	Appointment
	DoctorFirstName string `json:"doctor_first_name"`
	DoctorLastName  string `json:"doctor_last_name"`
	Specialization  string `json:"specialization"`
}

// WithPatient is the doctor-facing listing row.
type WithPatient struct {
	Appointment
	PatientFirstName string `json:"patient_first_name"`
	PatientLastName  string `json:"patient_last_name"`
	PatientPhone     string `json:"patient_phone"`
}
