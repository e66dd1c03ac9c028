package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patients table.
type Patient struct {
	ID                    uuid.UUID  `db:"patient_id" json:"patient_id"`
	FirstName             string     `db:"first_name" json:"first_name"`
	LastName              string     `db:"last_name" json:"last_name"`
	DateOfBirth           time.Time  `db:"date_of_birth" json:"date_of_birth"`
	PhoneNumber           string     `db:"phone_number" json:"phone_number"`
	Address               string     `db:"address" json:"address"`
	EmergencyContactName  string     `db:"emergency_contact_name" json:"emergency_contact_name"`
	EmergencyContactPhone string     `db:"emergency_contact_phone" json:"emergency_contact_phone"`
	InsuranceID           *uuid.UUID `db:"insurance_id" json:"insurance_id,omitempty"`
	CreatedAt             time.Time  `db:"created_at" json:"created_at"`
}

// WithEmail is the admin listing row: the profile joined with its
// credential's email.
type WithEmail struct {
	Patient
	Email string `json:"email"`
}

// Profile is the patient self-service view: profile, credential email
// and the linked insurance record, if any.
type Profile struct {
	Patient
	Email             string  `json:"email"`
	InsuranceProvider *string `json:"insurance_provider,omitempty"`
	PolicyNumber      *string `json:"policy_number,omitempty"`
}

// Patch is the explicit partial-update structure: absent fields are
// never written, so an update can change one field without clobbering
// the rest. The repository compiles it into a SET clause in a fixed
// column order.
type Patch struct {
	FirstName             *string    `json:"first_name"`
	LastName              *string    `json:"last_name"`
	DateOfBirth           *time.Time `json:"date_of_birth"`
	PhoneNumber           *string    `json:"phone_number"`
	Address               *string    `json:"address"`
	EmergencyContactName  *string    `json:"emergency_contact_name"`
	EmergencyContactPhone *string    `json:"emergency_contact_phone"`
	InsuranceID           *uuid.UUID `json:"insurance_id"`
}

// IsZero reports whether the patch carries no profile changes.
func (p Patch) IsZero() bool {
	return p.FirstName == nil && p.LastName == nil && p.DateOfBirth == nil &&
		p.PhoneNumber == nil && p.Address == nil &&
		p.EmergencyContactName == nil && p.EmergencyContactPhone == nil &&
		p.InsuranceID == nil
}

// Columns compiles the patch into parallel column/value slices in a
// fixed order, never via ad hoc per-call-site concatenation.
func (p Patch) Columns() ([]string, []interface{}) {
	var cols []string
	var vals []interface{}
	add := func(col string, v interface{}) {
		cols = append(cols, col)
		vals = append(vals, v)
	}
	if p.FirstName != nil {
		add("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		add("last_name", *p.LastName)
	}
	if p.DateOfBirth != nil {
		add("date_of_birth", *p.DateOfBirth)
	}
	if p.PhoneNumber != nil {
		add("phone_number", *p.PhoneNumber)
	}
	if p.Address != nil {
		add("address", *p.Address)
	}
	if p.EmergencyContactName != nil {
		add("emergency_contact_name", *p.EmergencyContactName)
	}
	if p.EmergencyContactPhone != nil {
		add("emergency_contact_phone", *p.EmergencyContactPhone)
	}
	if p.InsuranceID != nil {
		add("insurance_id", *p.InsuranceID)
	}
	return cols, vals
}
