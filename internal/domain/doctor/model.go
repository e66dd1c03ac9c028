package doctor

import (
	"time"

	"github.com/google/uuid"
)

// Doctor maps to the doctors table.
type Doctor struct {
	ID             uuid.UUID `db:"doctor_id" json:"doctor_id"`
	FirstName      string    `db:"first_name" json:"first_name"`
	LastName       string    `db:"last_name" json:"last_name"`
	Specialization string    `db:"specialization" json:"specialization"`
	PhoneNumber    string    `db:"phone_number" json:"phone_number"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// WithEmail is the admin listing row.
type WithEmail struct {
	Doctor
	Email string `json:"email"`
}

// Patch is the partial-update structure for doctor profiles.
type Patch struct {
	FirstName      *string `json:"first_name"`
	LastName       *string `json:"last_name"`
	Specialization *string `json:"specialization"`
	PhoneNumber    *string `json:"phone_number"`
}

func (p Patch) IsZero() bool {
	return p.FirstName == nil && p.LastName == nil &&
		p.Specialization == nil && p.PhoneNumber == nil
}

// Columns compiles the patch into parallel column/value slices in a
// fixed order.
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
	if p.Specialization != nil {
		add("specialization", *p.Specialization)
	}
	if p.PhoneNumber != nil {
		add("phone_number", *p.PhoneNumber)
	}
	return cols, vals
}
