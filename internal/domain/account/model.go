package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/auth"
)

// User is a credential row. The password hash never serializes.
type User struct {
	UserID       uuid.UUID  `json:"user_id"`
	Email        string     `json:"email"`
	Role         auth.Role  `json:"role"`
	PatientID    *uuid.UUID `json:"patient_id,omitempty"`
	DoctorID     *uuid.UUID `json:"doctor_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	PasswordHash string     `json:"-"`
}

// LoginResult is what a successful login hands back to the client.
type LoginResult struct {
	Token     string     `json:"token"`
	Role      auth.Role  `json:"role"`
	ProfileID *uuid.UUID `json:"profile_id,omitempty"`
}

func (u *User) identity() auth.Identity {
	return auth.Identity{
		UserID:    u.UserID,
		Role:      u.Role,
		PatientID: u.PatientID,
		DoctorID:  u.DoctorID,
	}
}
