// Package auth carries the resolved request identity and the
// middleware that gates every protected route: bearer-token resolution
// (401) and role checks (403). Ownership checks against specific
// resources live in the domain services.
package auth

import (
	"context"

	"github.com/google/uuid"
)

// Role is the closed set of actor roles.
type Role string

const (
	RoleAdmin   Role = "Admin"
	RoleDoctor  Role = "Doctor"
	RolePatient Role = "Patient"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RolePatient:
		return Role(s), true
	}
	return "", false
}

// Identity is the resolved {user, role, profile} attached to an
// authenticated request. Exactly one of PatientID/DoctorID is set for
// the Patient/Doctor roles; both are nil for Admin.
type Identity struct {
	UserID    uuid.UUID
	Role      Role
	PatientID *uuid.UUID
	DoctorID  *uuid.UUID
}

// ProfileID returns the profile id paired with the identity's role, or
// uuid.Nil for Admin.
func (id Identity) ProfileID() uuid.UUID {
	switch {
	case id.Role == RolePatient && id.PatientID != nil:
		return *id.PatientID
	case id.Role == RoleDoctor && id.DoctorID != nil:
		return *id.DoctorID
	}
	return uuid.Nil
}

func (id Identity) IsAdmin() bool { return id.Role == RoleAdmin }

// OwnsPatient reports whether the identity may act on resources owned
// by the given patient profile. Admin always may.
func (id Identity) OwnsPatient(patientID uuid.UUID) bool {
	if id.IsAdmin() {
		return true
	}
	return id.Role == RolePatient && id.PatientID != nil && *id.PatientID == patientID
}

// OwnsDoctor is the doctor-side counterpart of OwnsPatient.
func (id Identity) OwnsDoctor(doctorID uuid.UUID) bool {
	if id.IsAdmin() {
		return true
	}
	return id.Role == RoleDoctor && id.DoctorID != nil && *id.DoctorID == doctorID
}

type identityKey struct{}

// WithIdentity attaches an identity to the context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext retrieves the identity set by the middleware.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
