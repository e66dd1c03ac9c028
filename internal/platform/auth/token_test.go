package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/platform/httperr"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	pid := uuid.New()
	id := Identity{UserID: uuid.New(), Role: RolePatient, PatientID: &pid}

	token, err := issuer.Issue(id)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	userID, err := issuer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != id.UserID {
		t.Errorf("expected subject %s, got %s", id.UserID, userID)
	}
}

func TestTokenIssuer_Expired(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, -time.Minute)
	token, err := issuer.Issue(Identity{UserID: uuid.New(), Role: RoleAdmin})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err = issuer.Verify(token)
	if httperr.KindOf(err) != httperr.KindAuth {
		t.Errorf("expected auth error for expired token, got %v", err)
	}
}

func TestTokenIssuer_WrongKey(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	token, err := issuer.Issue(Identity{UserID: uuid.New(), Role: RoleDoctor})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewTokenIssuer([]byte("another-secret-key-of-32-bytes!!"), time.Hour)
	if _, err := other.Verify(token); httperr.KindOf(err) != httperr.KindAuth {
		t.Errorf("expected auth error for wrong key, got %v", err)
	}
}

func TestTokenIssuer_Garbage(t *testing.T) {
	issuer := NewTokenIssuer(testSecret, time.Hour)
	if _, err := issuer.Verify("not.a.token"); httperr.KindOf(err) != httperr.KindAuth {
		t.Errorf("expected auth error for garbage token, got %v", err)
	}
}

func TestIdentity_ProfileID(t *testing.T) {
	pid, did := uuid.New(), uuid.New()
	cases := []struct {
		name string
		id   Identity
		want uuid.UUID
	}{
		{"patient", Identity{Role: RolePatient, PatientID: &pid}, pid},
		{"doctor", Identity{Role: RoleDoctor, DoctorID: &did}, did},
		{"admin", Identity{Role: RoleAdmin}, uuid.Nil},
		{"role/profile mismatch", Identity{Role: RolePatient, DoctorID: &did}, uuid.Nil},
	}
	for _, tc := range cases {
		if got := tc.id.ProfileID(); got != tc.want {
			t.Errorf("%s: ProfileID() = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestIdentity_Ownership(t *testing.T) {
	pid := uuid.New()
	patient := Identity{Role: RolePatient, PatientID: &pid}
	if !patient.OwnsPatient(pid) {
		t.Error("patient should own their own profile")
	}
	if patient.OwnsPatient(uuid.New()) {
		t.Error("patient must not own another profile")
	}
	if patient.OwnsDoctor(uuid.New()) {
		t.Error("patient must not pass doctor ownership")
	}

	admin := Identity{Role: RoleAdmin}
	if !admin.OwnsPatient(pid) || !admin.OwnsDoctor(uuid.New()) {
		t.Error("admin bypasses ownership checks")
	}
}

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"Admin", "Doctor", "Patient"} {
		if _, ok := ParseRole(valid); !ok {
			t.Errorf("expected %q to parse", valid)
		}
	}
	for _, invalid := range []string{"admin", "superuser", ""} {
		if _, ok := ParseRole(invalid); ok {
			t.Errorf("expected %q to be rejected", invalid)
		}
	}
}
