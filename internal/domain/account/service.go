package account

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/clinic/clinic/internal/domain/doctor"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/auth"
	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

const minPasswordLen = 8

// invalidCredentials is the single message for every login failure so
// that unknown emails and wrong passwords are indistinguishable.
var invalidCredentials = httperr.Auth("invalid credentials")

type Service struct {
	repo     Repository
	patients patient.Repository
	doctors  doctor.Repository
	issuer   *auth.TokenIssuer
	inTx     db.Runner
	cost     int
}

func NewService(repo Repository, patients patient.Repository, doctors doctor.Repository, issuer *auth.TokenIssuer, inTx db.Runner, bcryptCost int) *Service {
	return &Service{repo: repo, patients: patients, doctors: doctors, issuer: issuer, inTx: inTx, cost: bcryptCost}
}

type RegisterInput struct {
	Email    string
	Password string
	Role     auth.Role

	FirstName   string
	LastName    string
	PhoneNumber string

	// Patient-only fields.
	DateOfBirth           time.Time
	Address               string
	EmergencyContactName  string
	EmergencyContactPhone string

	// Doctor-only field.
	Specialization string
}

// Register creates a profile row and its credential in one
// transaction; a duplicate email rolls back the profile as well.
func (s *Service) Register(ctx context.Context, in RegisterInput) (uuid.UUID, error) {
	if in.Role != auth.RolePatient && in.Role != auth.RoleDoctor {
		return uuid.Nil, httperr.Validation("role must be Patient or Doctor")
	}
	if in.FirstName == "" || in.LastName == "" {
		return uuid.Nil, httperr.Validation("first and last name are required")
	}
	hash, err := s.hash(in.Email, in.Password)
	if err != nil {
		return uuid.Nil, err
	}

	var profileID uuid.UUID
	err = s.inTx(ctx, func(ctx context.Context) error {
		u := &User{Email: in.Email, PasswordHash: hash, Role: in.Role}

		switch in.Role {
		case auth.RolePatient:
			if in.DateOfBirth.IsZero() {
				return httperr.Validation("date_of_birth is required")
			}
			p := &patient.Patient{
				FirstName:             in.FirstName,
				LastName:              in.LastName,
				DateOfBirth:           in.DateOfBirth,
				PhoneNumber:           in.PhoneNumber,
				Address:               in.Address,
				EmergencyContactName:  in.EmergencyContactName,
				EmergencyContactPhone: in.EmergencyContactPhone,
			}
			if err := s.patients.Create(ctx, p); err != nil {
				return err
			}
			profileID = p.ID
			u.PatientID = &p.ID
		case auth.RoleDoctor:
			if in.Specialization == "" {
				return httperr.Validation("specialization is required")
			}
			d := &doctor.Doctor{
				FirstName:      in.FirstName,
				LastName:       in.LastName,
				Specialization: in.Specialization,
				PhoneNumber:    in.PhoneNumber,
			}
			if err := s.doctors.Create(ctx, d); err != nil {
				return err
			}
			profileID = d.ID
			u.DoctorID = &d.ID
		}

		return s.repo.Create(ctx, u)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return profileID, nil
}

// CreateAdmin creates a credential with no profile. There is no public
// route for this; it is reachable from the CLI and from an
// admin-authenticated endpoint only.
func (s *Service) CreateAdmin(ctx context.Context, email, password string) error {
	hash, err := s.hash(email, password)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &User{Email: email, PasswordHash: hash, Role: auth.RoleAdmin})
}

func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, invalidCredentials
	}
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return LoginResult{}, invalidCredentials
		}
		return LoginResult{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return LoginResult{}, invalidCredentials
	}

	token, err := s.issuer.Issue(u.identity())
	if err != nil {
		return LoginResult{}, httperr.Storage(err)
	}
	res := LoginResult{Token: token, Role: u.Role}
	if pid := u.identity().ProfileID(); pid != uuid.Nil {
		res.ProfileID = &pid
	}
	return res, nil
}

// Resolve verifies the bearer token and re-reads the account so that a
// deleted user or a changed role takes effect immediately; the claims
// carried in the token never override the database.
func (s *Service) Resolve(ctx context.Context, token string) (auth.Identity, error) {
	userID, err := s.issuer.Verify(token)
	if err != nil {
		return auth.Identity{}, err
	}
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if httperr.IsKind(err, httperr.KindNotFound) {
			return auth.Identity{}, httperr.Auth("user not found")
		}
		return auth.Identity{}, err
	}
	return u.identity(), nil
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]*User, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) ChangePassword(ctx context.Context, identity auth.Identity, current, next string) error {
	if len(next) < minPasswordLen {
		return httperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	u, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)) != nil {
		return httperr.Auth("current password is incorrect")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return httperr.Storage(err)
	}
	return s.repo.UpdatePassword(ctx, identity.UserID, string(hash))
}

// CreateForPatient and the methods below satisfy the CredentialStore
// interfaces the profile registries declare; they run inside the
// caller's transaction.

func (s *Service) CreateForPatient(ctx context.Context, patientID uuid.UUID, email, password string) error {
	hash, err := s.hash(email, password)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &User{Email: email, PasswordHash: hash, Role: auth.RolePatient, PatientID: &patientID})
}

func (s *Service) CreateForDoctor(ctx context.Context, doctorID uuid.UUID, email, password string) error {
	hash, err := s.hash(email, password)
	if err != nil {
		return err
	}
	return s.repo.Create(ctx, &User{Email: email, PasswordHash: hash, Role: auth.RoleDoctor, DoctorID: &doctorID})
}

func (s *Service) UpdateForPatient(ctx context.Context, patientID uuid.UUID, email, password *string) error {
	hash, err := s.optionalHash(password)
	if err != nil {
		return err
	}
	return s.repo.UpdateByPatient(ctx, patientID, email, hash)
}

func (s *Service) UpdateForDoctor(ctx context.Context, doctorID uuid.UUID, email, password *string) error {
	hash, err := s.optionalHash(password)
	if err != nil {
		return err
	}
	return s.repo.UpdateByDoctor(ctx, doctorID, email, hash)
}

func (s *Service) hash(email, password string) (string, error) {
	if email == "" {
		return "", httperr.Validation("email is required")
	}
	if len(password) < minPasswordLen {
		return "", httperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", httperr.Storage(err)
	}
	return string(hash), nil
}

func (s *Service) optionalHash(password *string) (*string, error) {
	if password == nil {
		return nil, nil
	}
	if len(*password) < minPasswordLen {
		return nil, httperr.Validation("password must be at least %d characters", minPasswordLen)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(*password), s.cost)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	h := string(hash)
	return &h, nil
}
