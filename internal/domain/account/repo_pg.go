package account

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const cols = `user_id, email, password_hash, role, patient_id, doctor_id, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.UserID, &u.Email, &u.PasswordHash, &u.Role, &u.PatientID, &u.DoctorID, &u.CreatedAt)
	return &u, err
}

func (r *repoPG) Create(ctx context.Context, u *User) error {
	u.UserID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO users (user_id, email, password_hash, role, patient_id, doctor_id)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		u.UserID, u.Email, u.PasswordHash, u.Role, u.PatientID, u.DoctorID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return httperr.Conflict("email already registered")
		}
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM users WHERE email = $1`, email))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, httperr.Storage(err)
	}
	return u, nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := scanUser(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM users WHERE user_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("user not found")
		}
		return nil, httperr.Storage(err)
	}
	return u, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*User, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	users := make([]*User, 0, limit)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, httperr.Storage(err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return users, total, nil
}

func (r *repoPG) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET password_hash = $2 WHERE user_id = $1`, userID, passwordHash)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("user not found")
	}
	return nil
}

func (r *repoPG) UpdateByPatient(ctx context.Context, patientID uuid.UUID, email, passwordHash *string) error {
	return r.updateBy(ctx, "patient_id", patientID, email, passwordHash)
}

func (r *repoPG) UpdateByDoctor(ctx context.Context, doctorID uuid.UUID, email, passwordHash *string) error {
	return r.updateBy(ctx, "doctor_id", doctorID, email, passwordHash)
}

func (r *repoPG) updateBy(ctx context.Context, ownerCol string, ownerID uuid.UUID, email, passwordHash *string) error {
	sets := make([]string, 0, 2)
	args := []interface{}{ownerID}
	if email != nil {
		args = append(args, *email)
		sets = append(sets, fmt.Sprintf("email = $%d", len(args)))
	}
	if passwordHash != nil {
		args = append(args, *passwordHash)
		sets = append(sets, fmt.Sprintf("password_hash = $%d", len(args)))
	}
	if len(sets) == 0 {
		return nil
	}

	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE users SET `+strings.Join(sets, ", ")+` WHERE `+ownerCol+` = $1`, args...)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return httperr.Conflict("email already registered")
		}
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("credentials not found")
	}
	return nil
}
