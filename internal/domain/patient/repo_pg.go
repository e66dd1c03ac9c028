package patient

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

const cols = `patient_id, first_name, last_name, date_of_birth, phone_number, address,
	emergency_contact_name, emergency_contact_phone, insurance_id, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FirstName, &p.LastName, &p.DateOfBirth, &p.PhoneNumber, &p.Address,
		&p.EmergencyContactName, &p.EmergencyContactPhone, &p.InsuranceID, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO patients (patient_id, first_name, last_name, date_of_birth, phone_number,
			address, emergency_contact_name, emergency_contact_phone, insurance_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		p.ID, p.FirstName, p.LastName, p.DateOfBirth, p.PhoneNumber,
		p.Address, p.EmergencyContactName, p.EmergencyContactPhone, p.InsuranceID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Validation("insurance record does not exist")
		}
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM patients WHERE patient_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("patient not found")
		}
		return nil, httperr.Storage(err)
	}
	return p, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*WithEmail, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.patient_id, p.first_name, p.last_name, p.date_of_birth, p.phone_number,
			p.address, p.emergency_contact_name, p.emergency_contact_phone, p.insurance_id,
			p.created_at, COALESCE(u.email, '')
		FROM patients p
		LEFT JOIN users u ON u.patient_id = p.patient_id
		ORDER BY p.last_name, p.first_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	var items []*WithEmail
	for rows.Next() {
		var w WithEmail
		if err := rows.Scan(&w.ID, &w.FirstName, &w.LastName, &w.DateOfBirth, &w.PhoneNumber,
			&w.Address, &w.EmergencyContactName, &w.EmergencyContactPhone, &w.InsuranceID,
			&w.CreatedAt, &w.Email); err != nil {
			return nil, 0, httperr.Storage(err)
		}
		items = append(items, &w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return items, total, nil
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	cols, vals := patch.Columns()
	if len(cols) == 0 {
		return nil
	}

	set := make([]string, len(cols))
	for i, col := range cols {
		set[i] = fmt.Sprintf("%s = $%d", col, i+2)
	}
	args := append([]interface{}{id}, vals...)

	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET `+strings.Join(set, ", ")+` WHERE patient_id = $1`, args...)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Validation("insurance record does not exist")
		}
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("patient not found")
	}
	return nil
}

func (r *repoPG) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var pr Profile
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT p.patient_id, p.first_name, p.last_name, p.date_of_birth, p.phone_number,
			p.address, p.emergency_contact_name, p.emergency_contact_phone, p.insurance_id,
			p.created_at, COALESCE(u.email, ''), i.insurance_provider, i.policy_number
		FROM patients p
		LEFT JOIN users u ON u.patient_id = p.patient_id
		LEFT JOIN insurance i ON i.insurance_id = p.insurance_id
		WHERE p.patient_id = $1`, id).
		Scan(&pr.ID, &pr.FirstName, &pr.LastName, &pr.DateOfBirth, &pr.PhoneNumber,
			&pr.Address, &pr.EmergencyContactName, &pr.EmergencyContactPhone, &pr.InsuranceID,
			&pr.CreatedAt, &pr.Email, &pr.InsuranceProvider, &pr.PolicyNumber)
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("patient not found")
		}
		return nil, httperr.Storage(err)
	}
	return &pr, nil
}

func (r *repoPG) SetInsurance(ctx context.Context, id, insuranceID uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE patients SET insurance_id = $2 WHERE patient_id = $1`, id, insuranceID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Validation("insurance record does not exist")
		}
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("patient not found")
	}
	return nil
}
