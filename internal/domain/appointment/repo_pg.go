package appointment

import (
	"context"

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

const cols = `appointment_id, patient_id, doctor_id, appointment_date, reason_for_visit, status, created_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Reason, &a.Status, &a.CreatedAt)
	return &a, err
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	a.ID = uuid.New()
	if a.Status == "" {
		a.Status = StatusScheduled
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO appointments (appointment_id, patient_id, doctor_id, appointment_date, reason_for_visit, status)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		a.ID, a.PatientID, a.DoctorID, a.Date, a.Reason, a.Status)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return httperr.Conflict("doctor already booked at that time")
		}
		if db.IsForeignKeyViolation(err) {
			return httperr.Validation("patient or doctor does not exist")
		}
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := scanAppointment(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM appointments WHERE appointment_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("appointment not found")
		}
		return nil, httperr.Storage(err)
	}
	return a, nil
}

func (r *repoPG) ListAll(ctx context.Context, limit, offset int) ([]*Appointment, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM appointments ORDER BY appointment_date DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	appts := make([]*Appointment, 0, limit)
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, httperr.Storage(err)
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return appts, total, nil
}

func (r *repoPG) ListForPatient(ctx context.Context, patientID uuid.UUID, archived bool) ([]*WithDoctor, error) {
	q := `
		SELECT a.appointment_id, a.patient_id, a.doctor_id, a.appointment_date,
			a.reason_for_visit, a.status, a.created_at,
			d.first_name, d.last_name, d.specialization
		FROM appointments a
		JOIN doctors d ON d.doctor_id = a.doctor_id
		WHERE a.patient_id = $1 AND a.status <> 'Archived'
		ORDER BY a.appointment_date ASC`
	if archived {
		q = `
		SELECT a.appointment_id, a.patient_id, a.doctor_id, a.appointment_date,
			a.reason_for_visit, a.status, a.created_at,
			d.first_name, d.last_name, d.specialization
		FROM appointments a
		JOIN doctors d ON d.doctor_id = a.doctor_id
		WHERE a.patient_id = $1 AND a.status = 'Archived'
		ORDER BY a.appointment_date DESC`
	}

	rows, err := r.conn(ctx).Query(ctx, q, patientID)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var appts []*WithDoctor
	for rows.Next() {
		var a WithDoctor
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Reason, &a.Status, &a.CreatedAt,
			&a.DoctorFirstName, &a.DoctorLastName, &a.Specialization); err != nil {
			return nil, httperr.Storage(err)
		}
		appts = append(appts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return appts, nil
}

func (r *repoPG) ListForDoctor(ctx context.Context, doctorID uuid.UUID, archived bool) ([]*WithPatient, error) {
	q := `
		SELECT a.appointment_id, a.patient_id, a.doctor_id, a.appointment_date,
			a.reason_for_visit, a.status, a.created_at,
			p.first_name, p.last_name, p.phone_number
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.doctor_id = $1 AND a.status <> 'Archived'
		ORDER BY a.appointment_date ASC`
	if archived {
		q = `
		SELECT a.appointment_id, a.patient_id, a.doctor_id, a.appointment_date,
			a.reason_for_visit, a.status, a.created_at,
			p.first_name, p.last_name, p.phone_number
		FROM appointments a
		JOIN patients p ON p.patient_id = a.patient_id
		WHERE a.doctor_id = $1 AND a.status = 'Archived'
		ORDER BY a.appointment_date DESC`
	}

	rows, err := r.conn(ctx).Query(ctx, q, doctorID)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var appts []*WithPatient
	for rows.Next() {
		var a WithPatient
		if err := rows.Scan(&a.ID, &a.PatientID, &a.DoctorID, &a.Date, &a.Reason, &a.Status, &a.CreatedAt,
			&a.PatientFirstName, &a.PatientLastName, &a.PatientPhone); err != nil {
			return nil, httperr.Storage(err)
		}
		appts = append(appts, &a)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return appts, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status = $2 WHERE appointment_id = $1`, id, status)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("appointment not found")
	}
	return nil
}

// Delete removes clinical children first so the FK constraints hold at
// every point inside the transaction.
func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	c := r.conn(ctx)
	if _, err := c.Exec(ctx, `DELETE FROM prescriptions WHERE appointment_id = $1`, id); err != nil {
		return httperr.Storage(err)
	}
	if _, err := c.Exec(ctx, `DELETE FROM diagnoses WHERE appointment_id = $1`, id); err != nil {
		return httperr.Storage(err)
	}
	tag, err := c.Exec(ctx, `DELETE FROM appointments WHERE appointment_id = $1`, id)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("appointment not found")
	}
	return nil
}
