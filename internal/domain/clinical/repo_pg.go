package clinical

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

const diagnosisCols = `diagnosis_id, appointment_id, diagnosis_description, notes, created_at`

func scanDiagnosis(row pgx.Row) (*Diagnosis, error) {
	var d Diagnosis
	err := row.Scan(&d.ID, &d.AppointmentID, &d.Description, &d.Notes, &d.CreatedAt)
	return &d, err
}

func (r *repoPG) CreateDiagnosis(ctx context.Context, d *Diagnosis) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO diagnoses (diagnosis_id, appointment_id, diagnosis_description, notes)
		VALUES ($1,$2,$3,$4)`,
		d.ID, d.AppointmentID, d.Description, d.Notes)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Validation("appointment does not exist")
		}
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetDiagnosis(ctx context.Context, id uuid.UUID) (*Diagnosis, error) {
	d, err := scanDiagnosis(r.conn(ctx).QueryRow(ctx,
		`SELECT `+diagnosisCols+` FROM diagnoses WHERE diagnosis_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("diagnosis not found")
		}
		return nil, httperr.Storage(err)
	}
	return d, nil
}

func (r *repoPG) ListDiagnosesByAppointment(ctx context.Context, apptID uuid.UUID) ([]*Diagnosis, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+diagnosisCols+` FROM diagnoses WHERE appointment_id = $1 ORDER BY created_at ASC`, apptID)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var out []*Diagnosis
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, httperr.Storage(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) ListDiagnosesForPatient(ctx context.Context, patientID uuid.UUID) ([]*DiagnosisHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT x.diagnosis_id, x.appointment_id, x.diagnosis_description, x.notes, x.created_at,
			a.appointment_date, d.first_name, d.last_name
		FROM diagnoses x
		JOIN appointments a ON a.appointment_id = x.appointment_id
		JOIN doctors d ON d.doctor_id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC`, patientID)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var out []*DiagnosisHistory
	for rows.Next() {
		var h DiagnosisHistory
		if err := rows.Scan(&h.ID, &h.AppointmentID, &h.Description, &h.Notes, &h.CreatedAt,
			&h.AppointmentDate, &h.DoctorFirstName, &h.DoctorLastName); err != nil {
			return nil, httperr.Storage(err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) ListAllDiagnoses(ctx context.Context, limit, offset int) ([]*Diagnosis, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM diagnoses`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+diagnosisCols+` FROM diagnoses ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	out := make([]*Diagnosis, 0, limit)
	for rows.Next() {
		d, err := scanDiagnosis(rows)
		if err != nil {
			return nil, 0, httperr.Storage(err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return out, total, nil
}

func (r *repoPG) UpdateDiagnosis(ctx context.Context, id uuid.UUID, patch DiagnosisPatch) error {
	sets := make([]string, 0, 2)
	args := []interface{}{id}
	if patch.Description != nil {
		args = append(args, *patch.Description)
		sets = append(sets, fmt.Sprintf("diagnosis_description = $%d", len(args)))
	}
	if patch.Notes != nil {
		args = append(args, *patch.Notes)
		sets = append(sets, fmt.Sprintf("notes = $%d", len(args)))
	}
	return r.update(ctx, "diagnoses", "diagnosis_id", "diagnosis not found", sets, args)
}

func (r *repoPG) DeleteDiagnosis(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM diagnoses WHERE diagnosis_id = $1`, id)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("diagnosis not found")
	}
	return nil
}

const prescriptionCols = `prescription_id, appointment_id, medication_name, dosage, duration, instructions, created_at`

func scanPrescription(row pgx.Row) (*Prescription, error) {
	var p Prescription
	err := row.Scan(&p.ID, &p.AppointmentID, &p.Medication, &p.Dosage, &p.Duration, &p.Instructions, &p.CreatedAt)
	return &p, err
}

func (r *repoPG) CreatePrescription(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO prescriptions (prescription_id, appointment_id, medication_name, dosage, duration, instructions)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		p.ID, p.AppointmentID, p.Medication, p.Dosage, p.Duration, p.Instructions)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Validation("appointment does not exist")
		}
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetPrescription(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, err := scanPrescription(r.conn(ctx).QueryRow(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE prescription_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("prescription not found")
		}
		return nil, httperr.Storage(err)
	}
	return p, nil
}

func (r *repoPG) ListPrescriptionsByAppointment(ctx context.Context, apptID uuid.UUID) ([]*Prescription, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions WHERE appointment_id = $1 ORDER BY created_at ASC`, apptID)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var out []*Prescription
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, httperr.Storage(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) ListPrescriptionsForPatient(ctx context.Context, patientID uuid.UUID) ([]*PrescriptionHistory, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT x.prescription_id, x.appointment_id, x.medication_name, x.dosage, x.duration, x.instructions, x.created_at,
			a.appointment_date, d.first_name, d.last_name
		FROM prescriptions x
		JOIN appointments a ON a.appointment_id = x.appointment_id
		JOIN doctors d ON d.doctor_id = a.doctor_id
		WHERE a.patient_id = $1
		ORDER BY a.appointment_date DESC`, patientID)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var out []*PrescriptionHistory
	for rows.Next() {
		var h PrescriptionHistory
		if err := rows.Scan(&h.ID, &h.AppointmentID, &h.Medication, &h.Dosage, &h.Duration, &h.Instructions, &h.CreatedAt,
			&h.AppointmentDate, &h.DoctorFirstName, &h.DoctorLastName); err != nil {
			return nil, httperr.Storage(err)
		}
		out = append(out, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return out, nil
}

func (r *repoPG) ListAllPrescriptions(ctx context.Context, limit, offset int) ([]*Prescription, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM prescriptions`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+prescriptionCols+` FROM prescriptions ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	out := make([]*Prescription, 0, limit)
	for rows.Next() {
		p, err := scanPrescription(rows)
		if err != nil {
			return nil, 0, httperr.Storage(err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return out, total, nil
}

func (r *repoPG) UpdatePrescription(ctx context.Context, id uuid.UUID, patch PrescriptionPatch) error {
	sets := make([]string, 0, 4)
	args := []interface{}{id}
	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("medication_name", patch.Medication)
	add("dosage", patch.Dosage)
	add("duration", patch.Duration)
	add("instructions", patch.Instructions)
	return r.update(ctx, "prescriptions", "prescription_id", "prescription not found", sets, args)
}

func (r *repoPG) DeletePrescription(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM prescriptions WHERE prescription_id = $1`, id)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("prescription not found")
	}
	return nil
}

func (r *repoPG) update(ctx context.Context, table, idCol, notFound string, sets []string, args []interface{}) error {
	if len(sets) == 0 {
		return nil
	}
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE `+table+` SET `+strings.Join(sets, ", ")+` WHERE `+idCol+` = $1`, args...)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound(notFound)
	}
	return nil
}
