package doctor

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

const cols = `doctor_id, first_name, last_name, specialization, phone_number, created_at`

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Specialization, &d.PhoneNumber, &d.CreatedAt)
	return &d, err
}

func (r *repoPG) Create(ctx context.Context, d *Doctor) error {
	d.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO doctors (doctor_id, first_name, last_name, specialization, phone_number)
		VALUES ($1,$2,$3,$4,$5)`,
		d.ID, d.FirstName, d.LastName, d.Specialization, d.PhoneNumber)
	if err != nil {
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	d, err := scanDoctor(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM doctors WHERE doctor_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("doctor not found")
		}
		return nil, httperr.Storage(err)
	}
	return d, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Doctor, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM doctors ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, 0, httperr.Storage(err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return items, total, nil
}

func (r *repoPG) ListWithEmail(ctx context.Context, limit, offset int) ([]*WithEmail, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM doctors`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT d.doctor_id, d.first_name, d.last_name, d.specialization, d.phone_number,
			d.created_at, COALESCE(u.email, '')
		FROM doctors d
		LEFT JOIN users u ON u.doctor_id = d.doctor_id
		ORDER BY d.last_name, d.first_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	var items []*WithEmail
	for rows.Next() {
		var w WithEmail
		if err := rows.Scan(&w.ID, &w.FirstName, &w.LastName, &w.Specialization, &w.PhoneNumber,
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

func (r *repoPG) ListBySpecialization(ctx context.Context, specialization string) ([]*Doctor, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM doctors WHERE LOWER(specialization) = LOWER($1) ORDER BY last_name, first_name`,
		specialization)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var items []*Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, httperr.Storage(err)
		}
		items = append(items, d)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return items, nil
}

func (r *repoPG) Specializations(ctx context.Context) ([]string, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT DISTINCT specialization FROM doctors ORDER BY specialization`)
	if err != nil {
		return nil, httperr.Storage(err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, httperr.Storage(err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, httperr.Storage(err)
	}
	return out, nil
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
		`UPDATE doctors SET `+strings.Join(set, ", ")+` WHERE doctor_id = $1`, args...)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("doctor not found")
	}
	return nil
}
