package insurance

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

const cols = `insurance_id, insurance_provider, policy_number, coverage_details, created_at`

func scanInsurance(row pgx.Row) (*Insurance, error) {
	var i Insurance
	err := row.Scan(&i.ID, &i.Provider, &i.PolicyNumber, &i.CoverageDetails, &i.CreatedAt)
	return &i, err
}

func (r *repoPG) Create(ctx context.Context, i *Insurance) error {
	i.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO insurance (insurance_id, insurance_provider, policy_number, coverage_details)
		VALUES ($1,$2,$3,$4)`,
		i.ID, i.Provider, i.PolicyNumber, i.CoverageDetails)
	if err != nil {
		return httperr.Storage(err)
	}
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Insurance, error) {
	i, err := scanInsurance(r.conn(ctx).QueryRow(ctx,
		`SELECT `+cols+` FROM insurance WHERE insurance_id = $1`, id))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("insurance record not found")
		}
		return nil, httperr.Storage(err)
	}
	return i, nil
}

func (r *repoPG) GetForPatient(ctx context.Context, patientID uuid.UUID) (*Insurance, error) {
	i, err := scanInsurance(r.conn(ctx).QueryRow(ctx, `
		SELECT i.insurance_id, i.insurance_provider, i.policy_number, i.coverage_details, i.created_at
		FROM insurance i
		JOIN patients p ON p.insurance_id = i.insurance_id
		WHERE p.patient_id = $1`, patientID))
	if err != nil {
		if db.IsNoRows(err) {
			return nil, httperr.NotFound("no insurance on file")
		}
		return nil, httperr.Storage(err)
	}
	return i, nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Insurance, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance`).Scan(&total); err != nil {
		return nil, 0, httperr.Storage(err)
	}

	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+cols+` FROM insurance ORDER BY insurance_provider ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, httperr.Storage(err)
	}
	defer rows.Close()

	out := make([]*Insurance, 0, limit)
	for rows.Next() {
		i, err := scanInsurance(rows)
		if err != nil {
			return nil, 0, httperr.Storage(err)
		}
		out = append(out, i)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, httperr.Storage(err)
	}
	return out, total, nil
}

func (r *repoPG) Update(ctx context.Context, id uuid.UUID, patch Patch) error {
	sets := make([]string, 0, 3)
	args := []interface{}{id}
	add := func(col string, v *string) {
		if v != nil {
			args = append(args, *v)
			sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
		}
	}
	add("insurance_provider", patch.Provider)
	add("policy_number", patch.PolicyNumber)
	add("coverage_details", patch.CoverageDetails)
	if len(sets) == 0 {
		return nil
	}

	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE insurance SET `+strings.Join(sets, ", ")+` WHERE insurance_id = $1`, args...)
	if err != nil {
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("insurance record not found")
	}
	return nil
}

// Delete is blocked while any patient still references the record; the
// restrict FK surfaces as Conflict.
func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM insurance WHERE insurance_id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return httperr.Conflict("insurance record is in use by patients")
		}
		return httperr.Storage(err)
	}
	if tag.RowsAffected() == 0 {
		return httperr.NotFound("insurance record not found")
	}
	return nil
}
