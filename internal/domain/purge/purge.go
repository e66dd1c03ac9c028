// Package purge removes a profile and everything that hangs off it in
// a single transaction.
package purge

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/db"
	"github.com/clinic/clinic/internal/platform/httperr"
)

// queryable is the slice of pgx.Tx the cascade issues statements
// through. Tests substitute a fake to assert the deletion order and
// rollback without a database.
type queryable interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type Coordinator struct {
	conn   func(ctx context.Context) queryable
	inTx   db.Runner
	logger zerolog.Logger
}

func NewCoordinator(pool *pgxpool.Pool, logger zerolog.Logger) *Coordinator {
	return &Coordinator{
		conn: func(ctx context.Context) queryable {
			if tx := db.TxFromContext(ctx); tx != nil {
				return tx
			}
			return pool
		},
		inTx:   db.NewRunner(pool),
		logger: logger,
	}
}

// DeletePatient removes the patient's clinical records, appointments,
// credential and profile. A missing profile rolls everything back with
// NotFound.
func (c *Coordinator) DeletePatient(ctx context.Context, id uuid.UUID) error {
	return c.inTx(ctx, func(ctx context.Context) error {
		if err := c.cascade(ctx, "patient_id", id); err != nil {
			return err
		}
		q := c.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM users WHERE patient_id = $1`, id); err != nil {
			return httperr.Storage(err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM patients WHERE patient_id = $1`, id)
		if err != nil {
			return httperr.Storage(err)
		}
		if tag.RowsAffected() == 0 {
			return httperr.NotFound("patient not found")
		}
		c.logger.Info().Str("patient_id", id.String()).Msg("patient purged")
		return nil
	})
}

// DeleteDoctor is the doctor-side counterpart of DeletePatient.
func (c *Coordinator) DeleteDoctor(ctx context.Context, id uuid.UUID) error {
	return c.inTx(ctx, func(ctx context.Context) error {
		if err := c.cascade(ctx, "doctor_id", id); err != nil {
			return err
		}
		q := c.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM users WHERE doctor_id = $1`, id); err != nil {
			return httperr.Storage(err)
		}
		tag, err := q.Exec(ctx, `DELETE FROM doctors WHERE doctor_id = $1`, id)
		if err != nil {
			return httperr.Storage(err)
		}
		if tag.RowsAffected() == 0 {
			return httperr.NotFound("doctor not found")
		}
		c.logger.Info().Str("doctor_id", id.String()).Msg("doctor purged")
		return nil
	})
}

// cascade deletes the clinical records and appointments tied to the
// given profile column. Children go first so the FK constraints hold
// at every statement.
func (c *Coordinator) cascade(ctx context.Context, ownerCol string, id uuid.UUID) error {
	q := c.conn(ctx)

	rows, err := q.Query(ctx,
		`SELECT appointment_id FROM appointments WHERE `+ownerCol+` = $1`, id)
	if err != nil {
		return httperr.Storage(err)
	}
	var apptIDs []uuid.UUID
	for rows.Next() {
		var apptID uuid.UUID
		if err := rows.Scan(&apptID); err != nil {
			rows.Close()
			return httperr.Storage(err)
		}
		apptIDs = append(apptIDs, apptID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return httperr.Storage(err)
	}
	if len(apptIDs) == 0 {
		return nil
	}

	if _, err := q.Exec(ctx, `DELETE FROM prescriptions WHERE appointment_id = ANY($1)`, apptIDs); err != nil {
		return httperr.Storage(err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM diagnoses WHERE appointment_id = ANY($1)`, apptIDs); err != nil {
		return httperr.Storage(err)
	}
	if _, err := q.Exec(ctx, `DELETE FROM appointments WHERE `+ownerCol+` = $1`, id); err != nil {
		return httperr.Storage(err)
	}
	return nil
}
