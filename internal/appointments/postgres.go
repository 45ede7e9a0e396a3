package appointments

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB abstracts the pgx pool for testing.
type DB interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostgresPersister stores appointments in the appointments table. Save
// replaces the table contents in one transaction.
type PostgresPersister struct {
	db DB
}

// NewPostgresPersister creates a Postgres-backed persister.
func NewPostgresPersister(db DB) *PostgresPersister {
	if db == nil {
		panic("appointments: postgres db required")
	}
	return &PostgresPersister{db: db}
}

// Load reads every row of the appointments table.
func (p *PostgresPersister) Load(ctx context.Context) ([]Appointment, error) {
	rows, err := p.db.Query(ctx, `
		SELECT id, patient_id, patient_name, practitioner_id, title, notes, start_at, end_at, status, created_at, updated_at
		FROM appointments
		ORDER BY start_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("appointments: load: %w", err)
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(
			&a.ID, &a.PatientID, &a.PatientName, &a.PractitionerID, &a.Title, &a.Notes,
			&a.Start, &a.End, &status, &a.CreatedAt, &a.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		a.Status = Status(status)
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: rows: %w", err)
	}
	return out, nil
}

// Save replaces the table contents with appts in one transaction.
func (p *PostgresPersister) Save(ctx context.Context, appts []Appointment) error {
	tx, err := p.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("appointments: begin: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM appointments`); err != nil {
		_ = tx.Rollback(ctx)
		return fmt.Errorf("appointments: clear: %w", err)
	}
	for _, a := range appts {
		if _, err := tx.Exec(ctx, `
			INSERT INTO appointments (id, patient_id, patient_name, practitioner_id, title, notes, start_at, end_at, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
			a.ID, a.PatientID, a.PatientName, a.PractitionerID, a.Title, a.Notes,
			a.Start, a.End, string(a.Status), a.CreatedAt, a.UpdatedAt,
		); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("appointments: insert %s: %w", a.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("appointments: commit: %w", err)
	}
	return nil
}
