package patients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/progressboard/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

func (r *Repo) Add(ctx context.Context, patient *Patient) (_ *Patient, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.patients.add")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	metadataJson, err := json.Marshal(patient.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	var id int
	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO patient
				(full_name, unit, metadata, created_at)
				VALUES ($1, $2, $3, $4)
			RETURNING id;`,
		patient.FullName, string(patient.Unit), metadataJson, patient.CreatedAt,
	).Scan(&id); err != nil {
		return nil, err
	}

	patient.ID = id
	span.SetAttributes(attribute.Int("patient.id", id))
	return patient, nil
}

func (r *Repo) Get(ctx context.Context, id int) (_ *Patient, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.patients.get")
	defer func() {
		if errors.Is(err, ErrPatientNotFound) {
			span.End()
			return
		}
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("patient.id", id))

	rows, err := r.db.Query(
		ctx,
		`SELECT id, full_name, unit, metadata, created_at
			FROM patient
			WHERE id = $1;`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients, err := rows2patients(rows)
	if err != nil {
		return nil, err
	}

	if len(patients) != 1 {
		return nil, ErrPatientNotFound
	}

	return &patients[0], nil
}

func (r *Repo) List(ctx context.Context) (_ []Patient, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.patients.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT id, full_name, unit, metadata, created_at
			FROM patient
			ORDER BY full_name, id;`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2patients(rows)
}

func (r *Repo) Update(ctx context.Context, patient *Patient) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.patients.update")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	metadataJson, err := json.Marshal(patient.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}

	tag, err := r.db.Exec(
		ctx,
		`UPDATE patient SET full_name = $1, unit = $2, metadata = $3 WHERE id = $4;`,
		patient.FullName, string(patient.Unit), metadataJson, patient.ID,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}

	return nil
}

// Delete removes the patient together with all weekly records and notes.
func (r *Repo) Delete(ctx context.Context, id int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.patients.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(ctx, `DELETE FROM patient WHERE id = $1;`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

func rows2patients(rows pgx.Rows) ([]Patient, error) {
	var patients []Patient
	for rows.Next() {
		var p Patient
		var unit string
		var metadataJson []byte
		if err := rows.Scan(&p.ID, &p.FullName, &unit, &metadataJson, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		p.Unit = Unit(unit)

		if len(metadataJson) > 0 {
			if err := json.Unmarshal(metadataJson, &p.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata for patient %d: %w", p.ID, err)
			}
		}

		patients = append(patients, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return patients, nil
}
