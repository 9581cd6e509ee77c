package records

import (
	"context"
	"fmt"
	"time"

	"github.com/2beens/progressboard/internal/telemetry/tracing"
	"github.com/2beens/progressboard/pkg"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/attribute"
)

const recordColumns = `id, patient_id, week_number, weight, waist, notes, recorded_at, updated_at`

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{
		db: db,
	}
}

// Upsert stores the record for its (patient, week). A second write for the
// same week overrides the first one.
func (r *Repo) Upsert(ctx context.Context, record *Record) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.upsert")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("patient.id", record.PatientID),
		attribute.Int("record.week", record.WeekNumber),
	)

	if record.RecordedAt.IsZero() {
		record.RecordedAt = time.Now()
	}
	record.UpdatedAt = time.Now()

	if err := r.db.QueryRow(
		ctx,
		`INSERT INTO weekly_record
				(patient_id, week_number, weight, waist, notes, recorded_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (patient_id, week_number) DO UPDATE SET
				weight = EXCLUDED.weight,
				waist = EXCLUDED.waist,
				notes = EXCLUDED.notes,
				recorded_at = EXCLUDED.recorded_at,
				updated_at = EXCLUDED.updated_at
			RETURNING id;`,
		record.PatientID, record.WeekNumber, record.Weight, record.Waist,
		record.Notes, record.RecordedAt, record.UpdatedAt,
	).Scan(&record.ID); err != nil {
		if pkg.IsForeignKeyViolationError(err) {
			return nil, fmt.Errorf("%w: %d", ErrUnknownPatient, record.PatientID)
		}
		return nil, err
	}

	return record, nil
}

func (r *Repo) Get(ctx context.Context, patientID, week int) (_ *Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+recordColumns+`
			FROM weekly_record
			WHERE patient_id = $1 AND week_number = $2;`,
		patientID, week,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	found, err := rows2records(rows)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, ErrRecordNotFound
	}

	return &found[0], nil
}

func (r *Repo) Delete(ctx context.Context, patientID, week int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.delete")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	tag, err := r.db.Exec(
		ctx,
		`DELETE FROM weekly_record WHERE patient_id = $1 AND week_number = $2;`,
		patientID, week,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListForPatient returns every record of the patient ordered by week.
func (r *Repo) ListForPatient(ctx context.Context, patientID int) (_ []Record, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.records.list")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(attribute.Int("patient.id", patientID))

	rows, err := r.db.Query(
		ctx,
		`SELECT `+recordColumns+`
			FROM weekly_record
			WHERE patient_id = $1
			ORDER BY week_number;`,
		patientID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2records(rows)
}

// ListUpdatedSince returns records written after since, oldest first.
// A zero since returns everything.
func (r *Repo) ListUpdatedSince(ctx context.Context, since time.Time) (_ []Record, err error) {
	ctx, span := tracing.GlobalBackupTracer.Start(ctx, "repo.records.updatedSince")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	rows, err := r.db.Query(
		ctx,
		`SELECT `+recordColumns+`
			FROM weekly_record
			WHERE updated_at > $1
			ORDER BY updated_at, id;`,
		since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return rows2records(rows)
}

func rows2records(rows pgx.Rows) ([]Record, error) {
	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.PatientID, &rec.WeekNumber, &rec.Weight, &rec.Waist,
			&rec.Notes, &rec.RecordedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("rows scan: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return records, nil
}
