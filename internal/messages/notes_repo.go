package messages

import (
	"context"
	"errors"
	"time"

	"github.com/2beens/progressboard/internal/telemetry/tracing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNoteNotFound = errors.New("weekly note not found")

// Note is the coaching note of one patient week.
type Note struct {
	PatientID int       `json:"patientId"`
	Week      int       `json:"week"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type NotesRepo struct {
	db *pgxpool.Pool
}

func NewNotesRepo(db *pgxpool.Pool) *NotesRepo {
	return &NotesRepo{
		db: db,
	}
}

func (r *NotesRepo) Save(ctx context.Context, note Note) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notes.save")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if note.UpdatedAt.IsZero() {
		note.UpdatedAt = time.Now()
	}

	_, err = r.db.Exec(
		ctx,
		`INSERT INTO weekly_note (patient_id, week_number, body, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (patient_id, week_number) DO UPDATE SET
				body = EXCLUDED.body,
				updated_at = EXCLUDED.updated_at;`,
		note.PatientID, note.Week, note.Body, note.UpdatedAt,
	)
	return err
}

func (r *NotesRepo) Get(ctx context.Context, patientID, week int) (_ *Note, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "repo.notes.get")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	note := Note{PatientID: patientID, Week: week}
	if err := r.db.QueryRow(
		ctx,
		`SELECT body, updated_at FROM weekly_note WHERE patient_id = $1 AND week_number = $2;`,
		patientID, week,
	).Scan(&note.Body, &note.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, err
	}

	return &note, nil
}
