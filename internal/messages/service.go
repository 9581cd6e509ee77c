package messages

import (
	"context"
	"fmt"

	"github.com/2beens/progressboard/internal/patients"
	"github.com/2beens/progressboard/internal/progress"
	"github.com/2beens/progressboard/internal/records"
)

type patientGetter interface {
	Get(ctx context.Context, id int) (*patients.Patient, error)
}

type seriesSource interface {
	Series(ctx context.Context, patientID int, m records.Measurement) ([]progress.WeeklyRecord, error)
}

// Service computes note variables from the stored patient and records.
type Service struct {
	patients patientGetter
	series   seriesSource
}

func NewService(patients patientGetter, series seriesSource) *Service {
	return &Service{
		patients: patients,
		series:   series,
	}
}

func (s *Service) Variables(ctx context.Context, patientID, week int, m records.Measurement) (Variables, error) {
	patient, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return Variables{}, fmt.Errorf("get patient %d: %w", patientID, err)
	}

	series, err := s.series.Series(ctx, patientID, m)
	if err != nil {
		return Variables{}, err
	}

	return BuildVariables(*patient, m, series, week), nil
}
