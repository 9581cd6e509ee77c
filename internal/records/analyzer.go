package records

import (
	"context"
	"fmt"

	"github.com/2beens/progressboard/internal/progress"
	"github.com/2beens/progressboard/internal/telemetry/metrics"
	"github.com/2beens/progressboard/internal/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

type recordsLister interface {
	ListForPatient(ctx context.Context, patientID int) ([]Record, error)
}

// Analyzer loads a patient's full series and runs the progress engine over it.
// Nothing is cached: every call sees the latest overrides.
type Analyzer struct {
	repo           recordsLister
	metricsManager *metrics.Manager
}

func NewAnalyzer(repo recordsLister, metricsManager *metrics.Manager) *Analyzer {
	return &Analyzer{
		repo:           repo,
		metricsManager: metricsManager,
	}
}

func (a *Analyzer) Series(ctx context.Context, patientID int, m Measurement) ([]progress.WeeklyRecord, error) {
	recs, err := a.repo.ListForPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list records for patient %d: %w", patientID, err)
	}
	return ToSeries(recs, m), nil
}

func (a *Analyzer) WeekMetrics(ctx context.Context, patientID, week int, m Measurement) (_ progress.WeekMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.records.weekMetrics")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("patient.id", patientID),
		attribute.Int("record.week", week),
		attribute.String("measurement", string(m)),
	)

	series, err := a.Series(ctx, patientID, m)
	if err != nil {
		return progress.WeekMetrics{}, err
	}

	wm := progress.Summarize(series, week)
	a.observe(wm)
	return wm, nil
}

func (a *Analyzer) Timeline(ctx context.Context, patientID int, m Measurement) (_ []progress.WeekMetrics, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "analyzer.records.timeline")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()
	span.SetAttributes(
		attribute.Int("patient.id", patientID),
		attribute.String("measurement", string(m)),
	)

	series, err := a.Series(ctx, patientID, m)
	if err != nil {
		return nil, err
	}

	timeline := progress.Timeline(series)
	for _, wm := range timeline {
		a.observe(wm)
	}
	return timeline, nil
}

// observe counts the outcome of each metric of one computed week.
func (a *Analyzer) observe(wm progress.WeekMetrics) {
	if a.metricsManager == nil {
		return
	}
	counter := a.metricsManager.CounterMetricComputations

	if wm.MomentumRate != nil {
		counter.WithLabelValues("momentum", metrics.OutcomeOK).Inc()
	} else {
		counter.WithLabelValues("momentum", metrics.OutcomeInsufficientData).Inc()
	}

	switch {
	case wm.OverallRate != nil:
		counter.WithLabelValues("overall", metrics.OutcomeOK).Inc()
	case wm.DivisionGuarded:
		counter.WithLabelValues("overall", metrics.OutcomeDivisionGuarded).Inc()
	default:
		counter.WithLabelValues("overall", metrics.OutcomeInsufficientData).Inc()
	}

	if wm.OutlierClamped {
		counter.WithLabelValues("trend", metrics.OutcomeOutlierClamped).Inc()
	} else {
		counter.WithLabelValues("trend", metrics.OutcomeOK).Inc()
	}
}

