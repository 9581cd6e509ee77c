package records

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/progressboard/internal/charts"
	"github.com/2beens/progressboard/internal/progress"
	"github.com/2beens/progressboard/internal/telemetry/metrics"
	"github.com/2beens/progressboard/internal/telemetry/tracing"
	"github.com/2beens/progressboard/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=records_test

type recordsRepo interface {
	Upsert(ctx context.Context, record *Record) (*Record, error)
	Get(ctx context.Context, patientID, week int) (*Record, error)
	Delete(ctx context.Context, patientID, week int) error
	ListForPatient(ctx context.Context, patientID int) ([]Record, error)
}

type MetricsResponse struct {
	PatientID   int         `json:"patientId"`
	Measurement Measurement `json:"measurement"`
	progress.WeekMetrics
}

type DeleteRecordResponse struct {
	PatientID int `json:"patientId"`
	Week      int `json:"week"`
}

type Handler struct {
	repo           recordsRepo
	analyzer       *Analyzer
	metricsManager *metrics.Manager
}

func NewHandler(repo recordsRepo, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		analyzer:       NewAnalyzer(repo, metricsManager),
		metricsManager: metricsManager,
	}
}

// HandleUpsert stores a weekly record. Posting the same week again is a coach
// override; every later read recomputes metrics from the new value.
func (handler *Handler) HandleUpsert(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.upsert")
	defer span.End()

	patientID, ok := pathInt(w, r, "pid")
	if !ok {
		return
	}

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var record Record
	if err := json.NewDecoder(r.Body).Decode(&record); err != nil {
		log.Errorf("upsert record, unmarshal json params: %s", err)
		http.Error(w, "save record failed", http.StatusBadRequest)
		return
	}
	record.PatientID = patientID

	if err := record.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	saved, err := handler.repo.Upsert(ctx, &record)
	if err != nil {
		if errors.Is(err, ErrUnknownPatient) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to save record [patient %d, week %d]: %s", patientID, record.WeekNumber, err)
		http.Error(w, "error, failed to save record", http.StatusInternalServerError)
		return
	}

	if handler.metricsManager != nil {
		handler.metricsManager.CounterRecordsWritten.Inc()
	}
	log.Debugf("weekly record saved: patient %d, week %d", patientID, saved.WeekNumber)

	handler.writeJSON(w, saved)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.list")
	defer span.End()

	patientID, ok := pathInt(w, r, "pid")
	if !ok {
		return
	}

	recs, err := handler.repo.ListForPatient(ctx, patientID)
	if err != nil {
		log.Errorf("list records for patient %d: %s", patientID, err)
		http.Error(w, "failed to get records", http.StatusInternalServerError)
		return
	}
	if recs == nil {
		recs = []Record{}
	}

	handler.writeJSON(w, recs)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.get")
	defer span.End()

	patientID, ok := pathInt(w, r, "pid")
	if !ok {
		return
	}
	week, ok := pathInt(w, r, "week")
	if !ok {
		return
	}

	rec, err := handler.repo.Get(ctx, patientID, week)
	if err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		log.Errorf("get record [patient %d, week %d]: %s", patientID, week, err)
		http.Error(w, "failed to get record", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, rec)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.delete")
	defer span.End()

	patientID, ok := pathInt(w, r, "pid")
	if !ok {
		return
	}
	week, ok := pathInt(w, r, "week")
	if !ok {
		return
	}

	if err := handler.repo.Delete(ctx, patientID, week); err != nil {
		if errors.Is(err, ErrRecordNotFound) {
			http.Error(w, "record not found", http.StatusNotFound)
			return
		}
		log.Errorf("delete record [patient %d, week %d]: %s", patientID, week, err)
		http.Error(w, "record not deleted", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, DeleteRecordResponse{PatientID: patientID, Week: week})
}

func (handler *Handler) HandleWeekMetrics(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.weekMetrics")
	defer span.End()

	patientID, ok := pathInt(w, r, "pid")
	if !ok {
		return
	}
	week, ok := pathInt(w, r, "week")
	if !ok {
		return
	}
	measurement, err := ParseMeasurement(r.URL.Query().Get("measurement"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	wm, err := handler.analyzer.WeekMetrics(ctx, patientID, week, measurement)
	if err != nil {
		log.Errorf("week metrics [patient %d, week %d]: %s", patientID, week, err)
		http.Error(w, "failed to compute metrics", http.StatusInternalServerError)
		return
	}

	handler.writeJSON(w, MetricsResponse{
		PatientID:   patientID,
		Measurement: measurement,
		WeekMetrics: wm,
	})
}

// HandleChart returns the chart payload as JSON, or CSV with ?format=csv.
func (handler *Handler) HandleChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.records.chart")
	defer span.End()

	patientID, ok := pathInt(w, r, "pid")
	if !ok {
		return
	}
	measurement, err := ParseMeasurement(r.URL.Query().Get("measurement"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	series, err := handler.analyzer.Series(ctx, patientID, measurement)
	if err != nil {
		log.Errorf("chart series [patient %d]: %s", patientID, err)
		http.Error(w, "failed to build chart", http.StatusInternalServerError)
		return
	}

	chart := charts.Build(patientID, string(measurement), series)

	if r.URL.Query().Get("format") == "csv" {
		var buf bytes.Buffer
		if err := charts.WriteCSV(&buf, chart); err != nil {
			log.Errorf("chart csv [patient %d]: %s", patientID, err)
			http.Error(w, "failed to build chart", http.StatusInternalServerError)
			return
		}
		pkg.WriteResponseBytesOK(w, pkg.ContentType.CSV, buf.Bytes())
		return
	}

	handler.writeJSON(w, chart)
}

func (handler *Handler) writeJSON(w http.ResponseWriter, v any) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil || v < 0 {
		http.Error(w, "error, invalid "+name, http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
