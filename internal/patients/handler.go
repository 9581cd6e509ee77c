package patients

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/progressboard/internal/telemetry/tracing"
	"github.com/2beens/progressboard/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=patients_test

type patientsRepo interface {
	Add(ctx context.Context, patient *Patient) (*Patient, error)
	Get(ctx context.Context, id int) (*Patient, error)
	List(ctx context.Context) ([]Patient, error)
	Update(ctx context.Context, patient *Patient) error
	Delete(ctx context.Context, id int) error
}

type DeletePatientResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdatePatientResponse struct {
	UpdatedID int `json:"updatedId"`
}

type Handler struct {
	repo patientsRepo
}

func NewHandler(repo patientsRepo) *Handler {
	return &Handler{
		repo: repo,
	}
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.patients.new")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var patient Patient
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		log.Errorf("new patient, unmarshal json params: %s", err)
		http.Error(w, "add patient failed", http.StatusBadRequest)
		return
	}

	if err := patient.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = time.Now()
	}

	added, err := handler.repo.Add(ctx, &patient)
	if err != nil {
		log.Errorf("failed to add new patient [%s]: %s", patient.FullName, err)
		http.Error(w, "error, failed to add new patient", http.StatusInternalServerError)
		return
	}

	log.Debugf("new patient added: %d", added.ID)

	addedJson, err := json.Marshal(added)
	if err != nil {
		log.Errorf("failed to marshal new patient: %s", err)
		http.Error(w, "error, failed to add new patient", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, addedJson, http.StatusCreated)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.patients.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	p, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get patient %d: %s", id, err)
		http.Error(w, "failed to get patient", http.StatusInternalServerError)
		return
	}

	patientJson, err := json.Marshal(p)
	if err != nil {
		log.Errorf("failed to marshal patient: %s", err)
		http.Error(w, "failed to marshal patient", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, patientJson)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.patients.list")
	defer span.End()

	patients, err := handler.repo.List(ctx)
	if err != nil {
		log.Errorf("list patients error: %s", err)
		http.Error(w, "failed to get patients", http.StatusInternalServerError)
		return
	}
	if patients == nil {
		patients = []Patient{}
	}

	patientsJson, err := json.Marshal(patients)
	if err != nil {
		log.Errorf("marshal patients error: %s", err)
		http.Error(w, "marshal patients error", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, patientsJson)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.patients.update")
	defer span.End()

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var patient Patient
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		log.Errorf("update patient, unmarshal json params: %s", err)
		http.Error(w, "update patient failed", http.StatusBadRequest)
		return
	}
	if patient.ID <= 0 {
		http.Error(w, "error, patient id missing", http.StatusBadRequest)
		return
	}
	if err := patient.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &patient); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update patient %d: %s", patient.ID, err)
		http.Error(w, "error, failed to update patient", http.StatusInternalServerError)
		return
	}

	updateRespJson, err := json.Marshal(UpdatePatientResponse{UpdatedID: patient.ID})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(updateRespJson))
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.patients.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "error, id NaN", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete patient %d: %s", id, err)
		http.Error(w, "patient not deleted", http.StatusInternalServerError)
		return
	}

	deleteRespJson, err := json.Marshal(DeletePatientResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, string(deleteRespJson))
}
