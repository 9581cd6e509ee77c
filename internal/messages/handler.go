package messages

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/2beens/progressboard/internal/debounce"
	"github.com/2beens/progressboard/internal/patients"
	"github.com/2beens/progressboard/internal/records"
	"github.com/2beens/progressboard/internal/telemetry/tracing"
	"github.com/2beens/progressboard/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=messages_test

type variablesService interface {
	Variables(ctx context.Context, patientID, week int, measurement records.Measurement) (Variables, error)
}

type notesGetter interface {
	Get(ctx context.Context, patientID, week int) (*Note, error)
}

type NoteResponse struct {
	Note   *Note           `json:"note"`
	Status debounce.Status `json:"status"`
}

type DraftRequest struct {
	Body string `json:"body"`
}

type StatusResponse struct {
	Status debounce.Status `json:"status"`
	Error  string          `json:"error,omitempty"`
}

type Handler struct {
	service variablesService
	notes   notesGetter
	catalog *Catalog
	drafts  *Drafts
}

func NewHandler(service variablesService, notes notesGetter, catalog *Catalog, drafts *Drafts) *Handler {
	return &Handler{
		service: service,
		notes:   notes,
		catalog: catalog,
		drafts:  drafts,
	}
}

func (h *Handler) HandleListTemplates(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, h.catalog.Templates())
}

func (h *Handler) HandleVariables(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.messages.variables")
	defer span.End()

	vars, ok := h.variables(ctx, w, r)
	if !ok {
		return
	}
	h.writeJSON(w, vars)
}

// HandleRender fills the chosen template (?template=) for the patient week.
func (h *Handler) HandleRender(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.messages.render")
	defer span.End()

	templateName := r.URL.Query().Get("template")
	if templateName == "" {
		http.Error(w, "error, template empty", http.StatusBadRequest)
		return
	}

	vars, ok := h.variables(ctx, w, r)
	if !ok {
		return
	}

	text, err := h.catalog.Render(templateName, vars)
	if err != nil {
		if errors.Is(err, ErrTemplateNotFound) {
			http.Error(w, "template not found", http.StatusNotFound)
			return
		}
		log.Errorf("render note template [%s]: %s", templateName, err)
		http.Error(w, "failed to render note", http.StatusInternalServerError)
		return
	}

	pkg.WriteTextResponseOK(w, text)
}

func (h *Handler) HandleGetNote(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.messages.getNote")
	defer span.End()

	patientID, week, ok := patientWeek(w, r)
	if !ok {
		return
	}

	status, _ := h.drafts.Status(patientID, week)
	note, err := h.notes.Get(ctx, patientID, week)
	if err != nil && !errors.Is(err, ErrNoteNotFound) {
		log.Errorf("get note [patient %d, week %d]: %s", patientID, week, err)
		http.Error(w, "failed to get note", http.StatusInternalServerError)
		return
	}
	if note == nil && status == debounce.StatusIdle {
		http.Error(w, "note not found", http.StatusNotFound)
		return
	}

	h.writeJSON(w, NoteResponse{Note: note, Status: status})
}

// HandleDraft takes the current editor text. It is saved once the coach stops
// typing for the configured autosave delay.
func (h *Handler) HandleDraft(w http.ResponseWriter, r *http.Request) {
	patientID, week, ok := patientWeek(w, r)
	if !ok {
		return
	}

	var req DraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid draft", http.StatusBadRequest)
		return
	}

	status := h.drafts.Touch(patientID, week, req.Body)

	respJson, err := json.Marshal(StatusResponse{Status: status})
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, respJson, http.StatusAccepted)
}

// HandleSave writes the pending draft right away.
func (h *Handler) HandleSave(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.messages.save")
	defer span.End()

	patientID, week, ok := patientWeek(w, r)
	if !ok {
		return
	}

	if err := h.drafts.Flush(ctx, patientID, week); err != nil {
		log.Errorf("save note [patient %d, week %d]: %s", patientID, week, err)
		http.Error(w, "failed to save note", http.StatusInternalServerError)
		return
	}

	status, _ := h.drafts.Status(patientID, week)
	h.writeJSON(w, StatusResponse{Status: status})
}

func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	patientID, week, ok := patientWeek(w, r)
	if !ok {
		return
	}

	status, err := h.drafts.Status(patientID, week)
	resp := StatusResponse{Status: status}
	if err != nil {
		resp.Error = err.Error()
	}
	h.writeJSON(w, resp)
}

func (h *Handler) variables(ctx context.Context, w http.ResponseWriter, r *http.Request) (Variables, bool) {
	patientID, week, ok := patientWeek(w, r)
	if !ok {
		return Variables{}, false
	}
	measurement, err := records.ParseMeasurement(r.URL.Query().Get("measurement"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return Variables{}, false
	}

	vars, err := h.service.Variables(ctx, patientID, week, measurement)
	if err != nil {
		if errors.Is(err, patients.ErrPatientNotFound) {
			http.Error(w, "patient not found", http.StatusNotFound)
			return Variables{}, false
		}
		log.Errorf("note variables [patient %d, week %d]: %s", patientID, week, err)
		http.Error(w, "failed to compute note variables", http.StatusInternalServerError)
		return Variables{}, false
	}
	return vars, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("marshal response: %s", err)
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	pkg.WriteResponseBytesOK(w, pkg.ContentType.JSON, respJson)
}

func patientWeek(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	vars := mux.Vars(r)
	patientID, err := strconv.Atoi(vars["pid"])
	if err != nil {
		http.Error(w, "error, invalid patient id", http.StatusBadRequest)
		return 0, 0, false
	}
	week, err := strconv.Atoi(vars["week"])
	if err != nil || week < 0 {
		http.Error(w, "error, invalid week", http.StatusBadRequest)
		return 0, 0, false
	}
	return patientID, week, true
}
