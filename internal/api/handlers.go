package api

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/savegress/carebridge/internal/mapping"
	"github.com/savegress/carebridge/internal/pipeline"
	"github.com/savegress/carebridge/internal/projector"
	"github.com/savegress/carebridge/internal/risk"
	"github.com/savegress/carebridge/internal/terminology"
	"github.com/savegress/carebridge/pkg/models"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	mapper    *mapping.Mapper
	projector *projector.Projector
	terms     *terminology.Mapper
	batch     *pipeline.Engine
	risk      *risk.Service
	log       *zap.Logger
}

// NewHandlers creates new handlers
func NewHandlers(mapper *mapping.Mapper, proj *projector.Projector, terms *terminology.Mapper, batch *pipeline.Engine, riskSvc *risk.Service, log *zap.Logger) *Handlers {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handlers{
		mapper:    mapper,
		projector: proj,
		terms:     terms,
		batch:     batch,
		risk:      riskSvc,
		log:       log,
	}
}

// HealthCheck handles health check requests
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "carebridge",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

type convertMessageRequest struct {
	Message string `json:"message"`
}

// ConvertMessage converts a wire message to a resource bundle
func (h *Handlers) ConvertMessage(w http.ResponseWriter, r *http.Request) {
	var req convertMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Message == "" {
		respondError(w, http.StatusBadRequest, "Message is required")
		return
	}

	bundle := h.projector.ConvertMessage(req.Message)
	respond(w, http.StatusOK, bundle)
}

type normalizeRequest struct {
	SourceSystem string            `json:"source_system"`
	Record       map[string]string `json:"record"`
}

// NormalizeRecord maps a raw vendor record to a canonical patient
func (h *Handlers) NormalizeRecord(w http.ResponseWriter, r *http.Request) {
	var req normalizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Record) == 0 {
		respondError(w, http.StatusBadRequest, "Record is required")
		return
	}

	source := h.mapper.ParseSourceSystem(req.SourceSystem)
	patient := h.mapper.MapToCanonical(req.Record, source)
	respond(w, http.StatusOK, patient)
}

type batchRequest struct {
	SourceSystem string              `json:"source_system"`
	Records      []map[string]string `json:"records"`
}

// NormalizeBatch runs batch normalization with per-record results
func (h *Handlers) NormalizeBatch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Records) == 0 {
		respondError(w, http.StatusBadRequest, "Records are required")
		return
	}

	summary := h.batch.Normalize(r.Context(), req.Records, req.SourceSystem)
	respond(w, http.StatusOK, summary)
}

type bundleRequest struct {
	PatientID string                   `json:"patient_id"`
	Records   []models.CanonicalRecord `json:"records"`
}

// AssembleBundle projects canonical records into a resource bundle
func (h *Handlers) AssembleBundle(w http.ResponseWriter, r *http.Request) {
	var req bundleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	bundle := h.projector.AssembleBundle(req.Records, req.PatientID)
	respond(w, http.StatusOK, bundle)
}

// ToCanonical converts a single FHIR resource back to the canonical
// model, dispatching on resourceType
func (h *Handlers) ToCanonical(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var probe struct {
		ResourceType models.ResourceType `json:"resourceType"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid resource")
		return
	}

	switch probe.ResourceType {
	case models.ResourceTypePatient:
		var resource models.Patient
		if err := json.Unmarshal(raw, &resource); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid Patient resource")
			return
		}
		respond(w, http.StatusOK, models.CanonicalRecord{
			Type:    models.RecordTypePatient,
			Patient: h.projector.ToCanonicalPatient(&resource),
		})
	case models.ResourceTypeCondition:
		var resource models.Condition
		if err := json.Unmarshal(raw, &resource); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid Condition resource")
			return
		}
		respond(w, http.StatusOK, models.CanonicalRecord{
			Type:      models.RecordTypeCondition,
			Condition: h.projector.ToCanonicalCondition(&resource),
		})
	case models.ResourceTypeObservation:
		var resource models.Observation
		if err := json.Unmarshal(raw, &resource); err != nil {
			respondError(w, http.StatusBadRequest, "Invalid Observation resource")
			return
		}
		respond(w, http.StatusOK, models.CanonicalRecord{
			Type:        models.RecordTypeObservation,
			Observation: h.projector.ToCanonicalObservation(&resource),
		})
	default:
		respondError(w, http.StatusBadRequest, "Unsupported resourceType: "+string(probe.ResourceType))
	}
}

type translateRequest struct {
	Code         string `json:"code"`
	SourceSystem string `json:"source_system"`
	TargetSystem string `json:"target_system"`
}

// TranslateCode translates a code between terminology systems
func (h *Handlers) TranslateCode(w http.ResponseWriter, r *http.Request) {
	var req translateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result := h.terms.MapCode(req.Code, req.SourceSystem, req.TargetSystem)
	if result == nil {
		respondError(w, http.StatusNotFound, "No translation available")
		return
	}

	respond(w, http.StatusOK, result)
}

type scoreRequest struct {
	Model  string                 `json:"model"`
	Record models.CanonicalRecord `json:"record"`
}

type scoreResponse struct {
	Model string  `json:"model"`
	Score float64 `json:"score"`
}

// ScoreRisk computes a risk estimate for a canonical record
func (h *Handlers) ScoreRisk(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Model == "" {
		req.Model = "baseline"
	}

	score, err := h.risk.Score(r.Context(), req.Model, req.Record)
	if err != nil {
		if errors.Is(err, risk.ErrUnknownModel) {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.log.Error("risk scoring failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Scoring failed")
		return
	}

	respond(w, http.StatusOK, scoreResponse{Model: req.Model, Score: score})
}

func respond(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respond(w, status, map[string]string{"error": message})
}
