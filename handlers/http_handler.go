package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
)

// AuditIDHeader carries the audit record id of a staging response.
const AuditIDHeader = logging.AuditIDHeader

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	analyzer  interfaces.Analyzer
	extractor interfaces.Extractor
	engine    interfaces.StagingEngine
	validator interfaces.FeatureValidator
	catalog   interfaces.GuidelineCatalog
	store     interfaces.AuditStore
	health    interfaces.HealthChecker
	startTime time.Time
}

// Dependencies groups what the handlers need. Store may be nil.
type Dependencies struct {
	Analyzer  interfaces.Analyzer
	Extractor interfaces.Extractor
	Engine    interfaces.StagingEngine
	Validator interfaces.FeatureValidator
	Catalog   interfaces.GuidelineCatalog
	Store     interfaces.AuditStore
	Health    interfaces.HealthChecker
}

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(deps Dependencies) *HTTPHandlerImpl {
	return &HTTPHandlerImpl{
		analyzer:  deps.Analyzer,
		extractor: deps.Extractor,
		engine:    deps.Engine,
		validator: deps.Validator,
		catalog:   deps.Catalog,
		store:     deps.Store,
		health:    deps.Health,
		startTime: time.Now(),
	}
}

// ExtractRequest is the body of POST /v1/extract.
type ExtractRequest struct {
	Text string `json:"text"`
}

// CancerTypeInfo is one entry of GET /v1/cancer-types.
type CancerTypeInfo struct {
	CancerType string                       `json:"cancer_type"`
	Guideline  *entities.GuidelineReference `json:"guideline,omitempty"`
}

// AuditListResponse is the body of GET /v1/audit.
type AuditListResponse struct {
	Records []entities.AuditRecord `json:"records"`
	Count   int                    `json:"count"`
	Total   int64                  `json:"total"`
}

// HealthResponse defines the structure for consistent JSON ordering
type HealthResponse struct {
	Status        string         `json:"status"`
	Uptime        string         `json:"uptime"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Data          map[string]any `json:"data"`
}

// ExtractFeatures reads features out of report text without staging them.
func (h *HTTPHandlerImpl) ExtractFeatures(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.validator.ValidateReportText(req.Text); err != nil {
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	features, err := h.extractor.Extract(req.Text)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, features)
}

// StageFeatures stages caller supplied features.
func (h *HTTPHandlerImpl) StageFeatures(w http.ResponseWriter, r *http.Request) {
	var features entities.MedicalFeatures
	if !decodeJSON(w, r, &features) {
		return
	}

	if err := h.validator.ValidateCancerType(features.CancerType); err != nil {
		logging.Warn("Unusual user input", "cancer_type", features.CancerType)
		RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, auditID, err := h.analyzer.Stage(r.Context(), features.CancerType, features, "api")
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	if auditID != "" {
		w.Header().Set(AuditIDHeader, auditID)
	}
	RespondWithJSON(w, http.StatusOK, verdict)
}

// AnalyzeReport runs report text through extraction, staging and auditing.
func (h *HTTPHandlerImpl) AnalyzeReport(w http.ResponseWriter, r *http.Request) {
	var req interfaces.AnalyzeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Source = "api"

	result, err := h.analyzer.Analyze(r.Context(), req)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	if result.AuditID != "" {
		w.Header().Set(AuditIDHeader, result.AuditID)
	}
	RespondWithJSON(w, http.StatusOK, result)
}

// ListCancerTypes lists the cancer types with staging rules and their guidelines.
func (h *HTTPHandlerImpl) ListCancerTypes(w http.ResponseWriter, r *http.Request) {
	types := h.engine.SupportedCancerTypes()
	out := make([]CancerTypeInfo, 0, len(types))
	for _, ct := range types {
		info := CancerTypeInfo{CancerType: ct}
		if h.catalog != nil {
			if ref, ok := h.catalog.Lookup(ct); ok {
				info.Guideline = &ref
			}
		}
		out = append(out, info)
	}

	RespondWithJSON(w, http.StatusOK, out)
}

// ListAuditRecords returns the most recent audit records. ?limit bounds the count.
func (h *HTTPHandlerImpl) ListAuditRecords(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		RespondWithError(w, http.StatusNotFound, MsgAuditDisabled)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			logging.Warn("Unusual user input", "limit", raw)
			RespondWithError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := h.store.ListRecent(r.Context(), limit)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}
	total, err := h.store.Count(r.Context())
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, AuditListResponse{Records: records, Count: len(records), Total: total})
}

// GetAuditRecord returns one audit record by id.
func (h *HTTPHandlerImpl) GetAuditRecord(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		RespondWithError(w, http.StatusNotFound, MsgAuditDisabled)
		return
	}

	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		logging.Warn("Unusual user input", "id", id)
		RespondWithError(w, http.StatusBadRequest, "Invalid audit record id")
		return
	}

	rec, err := h.store.Get(r.Context(), id)
	if err != nil {
		respondWithDomainError(w, r, err)
		return
	}

	RespondWithJSON(w, http.StatusOK, rec)
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, data, httpStatus := h.health.HealthCheck(r.Context())
	uptime := time.Since(h.startTime)

	RespondWithJSON(w, httpStatus, HealthResponse{
		Status:        status,
		Uptime:        formatUptimeHuman(uptime),
		UptimeSeconds: uptime.Seconds(),
		Data:          data,
	})
}
