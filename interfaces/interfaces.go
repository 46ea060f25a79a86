// Package interfaces defines the contracts between the staging core, its
// storage and the HTTP surface.
package interfaces

import (
	"context"
	"net/http"
	"time"

	"github.com/rawmatterx/oncostaging/entities"
)

// Extractor reads oncology features out of report text.
type Extractor interface {
	Extract(text string) (entities.MedicalFeatures, error)
	ExtractBytes(raw []byte) (entities.MedicalFeatures, error)
}

// FeatureValidator checks features and caller input.
type FeatureValidator interface {
	// Validate returns an *entities.ValidationError for out of range values
	Validate(f entities.MedicalFeatures) error

	// OverallConfidence is the mean of the per-field confidences present
	OverallConfidence(f entities.MedicalFeatures) float64

	// CheckConfidence logs and reports a low-confidence typed extraction
	CheckConfidence(f entities.MedicalFeatures) bool

	ValidateReportText(text string) error
	ValidateCancerType(input string) error
}

// StagingEngine turns features into a TNM verdict.
type StagingEngine interface {
	DetermineStage(cancerType string, f *entities.MedicalFeatures) (entities.TNMStaging, error)
	SupportedCancerTypes() []string
}

// GuidelineCatalog provides guideline references per cancer type.
// Reads are lock free; Replace swaps the whole catalog atomically.
type GuidelineCatalog interface {
	Lookup(cancerType string) (entities.GuidelineReference, bool)
	All() []entities.GuidelineReference
	Replace(refs []entities.GuidelineReference)
	GetLastUpdated() time.Time
}

// AuditStore persists staging decisions.
type AuditStore interface {
	Record(ctx context.Context, rec *entities.AuditRecord) error
	Get(ctx context.Context, id string) (*entities.AuditRecord, error)
	ListRecent(ctx context.Context, limit int) ([]entities.AuditRecord, error)
	PruneBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Count(ctx context.Context) (int64, error)
	Ping(ctx context.Context) error
	Close() error
}

// AnalyzeRequest is one report to run through the whole pipeline.
type AnalyzeRequest struct {
	Text string `json:"text"`
	// CancerType overrides the detected type when set
	CancerType string `json:"cancer_type,omitempty"`
	Source     string `json:"-"`
}

// Analyzer runs extraction, validation, staging and auditing in one call.
type Analyzer interface {
	Analyze(ctx context.Context, req AnalyzeRequest) (entities.AnalysisResult, error)

	// Stage stages caller supplied features and audits the verdict. The
	// returned string is the audit record id, empty when nothing was stored.
	Stage(ctx context.Context, cancerType string, f entities.MedicalFeatures, source string) (entities.TNMStaging, string, error)
}

// Scheduler defines the contract for background jobs.
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
type HTTPHandler interface {
	ExtractFeatures(w http.ResponseWriter, r *http.Request)
	StageFeatures(w http.ResponseWriter, r *http.Request)
	AnalyzeReport(w http.ResponseWriter, r *http.Request)
	ListCancerTypes(w http.ResponseWriter, r *http.Request)
	ListAuditRecords(w http.ResponseWriter, r *http.Request)
	GetAuditRecord(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health.
type HealthChecker interface {
	// HealthCheck returns the overall status, details and the HTTP status to serve
	HealthCheck(ctx context.Context) (status string, details map[string]any, httpStatus int)
}
