// Package analysis runs a report through extraction, staging and auditing.
package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/rawmatterx/oncostaging/audit"
	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
	"github.com/rawmatterx/oncostaging/metrics"
	"github.com/rawmatterx/oncostaging/staging"
)

// DefaultSource labels audit records whose caller did not name one.
const DefaultSource = "api"

// Warning messages attached to analysis results.
const (
	WarnCancerTypeNotDetected = "cancer type not detected; supply cancer_type to stage this report"
	WarnAuditNotSaved         = "staging verdict was not saved to the audit trail"
)

var _ interfaces.Analyzer = (*Service)(nil)

// Service wires the extractor, validator, engine and audit store together.
type Service struct {
	extractor interfaces.Extractor
	validator interfaces.FeatureValidator
	engine    interfaces.StagingEngine
	store     interfaces.AuditStore
}

// NewService creates a Service. store may be nil to disable auditing.
func NewService(extractor interfaces.Extractor, validator interfaces.FeatureValidator,
	engine interfaces.StagingEngine, store interfaces.AuditStore) *Service {
	return &Service{
		extractor: extractor,
		validator: validator,
		engine:    engine,
		store:     store,
	}
}

// Analyze extracts features from req.Text and stages them. A report whose
// cancer type is neither detected nor supplied yields features and a warning
// but no staging.
func (s *Service) Analyze(ctx context.Context, req AnalyzeRequest) (entities.AnalysisResult, error) {
	if err := ctx.Err(); err != nil {
		return entities.AnalysisResult{}, err
	}

	if err := s.validator.ValidateReportText(req.Text); err != nil {
		metrics.RecordFailure(metrics.ReasonValidation)
		return entities.AnalysisResult{}, &entities.ValidationError{
			Field:  "text",
			Value:  fmt.Sprintf("%d bytes", len(req.Text)),
			Reason: err.Error(),
		}
	}

	features, err := s.extractor.Extract(req.Text)
	if err != nil {
		metrics.RecordFailure(metrics.ReasonExtraction)
		return entities.AnalysisResult{}, err
	}

	if req.CancerType != "" {
		if err := s.validator.ValidateCancerType(req.CancerType); err != nil {
			metrics.RecordFailure(metrics.ReasonValidation)
			return entities.AnalysisResult{}, &entities.ValidationError{
				Field:  entities.FieldCancerType,
				Value:  req.CancerType,
				Reason: err.Error(),
			}
		}
		features.CancerType = staging.NormalizeKey(req.CancerType)
		if features.ConfidenceScores == nil {
			features.ConfidenceScores = make(map[string]float64)
		}
		features.ConfidenceScores[entities.FieldCancerType] = 1.0
	}

	result := entities.AnalysisResult{Features: features}

	overall := s.validator.OverallConfidence(features)
	metrics.ObserveConfidence(overall)
	if s.validator.CheckConfidence(features) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("low extraction confidence (%.2f); review the extracted features", overall))
	}

	if features.CancerType == "" {
		result.Warnings = append(result.Warnings, WarnCancerTypeNotDetected)
		return result, nil
	}

	verdict, auditID, err := s.stage(ctx, features.CancerType, features, req.Source, audit.HashText(req.Text))
	if err != nil {
		return entities.AnalysisResult{}, err
	}
	result.Staging = &verdict
	result.AuditID = auditID

	if verdict.Stage == staging.NotAvailableStage {
		result.Warnings = append(result.Warnings, fmt.Sprintf("no staging rules for cancer type %q", verdict.CancerType))
	}
	if auditID == "" && s.store != nil {
		result.Warnings = append(result.Warnings, WarnAuditNotSaved)
	}
	return result, nil
}

// Stage stages caller supplied features and records the verdict.
func (s *Service) Stage(ctx context.Context, cancerType string, f entities.MedicalFeatures, source string) (entities.TNMStaging, string, error) {
	if err := ctx.Err(); err != nil {
		return entities.TNMStaging{}, "", err
	}
	return s.stage(ctx, cancerType, f, source, "")
}

func (s *Service) stage(ctx context.Context, cancerType string, f entities.MedicalFeatures, source, textHash string) (entities.TNMStaging, string, error) {
	verdict, err := s.engine.DetermineStage(cancerType, &f)
	if err != nil {
		metrics.RecordFailure(metrics.ReasonStaging)
		return entities.TNMStaging{}, "", err
	}
	metrics.RecordStaging(verdict.CancerType, verdict.Label())

	if s.store == nil {
		return verdict, "", nil
	}

	if strings.TrimSpace(source) == "" {
		source = DefaultSource
	}
	rec := &entities.AuditRecord{
		Source:     source,
		CancerType: verdict.CancerType,
		T:          verdict.T,
		N:          verdict.N,
		M:          verdict.M,
		Stage:      verdict.Stage,
		Substage:   verdict.Substage,
		Confidence: verdict.Confidence,
		TextSHA256: textHash,
		Features:   f,
	}
	if err := s.store.Record(ctx, rec); err != nil {
		metrics.RecordFailure(metrics.ReasonAudit)
		logging.Error("Failed to record staging audit", "cancer_type", verdict.CancerType, "error", err)
		return verdict, "", nil
	}
	return verdict, rec.ID, nil
}

// AnalyzeRequest is re-exported for callers that only import this package.
type AnalyzeRequest = interfaces.AnalyzeRequest
