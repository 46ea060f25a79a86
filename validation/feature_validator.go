// Package validation checks extracted features and user supplied inputs.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
)

// MaxReportLength bounds the size of a report accepted for extraction.
const MaxReportLength = 200_000

var cancerTypeInputRegex = regexp.MustCompile(`^[a-zA-Z][a-zA-Z _\-]*$`)

// FeatureValidatorImpl implements interfaces.FeatureValidator
type FeatureValidatorImpl struct {
	cfg        config.StagingConfig
	vocabulary map[string]bool
}

// NewFeatureValidator creates a validator for the given tunables
func NewFeatureValidator(cfg config.StagingConfig) interfaces.FeatureValidator {
	vocab := map[string]bool{
		entities.DepthAdjacentStructures: true,
		entities.DepthPeritonealInvasion: true,
	}
	for _, term := range cfg.DepthPriority {
		vocab[strings.ToLower(strings.TrimSpace(term))] = true
	}
	return &FeatureValidatorImpl{cfg: cfg, vocabulary: vocab}
}

// Validate rejects features whose values fall outside their allowed ranges.
func (v *FeatureValidatorImpl) Validate(f entities.MedicalFeatures) error {
	if math.IsNaN(f.TumorSizeCM) || math.IsInf(f.TumorSizeCM, 0) {
		return &entities.ValidationError{Field: entities.FieldTumorSize, Value: f.TumorSizeCM, Reason: "must be a finite number"}
	}
	if f.TumorSizeCM < 0 {
		return &entities.ValidationError{Field: entities.FieldTumorSize, Value: f.TumorSizeCM, Reason: "cannot be negative"}
	}
	if f.TumorSizeCM > v.cfg.MaxTumorSizeCM {
		return &entities.ValidationError{
			Field:  entities.FieldTumorSize,
			Value:  f.TumorSizeCM,
			Reason: fmt.Sprintf("exceeds maximum of %g cm", v.cfg.MaxTumorSizeCM),
		}
	}

	if f.LymphNodesInvolved < 0 {
		return &entities.ValidationError{Field: entities.FieldLymphNodes, Value: f.LymphNodesInvolved, Reason: "cannot be negative"}
	}
	if f.LymphNodesInvolved > v.cfg.MaxLymphNodes {
		return &entities.ValidationError{
			Field:  entities.FieldLymphNodes,
			Value:  f.LymphNodesInvolved,
			Reason: fmt.Sprintf("exceeds maximum of %d", v.cfg.MaxLymphNodes),
		}
	}

	if depth := strings.ToLower(strings.TrimSpace(f.TumorDepth)); depth != "" && !v.vocabulary[depth] {
		return &entities.ValidationError{Field: entities.FieldTumorDepth, Value: f.TumorDepth, Reason: "not a recognised depth term"}
	}

	for field, score := range f.ConfidenceScores {
		if math.IsNaN(score) || score < 0 || score > 1 {
			return &entities.ValidationError{Field: "confidence_scores." + field, Value: score, Reason: "must be within [0,1]"}
		}
	}

	return nil
}

// OverallConfidence is the mean of the per-field confidences present.
func (v *FeatureValidatorImpl) OverallConfidence(f entities.MedicalFeatures) float64 {
	if len(f.ConfidenceScores) == 0 {
		return 0
	}
	// Summed in key order so repeated calls give bit-identical results.
	fields := make([]string, 0, len(f.ConfidenceScores))
	for field := range f.ConfidenceScores {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	sum := 0.0
	for _, field := range fields {
		sum += f.ConfidenceScores[field]
	}
	return sum / float64(len(fields))
}

// CheckConfidence logs a warning when a typed report is read with low
// confidence and reports whether it did.
func (v *FeatureValidatorImpl) CheckConfidence(f entities.MedicalFeatures) bool {
	if f.CancerType == "" {
		return false
	}
	overall := v.OverallConfidence(f)
	if overall >= v.cfg.ConfidenceThreshold {
		return false
	}
	logging.Warn("Low confidence feature extraction",
		"cancer_type", f.CancerType,
		"confidence", overall,
		"threshold", v.cfg.ConfidenceThreshold,
	)
	return true
}

// ValidateReportText checks raw report text before extraction.
func (v *FeatureValidatorImpl) ValidateReportText(text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("report text cannot be empty")
	}
	if len(text) > MaxReportLength {
		return fmt.Errorf("report text too long: maximum %d bytes", MaxReportLength)
	}
	if !utf8.ValidString(text) {
		return fmt.Errorf("report text must be valid UTF-8")
	}
	return nil
}

// ValidateCancerType checks a cancer type key supplied by a caller. Unknown
// but well formed keys pass; the registry answers them with a sentinel.
func (v *FeatureValidatorImpl) ValidateCancerType(input string) error {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return fmt.Errorf("cancer type cannot be empty")
	}
	if len(trimmed) > 40 {
		return fmt.Errorf("cancer type too long: maximum 40 characters")
	}
	if !cancerTypeInputRegex.MatchString(trimmed) {
		return fmt.Errorf("cancer type contains invalid characters. Only letters, spaces, hyphens and underscores are allowed")
	}
	return nil
}
