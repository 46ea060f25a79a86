package staging

import (
	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/logging"
)

// Engine validates staging requests and delegates them to the registry.
type Engine struct {
	cfg        config.StagingConfig
	registry   *Registry
	validator  interfaces.FeatureValidator
	guidelines interfaces.GuidelineCatalog
}

// NewEngine creates an engine. guidelines may be nil.
func NewEngine(cfg config.StagingConfig, registry *Registry, validator interfaces.FeatureValidator, guidelines interfaces.GuidelineCatalog) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	return &Engine{cfg: cfg, registry: registry, validator: validator, guidelines: guidelines}
}

var _ interfaces.StagingEngine = (*Engine)(nil)

// DetermineStage stages f for cancerType. Size and node count are capped at
// the configured maxima before validation; f itself is never modified.
// Unsupported cancer types are not an error and yield the sentinel verdict.
func (e *Engine) DetermineStage(cancerType string, f *entities.MedicalFeatures) (entities.TNMStaging, error) {
	key := NormalizeKey(cancerType)
	if key == "" {
		return entities.TNMStaging{}, &entities.StagingError{Reason: "cancer type is required"}
	}
	if f == nil {
		return entities.TNMStaging{}, &entities.StagingError{CancerType: key, Reason: "features are required"}
	}

	features := f.Clamped(e.cfg.MaxTumorSizeCM, e.cfg.MaxLymphNodes)
	if err := e.validator.Validate(features); err != nil {
		return entities.TNMStaging{}, &entities.StagingError{CancerType: key, Reason: "malformed features", Err: err}
	}

	stager, ok := e.registry.Lookup(key)
	if !ok {
		logging.Info("No staging rules for cancer type", "cancer_type", key)
		return Unsupported(key), nil
	}

	result := stager.Stage(features)
	result.Confidence = e.validator.OverallConfidence(features)

	if e.guidelines != nil {
		if ref, ok := e.guidelines.Lookup(stager.CancerType()); ok {
			result.Guideline = &ref
		}
	}

	logging.Debug("Stage determined",
		"cancer_type", result.CancerType,
		"t", result.T, "n", result.N, "m", result.M,
		"stage", result.Label(),
		"confidence", result.Confidence,
	)
	return result, nil
}

// SupportedCancerTypes lists the cancer types with rule tables.
func (e *Engine) SupportedCancerTypes() []string {
	return e.registry.Supported()
}
