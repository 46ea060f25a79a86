package config

import (
	"fmt"
	"strings"
)

// DefaultDepthPriority lists the depth vocabulary from deepest to shallowest.
// When a report mentions several layers the first one in this list wins.
var DefaultDepthPriority = []string{
	"adventitia",
	"serosa",
	"subserosa",
	"muscularis propria",
	"muscularis",
	"submucosa",
	"mucosa",
}

// StagingConfig holds the tunables shared by extraction, validation and staging.
type StagingConfig struct {
	MaxTumorSizeCM      float64  `mapstructure:"max_tumor_size_cm" yaml:"max_tumor_size_cm"`
	MaxLymphNodes       int      `mapstructure:"max_lymph_nodes" yaml:"max_lymph_nodes"`
	ConfidenceThreshold float64  `mapstructure:"confidence_threshold" yaml:"confidence_threshold"`
	NegationWindow      int      `mapstructure:"negation_window" yaml:"negation_window"`
	DepthPriority       []string `mapstructure:"depth_priority" yaml:"depth_priority"`
}

// DefaultStagingConfig returns the stock tunables.
func DefaultStagingConfig() StagingConfig {
	return StagingConfig{
		MaxTumorSizeCM:      50,
		MaxLymphNodes:       100,
		ConfidenceThreshold: 0.6,
		NegationWindow:      50,
		DepthPriority:       append([]string(nil), DefaultDepthPriority...),
	}
}

func loadStagingConfig() StagingConfig {
	def := DefaultStagingConfig()
	return StagingConfig{
		MaxTumorSizeCM:      getFloatEnvWithDefault("MAX_TUMOR_SIZE_CM", def.MaxTumorSizeCM),
		MaxLymphNodes:       getIntEnvWithDefault("MAX_LYMPH_NODES", def.MaxLymphNodes),
		ConfidenceThreshold: getFloatEnvWithDefault("CONFIDENCE_THRESHOLD", def.ConfidenceThreshold),
		NegationWindow:      getIntEnvWithDefault("NEGATION_WINDOW", def.NegationWindow),
		DepthPriority:       getListEnvWithDefault("DEPTH_PRIORITY", def.DepthPriority),
	}
}

// Validate checks the tunables are usable.
func (c StagingConfig) Validate() error {
	if c.MaxTumorSizeCM <= 0 {
		return fmt.Errorf("MAX_TUMOR_SIZE_CM must be positive, got: %g", c.MaxTumorSizeCM)
	}
	if c.MaxLymphNodes <= 0 {
		return fmt.Errorf("MAX_LYMPH_NODES must be positive, got: %d", c.MaxLymphNodes)
	}
	if c.ConfidenceThreshold < 0 || c.ConfidenceThreshold > 1 {
		return fmt.Errorf("CONFIDENCE_THRESHOLD must be within [0,1], got: %g", c.ConfidenceThreshold)
	}
	if c.NegationWindow <= 0 || c.NegationWindow > 500 {
		return fmt.Errorf("NEGATION_WINDOW must be between 1 and 500, got: %d", c.NegationWindow)
	}
	if len(c.DepthPriority) == 0 {
		return fmt.Errorf("DEPTH_PRIORITY cannot be empty")
	}
	seen := make(map[string]bool, len(c.DepthPriority))
	for _, term := range c.DepthPriority {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" {
			return fmt.Errorf("DEPTH_PRIORITY contains an empty term")
		}
		if seen[term] {
			return fmt.Errorf("DEPTH_PRIORITY lists %q twice", term)
		}
		seen[term] = true
	}
	return nil
}
