package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/rawmatterx/oncostaging/analysis"
	"github.com/rawmatterx/oncostaging/audit"
	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/data"
	"github.com/rawmatterx/oncostaging/extraction"
	"github.com/rawmatterx/oncostaging/interfaces"
	"github.com/rawmatterx/oncostaging/staging"
	"github.com/rawmatterx/oncostaging/validation"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"

	cliSource = "cli"
)

func setStagingDefaults() {
	def := config.DefaultStagingConfig()
	viper.SetDefault("staging.max_tumor_size_cm", def.MaxTumorSizeCM)
	viper.SetDefault("staging.max_lymph_nodes", def.MaxLymphNodes)
	viper.SetDefault("staging.confidence_threshold", def.ConfidenceThreshold)
	viper.SetDefault("staging.negation_window", def.NegationWindow)
	viper.SetDefault("staging.depth_priority", def.DepthPriority)
}

// stagingConfig reads the staging tunables key by key, so a config file that
// sets only some of them keeps the defaults for the rest.
func stagingConfig() (config.StagingConfig, error) {
	cfg := config.StagingConfig{
		MaxTumorSizeCM:      viper.GetFloat64("staging.max_tumor_size_cm"),
		MaxLymphNodes:       viper.GetInt("staging.max_lymph_nodes"),
		ConfidenceThreshold: viper.GetFloat64("staging.confidence_threshold"),
		NegationWindow:      viper.GetInt("staging.negation_window"),
		DepthPriority:       splitList(viper.GetStringSlice("staging.depth_priority")),
	}
	if err := cfg.Validate(); err != nil {
		return config.StagingConfig{}, fmt.Errorf("invalid staging config: %w", err)
	}
	return cfg, nil
}

// splitList accepts both YAML lists and comma separated env values.
func splitList(items []string) []string {
	var out []string
	for _, item := range items {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// pipeline bundles the components one CLI invocation needs.
type pipeline struct {
	cfg       config.StagingConfig
	extractor *extraction.Extractor
	validator interfaces.FeatureValidator
	engine    *staging.Engine
	store     *audit.Store
	service   *analysis.Service
}

// newPipeline wires extraction, validation and staging. The audit store is
// opened only when withAudit is set and a database path is configured.
func newPipeline(withAudit bool) (*pipeline, error) {
	cfg, err := stagingConfig()
	if err != nil {
		return nil, err
	}

	catalog, err := data.LoadDefaultCatalog(viper.GetString("guidelines.file"))
	if err != nil {
		return nil, fmt.Errorf("load guidelines: %w", err)
	}

	p := &pipeline{
		cfg:       cfg,
		extractor: extraction.NewExtractor(cfg),
		validator: validation.NewFeatureValidator(cfg),
	}
	p.engine = staging.NewEngine(cfg, staging.NewRegistry(), p.validator, catalog)

	var store interfaces.AuditStore
	if path := viper.GetString("audit.db_path"); withAudit && path != "" {
		p.store, err = audit.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open audit store: %w", err)
		}
		store = p.store
	}
	p.service = analysis.NewService(p.extractor, p.validator, p.engine, store)
	return p, nil
}

func (p *pipeline) Close() error {
	if p.store == nil {
		return nil
	}
	return p.store.Close()
}

// openAuditStore opens the configured audit database for the audit commands.
func openAuditStore() (*audit.Store, error) {
	path := viper.GetString("audit.db_path")
	if path == "" {
		return nil, fmt.Errorf("no audit database configured; pass --audit-db or set ONCOSTAGE_AUDIT_DB_PATH")
	}
	return audit.Open(path)
}

// render writes v to w as indented JSON or YAML. YAML output keeps the JSON
// field names and order.
func render(w io.Writer, format string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	switch format {
	case formatJSON, "":
		_, err = fmt.Fprintf(w, "%s\n", raw)
		return err
	case formatYAML:
		var node yaml.Node
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return fmt.Errorf("convert output to yaml: %w", err)
		}
		clearStyle(&node)
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(&node); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", format)
	}
}

// clearStyle drops the flow and quoting style JSON input leaves on nodes so
// the encoder emits block YAML.
func clearStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		clearStyle(c)
	}
}

func outputFormat() string {
	return viper.GetString("format")
}
