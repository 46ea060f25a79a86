package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/rawmatterx/oncostaging/config"
	"github.com/rawmatterx/oncostaging/entities"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	setStagingDefaults()
	t.Cleanup(viper.Reset)
}

func TestRender(t *testing.T) {
	v := struct {
		CancerType string `json:"cancer_type"`
		Nodes      int    `json:"nodes"`
	}{"lung", 3}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := render(&buf, formatJSON, v); err != nil {
			t.Fatalf("render() error = %v", err)
		}
		if !strings.Contains(buf.String(), `"cancer_type": "lung"`) {
			t.Errorf("json output missing field: %s", buf.String())
		}
	})

	t.Run("yaml keeps json names and order", func(t *testing.T) {
		var buf bytes.Buffer
		if err := render(&buf, formatYAML, v); err != nil {
			t.Fatalf("render() error = %v", err)
		}
		out := buf.String()
		if out != "cancer_type: lung\nnodes: 3\n" {
			t.Errorf("yaml output = %q", out)
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		if err := render(&bytes.Buffer{}, "xml", v); err == nil {
			t.Error("expected error for unknown format")
		}
	})
}

func TestFeaturesFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "stage"}
	addFeatureFlags(cmd)
	if err := cmd.ParseFlags([]string{"--cancer-type", "esophageal", "--depth", "submucosa", "--metastasis"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}

	f, err := featuresFromFlags(cmd)
	if err != nil {
		t.Fatalf("featuresFromFlags() error = %v", err)
	}
	if f.CancerType != "esophageal" || f.TumorDepth != "submucosa" || !f.DistantMetastasis {
		t.Errorf("unexpected features: %+v", f)
	}

	for _, field := range []string{entities.FieldCancerType, entities.FieldTumorDepth, entities.FieldDistantMetastasis} {
		if f.ConfidenceScores[field] != 1.0 {
			t.Errorf("confidence for %s = %v, want 1.0", field, f.ConfidenceScores[field])
		}
	}
	for _, field := range []string{entities.FieldTumorSize, entities.FieldLymphNodes, entities.FieldLiverInvasion} {
		if _, ok := f.ConfidenceScores[field]; ok {
			t.Errorf("unset flag %s should have no confidence entry", field)
		}
	}
}

func TestFeaturesFromFlagsRejectsNegative(t *testing.T) {
	cmd := &cobra.Command{Use: "stage"}
	addFeatureFlags(cmd)
	if err := cmd.ParseFlags([]string{"--cancer-type", "lung", "--nodes", "-2"}); err != nil {
		t.Fatalf("ParseFlags() error = %v", err)
	}
	if _, err := featuresFromFlags(cmd); err == nil {
		t.Error("expected error for negative node count")
	}
}

func TestStagingConfigFromViper(t *testing.T) {
	resetViper(t)

	cfg, err := stagingConfig()
	if err != nil {
		t.Fatalf("stagingConfig() error = %v", err)
	}
	def := config.DefaultStagingConfig()
	if cfg.MaxTumorSizeCM != def.MaxTumorSizeCM || cfg.NegationWindow != def.NegationWindow {
		t.Errorf("stagingConfig() = %+v, want defaults %+v", cfg, def)
	}

	viper.Set("staging.negation_window", 80)
	viper.Set("staging.depth_priority", "serosa, mucosa")
	cfg, err = stagingConfig()
	if err != nil {
		t.Fatalf("stagingConfig() error = %v", err)
	}
	if cfg.NegationWindow != 80 || cfg.MaxLymphNodes != def.MaxLymphNodes {
		t.Errorf("partial override lost defaults: %+v", cfg)
	}
	if len(cfg.DepthPriority) != 2 || cfg.DepthPriority[1] != "mucosa" {
		t.Errorf("DepthPriority = %v, want [serosa mucosa]", cfg.DepthPriority)
	}

	viper.Set("staging.negation_window", 0)
	if _, err := stagingConfig(); err == nil {
		t.Error("expected error for zero negation window")
	}
}

func TestSummarize(t *testing.T) {
	staged := &entities.AnalysisResult{Staging: &entities.TNMStaging{Stage: "Stage IV"}}
	unstaged := &entities.AnalysisResult{Warnings: []string{"no type"}}

	s := summarize([]fileResult{
		{File: "a.txt", Result: staged},
		{File: "b.txt", Result: staged},
		{File: "c.txt", Result: unstaged},
		{File: "d.txt", Error: "boom"},
	})

	if s.Analyzed != 3 || s.Staged != 2 || s.Failed != 1 {
		t.Errorf("summarize() = %+v", s)
	}
	if s.ByStage["Stage IV"] != 2 {
		t.Errorf("ByStage = %v", s.ByStage)
	}
}

func TestPipelineStagesAndAudits(t *testing.T) {
	resetViper(t)
	viper.Set("audit.db_path", filepath.Join(t.TempDir(), "audit.db"))

	p, err := newPipeline(true)
	if err != nil {
		t.Fatalf("newPipeline() error = %v", err)
	}
	defer p.Close()

	f := entities.MedicalFeatures{CancerType: "lung", TumorSizeCM: 6, DistantMetastasis: true}
	verdict, auditID, err := p.service.Stage(context.Background(), "lung", f, cliSource)
	if err != nil {
		t.Fatalf("Stage() error = %v", err)
	}
	if verdict.Stage != "Stage IV" {
		t.Errorf("Stage = %q, want Stage IV", verdict.Stage)
	}
	if auditID == "" {
		t.Fatal("expected an audit id")
	}

	rec, err := p.store.Get(context.Background(), auditID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if rec.Source != cliSource {
		t.Errorf("Source = %q, want %q", rec.Source, cliSource)
	}
}

func TestOpenAuditStoreRequiresPath(t *testing.T) {
	resetViper(t)
	if _, err := openAuditStore(); err == nil {
		t.Error("expected error without audit database path")
	}
}
