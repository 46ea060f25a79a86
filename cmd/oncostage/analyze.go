package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rawmatterx/oncostaging/analysis"
	"github.com/rawmatterx/oncostaging/entities"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <report-files...>",
	Short: "Extract features from reports and stage them",
	Long: `Analyze runs each report through extraction, validation and staging. When an
audit database is configured every staged report is recorded there. Reports
that fail are reported individually and do not stop the batch.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().String("cancer-type", "", "stage every report as this cancer type instead of the detected one")

	rootCmd.AddCommand(analyzeCmd)
}

// fileResult is the outcome for one report file.
type fileResult struct {
	File   string                   `json:"file"`
	Result *entities.AnalysisResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// batchSummary counts outcomes across a batch.
type batchSummary struct {
	Analyzed int
	Staged   int
	Failed   int
	ByStage  map[string]int
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cancerType, _ := cmd.Flags().GetString("cancer-type")

	p, err := newPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	if cancerType != "" {
		if err := p.validator.ValidateCancerType(cancerType); err != nil {
			return err
		}
	}

	results := make([]fileResult, 0, len(args))
	for _, path := range args {
		fr := fileResult{File: path}
		raw, err := readReport(cmd, path)
		if err == nil {
			var res entities.AnalysisResult
			res, err = p.service.Analyze(cmd.Context(), analysis.AnalyzeRequest{
				Text:       string(raw),
				CancerType: cancerType,
				Source:     cliSource,
			})
			if err == nil {
				fr.Result = &res
			}
		}
		if err != nil {
			fr.Error = err.Error()
		}
		results = append(results, fr)
	}

	if err := render(cmd.OutOrStdout(), outputFormat(), results); err != nil {
		return err
	}

	summary := summarize(results)
	printSummary(cmd, summary)
	if summary.Failed > 0 {
		return fmt.Errorf("%d report(s) failed analysis", summary.Failed)
	}
	return nil
}

func summarize(results []fileResult) batchSummary {
	s := batchSummary{ByStage: make(map[string]int)}
	for _, r := range results {
		if r.Error != "" {
			s.Failed++
			continue
		}
		s.Analyzed++
		if r.Result.Staging != nil {
			s.Staged++
			s.ByStage[r.Result.Staging.Stage]++
		}
	}
	return s
}

func printSummary(cmd *cobra.Command, s batchSummary) {
	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "Analyzed %d report(s): %d staged, %d failed\n", s.Analyzed, s.Staged, s.Failed)

	stages := make([]string, 0, len(s.ByStage))
	for stage := range s.ByStage {
		stages = append(stages, stage)
	}
	sort.Strings(stages)
	for _, stage := range stages {
		fmt.Fprintf(w, "  %-20s %d\n", stage, s.ByStage[stage])
	}
}
