package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rawmatterx/oncostaging/entities"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Assign a TNM stage to features given on the command line",
	Long: `Stage runs the staging rules for --cancer-type on the features passed as
flags. Features set explicitly count as fully confident; omitted ones keep
their zero value and do not contribute to the confidence score.`,
	Example: `  oncostage stage --cancer-type lung --size 2.5 --nodes 0
  oncostage stage --cancer-type esophageal --depth submucosa --metastasis`,
	Args: cobra.NoArgs,
	RunE: runStage,
}

func init() {
	addFeatureFlags(stageCmd)
	_ = stageCmd.MarkFlagRequired("cancer-type")

	rootCmd.AddCommand(stageCmd)
}

func addFeatureFlags(cmd *cobra.Command) {
	cmd.Flags().String("cancer-type", "", "cancer type to stage (required)")
	cmd.Flags().Float64("size", 0, "largest tumour dimension in cm")
	cmd.Flags().Int("nodes", 0, "number of involved lymph nodes")
	cmd.Flags().String("depth", "", "deepest invaded layer, e.g. submucosa")
	cmd.Flags().Bool("metastasis", false, "distant metastasis present")
	cmd.Flags().Bool("liver-invasion", false, "liver invasion present")
}

func runStage(cmd *cobra.Command, args []string) error {
	features, err := featuresFromFlags(cmd)
	if err != nil {
		return err
	}

	p, err := newPipeline(true)
	if err != nil {
		return err
	}
	defer p.Close()

	if err := p.validator.ValidateCancerType(features.CancerType); err != nil {
		return err
	}

	verdict, auditID, err := p.service.Stage(cmd.Context(), features.CancerType, features, cliSource)
	if err != nil {
		return err
	}
	if auditID != "" {
		fmt.Fprintln(cmd.ErrOrStderr(), "Audit record:", auditID)
	}
	return render(cmd.OutOrStdout(), outputFormat(), verdict)
}

// featuresFromFlags builds features from the stage flags. Only flags the
// user set get a confidence entry.
func featuresFromFlags(cmd *cobra.Command) (entities.MedicalFeatures, error) {
	flags := cmd.Flags()
	cancerType, _ := flags.GetString("cancer-type")

	f := entities.MedicalFeatures{
		CancerType:       cancerType,
		ConfidenceScores: map[string]float64{entities.FieldCancerType: 1.0},
		ExtractedValues:  map[string][]string{},
	}

	if flags.Changed("size") {
		f.TumorSizeCM, _ = flags.GetFloat64("size")
		f.ConfidenceScores[entities.FieldTumorSize] = 1.0
	}
	if flags.Changed("nodes") {
		f.LymphNodesInvolved, _ = flags.GetInt("nodes")
		f.ConfidenceScores[entities.FieldLymphNodes] = 1.0
	}
	if flags.Changed("depth") {
		f.TumorDepth, _ = flags.GetString("depth")
		f.ConfidenceScores[entities.FieldTumorDepth] = 1.0
	}
	if flags.Changed("metastasis") {
		f.DistantMetastasis, _ = flags.GetBool("metastasis")
		f.ConfidenceScores[entities.FieldDistantMetastasis] = 1.0
	}
	if flags.Changed("liver-invasion") {
		f.LiverInvasion, _ = flags.GetBool("liver-invasion")
		f.ConfidenceScores[entities.FieldLiverInvasion] = 1.0
	}

	if f.TumorSizeCM < 0 {
		return entities.MedicalFeatures{}, fmt.Errorf("--size must not be negative, got %g", f.TumorSizeCM)
	}
	if f.LymphNodesInvolved < 0 {
		return entities.MedicalFeatures{}, fmt.Errorf("--nodes must not be negative, got %d", f.LymphNodesInvolved)
	}
	return f, nil
}
