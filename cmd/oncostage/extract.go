package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <report-file>",
	Short: "Extract oncology features from a pathology report",
	Long: `Extract reads a report file (or stdin when the file is "-") and prints the
extracted features with their per-field confidences and matched evidence. No
staging is performed.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	raw, err := readReport(cmd, args[0])
	if err != nil {
		return err
	}

	p, err := newPipeline(false)
	if err != nil {
		return err
	}
	defer p.Close()

	features, err := p.extractor.ExtractBytes(raw)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), outputFormat(), features)
}

// readReport reads a report file, or stdin for "-".
func readReport(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return raw, nil
}
