package cli

import (
	"github.com/spf13/cobra"
)

var (
	predictFiles         int
	predictChunkSize     int
	predictProcessingDir string
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Print where a concatenation result will be written",
	Long: `Computes the path of the final merged file for a number of input files
without building or running anything. Downstream steps use this to locate
the result of a concat run.`,
	RunE: runPredict,
}

func init() {
	predictCmd.Flags().IntVar(&predictFiles, "files", 0, "Number of input files")
	predictCmd.Flags().IntVar(&predictChunkSize, "chunk-size", 0, "Maximum inputs per merge (default from settings)")
	predictCmd.Flags().StringVar(&predictProcessingDir, "processing-dir", "", "Processing directory of the snapshot")
	_ = predictCmd.MarkFlagRequired("files")
	_ = predictCmd.MarkFlagRequired("processing-dir")
	rootCmd.AddCommand(predictCmd)
}

func runPredict(cmd *cobra.Command, _ []string) error {
	if concatService == nil {
		return errNotConfigured("concat")
	}

	path, err := concatService.Predict(predictFiles, predictChunkSize, predictProcessingDir)
	if err != nil {
		return err
	}
	cmd.Println(path)
	return nil
}
