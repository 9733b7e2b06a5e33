package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var summariseCmd = &cobra.Command{
	Use:     "summarise",
	Aliases: []string{"summarize"},
	Short:   "Summarise articles missing a summary",
	Long: `Scans the library directory, registers new files by content hash and
summarises documents without a summary, up to the per-session limit.
Interrupting the run keeps summaries already written.`,
	RunE: runSummarise,
}

func init() {
	rootCmd.AddCommand(summariseCmd)
}

func runSummarise(cmd *cobra.Command, _ []string) error {
	if err := setupLLM(); err != nil {
		return err
	}
	if summaryService == nil {
		return errors.New("summary service not configured")
	}

	report, err := summaryService.SummariseLibrary(cmd.Context())
	if err != nil {
		return fmt.Errorf("summary run failed: %w", err)
	}

	cmd.Printf("Summarised: %d\n", report.Summarised)
	cmd.Printf("Insufficient text: %d\n", report.Insufficient)
	cmd.Printf("Failed (will retry): %d\n", report.Failed)
	return nil
}
