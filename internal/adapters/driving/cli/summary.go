package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary [file]",
	Short: "Print the summary for one article",
	Long: `Prints the stored summary for the given article file, computing and
persisting one first if needed. Exits non-zero when the article's text
was judged too thin to summarise.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	if err := setupLLM(); err != nil {
		return err
	}
	if summaryService == nil {
		return errors.New("summary service not configured")
	}

	summary, ok, err := summaryService.GetArticleSummary(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("summary failed: %w", err)
	}
	if !ok {
		return fmt.Errorf("%s: not enough substantive text to summarise", args[0])
	}

	cmd.Println(summary)
	return nil
}
