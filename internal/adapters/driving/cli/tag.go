package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Evaluate configured tags against summarised articles",
	Long: `Selects summarised documents with no tag assignments yet and evaluates
every applicable tag against them, up to the per-session limit. Results
are committed per (document, tag) pair, so an interrupted run keeps the
pairs already decided.`,
	RunE: runTag,
}

func init() {
	rootCmd.AddCommand(tagCmd)
}

func runTag(cmd *cobra.Command, _ []string) error {
	if err := setupLLM(); err != nil {
		return err
	}
	if tagService == nil {
		return errors.New("tagging service not configured")
	}

	// Definitions are reconciled first so a run never evaluates stale tags.
	if err := tagService.SyncTags(cmd.Context(), appConfig.TagDefinitions()); err != nil {
		return fmt.Errorf("syncing tags: %w", err)
	}

	report, err := tagService.ApplyTags(cmd.Context())
	if err != nil {
		return fmt.Errorf("tagging run failed: %w", err)
	}

	cmd.Printf("Documents processed: %d\n", report.Documents)
	cmd.Printf("Pairs evaluated: %d\n", report.Evaluated)
	cmd.Printf("Matched: %d\n", report.Matched)
	if report.FailedUnits > 0 {
		cmd.Printf("Failed work units: %d\n", report.FailedUnits)
	}
	return nil
}
