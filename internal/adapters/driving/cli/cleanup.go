package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Remove database rows for deleted files",
	Long: `Removes document rows whose backing file no longer exists in the
library directory, then deletes tags left with zero assignments.`,
	RunE: runCleanup,
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}

func runCleanup(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	report, err := libraryService.Cleanup(cmd.Context())
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}

	cmd.Printf("Removed %d documents and %d orphaned tags.\n",
		report.DocumentsRemoved, report.TagsRemoved)
	return nil
}
