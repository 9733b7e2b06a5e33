package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Register library files without summarising",
	Long: `Walks the library directory and registers every processable file by
content hash. No LLM calls are made; useful for a quick inventory after
adding files.`,
	RunE: runScan,
}

func init() {
	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	seen, err := libraryService.Scan(cmd.Context())
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	cmd.Printf("Registered %d library files.\n", seen)
	return nil
}
