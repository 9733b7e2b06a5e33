package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var manifestJSON bool

var manifestCmd = &cobra.Command{
	Use:   "manifest",
	Short: "Print a content manifest of the library",
	Long: `Hashes every library file in full and prints one line per file in
"hash  name" form, sorted by name. Suitable for comparing two library
copies or feeding content-addressable backup tooling.`,
	RunE: runManifest,
}

func init() {
	manifestCmd.Flags().BoolVar(&manifestJSON, "json", false, "output the manifest as JSON")
	rootCmd.AddCommand(manifestCmd)
}

func runManifest(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	entries, err := libraryService.Manifest(cmd.Context())
	if err != nil {
		return fmt.Errorf("manifest failed: %w", err)
	}

	if manifestJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal manifest: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	for _, entry := range entries {
		cmd.Printf("%s  %s\n", entry.Hash, entry.FileName)
	}
	return nil
}
