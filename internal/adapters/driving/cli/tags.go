package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Manage the stored tag set",
}

var tagsSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Reconcile stored tags with the configuration",
	Long: `Diffs the configured tag definitions against the stored tags. New tags
are created, removed tags are deleted with their assignments, and tags
whose defining properties changed have their assignments invalidated so
the next tagging run re-evaluates them.`,
	RunE: runTagsSync,
}

var tagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored tags",
	RunE:  runTagsList,
}

func init() {
	tagsCmd.AddCommand(tagsSyncCmd)
	tagsCmd.AddCommand(tagsListCmd)
	rootCmd.AddCommand(tagsCmd)
}

func runTagsSync(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	if err := docStore.SyncTagsFromConfig(cmd.Context(), appConfig.TagDefinitions()); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}

	cmd.Printf("Synchronised %d tag definitions.\n", len(appConfig.TagDefinitions()))
	return nil
}

func runTagsList(cmd *cobra.Command, _ []string) error {
	if err := requireLibrary(); err != nil {
		return err
	}

	tags, err := docStore.ListTags(cmd.Context())
	if err != nil {
		return fmt.Errorf("listing tags: %w", err)
	}
	if len(tags) == 0 {
		cmd.Println("No tags stored. Define tags in the configuration and run 'curator tags sync'.")
		return nil
	}

	for _, tag := range tags {
		input := "full text"
		if tag.UseSummary {
			input = "summary"
		}
		cmd.Printf("  %s (%s)\n", tag.Name, input)
		if tag.HasPreFilter() {
			cmd.Printf("      pre-filter: and=%v any=%v not=%v\n", tag.AndTags, tag.AnyTags, tag.NotAnyTags)
		}
	}
	return nil
}
