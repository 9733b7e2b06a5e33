package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

var (
	searchAndTags []string
	searchAnyTags []string
	searchNotTags []string
	searchJSON    bool
)

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the library by tag expression",
	Long: `Finds documents matching a boolean expression over assigned tags:
--and tags must all match, --any requires at least one match, and --not
excludes documents matching any listed tag. Flags repeat or take
comma-separated values.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringSliceVar(&searchAndTags, "and", nil, "tags that must all match")
	searchCmd.Flags().StringSliceVar(&searchAnyTags, "any", nil, "tags of which at least one must match")
	searchCmd.Flags().StringSliceVar(&searchNotTags, "not", nil, "tags that must not match")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, _ []string) error {
	if len(searchAndTags) == 0 && len(searchAnyTags) == 0 && len(searchNotTags) == 0 {
		return errors.New("specify at least one of --and, --any or --not")
	}

	if err := requireLibrary(); err != nil {
		return err
	}

	results, err := libraryService.SearchByTags(cmd.Context(), searchAndTags, searchAnyTags, searchNotTags)
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, results)
	}
	return outputSearchTable(cmd, results)
}

// searchResult is the JSON output shape for one matched document. URL
// is recovered from the file name when it percent-encodes one, else it
// repeats the path.
type searchResult struct {
	Path    string `json:"path"`
	URL     string `json:"url"`
	Format  string `json:"format"`
	Summary string `json:"summary,omitempty"`
}

func searchResults(docs []domain.Document) []searchResult {
	results := make([]searchResult, 0, len(docs))
	for _, doc := range docs {
		path := filepath.Join(appConfig.Library.ArticlesDir, doc.FileName)
		r := searchResult{
			Path:   path,
			URL:    articleURL(doc.FileName, path),
			Format: doc.FileFormat,
		}
		if doc.HasSummaryText() {
			r.Summary = *doc.Summary
		}
		results = append(results, r)
	}
	return results
}

// articleURL recovers the source URL from a file name whose stem
// percent-encodes one (the saver's naming scheme for captured pages).
// Anything else falls back to the file path.
func articleURL(fileName, path string) string {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	decoded, err := url.PathUnescape(stem)
	if err != nil {
		return path
	}
	u, err := url.Parse(decoded)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return path
	}
	return u.String()
}

func outputSearchJSON(cmd *cobra.Command, docs []domain.Document) error {
	data, err := json.MarshalIndent(searchResults(docs), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, docs []domain.Document) error {
	if len(docs) == 0 {
		cmd.Println("No matching documents.")
		return nil
	}

	results := searchResults(docs)
	cmd.Printf("%d matching documents:\n\n", len(results))
	for i, r := range results {
		cmd.Printf("  [%d] %s -> %s (%s)\n", i+1, r.Path, r.URL, r.Format)
		if r.Summary != "" {
			cmd.Printf("      %s\n", firstLine(r.Summary))
		}
		cmd.Println()
	}
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
