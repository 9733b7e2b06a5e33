// Package cli implements the command-line interface. Commands talk to
// the core services through the driving ports; wiring happens lazily on
// first use so that commands like version never touch the database.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leaflib/curator-cli/internal/adapters/driven/config/file"
	"github.com/leaflib/curator-cli/internal/adapters/driven/llm/openai"
	"github.com/leaflib/curator-cli/internal/adapters/driven/storage/sqlite"
	"github.com/leaflib/curator-cli/internal/core/ports/driven"
	"github.com/leaflib/curator-cli/internal/core/ports/driving"
	"github.com/leaflib/curator-cli/internal/core/services"
	"github.com/leaflib/curator-cli/internal/extractors"
	"github.com/leaflib/curator-cli/internal/hashing"
	"github.com/leaflib/curator-cli/internal/logger"
)

var version = "0.1.0"

var (
	cfgPath string
	dataDir string
	verbose bool
)

// Wired services. Tests may replace these with mocks.
var (
	appConfig      *file.Config
	docStore       driven.DocumentStore
	llmService     driven.LLMService
	summaryService driving.Summariser
	tagService     driving.Tagger
	libraryService driving.Library
)

var rootCmd = &cobra.Command{
	Use:   "curator",
	Short: "Tag and summarise a personal article library",
	Long: `curator maintains summaries and boolean tag classifications for a
directory of saved articles (PDF, HTML, MHTML, EPUB, MOBI and plain text),
backed by a local SQLite database and an LLM endpoint.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "path to the configuration file (default ~/.curator/config.toml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "path to the database directory (default ~/.curator/data)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// Execute runs the root command with the given context.
func Execute(ctx context.Context) error {
	defer teardown()
	return rootCmd.ExecuteContext(ctx)
}

// setup loads configuration and wires the store-backed services.
// Idempotent; commands needing the LLM call setupLLM afterwards.
func setup() error {
	if appConfig != nil && docStore != nil {
		return nil
	}

	cfg, err := file.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	appConfig = cfg

	store, err := sqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("opening library database: %w", err)
	}
	docStore = store

	hasher := hashing.New()
	libraryService = services.NewLibraryService(docStore, hasher, cfg.Library.ArticlesDir, cfg.SkipSet())
	return nil
}

// setupLLM wires the LLM-backed services on top of setup.
func setupLLM() error {
	if err := setup(); err != nil {
		return err
	}
	if llmService != nil {
		return nil
	}

	llm, err := openai.NewLLMService(openai.Config{
		APIKey:            appConfig.APIKey(),
		BaseURL:           appConfig.LLM.BaseURL,
		Model:             appConfig.LLM.Model,
		Timeout:           appConfig.Timeout(),
		RequestsPerSecond: appConfig.LLM.RequestsPerSecond,
		Burst:             appConfig.LLM.Burst,
	})
	if err != nil {
		return fmt.Errorf("configuring LLM client: %w", err)
	}
	llmService = llm

	hasher := hashing.New()
	extractor := extractors.New()

	summaryService = services.NewSummariser(docStore, extractor, hasher, llmService, services.SummariserConfig{
		ArticlesDir:           appConfig.Library.ArticlesDir,
		MaxWords:              appConfig.Library.MaxWords,
		Workers:               appConfig.Library.SummaryWorkers,
		MaxArticlesPerSession: appConfig.Library.MaxArticlesPerSession,
		SkipFiles:             appConfig.SkipSet(),
	})

	tagService = services.NewTagger(docStore, extractor, llmService, services.TaggerConfig{
		ArticlesDir:           appConfig.Library.ArticlesDir,
		MaxWords:              appConfig.Library.MaxWords,
		Workers:               appConfig.Library.TaggingWorkers,
		MaxArticlesPerSession: appConfig.Library.MaxArticlesPerSession,
		TagBatchSize:          appConfig.Library.TagBatchSize,
	})
	return nil
}

func teardown() {
	if llmService != nil {
		_ = llmService.Close()
	}
	if docStore != nil {
		_ = docStore.Close()
	}
}

func requireLibrary() error {
	if err := setup(); err != nil {
		return err
	}
	if libraryService == nil {
		return errors.New("library service not configured")
	}
	return nil
}
