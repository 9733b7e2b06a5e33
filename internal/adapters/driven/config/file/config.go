// Package file loads and validates the curator's TOML configuration.
//
// The config file supplies the LLM endpoint, worker-pool sizes, the word
// budget for extraction, the library location and the tag definitions.
// Tag definitions are validated once here, at the loading boundary, and
// travel through the rest of the system as typed records.
package file

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

// Default values applied when the file omits a setting.
const (
	DefaultMaxWords              = 3000
	DefaultMaxArticlesPerSession = 25
	DefaultSummaryWorkers        = 4
	DefaultTaggingWorkers        = 4
	DefaultTagBatchSize          = 3
	DefaultTimeoutSeconds        = 120
)

// Config is the full application configuration.
type Config struct {
	LLM     LLMConfig     `toml:"llm"`
	Library LibraryConfig `toml:"library"`
	Tags    []TagConfig   `toml:"tags"`
}

// LLMConfig configures the chat-completion endpoint.
type LLMConfig struct {
	// Model is the model identifier for all LLM calls.
	Model string `toml:"model"`

	// BaseURL overrides the hosted endpoint; empty means the default.
	BaseURL string `toml:"base_url"`

	// APIKeyEnv names the environment variable holding the API key.
	APIKeyEnv string `toml:"api_key_env"`

	// TimeoutSeconds bounds each request.
	TimeoutSeconds int `toml:"timeout_seconds"`

	// RequestsPerSecond and Burst tune the client-side rate limiter.
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// LibraryConfig configures the article library and batch behaviour.
type LibraryConfig struct {
	// ArticlesDir is the directory holding the article files.
	ArticlesDir string `toml:"articles_dir"`

	// MaxWords caps extracted text per document.
	MaxWords int `toml:"max_words"`

	// MaxArticlesPerSession bounds one batch run.
	MaxArticlesPerSession int `toml:"max_articles_per_session"`

	// SummaryWorkers and TaggingWorkers size the worker pools.
	SummaryWorkers int `toml:"summary_workers"`
	TaggingWorkers int `toml:"tagging_workers"`

	// TagBatchSize groups tags per work unit for scheduling.
	TagBatchSize int `toml:"tag_batch_size"`

	// SkipFiles are file names never processed.
	SkipFiles []string `toml:"skip_files"`
}

// TagConfig is one tag definition as written in the file.
type TagConfig struct {
	Name        string   `toml:"name"`
	Description string   `toml:"description"`
	UseSummary  bool     `toml:"use_summary"`
	AnyTags     []string `toml:"any_tags"`
	AndTags     []string `toml:"and_tags"`
	NotAnyTags  []string `toml:"not_any_tags"`
}

// Load reads and validates the configuration file. If path is empty,
// defaults to ~/.curator/config.toml.
func Load(path string) (*Config, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		path = filepath.Join(home, ".curator", "config.toml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in omitted settings.
func (c *Config) applyDefaults() {
	if c.Library.MaxWords == 0 {
		c.Library.MaxWords = DefaultMaxWords
	}
	if c.Library.MaxArticlesPerSession == 0 {
		c.Library.MaxArticlesPerSession = DefaultMaxArticlesPerSession
	}
	if c.Library.SummaryWorkers == 0 {
		c.Library.SummaryWorkers = DefaultSummaryWorkers
	}
	if c.Library.TaggingWorkers == 0 {
		c.Library.TaggingWorkers = DefaultTaggingWorkers
	}
	if c.Library.TagBatchSize == 0 {
		c.Library.TagBatchSize = DefaultTagBatchSize
	}
	if c.LLM.TimeoutSeconds == 0 {
		c.LLM.TimeoutSeconds = DefaultTimeoutSeconds
	}
}

// Validate checks the configuration. A missing model, library directory
// or API credential is fatal at process start; everything later assumes
// a valid config.
func (c *Config) Validate() error {
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model is required", domain.ErrInvalidInput)
	}
	if c.Library.ArticlesDir == "" {
		return fmt.Errorf("%w: library.articles_dir is required", domain.ErrInvalidInput)
	}
	if c.LLM.APIKeyEnv != "" && os.Getenv(c.LLM.APIKeyEnv) == "" {
		return fmt.Errorf("%w: environment variable %s is empty", domain.ErrInvalidInput, c.LLM.APIKeyEnv)
	}

	seen := make(map[string]bool, len(c.Tags))
	for _, tag := range c.Tags {
		if tag.Name == "" {
			return fmt.Errorf("%w: tag with empty name", domain.ErrInvalidInput)
		}
		if tag.Description == "" {
			return fmt.Errorf("%w: tag %s has no description", domain.ErrInvalidInput, tag.Name)
		}
		if seen[tag.Name] {
			return fmt.Errorf("%w: duplicate tag %s", domain.ErrInvalidInput, tag.Name)
		}
		seen[tag.Name] = true
	}
	return nil
}

// APIKey resolves the configured API key from the environment.
func (c *Config) APIKey() string {
	if c.LLM.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.LLM.APIKeyEnv)
}

// Timeout returns the request timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

// TagDefinitions converts the configured tags to domain records.
func (c *Config) TagDefinitions() []domain.TagDefinition {
	defs := make([]domain.TagDefinition, len(c.Tags))
	for i, tag := range c.Tags {
		defs[i] = domain.TagDefinition{
			Name:        tag.Name,
			Description: tag.Description,
			UseSummary:  tag.UseSummary,
			AnyTags:     tag.AnyTags,
			AndTags:     tag.AndTags,
			NotAnyTags:  tag.NotAnyTags,
		}
	}
	return defs
}

// SkipSet returns the skip list as a set for fast lookups.
func (c *Config) SkipSet() map[string]bool {
	skip := make(map[string]bool, len(c.Library.SkipFiles))
	for _, name := range c.Library.SkipFiles {
		skip[name] = true
	}
	return skip
}
