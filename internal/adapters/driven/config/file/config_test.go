package file

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflib/curator-cli/internal/core/domain"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

const validConfig = `
[llm]
model = "gpt-4o-mini"

[library]
articles_dir = "/home/reader/articles"

[[tags]]
name = "science"
description = "Articles about scientific research"
use_summary = true

[[tags]]
name = "longread"
description = "Pieces longer than a typical blog post"
any_tags = ["science"]
`

func TestLoad_ValidConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, "/home/reader/articles", cfg.Library.ArticlesDir)
	require.Len(t, cfg.Tags, 2)
	assert.True(t, cfg.Tags[0].UseSummary)
	assert.Equal(t, []string{"science"}, cfg.Tags[1].AnyTags)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, validConfig))
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxWords, cfg.Library.MaxWords)
	assert.Equal(t, DefaultMaxArticlesPerSession, cfg.Library.MaxArticlesPerSession)
	assert.Equal(t, DefaultSummaryWorkers, cfg.Library.SummaryWorkers)
	assert.Equal(t, DefaultTaggingWorkers, cfg.Library.TaggingWorkers)
	assert.Equal(t, DefaultTagBatchSize, cfg.Library.TagBatchSize)
	assert.Equal(t, time.Duration(DefaultTimeoutSeconds)*time.Second, cfg.Timeout())
}

func TestLoad_ExplicitValuesKept(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
[llm]
model = "gpt-4o-mini"
timeout_seconds = 30

[library]
articles_dir = "/articles"
max_words = 1500
summary_workers = 2
`))
	require.NoError(t, err)

	assert.Equal(t, 1500, cfg.Library.MaxWords)
	assert.Equal(t, 2, cfg.Library.SummaryWorkers)
	assert.Equal(t, 30*time.Second, cfg.Timeout())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_MalformedTOML(t *testing.T) {
	_, err := Load(writeConfig(t, "[llm\nmodel = broken"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "llm.model is required",
		},
		{
			name:    "missing articles dir",
			mutate:  func(c *Config) { c.Library.ArticlesDir = "" },
			wantErr: "library.articles_dir is required",
		},
		{
			name: "tag without name",
			mutate: func(c *Config) {
				c.Tags = append(c.Tags, TagConfig{Description: "no name"})
			},
			wantErr: "tag with empty name",
		},
		{
			name: "tag without description",
			mutate: func(c *Config) {
				c.Tags = append(c.Tags, TagConfig{Name: "bare"})
			},
			wantErr: "has no description",
		},
		{
			name: "duplicate tag name",
			mutate: func(c *Config) {
				c.Tags = append(c.Tags, TagConfig{Name: "science", Description: "again"})
			},
			wantErr: "duplicate tag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				LLM:     LLMConfig{Model: "gpt-4o-mini"},
				Library: LibraryConfig{ArticlesDir: "/articles"},
				Tags: []TagConfig{
					{Name: "science", Description: "about science"},
				},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_EmptyAPIKeyEnv(t *testing.T) {
	cfg := Config{
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			APIKeyEnv: "CURATOR_TEST_KEY_UNSET",
		},
		Library: LibraryConfig{ArticlesDir: "/articles"},
	}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CURATOR_TEST_KEY_UNSET")
}

func TestAPIKey(t *testing.T) {
	t.Setenv("CURATOR_TEST_KEY", "sk-test")

	cfg := Config{LLM: LLMConfig{APIKeyEnv: "CURATOR_TEST_KEY"}}
	assert.Equal(t, "sk-test", cfg.APIKey())

	cfg.LLM.APIKeyEnv = ""
	assert.Empty(t, cfg.APIKey())
}

func TestTagDefinitions(t *testing.T) {
	cfg := Config{Tags: []TagConfig{
		{Name: "science", Description: "d", UseSummary: true, NotAnyTags: []string{"spam"}},
	}}

	defs := cfg.TagDefinitions()
	require.Len(t, defs, 1)
	assert.Equal(t, "science", defs[0].Name)
	assert.True(t, defs[0].UseSummary)
	assert.Equal(t, []string{"spam"}, defs[0].NotAnyTags)
}

func TestSkipSet(t *testing.T) {
	cfg := Config{Library: LibraryConfig{SkipFiles: []string{".DS_Store", "index.txt"}}}

	skip := cfg.SkipSet()
	assert.True(t, skip[".DS_Store"])
	assert.True(t, skip["index.txt"])
	assert.False(t, skip["article.pdf"])
}
