package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.Groq.BaseURL)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Groq.Model)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "data/clinc150_uci/data_small.json", cfg.Corpus.Path)

	p := cfg.Pipeline
	assert.Equal(t, 3, p.TargetDatasetSize)
	assert.Equal(t, 10, p.MaxSamplesPerIntent)
	assert.Equal(t, 2, p.MinConversationTurns)
	assert.Equal(t, 5, p.MaxConversationTurns)
	assert.InDelta(t, 0.9, p.AlignmentThreshold, 0.001)
	assert.Equal(t, 3, p.MaxRegenerationAttempts)
	assert.Equal(t, 500, p.RetryInitialBackoffMs)
	assert.Equal(t, 10000, p.RetryMaxBackoffMs)
	assert.False(t, p.UseDomainMixing)
	assert.Equal(t, 10, p.BatchSize)
	assert.Equal(t, uint64(0), p.Seed)
	assert.Equal(t, StageConfig{Temperature: 0.7, MaxTokens: 200}, p.Policy)
	assert.Equal(t, StageConfig{Temperature: 0.8, MaxTokens: 1000}, p.Conversation)
	assert.Equal(t, StageConfig{Temperature: 0.3, MaxTokens: 300}, p.Alignment)
	assert.Equal(t, StageConfig{Temperature: 0.8, MaxTokens: 1000}, p.Augmentation)

	assert.Equal(t, "arch_router_dataset.jsonl", cfg.Output.File)
	assert.Equal(t, "us-east-1", cfg.Output.Region)
	assert.Equal(t, "", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
provider: groq
groq:
  key: gsk_test
pipeline:
  target_dataset_size: 50
  use_domain_mixing: true
  seed: 42
  conversation:
    temperature: 0.5
store:
  driver: sqlite
  database_url: runs.db
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ProviderGroq, cfg.Provider)
	assert.Equal(t, "gsk_test", cfg.Groq.Key)
	assert.Equal(t, 50, cfg.Pipeline.TargetDatasetSize)
	assert.True(t, cfg.Pipeline.UseDomainMixing)
	assert.Equal(t, uint64(42), cfg.Pipeline.Seed)
	assert.InDelta(t, 0.5, cfg.Pipeline.Conversation.Temperature, 0.001)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Defaults still apply for unset values
	assert.Equal(t, 1000, cfg.Pipeline.Conversation.MaxTokens)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Model())
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("ARCHDATA_STORE_DRIVER", "postgres")
	t.Setenv("ARCHDATA_LOG_LEVEL", "warn")
	t.Setenv("ARCHDATA_PIPELINE_ALIGNMENT_THRESHOLD", "0.75")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.InDelta(t, 0.75, cfg.Pipeline.AlignmentThreshold, 0.001)
}

func TestLoadDotEnv(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("ARCHDATA_ANTHROPIC_KEY=sk-ant-from-dotenv\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("ARCHDATA_ANTHROPIC_KEY") }) //nolint:errcheck

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sk-ant-from-dotenv", cfg.Anthropic.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	cfg := &Config{Provider: ProviderAnthropic}
	cfg.Anthropic.Key = "sk-ant-key"
	cfg.Pipeline.TargetDatasetSize = 3
	cfg.Pipeline.MaxSamplesPerIntent = 10
	cfg.Pipeline.MinConversationTurns = 2
	cfg.Pipeline.MaxConversationTurns = 5
	cfg.Pipeline.AlignmentThreshold = 0.9
	cfg.Pipeline.MaxRegenerationAttempts = 3
	return cfg
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(*Config) {}, ""},
		{"zero target", func(c *Config) { c.Pipeline.TargetDatasetSize = 0 }, "target_dataset_size"},
		{"zero samples", func(c *Config) { c.Pipeline.MaxSamplesPerIntent = 0 }, "max_samples_per_intent"},
		{"inverted turns", func(c *Config) { c.Pipeline.MinConversationTurns = 6 }, "turn range"},
		{"zero min turns", func(c *Config) { c.Pipeline.MinConversationTurns = 0 }, "turn range"},
		{"equal turns", func(c *Config) { c.Pipeline.MinConversationTurns = 5 }, ""},
		{"threshold high", func(c *Config) { c.Pipeline.AlignmentThreshold = 1.1 }, "alignment_threshold"},
		{"threshold low", func(c *Config) { c.Pipeline.AlignmentThreshold = -0.1 }, "alignment_threshold"},
		{"no attempts", func(c *Config) { c.Pipeline.MaxRegenerationAttempts = 0 }, "max_regeneration_attempts"},
		{"missing anthropic key", func(c *Config) { c.Anthropic.Key = "" }, "anthropic.key is required"},
		{"groq without key", func(c *Config) { c.Provider = ProviderGroq }, "groq.key is required"},
		{"groq with key", func(c *Config) { c.Provider = ProviderGroq; c.Groq.Key = "gsk" }, ""},
		{"bedrock without model", func(c *Config) { c.Provider = ProviderBedrock; c.Bedrock.Region = "us-east-1" }, "bedrock.region and bedrock.model"},
		{"gemini without key", func(c *Config) { c.Provider = ProviderGemini }, "gemini.key is required"},
		{"unknown provider", func(c *Config) { c.Provider = "openai" }, "unknown provider"},
		{"unknown store", func(c *Config) { c.Store.Driver = "mysql" }, "unknown store driver"},
		{"sqlite store", func(c *Config) { c.Store.Driver = "sqlite" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestModel(t *testing.T) {
	cfg := validDefaults()
	cfg.Anthropic.Model = "claude"
	cfg.Groq.Model = "llama"
	cfg.Bedrock.Model = "nova"
	cfg.Gemini.Model = "gemini"

	assert.Equal(t, "claude", cfg.Model())
	for provider, want := range map[string]string{ProviderGroq: "llama", ProviderBedrock: "nova", ProviderGemini: "gemini"} {
		cfg.Provider = provider
		assert.Equal(t, want, cfg.Model())
	}
}
