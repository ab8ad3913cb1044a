package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Supported generation providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderGroq      = "groq"
	ProviderBedrock   = "bedrock"
	ProviderGemini    = "gemini"
)

// Config holds the full application configuration.
type Config struct {
	Provider  string          `yaml:"provider" mapstructure:"provider"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Groq      GroqConfig      `yaml:"groq" mapstructure:"groq"`
	Bedrock   BedrockConfig   `yaml:"bedrock" mapstructure:"bedrock"`
	Gemini    GeminiConfig    `yaml:"gemini" mapstructure:"gemini"`
	RateLimit RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Corpus    CorpusConfig    `yaml:"corpus" mapstructure:"corpus"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Output    OutputConfig    `yaml:"output" mapstructure:"output"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Metrics   MetricsConfig   `yaml:"metrics" mapstructure:"metrics"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GroqConfig holds settings for the OpenAI-compatible chat completions API.
type GroqConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// BedrockConfig holds AWS Bedrock settings. Credentials come from the
// default AWS chain.
type BedrockConfig struct {
	Region string `yaml:"region" mapstructure:"region"`
	Model  string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// RateLimitConfig throttles generation requests. Zero disables limiting.
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `yaml:"burst" mapstructure:"burst"`
}

// CorpusConfig locates the labeled-utterance corpus.
type CorpusConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// StageConfig holds sampling parameters for one generation stage.
type StageConfig struct {
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int     `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// PipelineConfig configures dataset generation.
type PipelineConfig struct {
	TargetDatasetSize       int         `yaml:"target_dataset_size" mapstructure:"target_dataset_size"`
	MaxSamplesPerIntent     int         `yaml:"max_samples_per_intent" mapstructure:"max_samples_per_intent"`
	MinConversationTurns    int         `yaml:"min_conversation_turns" mapstructure:"min_conversation_turns"`
	MaxConversationTurns    int         `yaml:"max_conversation_turns" mapstructure:"max_conversation_turns"`
	AlignmentThreshold      float64     `yaml:"alignment_threshold" mapstructure:"alignment_threshold"`
	MaxRegenerationAttempts int         `yaml:"max_regeneration_attempts" mapstructure:"max_regeneration_attempts"`
	RetryInitialBackoffMs   int         `yaml:"retry_initial_backoff_ms" mapstructure:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs       int         `yaml:"retry_max_backoff_ms" mapstructure:"retry_max_backoff_ms"`
	UseDomainMixing         bool        `yaml:"use_domain_mixing" mapstructure:"use_domain_mixing"`
	BatchSize               int         `yaml:"batch_size" mapstructure:"batch_size"` // reserved
	Seed                    uint64      `yaml:"seed" mapstructure:"seed"`
	Policy                  StageConfig `yaml:"policy" mapstructure:"policy"`
	Conversation            StageConfig `yaml:"conversation" mapstructure:"conversation"`
	Alignment               StageConfig `yaml:"alignment" mapstructure:"alignment"`
	Augmentation            StageConfig `yaml:"augmentation" mapstructure:"augmentation"`
}

// OutputConfig configures where the dataset is written. File may be a local
// path or an s3://bucket/key URI; Region applies to the latter.
type OutputConfig struct {
	File   string `yaml:"file" mapstructure:"file"`
	Region string `yaml:"region" mapstructure:"region"`
}

// StoreConfig configures the run store. An empty driver disables it.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// MetricsConfig configures the Prometheus endpoint served during a run.
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Model returns the model identifier of the selected provider.
func (c *Config) Model() string {
	switch c.Provider {
	case ProviderGroq:
		return c.Groq.Model
	case ProviderBedrock:
		return c.Bedrock.Model
	case ProviderGemini:
		return c.Gemini.Model
	default:
		return c.Anthropic.Model
	}
}

// Validate checks value ranges and provider credentials.
func (c *Config) Validate() error {
	p := c.Pipeline
	if p.TargetDatasetSize <= 0 {
		return eris.New("config: pipeline.target_dataset_size must be positive")
	}
	if p.MaxSamplesPerIntent <= 0 {
		return eris.New("config: pipeline.max_samples_per_intent must be positive")
	}
	if p.MinConversationTurns < 1 || p.MaxConversationTurns < p.MinConversationTurns {
		return eris.Errorf("config: invalid conversation turn range [%d, %d]",
			p.MinConversationTurns, p.MaxConversationTurns)
	}
	if p.AlignmentThreshold < 0 || p.AlignmentThreshold > 1 {
		return eris.Errorf("config: pipeline.alignment_threshold %v outside [0, 1]", p.AlignmentThreshold)
	}
	if p.MaxRegenerationAttempts < 1 {
		return eris.New("config: pipeline.max_regeneration_attempts must be at least 1")
	}

	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.Key == "" {
			return eris.New("config: anthropic.key is required")
		}
	case ProviderGroq:
		if c.Groq.Key == "" {
			return eris.New("config: groq.key is required")
		}
	case ProviderBedrock:
		if c.Bedrock.Region == "" || c.Bedrock.Model == "" {
			return eris.New("config: bedrock.region and bedrock.model are required")
		}
	case ProviderGemini:
		if c.Gemini.Key == "" {
			return eris.New("config: gemini.key is required")
		}
	default:
		return eris.Errorf("config: unknown provider %q", c.Provider)
	}

	switch c.Store.Driver {
	case "", "sqlite", "postgres":
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}
	return nil
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ARCHDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("provider", ProviderAnthropic)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("groq.key", "")
	v.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("groq.model", "llama-3.1-8b-instant")
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model", "")
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("rate_limit.requests_per_second", 0)
	v.SetDefault("rate_limit.burst", 1)
	v.SetDefault("corpus.path", "data/clinc150_uci/data_small.json")
	v.SetDefault("pipeline.target_dataset_size", 3)
	v.SetDefault("pipeline.max_samples_per_intent", 10)
	v.SetDefault("pipeline.min_conversation_turns", 2)
	v.SetDefault("pipeline.max_conversation_turns", 5)
	v.SetDefault("pipeline.alignment_threshold", 0.9)
	v.SetDefault("pipeline.max_regeneration_attempts", 3)
	v.SetDefault("pipeline.retry_initial_backoff_ms", 500)
	v.SetDefault("pipeline.retry_max_backoff_ms", 10000)
	v.SetDefault("pipeline.use_domain_mixing", false)
	v.SetDefault("pipeline.batch_size", 10)
	v.SetDefault("pipeline.seed", 0)
	v.SetDefault("pipeline.policy.temperature", 0.7)
	v.SetDefault("pipeline.policy.max_tokens", 200)
	v.SetDefault("pipeline.conversation.temperature", 0.8)
	v.SetDefault("pipeline.conversation.max_tokens", 1000)
	v.SetDefault("pipeline.alignment.temperature", 0.3)
	v.SetDefault("pipeline.alignment.max_tokens", 300)
	v.SetDefault("pipeline.augmentation.temperature", 0.8)
	v.SetDefault("pipeline.augmentation.max_tokens", 1000)
	v.SetDefault("output.file", "arch_router_dataset.jsonl")
	v.SetDefault("output.region", "us-east-1")
	v.SetDefault("store.driver", "")
	v.SetDefault("store.database_url", "")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
