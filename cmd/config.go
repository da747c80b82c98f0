package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/resume-matcher/internal/ai/gemini"
	"github.com/spigell/resume-matcher/internal/embedding"
	"github.com/spigell/resume-matcher/internal/jobs"
	"github.com/spigell/resume-matcher/internal/logger"
	"github.com/spigell/resume-matcher/internal/matching"
	"github.com/spigell/resume-matcher/internal/secrets"
	"github.com/spigell/resume-matcher/internal/tools"
)

const (
	envGeminiAPIKey = "GEMINI_API_KEY"
	envSupabaseURL  = "SUPABASE_URL"
	envSupabaseKey  = "SUPABASE_KEY"
	envDatabaseURL  = "DATABASE_URL"
)

type Config struct {
	Matching *MatchingConfig `mapstructure:"matching" validate:"required"`
	AI       *AIConfig       `mapstructure:"ai" validate:"required"`
	Jobs     *JobsConfig     `mapstructure:"jobs" validate:"required"`
	Server   *ServerConfig   `mapstructure:"server" validate:"required"`
}

type MatchingConfig struct {
	matching.Options `mapstructure:",squash"`

	Embedder string `mapstructure:"embedder" validate:"oneof=hashing gemini"`
	// EmbeddingModel is used by the gemini embedder.
	EmbeddingModel     string `mapstructure:"embedding-model"`
	EmbeddingDimension int    `mapstructure:"embedding-dimension" validate:"gte=0"`
	// SynonymsFile replaces the built-in synonym table.
	SynonymsFile string `mapstructure:"synonyms-file"`
}

type AIConfig struct {
	Provider    string                 `mapstructure:"provider" validate:"oneof=gemini"`
	Gemini      *GeminiConfig          `mapstructure:"gemini" validate:"required"`
	Preferences gemini.PromptOverrides `mapstructure:"preferences"`
}

type GeminiConfig struct {
	APIKey            string `mapstructure:"api-key" json:"-"`
	APIKeyFile        string `mapstructure:"api-key-file"`
	Model             string `mapstructure:"model" validate:"required"`
	MaxRetries        int    `mapstructure:"max-retries" validate:"gte=1,lte=10"`
	MaxLogLength      int    `mapstructure:"max-log-length" validate:"gte=0"`
	RequestsPerMinute int    `mapstructure:"requests-per-minute" validate:"gte=0"`
}

type JobsConfig struct {
	// Source is supabase or postgres. Empty picks whichever is configured.
	Source          string        `mapstructure:"source" validate:"omitempty,oneof=supabase postgres"`
	SupabaseURL     string        `mapstructure:"supabase-url" validate:"omitempty,url"`
	SupabaseKey     string        `mapstructure:"supabase-key" json:"-"`
	SupabaseKeyFile string        `mapstructure:"supabase-key-file"`
	DatabaseURL     string        `mapstructure:"database-url" json:"-"`
	Table           string        `mapstructure:"table"`
	PageSize        int           `mapstructure:"page-size" validate:"gte=0"`
	CacheTTL        time.Duration `mapstructure:"cache-ttl" validate:"gte=0"`
	// DisabledFilters names dashboard filter steps whose selections are ignored.
	DisabledFilters []string `mapstructure:"disabled-filters" validate:"dive,oneof=date_range company title location status"`
}

type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	MaxUploadMB       int64         `mapstructure:"max-upload-mb" validate:"gte=1,lte=100"`
	RequestsPerMinute int           `mapstructure:"requests-per-minute" validate:"gte=0"`
	Burst             int           `mapstructure:"burst" validate:"gte=0"`
	AllowedOrigins    []string      `mapstructure:"allowed-origins"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown-timeout" validate:"gte=0"`
}

func defaultConfig() *Config {
	return &Config{
		Matching: &MatchingConfig{
			Options:        matching.DefaultOptions(),
			Embedder:       embedding.HashingModelName,
			EmbeddingModel: gemini.DefaultEmbeddingModel,
		},
		AI: &AIConfig{
			Provider: "gemini",
			Gemini: &GeminiConfig{
				Model:        gemini.DefaultModel,
				MaxRetries:   gemini.DefaultMaxRetries,
				MaxLogLength: 200,
			},
		},
		Jobs: &JobsConfig{
			Table:    "jobs",
			CacheTTL: jobs.DefaultCacheTTL,
		},
		Server: &ServerConfig{
			Addr:              ":8080",
			MaxUploadMB:       10,
			RequestsPerMinute: 30,
			AllowedOrigins:    []string{"*"},
			ShutdownTimeout:   30 * time.Second,
		},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

func getConfig() (*Config, error) {
	config := defaultConfig()
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if err := config.Matching.Options.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// newMatcher builds the hybrid matcher around the process-wide embedding model.
func newMatcher(cfg *MatchingConfig, log *zap.Logger) (*matching.Matcher, error) {
	var model *embedding.Lazy

	switch cfg.Embedder {
	case "gemini":
		apiKey, err := secrets.Optional(secrets.Source{Name: "gemini api key", Env: envGeminiAPIKey})
		if err != nil {
			return nil, err
		}
		model = embedding.Shared("gemini/"+cfg.EmbeddingModel, gemini.LoadEmbedder(apiKey, cfg.EmbeddingModel, cfg.EmbeddingDimension))
	default:
		model = embedding.Shared(embedding.HashingModelName, embedding.LoadHashing(cfg.EmbeddingDimension))
	}

	opts := []matching.Option{
		matching.WithOptions(cfg.Options),
		matching.WithLogger(logger.Named(log, "matching")),
	}

	if cfg.SynonymsFile != "" {
		data, err := os.ReadFile(cfg.SynonymsFile)
		if err != nil {
			return nil, fmt.Errorf("reading synonyms file: %w", err)
		}
		thesaurus, err := matching.LoadThesaurus(data)
		if err != nil {
			return nil, fmt.Errorf("loading synonyms from %q: %w", cfg.SynonymsFile, err)
		}
		opts = append(opts, matching.WithThesaurus(thesaurus))
	}

	return matching.New(model, opts...)
}

func newAssistant(ctx context.Context, cfg *AIConfig, log *zap.Logger) (*gemini.Assistant, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.Gemini.APIKey,
		File:  cfg.Gemini.APIKeyFile,
		Env:   envGeminiAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.gemini.api-key-file or %s)", err, envGeminiAPIKey)
	}

	client, err := gemini.NewClient(ctx, apiKey)
	if err != nil {
		return nil, err
	}

	genLogger := logger.WithFields(
		logger.WithCommonFields(logger.Named(log, "gemini"), cfg.Provider, cfg.Gemini.Model),
		zap.Int("ai_retry_attempts", cfg.Gemini.MaxRetries),
	)

	generator, err := gemini.NewGenerator(client, cfg.Gemini.Model,
		gemini.WithMaxRetries(cfg.Gemini.MaxRetries),
		gemini.WithRequestsPerMinute(cfg.Gemini.RequestsPerMinute),
		gemini.WithLogger(genLogger),
	)
	if err != nil {
		return nil, err
	}

	assistant, err := gemini.NewAssistant(generator, genLogger, cfg.Gemini.MaxLogLength)
	if err != nil {
		return nil, err
	}
	assistant.SetPromptOverrides(cfg.Preferences)
	return assistant, nil
}

func newRunner(ctx context.Context, config *Config, log *zap.Logger) (*tools.Runner, error) {
	matcher, err := newMatcher(config.Matching, log)
	if err != nil {
		return nil, fmt.Errorf("building matcher: %w", err)
	}

	assistant, err := newAssistant(ctx, config.AI, log)
	if err != nil {
		return nil, fmt.Errorf("building ai assistant: %w", err)
	}

	return tools.NewRunner(matcher, assistant, log)
}

var errJobsNotConfigured = errors.New("no jobs source configured")

// newJobsSource returns a cached source and a cleanup func. Without a supabase
// url or database url it returns errJobsNotConfigured.
func newJobsSource(ctx context.Context, cfg *JobsConfig, log *zap.Logger) (jobs.Source, func(), error) {
	log = logger.Named(log, "jobs")
	noop := func() {}

	source := strings.TrimSpace(cfg.Source)
	if source == "" {
		switch {
		case strings.TrimSpace(cfg.DatabaseURL) != "":
			source = "postgres"
		case strings.TrimSpace(cfg.SupabaseURL) != "":
			source = "supabase"
		default:
			return nil, noop, errJobsNotConfigured
		}
	}

	switch source {
	case "postgres":
		pg, err := jobs.ConnectPostgres(ctx, cfg.DatabaseURL, cfg.Table, log)
		if err != nil {
			return nil, noop, err
		}
		log.Info("reading jobs from postgres", zap.String("table", cfg.Table))
		return jobs.NewCachedSource(pg, cfg.CacheTTL, log), pg.Close, nil
	default:
		key, err := secrets.Load(secrets.Source{
			Name:  "supabase key",
			Value: cfg.SupabaseKey,
			File:  cfg.SupabaseKeyFile,
			Env:   envSupabaseKey,
		})
		if err != nil {
			return nil, noop, err
		}
		sb, err := jobs.NewSupabaseSource(cfg.SupabaseURL, key, log,
			jobs.WithTable(cfg.Table),
			jobs.WithPageSize(cfg.PageSize),
		)
		if err != nil {
			return nil, noop, err
		}
		log.Info("reading jobs from supabase", zap.String("table", cfg.Table))
		return jobs.NewCachedSource(sb, cfg.CacheTTL, log), noop, nil
	}
}
