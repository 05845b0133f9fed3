// Package config loads memoflow settings from viper: flags, MEMOFLOW_*
// environment variables, a .env file and config.yaml.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/memoflow/internal/common"
	"github.com/Veraticus/memoflow/internal/engine"
	"github.com/Veraticus/memoflow/internal/llm"
	"github.com/Veraticus/memoflow/internal/status"
	"github.com/Veraticus/memoflow/internal/worker"
)

// EnvPrefix prefixes every environment override, e.g. MEMOFLOW_LLM_PROVIDER.
const EnvPrefix = "MEMOFLOW"

// DefaultDatabasePath is used when database.path is unset.
const DefaultDatabasePath = "$HOME/.local/share/memoflow/memoflow.db"

// Settings is the resolved configuration.
type Settings struct {
	DatabasePath string
	LogLevel     string
	LogFormat    string
	Locale       string
	LLM          llm.Config
	Engine       engine.Config
	Scheduler    worker.SchedulerConfig
	SweepCron    string
	Thresholds   status.Thresholds
}

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", DefaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("labels.locale", "")

	v.SetDefault("llm.provider", "ollama")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.temperature", 0.2)
	v.SetDefault("llm.max_tokens", 150)
	v.SetDefault("llm.max_retries", 2)
	v.SetDefault("llm.retry_delay", 500*time.Millisecond)
	v.SetDefault("llm.call_timeout", llm.DefaultCallTimeout)
	v.SetDefault("llm.cache_ttl", llm.DefaultCacheTTL)
	v.SetDefault("llm.cache_size", llm.DefaultCacheSize)
	v.SetDefault("llm.rate_limit", llm.DefaultRateLimit)
	v.SetDefault("llm.summary_threshold", llm.DefaultSummaryThreshold)

	v.SetDefault("engine.prefer_custom_match", engine.DefaultConfig().PreferCustomMatch)

	sched := worker.DefaultSchedulerConfig()
	v.SetDefault("worker.concurrency", sched.Concurrency)
	v.SetDefault("worker.queue_size", sched.QueueSize)
	v.SetDefault("worker.max_attempts", sched.MaxAttempts)
	v.SetDefault("worker.initial_backoff", sched.InitialBackoff)
	v.SetDefault("worker.max_backoff", sched.MaxBackoff)
	v.SetDefault("worker.sweep_schedule", worker.DefaultSweepSchedule)

	v.SetDefault("status.profile", "release")
}

// Init wires file and environment sources into v. cfgFile overrides the
// search path. A missing config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	SetDefaults(v)

	if err := loadDotEnv(cfgFile); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(ConfigDir())
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}
	return nil
}

// loadDotEnv reads .env from the working directory and from beside the
// config file. Variables already set in the environment win.
func loadDotEnv(cfgFile string) error {
	candidates := []string{".env", filepath.Join(ConfigDir(), ".env")}
	if cfgFile != "" {
		candidates = append(candidates, filepath.Join(filepath.Dir(cfgFile), ".env"))
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

// Load resolves Settings from v.
func Load(v *viper.Viper) (Settings, error) {
	s := Settings{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		LogLevel:     v.GetString("logging.level"),
		LogFormat:    v.GetString("logging.format"),
		Locale:       v.GetString("labels.locale"),
		LLM: llm.Config{
			Provider:         strings.ToLower(v.GetString("llm.provider")),
			Model:            v.GetString("llm.model"),
			BaseURL:          v.GetString("llm.base_url"),
			APIKey:           v.GetString("llm.api_key"),
			Temperature:      v.GetFloat64("llm.temperature"),
			MaxTokens:        v.GetInt("llm.max_tokens"),
			MaxRetries:       v.GetInt("llm.max_retries"),
			RetryDelay:       v.GetDuration("llm.retry_delay"),
			CallTimeout:      v.GetDuration("llm.call_timeout"),
			CacheTTL:         v.GetDuration("llm.cache_ttl"),
			CacheSize:        v.GetInt("llm.cache_size"),
			RateLimit:        v.GetInt("llm.rate_limit"),
			SummaryThreshold: v.GetInt("llm.summary_threshold"),
		},
		Engine: engine.Config{
			PreferCustomMatch: v.GetBool("engine.prefer_custom_match"),
		},
		Scheduler: worker.SchedulerConfig{
			Concurrency:    v.GetInt("worker.concurrency"),
			QueueSize:      v.GetInt("worker.queue_size"),
			MaxAttempts:    v.GetInt("worker.max_attempts"),
			InitialBackoff: v.GetDuration("worker.initial_backoff"),
			MaxBackoff:     v.GetDuration("worker.max_backoff"),
		},
		SweepCron: v.GetString("worker.sweep_schedule"),
	}

	if s.DatabasePath == "" {
		s.DatabasePath = ExpandPath(DefaultDatabasePath)
	}

	if s.LLM.APIKey == "" {
		s.LLM.APIKey = providerKey(s.LLM.Provider)
	}

	thresholds, err := status.ThresholdsForProfile(v.GetString("status.profile"))
	if err != nil {
		return Settings{}, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	if v.IsSet("status.param_threshold") {
		thresholds.Param = v.GetInt("status.param_threshold")
	}
	if v.IsSet("status.high_last_threshold") {
		thresholds.HighLast = v.GetInt("status.high_last_threshold")
	}
	if v.IsSet("status.exp_last_threshold") {
		thresholds.ExpLast = v.GetInt("status.exp_last_threshold")
	}
	s.Thresholds = thresholds

	if err := s.validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// providerKey falls back to the vendor's conventional environment variable.
func providerKey(provider string) string {
	switch provider {
	case "openai":
		return os.Getenv("OPENAI_API_KEY")
	case "anthropic":
		return os.Getenv("ANTHROPIC_API_KEY")
	default:
		return ""
	}
}

func (s Settings) validate() error {
	switch s.LLM.Provider {
	case "", "ollama":
	case "openai", "anthropic":
		if s.LLM.APIKey == "" {
			return fmt.Errorf("%w: llm.api_key (or %s_API_KEY) is required for %s",
				common.ErrMissingConfig, strings.ToUpper(s.LLM.Provider), s.LLM.Provider)
		}
	default:
		return fmt.Errorf("%w: unknown llm.provider %q", common.ErrInvalidConfig, s.LLM.Provider)
	}

	if s.Thresholds.Param <= 0 || s.Thresholds.HighLast <= 0 || s.Thresholds.ExpLast <= 0 {
		return fmt.Errorf("%w: status thresholds must be positive", common.ErrInvalidConfig)
	}
	return nil
}
