package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "costgate.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)
	clamp(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "COSTGATE_PORT")
	setString(&cfg.Server.CORSOrigin, "COSTGATE_CORS_ORIGIN")
	setString(&cfg.Postgres.DSN, "DATABASE_URL")
	setInt32(&cfg.Postgres.MaxConns, "COSTGATE_PG_MAX_CONNS")
	setInt32(&cfg.Postgres.MinConns, "COSTGATE_PG_MIN_CONNS")
	setDuration(&cfg.Postgres.MaxConnLifetime, "COSTGATE_PG_MAX_CONN_LIFETIME")
	setDuration(&cfg.Postgres.MaxConnIdleTime, "COSTGATE_PG_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Postgres.HealthCheck, "COSTGATE_PG_HEALTH_CHECK")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.LiteLLM.URL, "LITELLM_URL")
	setString(&cfg.LiteLLM.APIKey, "LITELLM_API_KEY")
	setString(&cfg.Logging.Level, "COSTGATE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "COSTGATE_LOG_SERVICE")
	setInt(&cfg.Breaker.MaxFailures, "COSTGATE_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "COSTGATE_BREAKER_TIMEOUT")
	setString(&cfg.Models.Provider, "COSTGATE_MODELS_PROVIDER")
	setString(&cfg.Models.File, "COSTGATE_MODELS_FILE")
	setFloat64(&cfg.Agent.DefaultBudget, "BUDGET_PER_CALL")
	setInt(&cfg.Agent.CompressMaxTokens, "COSTGATE_COMPRESS_MAX_TOKENS")
	setBool(&cfg.Agent.Quality.Enabled, "COSTGATE_QUALITY_ENABLED")
	setInt(&cfg.Agent.Quality.Threshold, "COSTGATE_QUALITY_THRESHOLD")
	setInt(&cfg.Agent.Quality.MaxRetries, "COSTGATE_QUALITY_MAX_RETRIES")
	setString(&cfg.Agent.Quality.JudgeModel, "COSTGATE_JUDGE_MODEL")
	setInt(&cfg.Agent.Quality.JudgeMaxTokens, "COSTGATE_JUDGE_MAX_TOKENS")
	setInt64(&cfg.Cache.MaxSizeMB, "COSTGATE_CACHE_SIZE_MB")
	setDuration(&cfg.Cache.TTL, "COSTGATE_CACHE_TTL")
}

// clamp normalizes values whose out-of-range forms have an obvious safe
// interpretation. MaxRetries below zero would break the "at least one
// attempt" invariant of the retry loop, so it is pinned at zero.
func clamp(cfg *Config) {
	if cfg.Agent.Quality.MaxRetries < 0 {
		cfg.Agent.Quality.MaxRetries = 0
	}
	if cfg.Agent.CompressMaxTokens < 0 {
		cfg.Agent.CompressMaxTokens = 0
	}
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if cfg.Postgres.MaxConns < 1 {
		return errors.New("postgres.max_conns must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	if cfg.Agent.DefaultBudget <= 0 {
		return fmt.Errorf("agent.default_budget must be > 0, got %g", cfg.Agent.DefaultBudget)
	}
	if t := cfg.Agent.Quality.Threshold; t < 1 || t > 10 {
		return fmt.Errorf("agent.quality.threshold must be 1..10, got %d", t)
	}
	if cfg.Models.Provider == "" && cfg.Models.File == "" {
		return errors.New("models.provider or models.file is required")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
