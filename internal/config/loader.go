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
const DefaultConfigFile = "pipekit.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// The YAML file is optional; a missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

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
	setString(&cfg.Server.Port, "PIPEKIT_PORT")
	setString(&cfg.Server.CORSOrigin, "PIPEKIT_CORS_ORIGIN")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "PIPEKIT_LOG_LEVEL")
	setString(&cfg.Logging.Service, "PIPEKIT_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "PIPEKIT_LOG_ASYNC")
	setString(&cfg.Engine.FallbackAgent, "PIPEKIT_FALLBACK_AGENT")
	setDuration(&cfg.Engine.ProbeTTL, "PIPEKIT_PROBE_TTL")
	setDuration(&cfg.Engine.ShutdownTimeout, "PIPEKIT_SHUTDOWN_TIMEOUT")
	setInt64(&cfg.Cache.MaxSizeMB, "PIPEKIT_CACHE_SIZE_MB")
	setString(&cfg.Paths.ConfigDir, "PIPEKIT_CONFIG_DIR")
	setString(&cfg.Paths.WorkDir, "PIPEKIT_WORK_DIR")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Logging.Service == "" {
		return errors.New("logging.service is required")
	}
	if cfg.Paths.ConfigDir == "" {
		return errors.New("paths.config_dir is required")
	}
	if cfg.Engine.ProbeTTL < 0 {
		return errors.New("engine.probe_ttl must not be negative")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
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

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
