// Package config provides hierarchical configuration loading for PipeKit.
// Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the PipeKit core service.
type Config struct {
	Server  Server  `yaml:"server"`
	NATS    NATS    `yaml:"nats"`
	Logging Logging `yaml:"logging"`
	Engine  Engine  `yaml:"engine"`
	Cache   Cache   `yaml:"cache"`
	Paths   Paths   `yaml:"paths"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// NATS holds optional NATS JetStream configuration. When URL is empty,
// process events are broadcast over WebSocket only.
type NATS struct {
	URL string `yaml:"url"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Engine holds pipeline execution configuration.
type Engine struct {
	// FallbackAgent names the agent tried when the requested one is
	// unavailable. Single level: the fallback itself has no fallback.
	FallbackAgent string `yaml:"fallback_agent"`
	// ProbeTTL bounds how long a backend availability probe result is reused.
	ProbeTTL time.Duration `yaml:"probe_ttl"`
	// ShutdownTimeout bounds how long shutdown waits for engine goroutines.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Cache holds the in-process cache configuration.
type Cache struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// Paths holds filesystem locations for pipeline and agent definitions.
type Paths struct {
	// ConfigDir is the project-local definition directory. Pipelines live
	// in <ConfigDir>/pipelines/*.yaml, agents in <ConfigDir>/agents/*.md.
	ConfigDir string `yaml:"config_dir"`
	// WorkDir is the working directory handed to agent subprocesses.
	WorkDir string `yaml:"work_dir"`
}

// Defaults returns a Config with sensible default values for local development.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "8090",
			CORSOrigin: "http://localhost:3000",
		},
		NATS: NATS{
			URL: "",
		},
		Logging: Logging{
			Level:   "info",
			Service: "pipekit-core",
			Async:   false,
		},
		Engine: Engine{
			FallbackAgent:   "",
			ProbeTTL:        30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Cache: Cache{
			MaxSizeMB: 16,
		},
		Paths: Paths{
			ConfigDir: ".pipekit",
			WorkDir:   ".",
		},
	}
}
