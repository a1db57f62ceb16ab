// Package config provides Viper-based configuration loading for the
// pong server.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// ServerConfig holds the UDP listener settings.
type ServerConfig struct {
	// Host is the bind address for the UDP socket.
	Host string `mapstructure:"host"`
	// Port is the UDP port to bind.
	Port int `mapstructure:"port"`
}

// Addr returns the "host:port" bind address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// PipelineConfig bounds the datagram ingestion pipeline. These are the
// first-class knobs behind the pipeline's load-shedding behavior:
// packets past QueueCapacity are dropped, and at most MaxInFlight
// packets are processed concurrently.
type PipelineConfig struct {
	// QueueCapacity is the depth of the packet hand-off queue between
	// the receive loop and the dispatcher. A full queue drops packets
	// rather than stalling the socket.
	QueueCapacity int `mapstructure:"queue_capacity"`
	// MaxInFlight is the number of admission permits, capping packets
	// being processed concurrently regardless of queue depth.
	MaxInFlight int64 `mapstructure:"max_in_flight"`
	// ReadBufferBytes is the per-datagram read buffer size. Datagrams
	// larger than this are truncated to it, not rejected, so payloads
	// must fit within this bound to decode intact.
	ReadBufferBytes int `mapstructure:"read_buffer_bytes"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateServer(c.Server); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validatePipeline(c.Pipeline); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Host == "" {
		errs = append(errs, "server.host must not be empty")
	}
	if s.Port < 1 || s.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port must be 1-65535, got %d", s.Port))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validatePipeline(p PipelineConfig) error {
	var errs []string
	if p.QueueCapacity < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.queue_capacity must be >= 1, got %d", p.QueueCapacity))
	}
	if p.MaxInFlight < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.max_in_flight must be >= 1, got %d", p.MaxInFlight))
	}
	if p.ReadBufferBytes < 1 {
		errs = append(errs, fmt.Sprintf("pipeline.read_buffer_bytes must be >= 1, got %d", p.ReadBufferBytes))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	if l.Format != "json" && l.Format != "console" {
		return fmt.Errorf("logging.format must be json or console, got %q", l.Format)
	}
	return nil
}

// Load reads configuration from the given file path, applies defaults
// and PONG_-prefixed environment overrides, and validates the result.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with PONG_ prefix
	v.SetEnvPrefix("PONG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	return LoadFromViper(v)
}

// LoadFromViper builds a Config from an already-configured Viper
// instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8090)

	v.SetDefault("pipeline.queue_capacity", 1000)
	v.SetDefault("pipeline.max_in_flight", 1000)
	v.SetDefault("pipeline.read_buffer_bytes", 1024)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}
