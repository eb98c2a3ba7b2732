package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/CTAG07/qsa/pkg/profile"
	"github.com/natefinch/atomic"
)

// GenerationConfig holds the defaults used when analyzing and generating.
type GenerationConfig struct {
	DefaultInput  string `json:"default_input"`
	OutputSuffix  string `json:"output_suffix"`
	Strategy      string `json:"strategy"`
	AutoThreshold int    `json:"auto_threshold"`
	Workers       int    `json:"workers"`
	MaxAttempts   int    `json:"max_attempts"`
}

// ServerConfig holds the configuration for the HTTP API.
type ServerConfig struct {
	ApiAddr     string `json:"api_addr"`
	MaxGenerate int    `json:"max_generate"`
	MaxBodySize int64  `json:"max_body_size"`
}

// Config is the top-level configuration struct that aggregates all other configs.
type Config struct {
	LogLevel     string            `json:"log_level"`
	DatabasePath string            `json:"database_path"`
	Generation   *GenerationConfig `json:"generation_config"`
	Server       *ServerConfig     `json:"server_config"`
}

// DefaultConfig creates a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel:     "info",
		DatabasePath: "./qsa.db",
		Generation: &GenerationConfig{
			DefaultInput:  "keys.txt",
			OutputSuffix:  ".gen",
			Strategy:      "auto",
			AutoThreshold: profile.DefaultAutoThreshold,
			Workers:       0, // runtime.NumCPU()
			MaxAttempts:   0,
		},
		Server: &ServerConfig{
			ApiAddr:     "127.0.0.1:7280",
			MaxGenerate: 100000,
			MaxBodySize: 64 << 20,
		},
	}
}

// LoadConfig reads the configuration from a JSON file at the given path.
// If the file doesn't exist, it creates one with default values.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			var data []byte
			data, err = json.MarshalIndent(config, "", "  ")
			if err != nil {
				return nil, fmt.Errorf("failed to marshal default config: %w", err)
			}
			if err = atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
				// Defaults are still usable without the file.
				fmt.Fprintf(os.Stderr, "warning: failed to write default config file: %v\n", err)
			}
			return config, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err = json.Unmarshal(file, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	// A file that omits a whole section leaves it nil.
	if config.Generation == nil {
		config.Generation = DefaultConfig().Generation
	}
	if config.Server == nil {
		config.Server = DefaultConfig().Server
	}
	if _, err = profile.ParseStrategy(config.Generation.Strategy); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return config, nil
}

// parseLogLevel maps the configured level name onto a slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// generateOptions translates the configuration into profile options.
func (c *GenerationConfig) generateOptions() []profile.GenerateOption {
	opts := []profile.GenerateOption{
		profile.WithAutoThreshold(c.AutoThreshold),
		profile.WithMaxAttempts(c.MaxAttempts),
	}
	if c.Workers > 0 {
		opts = append(opts, profile.WithWorkers(c.Workers))
	}
	return opts
}
