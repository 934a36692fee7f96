// Package config loads server configuration from an optional YAML file.
// Flags passed to the command override file values; everything has a
// default, so the server runs with no config at all.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// Addr is the listen address for the HTTP/websocket server.
	Addr string `yaml:"addr"`

	// StorePath is where the JSON state snapshot lives. Empty means
	// in-memory only: state does not survive a restart.
	StorePath string `yaml:"store_path"`

	// LogLevel is a zerolog level name (debug, info, warn, error).
	LogLevel string `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Addr:      ":8080",
		StorePath: "data/state.json",
		LogLevel:  "info",
	}
}

// Load reads the config file at path. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
