// Package config loads counciltrack configuration from a JSON config file
// with environment variable overrides.
package config

import (
	"os"
	"path/filepath"
)

type Config struct {
	Server    ServerConfig
	Portal    PortalConfig
	Storage   StorageConfig
	Pipeline  PipelineConfig
	Summarize SummarizeConfig
	Log       LogConfig
}

type ServerConfig struct {
	Port int
}

type PortalConfig struct {
	BaseURL string
}

type StorageConfig struct {
	DataDir string
}

type PipelineConfig struct {
	Parallelism int
}

type SummarizeConfig struct {
	// APIKey authorizes the summarization backend. Optional: triage and
	// aggregation work without it. Settable only via environment variable.
	APIKey string
	Model  string
}

type LogConfig struct {
	Level string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4600,
		},
		Portal: PortalConfig{
			BaseURL: "https://lacity.primegov.com",
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Pipeline: PipelineConfig{
			Parallelism: 4,
		},
		Summarize: SummarizeConfig{
			Model: "claude-haiku-4-5-20251001",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

func defaultDataDir() string {
	dir := os.Getenv("XDG_DATA_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".local", "share")
		} else {
			return "counciltrack-data"
		}
	}
	return filepath.Join(dir, "counciltrack")
}

// Load reads configuration from the JSON config file at
// $XDG_CONFIG_HOME/counciltrack/config.json, then applies COUNCILTRACK_*
// environment variable overrides.
func Load() (Config, error) {
	return loadWith(newFileBackend(configFilePath()))
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	return cfg, nil
}
