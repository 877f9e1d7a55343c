package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "COUNCILTRACK_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "portal.base_url", typ: kString, env: "COUNCILTRACK_PORTAL_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Portal.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Portal.BaseURL },
	},
	{
		key: "storage.data_dir", typ: kString, env: "COUNCILTRACK_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "pipeline.parallelism", typ: kInt, env: "COUNCILTRACK_PIPELINE_PARALLELISM",
		apply:   func(cfg *Config, v any) { cfg.Pipeline.Parallelism = v.(int) },
		extract: func(cfg Config) any { return cfg.Pipeline.Parallelism },
	},
	{
		key: "summarize.api_key", typ: kString, env: "COUNCILTRACK_SUMMARIZE_API_KEY",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Summarize.APIKey = v.(string) },
		extract: func(cfg Config) any { return cfg.Summarize.APIKey },
	},
	{
		key: "summarize.model", typ: kString, env: "COUNCILTRACK_SUMMARIZE_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Summarize.Model = v.(string) },
		extract: func(cfg Config) any { return cfg.Summarize.Model },
	},
	{
		key: "log.level", typ: kString, env: "COUNCILTRACK_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
