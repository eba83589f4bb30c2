package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if GLADE_CONFIG is set
//  3. env (prefix GLADE_)
func Load(ctx context.Context) (*Config, error) {
	_ = ctx // reserved for future remote providers

	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("GLADE_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: GLADE_ADDR, GLADE_DB_PATH, ...
	// Map env keys like GLADE_DB_PATH -> db_path (flat keys).
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("GLADE_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "glade_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.Tau <= 0:
		return fmt.Errorf("%w: tau must be positive", ErrInvalidConfig)
	case c.VolatilityTolerance <= 0:
		return fmt.Errorf("%w: volatility_tolerance must be positive", ErrInvalidConfig)
	case c.VolatilityMaxIterations <= 0:
		return fmt.Errorf("%w: volatility_max_iterations must be positive", ErrInvalidConfig)
	case c.DecayPerRound <= 0:
		return fmt.Errorf("%w: decay_per_round must be positive", ErrInvalidConfig)
	}
	return nil
}
