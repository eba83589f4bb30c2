// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(...) to build a Config with defaults.
// - Load(ctx) layers defaults, an optional YAML file, and env vars.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"github.com/okian/glade/internal/domain/decay"
	"github.com/okian/glade/internal/domain/glicko"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// DBPath points at the SQLite database file. Empty selects the
	// in-memory store.
	DBPath string `koanf:"db_path"`

	// CORSOrigin is echoed in Access-Control-Allow-Origin.
	CORSOrigin string `koanf:"cors_origin"`

	// Tau bounds how fast volatility can change per update.
	Tau float64 `koanf:"tau"`

	// VolatilityTolerance is the convergence threshold of the
	// volatility solver.
	VolatilityTolerance float64 `koanf:"volatility_tolerance"`

	// VolatilityMaxIterations caps the volatility solver loop.
	VolatilityMaxIterations int `koanf:"volatility_max_iterations"`

	// DecayPerRound is how fast deviation grows per round of inactivity.
	DecayPerRound float64 `koanf:"decay_per_round"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:                "info",
		Addr:                    ":8080",
		DBPath:                  "",
		CORSOrigin:              "*",
		Tau:                     glicko.DefaultTau,
		VolatilityTolerance:     glicko.DefaultTolerance,
		VolatilityMaxIterations: glicko.DefaultMaxIterations,
		DecayPerRound:           decay.DefaultRate,
	}
}

// GlickoParameters assembles the solver constants from the config.
func (c *Config) GlickoParameters() glicko.Parameters {
	return glicko.Parameters{
		Tau:           c.Tau,
		Tolerance:     c.VolatilityTolerance,
		MaxIterations: c.VolatilityMaxIterations,
	}
}
